package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{
			name: "no filter",
			want: "trashed = false and 'me' in owners",
		},
		{
			name:   "plain name",
			filter: "budget",
			want:   "trashed = false and 'me' in owners and name contains 'budget'",
		},
		{
			name:   "quotes stripped",
			filter: `"budget"`,
			want:   "trashed = false and 'me' in owners and name contains 'budget'",
		},
		{
			name:   "query fragment reduced to last word",
			filter: "name contains 'Reports'",
			want:   "trashed = false and 'me' in owners and name contains 'Reports'",
		},
		{
			name:   "equality fragment reduced to last word",
			filter: "name = 'Budget.pdf'",
			want:   "trashed = false and 'me' in owners and name contains 'Budget.pdf'",
		},
		{
			name:   "only quotes",
			filter: "''",
			want:   "trashed = false and 'me' in owners",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildListQuery(tt.filter))
		})
	}
}

func TestBuildFindQuery(t *testing.T) {
	assert.Equal(t,
		"trashed = false and 'me' in owners and name contains 'plan'",
		BuildFindQuery("name = 'Q3 plan'"))
	assert.Equal(t,
		"trashed = false and 'me' in owners and name contains 'Q3 plan'",
		BuildFindQuery("'Q3 plan'"))
	assert.Equal(t,
		"trashed = false and 'me' in owners and name contains 'notes'",
		BuildFindQuery("notes"))
}

func TestFile_IsFolder(t *testing.T) {
	assert.True(t, File{MimeType: FolderMimeType}.IsFolder())
	assert.True(t, File{MimeType: ShortcutMimeType, ShortcutTargetMimeType: FolderMimeType}.IsFolder())
	assert.False(t, File{MimeType: ShortcutMimeType, ShortcutTargetMimeType: PDFMimeType}.IsFolder())
	assert.False(t, File{MimeType: PDFMimeType}.IsFolder())
}
