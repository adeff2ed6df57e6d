package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), nil,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return c
}

func TestListFiles(t *testing.T) {
	var query map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/files"), r.URL.Path)
		query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(drive.FileList{Files: []*drive.File{
			{Id: "f1", Name: "Reports", MimeType: FolderMimeType},
			{Id: "s1", Name: "Shared link", MimeType: ShortcutMimeType, ShortcutDetails: &drive.FileShortcutDetails{TargetMimeType: FolderMimeType}},
			{Id: "12345", Name: "Budget.pdf", MimeType: PDFMimeType},
		}})
	})

	files, err := c.ListFiles(context.Background(), "", 0)
	require.NoError(t, err)

	assert.Equal(t, "trashed = false and 'me' in owners", query["q"][0])
	assert.Equal(t, "30", query["pageSize"][0])
	assert.Equal(t, "folder,name", query["orderBy"][0])
	assert.Equal(t, "nextPageToken, files(id, name, mimeType, shortcutDetails)", query["fields"][0])

	require.Len(t, files, 3)
	assert.True(t, files[0].IsFolder())
	assert.True(t, files[1].IsFolder())
	assert.Equal(t, File{ID: "12345", Name: "Budget.pdf", MimeType: PDFMimeType}, files[2])
}

func TestFindFiles(t *testing.T) {
	var query map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(drive.FileList{Files: []*drive.File{{Name: "Budget.pdf"}, {Name: "Budget 2024.xlsx"}}})
	})

	names, err := c.FindFiles(context.Background(), "Budget")
	require.NoError(t, err)
	assert.Equal(t, []string{"Budget.pdf", "Budget 2024.xlsx"}, names)
	assert.Equal(t, "10", query["pageSize"][0])
	assert.Equal(t, "files(name)", query["fields"][0])
}

func TestGetFile_RequiresID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.GetFile(context.Background(), "")
	assert.Error(t, err)
}

func TestExportText(t *testing.T) {
	var mimeType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/files/doc1/export"), r.URL.Path)
		mimeType = r.URL.Query().Get("mimeType")
		_, _ = io.WriteString(w, "Meeting notes")
	})

	data, err := c.ExportText(context.Background(), "doc1")
	require.NoError(t, err)
	assert.Equal(t, "Meeting notes", string(data))
	assert.Equal(t, TextMimeType, mimeType)
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/files/bin1"), r.URL.Path)
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = io.WriteString(w, "raw bytes")
	})

	data, err := c.Download(context.Background(), "bin1")
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(data))
}

func TestDownload_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"File not found"}}`, http.StatusNotFound)
	})

	_, err := c.Download(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to download file missing")
}

func TestUploadText(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		body = string(raw)
		_ = json.NewEncoder(w).Encode(drive.File{Id: "up1"})
	})

	id, err := c.UploadText(context.Background(), "notes.txt", "hello drive")
	require.NoError(t, err)
	assert.Equal(t, "up1", id)
	assert.Contains(t, body, "hello drive")
	assert.Contains(t, body, `"name":"notes.txt"`)
}

func TestUploadText_RequiresName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.UploadText(context.Background(), "", "x")
	assert.Error(t, err)
}
