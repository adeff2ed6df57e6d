package drive

// MIME types the assistant distinguishes.
const (
	FolderMimeType    = "application/vnd.google-apps.folder"
	GoogleDocMimeType = "application/vnd.google-apps.document"
	ShortcutMimeType  = "application/vnd.google-apps.shortcut"
	PDFMimeType       = "application/pdf"
	DocxMimeType      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	JSONMimeType      = "application/json"
	TextMimeType      = "text/plain"
)

const (
	// DefaultListSize is the page size used by ListFiles when none is given.
	DefaultListSize = 30
	// FindPageSize caps the number of names FindFiles returns.
	FindPageSize = 10
)

// File is the file metadata used by the Drive tools.
type File struct {
	ID       string
	Name     string
	MimeType string

	// ShortcutTargetMimeType is set for shortcuts and names the MIME type
	// of the item the shortcut points to.
	ShortcutTargetMimeType string
}

// IsFolder reports whether f is a folder or a shortcut to one.
func (f File) IsFolder() bool {
	if f.MimeType == FolderMimeType {
		return true
	}
	return f.MimeType == ShortcutMimeType && containsFold(f.ShortcutTargetMimeType, "folder")
}
