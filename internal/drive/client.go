package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/workmate/internal/instrumentation"
)

// MaxDownloadBytes bounds how much of a file is read into memory.
const MaxDownloadBytes = 20 << 20

// Client wraps the Drive files service.
type Client struct {
	files   *drive.FilesService
	metrics *instrumentation.Metrics
}

// NewClient creates a Drive client. Authentication comes from opts.
// metrics may be nil.
func NewClient(ctx context.Context, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Client{files: svc.Files, metrics: metrics}, nil
}

// ListFiles lists up to n files the user owns, folders first, optionally
// filtered by name.
func (c *Client) ListFiles(ctx context.Context, filter string, n int64) ([]File, error) {
	if n <= 0 {
		n = DefaultListSize
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, instrumentation.OperationList)
	resp, err := c.files.List().
		Q(BuildListQuery(filter)).
		PageSize(n).
		Fields("nextPageToken, files(id, name, mimeType, shortcutDetails)").
		OrderBy("folder,name").
		Context(ctx).
		Do()
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]File, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, toFile(f))
	}
	return files, nil
}

// FindFiles returns the names of up to FindPageSize owned files whose
// name contains name.
func (c *Client) FindFiles(ctx context.Context, name string) ([]string, error) {
	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, instrumentation.OperationSearch)
	resp, err := c.files.List().
		Q(BuildFindQuery(name)).
		PageSize(FindPageSize).
		Fields("files(name)").
		Context(ctx).
		Do()
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}

	names := make([]string, 0, len(resp.Files))
	for _, f := range resp.Files {
		names = append(names, f.Name)
	}
	return names, nil
}

// GetFile returns the metadata of a file.
func (c *Client) GetFile(ctx context.Context, fileID string) (File, error) {
	if fileID == "" {
		return File{}, errors.New("fileID is required")
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, instrumentation.OperationGet)
	f, err := c.files.Get(fileID).
		Fields("id, name, mimeType, shortcutDetails").
		Context(ctx).
		Do()
	done(err)
	if err != nil {
		return File{}, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return toFile(f), nil
}

// ExportText exports a Google Workspace document as plain text.
func (c *Client) ExportText(ctx context.Context, fileID string) ([]byte, error) {
	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, instrumentation.OperationExport)
	resp, err := c.files.Export(fileID, TextMimeType).Context(ctx).Download()
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to export file %s: %w", fileID, err)
	}
	data, err := readAll(resp.Body)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to read export of %s: %w", fileID, err)
	}
	return data, nil
}

// Download returns the binary content of a file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, instrumentation.OperationDownload)
	resp, err := c.files.Get(fileID).Context(ctx).Download()
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	data, err := readAll(resp.Body)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}

// UploadText creates a plain-text file named name and returns its ID.
func (c *Client) UploadText(ctx context.Context, name, content string) (string, error) {
	if name == "" {
		return "", errors.New("file name is required")
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, instrumentation.OperationUpload)
	f, err := c.files.Create(&drive.File{Name: name, MimeType: TextMimeType}).
		Media(strings.NewReader(content), googleapi.ContentType(TextMimeType)).
		Fields("id").
		Context(ctx).
		Do()
	done(err)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return f.Id, nil
}

func readAll(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, MaxDownloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDownloadBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", MaxDownloadBytes)
	}
	return data, nil
}

func toFile(f *drive.File) File {
	file := File{ID: f.Id, Name: f.Name, MimeType: f.MimeType}
	if f.ShortcutDetails != nil {
		file.ShortcutTargetMimeType = f.ShortcutDetails.TargetMimeType
	}
	return file
}
