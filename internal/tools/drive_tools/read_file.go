package drive_tools

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/workmate/internal/docextract"
	"github.com/teemow/workmate/internal/drive"
	"github.com/teemow/workmate/internal/tools/common"
)

func handleReadFileContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireDrive(ctx)
	if errResult != nil {
		return errResult, nil
	}

	fileID, err := request.RequireString("file_id")
	if err != nil || strings.TrimSpace(fileID) == "" {
		return mcp.NewToolResultError("file_id is required"), nil
	}

	content, ok := readFileContent(ctx, client, strings.TrimSpace(fileID))
	if !ok {
		return mcp.NewToolResultError(content), nil
	}
	return mcp.NewToolResultText(content), nil
}

// readFileContent returns the readable text of a file. When ok is false
// the text describes the failure.
func readFileContent(ctx context.Context, files common.DriveService, fileID string) (text string, ok bool) {
	meta, err := files.GetFile(ctx, fileID)
	if err != nil {
		return readError(err), false
	}

	mimeType := meta.MimeType
	switch {
	case mimeType == drive.GoogleDocMimeType:
		data, err := files.ExportText(ctx, fileID)
		if err != nil {
			return readError(err), false
		}
		return toText(data), true

	case mimeType == drive.PDFMimeType:
		data, err := files.Download(ctx, fileID)
		if err != nil {
			return readError(err), false
		}
		content, err := docextract.PDFText(data)
		if err != nil {
			return fmt.Sprintf("Error parsing PDF: %v", err), false
		}
		return fmt.Sprintf("--- Content of %s (PDF) ---\n%s", meta.Name, content), true

	case mimeType == drive.DocxMimeType:
		data, err := files.Download(ctx, fileID)
		if err != nil {
			return readError(err), false
		}
		content, err := docextract.DocxText(data)
		if err != nil {
			return fmt.Sprintf("Error parsing Word Doc: %v", err), false
		}
		return fmt.Sprintf("--- Content of %s (Word) ---\n%s", meta.Name, content), true

	case strings.HasPrefix(mimeType, "text/") || mimeType == drive.JSONMimeType:
		data, err := files.Download(ctx, fileID)
		if err != nil {
			return readError(err), false
		}
		return toText(data), true

	default:
		return fmt.Sprintf("Error: Unsupported file type (%s). I can only read Google Docs, PDFs, Word, and Text files.", mimeType), false
	}
}

func readError(err error) string {
	return fmt.Sprintf("Error reading file: %v", err)
}

// toText decodes data as UTF-8, replacing invalid sequences.
func toText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
