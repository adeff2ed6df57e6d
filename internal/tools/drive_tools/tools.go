package drive_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workmate/internal/drive"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/tools/common"
)

// IDSeparator separates a file name from its ID in list_files output.
const IDSeparator = " ::: "

// Tools returns the Drive tools.
func Tools(tk *common.Toolkit) []mcpserver.ServerTool {
	listFiles := mcp.NewTool("list_files",
		mcp.WithDescription("List files and folders in My Drive that the user owns, folders first. Each entry is 'name ::: id'."),
		mcp.WithString("query",
			mcp.Description("Optional name to search for"),
		),
		mcp.WithNumber("n",
			mcp.Description("Maximum number of results (default: 30)"),
		),
	)

	findFile := mcp.NewTool("find_file",
		mcp.WithDescription("Check whether a file exists. Returns the exact full names of matching files, or 'The file does not exist.'"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The keyword to search for, e.g. 'Project A'"),
		),
	)

	readFile := mcp.NewTool("read_file_content",
		mcp.WithDescription("Read the content of a file. Supports Google Docs, text, PDF and Word (.docx) files."),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The Google Drive file ID"),
		),
	)

	upload := mcp.NewTool("drive_upload",
		mcp.WithDescription("Upload a text file to Drive"),
		mcp.WithString("file_name",
			mcp.Required(),
			mcp.Description("Name of the new file"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Text content of the file"),
		),
	)

	return []mcpserver.ServerTool{
		{
			Tool: listFiles,
			Handler: common.InstrumentedToolHandlerWithService("list_files",
				instrumentation.ServiceDrive, instrumentation.OperationList, tk, handleListFiles),
		},
		{
			Tool: findFile,
			Handler: common.InstrumentedToolHandlerWithService("find_file",
				instrumentation.ServiceDrive, instrumentation.OperationSearch, tk, handleFindFile),
		},
		{
			Tool: readFile,
			Handler: common.InstrumentedToolHandlerWithService("read_file_content",
				instrumentation.ServiceDrive, instrumentation.OperationDownload, tk, handleReadFileContent),
		},
		{
			Tool: upload,
			Handler: common.InstrumentedToolHandlerWithService("drive_upload",
				instrumentation.ServiceDrive, instrumentation.OperationUpload, tk, handleUpload),
		},
	}
}

func handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireDrive(ctx)
	if errResult != nil {
		return errResult, nil
	}

	query := common.StringArg(request, "query", "")
	n := common.IntArg(request, "n", drive.DefaultListSize)

	files, err := client.ListFiles(ctx, query, int64(n))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list files: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No files found matching '%s'.", query)), nil
	}

	return mcp.NewToolResultText(formatListing(files)), nil
}

// formatListing groups files into a folders block and a files block.
// Empty blocks are omitted.
func formatListing(files []drive.File) string {
	var folders, others []string
	for _, f := range files {
		entry := f.Name + IDSeparator + f.ID
		if f.IsFolder() {
			folders = append(folders, entry)
		} else {
			others = append(others, entry)
		}
	}

	var out []string
	if len(folders) > 0 {
		out = append(out, "--- FOLDERS ---")
		out = append(out, folders...)
		out = append(out, "")
	}
	if len(others) > 0 {
		out = append(out, "--- FILES ---")
		out = append(out, others...)
	}
	return strings.Join(out, "\n")
}

func handleFindFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireDrive(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}

	names, err := client.FindFiles(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search files: %v", err)), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("The file does not exist."), nil
	}
	return mcp.NewToolResultText("Found:\n" + strings.Join(names, "\n")), nil
}

func handleUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireDrive(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("file_name")
	if err != nil || strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("file_name is required"), nil
	}
	content := request.GetString("content", "")

	id, err := client.UploadText(ctx, name, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to upload file: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Uploaded '%s' with ID: %s", name, id)), nil
}
