// Package drive_tools provides the Google Drive tools: listing files,
// checking whether a file exists, reading file content and uploading text.
//
// list_files reports every entry as "name ::: id" so the model can pass the
// ID to read_file_content without showing it to the user.
package drive_tools
