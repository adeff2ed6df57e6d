// Package drive provides a client for the Google Drive API scoped to the
// files the assistant works with: listing and searching files the user
// owns, reading file content and uploading plain-text files.
//
// Listing always excludes trashed files and files owned by others:
//
//	client, err := drive.NewClient(ctx, metrics, option.WithTokenSource(ts))
//	files, err := client.ListFiles(ctx, "budget", 30)
//	for _, f := range files {
//	    fmt.Println(f.Name, f.IsFolder())
//	}
package drive
