// Package filesystem implements sandboxed file management over one managed root.
//
// This package is organized into specialized modules:
//   - paths: Resolver, the single point of sandbox enforcement
//   - directory: Directory listing (directories first, case-insensitive)
//   - basic: Text read/write, folder creation, single and batch delete, uploads
//   - chunked: Out-of-order chunked uploads with exactly-once assembly
//   - archives, backends: Archive inspection (zip, rar, 7z, tar family)
//   - transform: Zip creation and zip-slip safe extraction
//   - operations: Rename and move
//   - metadata, search: Stat and recursive glob search
//
// All operations:
//   - Route every client path through Resolver before touching the disk
//   - Use forward-slash relative paths in inputs and results
//   - Fail with *Error, whose Kind callers map to transport statuses
//
// Example Usage:
//
//	p, err := filesystem.NewProvider(filesystem.Options{Root: "/srv/files"})
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//	listing, err := p.Directory.List(ctx, "reports")
package filesystem
