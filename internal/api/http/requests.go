package http

// ContentRequest saves text to a file
type ContentRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// PathRequest names a single item
type PathRequest struct {
	Path string `json:"path"`
}

// BatchDeleteRequest names several items to delete
type BatchDeleteRequest struct {
	Paths []string `json:"paths"`
}

// RenameRequest renames an item in place
type RenameRequest struct {
	CurrentPath string  `json:"current_path"`
	NewName     *string `json:"new_name"`
	Type        string  `json:"type"`
}

// MoveRequest moves an item into a directory
type MoveRequest struct {
	Source string  `json:"source"`
	Target *string `json:"target"`
}

// CancelUploadRequest abandons a chunked upload
type CancelUploadRequest struct {
	UploadID string `json:"uploadId"`
}

// ZipRequest archives items
type ZipRequest struct {
	Items          []string `json:"items"`
	ArchiveName    string   `json:"archive_name"`
	OutputPath     string   `json:"output_path"`
	DeleteAfterZip bool     `json:"delete_after_zip"`
}

// UnzipRequest extracts an archive
type UnzipRequest struct {
	ZipPath     string `json:"zip_path"`
	ExtractPath string `json:"extract_path"`
}

// Request limits
const (
	MaxBatchItems  = 1000
	MaxZipItems    = 1000
	MaxUploadIDLen = 128
)
