package filesystem

import (
	"time"

	"go.uber.org/zap"
)

// Entry types reported by listings
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// DirectoryEntry is one immediate child of a listed directory
type DirectoryEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// Listing is the result of a directory listing
type Listing struct {
	Path  string           `json:"path"`
	Items []DirectoryEntry `json:"items"`
}

// FileInfo represents file metadata
type FileInfo struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	IsDir       bool      `json:"is_dir"`
	Mode        string    `json:"mode"`
	Modified    time.Time `json:"modified"`
	Extension   string    `json:"extension,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
}

// FileContent is the result of a text read
type FileContent struct {
	Content string `json:"content"`
}

// OpResult is the generic success payload
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Batch item statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BatchItem is the outcome for one path of a batch operation
type BatchItem struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BatchResult aggregates per-item outcomes
type BatchResult struct {
	Success bool        `json:"success"`
	Results []BatchItem `json:"results"`
}

// Succeeded returns the paths that were processed successfully
func (b *BatchResult) Succeeded() []string {
	var out []string
	for _, r := range b.Results {
		if r.Status == StatusSuccess {
			out = append(out, r.Path)
		}
	}
	return out
}

// Failed returns the paths that could not be processed
func (b *BatchResult) Failed() []string {
	var out []string
	for _, r := range b.Results {
		if r.Status == StatusError {
			out = append(out, r.Path)
		}
	}
	return out
}

// UploadResult is returned by single-request uploads
type UploadResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// FilesystemOps provides the state shared by every operation group
type FilesystemOps struct {
	Resolver *Resolver
	Exclude  []string
	Logger   *zap.Logger
}

func (ops *FilesystemOps) log() *zap.Logger {
	if ops.Logger == nil {
		return zap.NewNop()
	}
	return ops.Logger
}

// resolve is Resolver.Resolve with the operation name attached. The result
// must also stay inside the root once symlinks are followed.
func (ops *FilesystemOps) resolve(op, rel string) (string, error) {
	abs, err := ops.Resolver.Resolve(rel)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Op = op
		}
		return "", err
	}
	if !ops.Resolver.Confined(abs) {
		return "", newError(KindForbidden, op, rel, "Access denied: Path '%s' resolves outside managed directory.", rel)
	}
	return abs, nil
}
