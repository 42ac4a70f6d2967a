package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MetadataOps handles file metadata lookups
type MetadataOps struct {
	*FilesystemOps
}

// Stat describes a file or directory inside the managed root.
func (m *MetadataOps) Stat(ctx context.Context, path string) (*FileInfo, error) {
	abs, err := m.resolve("stat", path)
	if err != nil {
		return nil, err
	}
	rel := m.Resolver.Rel(abs)

	st, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return nil, newError(KindNotFound, "stat", rel, "Item not found.")
	}
	if err != nil {
		return nil, ioError("stat", rel, "Could not stat item", unwrapPathError(err))
	}

	info := newFileInfo(rel, st)
	if st.Mode().IsRegular() {
		if mt, err := mimetype.DetectFile(abs); err == nil {
			info.ContentType = mt.String()
		}
	}
	return info, nil
}

// IsFile reports whether path names a regular file.
func (m *MetadataOps) IsFile(ctx context.Context, path string) (bool, error) {
	info, err := m.Stat(ctx, path)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir, nil
}

func newFileInfo(rel string, st os.FileInfo) *FileInfo {
	info := &FileInfo{
		Name:     st.Name(),
		Path:     rel,
		Size:     st.Size(),
		IsDir:    st.IsDir(),
		Mode:     st.Mode().String(),
		Modified: st.ModTime(),
	}
	if rel == "" {
		info.Name = ""
	}
	if !st.IsDir() {
		info.Extension = strings.TrimPrefix(filepath.Ext(st.Name()), ".")
	}
	return info
}

// detectContentType sniffs the head of f and rewinds it.
func detectContentType(f *os.File) string {
	mt, err := mimetype.DetectReader(f)
	if _, serr := f.Seek(0, io.SeekStart); serr != nil || err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}

// formatSize formats bytes to human-readable size
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}
