package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
)

// tempPattern names hidden sibling files used for atomic replacement.
const tempPattern = ".qfm-*.tmp"

// BasicOps handles whole-file content, folder creation and deletion
type BasicOps struct {
	*FilesystemOps
}

// ReadText returns the UTF-8 content of a regular file.
func (b *BasicOps) ReadText(ctx context.Context, path string) (*FileContent, error) {
	abs, err := b.resolve("read", path)
	if err != nil {
		return nil, err
	}
	rel := b.Resolver.Rel(abs)

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, newError(KindNotFound, "read", rel, "File not found.")
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, ioError("read", rel, "Could not read file", unwrapPathError(err))
	}
	if !utf8.Valid(data) {
		return nil, decodeFailure(rel, data)
	}
	return &FileContent{Content: string(data)}, nil
}

// decodeFailure describes why content is not previewable as text.
func decodeFailure(rel string, data []byte) *Error {
	kind := mimetype.Detect(data).String()
	charset := "unknown"
	if res, err := chardet.NewTextDetector().DetectBest(data); err == nil && res != nil {
		charset = res.Charset
	}
	return newError(KindDecodeFailure, "read", rel,
		"Could not read file: content is not valid UTF-8 (detected %s, charset %s).", kind, charset)
}

// WriteText replaces a file's content, creating parent directories.
// Readers observe either the old or the new content, never a partial write.
func (b *BasicOps) WriteText(ctx context.Context, path, content string) (*OpResult, error) {
	abs, err := b.resolve("write", path)
	if err != nil {
		return nil, err
	}
	rel := b.Resolver.Rel(abs)
	if abs == b.Resolver.Root() {
		return nil, newError(KindIOFailure, "write", rel, "Could not save file: path is a directory.")
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, newError(KindIOFailure, "write", rel, "Could not save file: path is a directory.")
	}
	if err := b.ensureDir("write", filepath.Dir(abs)); err != nil {
		return nil, err
	}
	if _, err := writeAtomic(abs, strings.NewReader(content), -1); err != nil {
		return nil, ioError("write", rel, "Could not save file", err)
	}
	return &OpResult{Success: true, Message: "File saved."}, nil
}

// CreateFolder creates a directory (and any missing parents).
func (b *BasicOps) CreateFolder(ctx context.Context, path string) (*OpResult, error) {
	abs, err := b.resolve("create_folder", path)
	if err != nil {
		return nil, err
	}
	rel := b.Resolver.Rel(abs)

	if _, err := os.Lstat(abs); err == nil {
		return nil, newError(KindAlreadyExists, "create_folder", rel, "Folder or file already exists.")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, ioError("create_folder", rel, "Could not create folder", unwrapPathError(err))
	}
	return &OpResult{Success: true, Message: "Folder created."}, nil
}

// Delete removes a file, or a directory and everything beneath it.
func (b *BasicOps) Delete(ctx context.Context, path string) (*OpResult, error) {
	abs, err := b.resolve("delete", path)
	if err != nil {
		return nil, err
	}
	rel := b.Resolver.Rel(abs)
	if abs == b.Resolver.Root() {
		return nil, newError(KindForbidden, "delete", rel, "Cannot delete the managed directory itself.")
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return nil, newError(KindNotFound, "delete", rel, "Item not found.")
	}
	if info.IsDir() {
		err = os.RemoveAll(abs)
	} else {
		err = os.Remove(abs)
	}
	if err != nil {
		return nil, ioError("delete", rel, "Could not delete item", unwrapPathError(err))
	}

	b.log().Debug("item deleted", zap.String("path", rel), zap.Bool("dir", info.IsDir()))
	return &OpResult{Success: true, Message: "Item deleted."}, nil
}

// BatchDelete deletes every path independently and reports each outcome.
func (b *BasicOps) BatchDelete(ctx context.Context, paths []string) *BatchResult {
	result := &BatchResult{Success: true, Results: make([]BatchItem, 0, len(paths))}
	for _, p := range paths {
		res, err := b.Delete(ctx, p)
		if err != nil {
			result.Success = false
			result.Results = append(result.Results, BatchItem{Path: p, Status: StatusError, Message: batchMessage(err)})
			continue
		}
		result.Results = append(result.Results, BatchItem{Path: p, Status: StatusSuccess, Message: res.Message})
	}
	return result
}

func batchMessage(err error) string {
	if errors.Is(err, ErrForbidden) || errors.Is(err, fs.ErrPermission) {
		return "Permission denied."
	}
	return err.Error()
}

// SaveUpload stores a single-request upload under sub. Oversized bodies
// are rejected when maxSize is positive.
func (b *BasicOps) SaveUpload(ctx context.Context, sub, filename string, r io.Reader, maxSize int64) (*UploadResult, error) {
	name := StrictSanitize(filename)
	if name == "" {
		return nil, newError(KindInvalidName, "upload", filename, "Invalid filename.")
	}

	dir, err := b.resolve("upload", sub)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(dir, name)
	if !b.Resolver.Contains(target) {
		return nil, newError(KindForbidden, "upload", sub, "Upload path is outside managed directory.")
	}
	if err := b.ensureDir("upload", dir); err != nil {
		return nil, err
	}

	relDir := b.Resolver.Rel(dir)
	if _, err := writeAtomic(target, r, maxSize); err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, newError(KindSizeExceeded, "upload", relDir,
				"File exceeds maximum allowed size of %s.", formatSize(maxSize))
		}
		return nil, ioError("upload", relDir, "Could not save uploaded file", err)
	}

	return &UploadResult{
		Success:  true,
		Message:  fmt.Sprintf("File '%s' uploaded to '%s'.", name, relDir),
		Filename: name,
		Path:     joinRel(relDir, name),
	}, nil
}

// OpenFile opens a regular file for download. The caller closes it.
func (b *BasicOps) OpenFile(ctx context.Context, path string) (*os.File, *FileInfo, error) {
	abs, err := b.resolve("download", path)
	if err != nil {
		return nil, nil, err
	}
	rel := b.Resolver.Rel(abs)

	st, err := os.Stat(abs)
	if err != nil || !st.Mode().IsRegular() {
		return nil, nil, newError(KindNotFound, "download", rel, "File not found.")
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, nil, ioError("download", rel, "Could not open file", unwrapPathError(err))
	}

	info := newFileInfo(rel, st)
	info.ContentType = detectContentType(f)
	return f, info, nil
}

// ensureDir creates dir and its parents inside the managed root.
func (ops *FilesystemOps) ensureDir(op, dir string) error {
	if !ops.Resolver.Contains(dir) {
		return newError(KindForbidden, op, dir, "Access denied: directory is outside managed directory.")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioError(op, ops.Resolver.Rel(dir), "Could not create directory", unwrapPathError(err))
	}
	return nil
}

var errTooLarge = errors.New("content exceeds size limit")

// writeAtomic streams r into a hidden sibling of target and renames it into
// place. A non-negative limit caps the number of bytes accepted.
func writeAtomic(target string, r io.Reader, limit int64) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), tempPattern)
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(tmp, src)
	if err != nil {
		return n, err
	}
	if limit > 0 && n > limit {
		return n, errTooLarge
	}
	if err := tmp.Sync(); err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return n, err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return n, err
	}
	committed = true
	return n, nil
}
