package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// DefaultExclude hides the engine's own in-flight temporary files.
var DefaultExclude = []string{tempPattern}

// DirectoryOps handles directory listing
type DirectoryOps struct {
	*FilesystemOps
}

// List returns the immediate children of sub, directories first.
func (d *DirectoryOps) List(ctx context.Context, sub string) (*Listing, error) {
	abs, err := d.resolve("list", sub)
	if err != nil {
		return nil, err
	}
	rel := d.Resolver.Rel(abs)

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return nil, newError(KindNotFound, "list", rel, "Path does not exist: /%s", rel)
	}
	if err != nil {
		return nil, ioError("list", rel, "Cannot access directory", err)
	}
	if !info.IsDir() {
		return nil, newError(KindNotADirectory, "list", rel, "Path is not a directory: /%s", rel)
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		d.log().Warn("directory enumeration failed", zap.String("path", rel), zap.Error(err))
		return nil, ioError("list", rel, "Cannot access directory contents", unwrapPathError(err))
	}

	items := make([]DirectoryEntry, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		if d.excluded(name) {
			continue
		}
		entryType := TypeFile
		// Stat follows symlinks; a dangling link is reported as a file.
		if st, err := os.Stat(filepath.Join(abs, name)); err == nil && st.IsDir() {
			entryType = TypeDirectory
		}
		items = append(items, DirectoryEntry{
			Name: name,
			Type: entryType,
			Path: joinRel(rel, name),
		})
	}

	sortEntries(items, func(i int) (bool, string) {
		return items[i].Type == TypeDirectory, items[i].Name
	})
	return &Listing{Path: rel, Items: items}, nil
}

// excluded reports whether a directory entry name matches an exclusion glob.
func (ops *FilesystemOps) excluded(name string) bool {
	for _, pattern := range ops.Exclude {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// sortEntries orders a slice with directories first, then case-insensitive
// name, breaking ties by the exact name so the order is total.
func sortEntries(slice interface{}, key func(i int) (isDir bool, name string)) {
	sort.SliceStable(slice, func(i, j int) bool {
		di, ni := key(i)
		dj, nj := key(j)
		if di != dj {
			return di
		}
		li, lj := strings.ToLower(ni), strings.ToLower(nj)
		if li != lj {
			return li < lj
		}
		return ni < nj
	})
}

func unwrapPathError(err error) error {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err
	}
	return err
}
