package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// RenameResult is returned by Rename
type RenameResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	NewPath string `json:"new_path"`
	NewName string `json:"new_name"`
}

// MoveResult is returned by Move
type MoveResult struct {
	Success bool   `json:"success"`
	NewPath string `json:"new_path"`
}

// OperationsOps handles rename and move
type OperationsOps struct {
	*FilesystemOps
}

// Rename gives an item a new name inside its current directory.
func (o *OperationsOps) Rename(ctx context.Context, current, newName string) (*RenameResult, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, newError(KindInvalidName, "rename", current, "New name cannot be empty.")
	}
	name := PermissiveSanitize(newName)
	if !validName(name) {
		return nil, newError(KindInvalidName, "rename", current, "Invalid new name after sanitization: '%s'.", newName)
	}

	src, err := o.resolve("rename", current)
	if err != nil {
		return nil, err
	}
	rel := o.Resolver.Rel(src)
	if src == o.Resolver.Root() {
		return nil, newError(KindForbidden, "rename", rel, "Cannot rename the managed directory itself.")
	}
	if _, err := os.Lstat(src); err != nil {
		return nil, newError(KindNotFound, "rename", rel, "Item to rename not found: '%s'", current)
	}

	dst := filepath.Join(filepath.Dir(src), name)
	if !o.Resolver.Contains(dst) || filepath.Dir(dst) != filepath.Dir(src) {
		return nil, newError(KindInvalidName, "rename", rel, "Rename results in an invalid path.")
	}
	if dst == src {
		return &RenameResult{Success: true, Message: fmt.Sprintf("Item renamed to '%s'.", name), NewPath: rel, NewName: name}, nil
	}
	if existing, err := os.Lstat(dst); err == nil {
		// Case-only renames on case-insensitive filesystems see the source itself.
		srcInfo, serr := os.Lstat(src)
		if serr != nil || !os.SameFile(existing, srcInfo) {
			return nil, newError(KindAlreadyExists, "rename", rel,
				"An item named '%s' already exists in this location.", name)
		}
	}

	if err := os.Rename(src, dst); err != nil {
		return nil, ioError("rename", rel, "Could not rename item", unwrapLinkError(err))
	}

	newRel := o.Resolver.Rel(dst)
	o.log().Debug("item renamed", zap.String("from", rel), zap.String("to", newRel))
	return &RenameResult{
		Success: true,
		Message: fmt.Sprintf("Item renamed to '%s'.", name),
		NewPath: newRel,
		NewName: name,
	}, nil
}

// Move places source inside the existing directory targetDir.
func (o *OperationsOps) Move(ctx context.Context, source, targetDir string) (*MoveResult, error) {
	src, err := o.resolve("move", source)
	if err != nil {
		return nil, err
	}
	dir, err := o.resolve("move", targetDir)
	if err != nil {
		return nil, err
	}
	rel := o.Resolver.Rel(src)
	if src == o.Resolver.Root() {
		return nil, newError(KindForbidden, "move", rel, "Cannot move the managed directory itself.")
	}

	srcInfo, err := os.Lstat(src)
	if err != nil {
		return nil, newError(KindNotFound, "move", rel, "Source item not found")
	}
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return nil, newError(KindNotFound, "move", o.Resolver.Rel(dir), "Target directory not found")
	}
	if !dirInfo.IsDir() {
		return nil, newError(KindNotADirectory, "move", o.Resolver.Rel(dir), "Target is not a directory")
	}

	name := filepath.Base(src)
	dst := filepath.Join(dir, name)
	if dst == src {
		return nil, newError(KindAlreadyExists, "move", rel, "Item '%s' already exists in target directory", name)
	}
	if srcInfo.IsDir() && (dir == src || strings.HasPrefix(dir, withSep(src))) {
		return nil, newError(KindIOFailure, "move", rel, "Cannot move a folder into itself.")
	}
	if _, err := os.Lstat(dst); err == nil {
		return nil, newError(KindAlreadyExists, "move", rel, "Item '%s' already exists in target directory", name)
	}

	if err := os.Rename(src, dst); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return nil, ioError("move", rel, "Could not move item", unwrapLinkError(err))
		}
		// Different filesystems under one root: copy then remove.
		if err := copyTree(ctx, src, dst); err != nil {
			os.RemoveAll(dst)
			return nil, ioError("move", rel, "Could not move item", err)
		}
		if err := os.RemoveAll(src); err != nil {
			return nil, ioError("move", rel, "Could not remove moved item", unwrapPathError(err))
		}
	}

	newRel := o.Resolver.Rel(dst)
	o.log().Debug("item moved", zap.String("from", rel), zap.String("to", newRel))
	return &MoveResult{Success: true, NewPath: newRel}, nil
}

func unwrapLinkError(err error) error {
	if le, ok := err.(*os.LinkError); ok {
		return le.Err
	}
	return err
}

// copyTree copies a file or directory tree, recreating links as links.
func copyTree(ctx context.Context, src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyEntry(src, dst, info)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}

	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if p == src {
			return nil
		}
		within, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, within)

		info, err := os.Lstat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Parents may be created concurrently by sibling callbacks.
			return os.MkdirAll(target, info.Mode().Perm())
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyEntry(p, target, info)
	})
}

func copyEntry(src, dst string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(link, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
