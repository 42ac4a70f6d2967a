package filesystem

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ArchiveListing is the result of inspecting an archive
type ArchiveListing struct {
	Success     bool           `json:"success"`
	Contents    []ArchiveEntry `json:"contents"`
	ArchiveType ArchiveType    `json:"archive_type"`
	ArchivePath string         `json:"archive_path"`
}

// ArchivesOps handles archive inspection, creation and extraction
type ArchivesOps struct {
	*FilesystemOps
	Registry *Registry
}

// List returns the members of an archive without extracting them.
func (a *ArchivesOps) List(ctx context.Context, path string) (*ArchiveListing, error) {
	abs, err := a.resolve("archive_list", path)
	if err != nil {
		return nil, err
	}
	rel := a.Resolver.Rel(abs)

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, newError(KindNotFound, "archive_list", rel, "Archive file not found.")
	}

	family, ok := DetectArchiveType(abs)
	if !ok {
		return nil, newError(KindUnsupportedFormat, "archive_list", rel, "Unsupported archive format.")
	}
	backend, ok := a.registry().Lookup(family)
	if !ok {
		return nil, newError(KindSupportUnavailable, "archive_list", rel,
			"%s support not available.", strings.ToUpper(string(family)))
	}

	entries, err := backend.List(ctx, abs)
	if err != nil {
		a.log().Warn("archive listing failed",
			zap.String("path", rel), zap.String("type", string(family)), zap.Error(err))
		e := &Error{Kind: KindCorruptArchive, Op: "archive_list", Path: rel, Err: err}
		if family == ArchiveZip {
			e.Msg = "The specified file is not a valid ZIP archive."
		} else {
			e.Msg = "Could not read " + strings.ToUpper(string(family)) + " file: " + err.Error()
		}
		return nil, e
	}

	sortEntries(entries, func(i int) (bool, string) {
		return entries[i].IsDir, entries[i].Name
	})
	return &ArchiveListing{
		Success:     true,
		Contents:    entries,
		ArchiveType: family,
		ArchivePath: rel,
	}, nil
}

var builtinRegistry = NewRegistry()

func (a *ArchivesOps) registry() *Registry {
	if a.Registry == nil {
		return builtinRegistry
	}
	return a.Registry
}
