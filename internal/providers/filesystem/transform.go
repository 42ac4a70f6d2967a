package filesystem

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// ZipResult is returned by CreateZip
type ZipResult struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	ArchivePath string   `json:"archive_path"`
	Entries     int      `json:"entries"`
	Skipped     []string `json:"skipped,omitempty"`
}

// ExtractResult is returned by ExtractZip
type ExtractResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Extracted int    `json:"extracted"`
}

type zipSource struct {
	abs  string
	name string
	info os.FileInfo
}

// CreateZip archives items into outSub/name. Items that no longer exist are
// skipped and reported; files keep their base name and directories are
// stored as <base>/<path within dir>.
func (a *ArchivesOps) CreateZip(ctx context.Context, items []string, name, outSub string) (*ZipResult, error) {
	trimmed := strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(trimmed), ".zip") {
		trimmed = trimmed[:len(trimmed)-len(".zip")]
	}
	base := StrictSanitize(trimmed)
	if base == "" {
		return nil, newError(KindInvalidName, "zip", name, "Invalid archive name: '%s'.", name)
	}
	archiveName := base + ".zip"

	outDir, err := a.resolve("zip", outSub)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(outDir, archiveName)
	if !a.Resolver.Contains(target) {
		return nil, newError(KindForbidden, "zip", outSub, "Archive path is outside managed directory.")
	}

	// Every selection is validated before anything touches the disk.
	resolved := make([]string, len(items))
	for i, item := range items {
		if resolved[i], err = a.resolve("zip", item); err != nil {
			return nil, err
		}
	}

	if err := a.ensureDir("zip", outDir); err != nil {
		return nil, err
	}

	var sources []zipSource
	var skipped []string
	for i, abs := range resolved {
		info, err := os.Lstat(abs)
		if err != nil || !a.Resolver.Confined(abs) {
			skipped = append(skipped, items[i])
			continue
		}
		if info, err = os.Stat(abs); err != nil {
			skipped = append(skipped, items[i])
			continue
		}

		baseName := filepath.Base(abs)
		if !info.IsDir() {
			sources = append(sources, zipSource{abs: abs, name: baseName, info: info})
			continue
		}
		walked, err := a.collect(ctx, abs, baseName)
		if err != nil {
			return nil, ioError("zip", a.Resolver.Rel(abs), "Could not create zip archive", err)
		}
		sources = append(sources, zipSource{abs: abs, name: baseName + "/", info: info})
		sources = append(sources, walked...)
	}

	relOut := a.Resolver.Rel(outDir)
	if err := writeZip(target, sources); err != nil {
		a.log().Warn("zip creation failed", zap.String("path", joinRel(relOut, archiveName)), zap.Error(err))
		return nil, ioError("zip", joinRel(relOut, archiveName), "Could not create zip archive", err)
	}

	return &ZipResult{
		Success:     true,
		Message:     fmt.Sprintf("Archive '%s' created.", archiveName),
		ArchivePath: joinRel(relOut, archiveName),
		Entries:     len(sources),
		Skipped:     skipped,
	}, nil
}

// collect walks dir and returns its members named under prefix, sorted.
// fastwalk invokes the callback from several goroutines.
func (a *ArchivesOps) collect(ctx context.Context, dir, prefix string) ([]zipSource, error) {
	var (
		mu  sync.Mutex
		out []zipSource
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || p == dir {
			return nil
		}
		if a.excluded(d.Name()) {
			return nil
		}
		// Links are archived only when they resolve inside the managed root.
		if d.Type()&os.ModeSymlink != 0 && !a.Resolver.Confined(p) {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil
		}
		if info.IsDir() && d.Type()&os.ModeSymlink != 0 {
			// Linked directories are not descended into.
			return nil
		}

		within, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		name := prefix + "/" + filepath.ToSlash(within)
		if info.IsDir() {
			name += "/"
		}

		mu.Lock()
		out = append(out, zipSource{abs: p, name: name, info: info})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

// writeZip writes sources to a hidden sibling of target and renames it into place.
func writeZip(target string, sources []zipSource) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), tempPattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	zipDeflater(zw)
	for _, src := range sources {
		if err := addZipEntry(zw, src); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return err
	}
	committed = true
	return nil
}

func addZipEntry(zw *zip.Writer, src zipSource) error {
	hdr, err := zip.FileInfoHeader(src.info)
	if err != nil {
		return err
	}
	hdr.Name = src.name
	if src.info.IsDir() {
		hdr.Method = zip.Store
		_, err := zw.CreateHeader(hdr)
		return err
	}
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := os.Open(src.abs)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

var volumeName = regexp.MustCompile(`^[A-Za-z]:`)

// unsafeMember reports whether a zip member name would land outside the
// extraction directory once normalized.
func unsafeMember(name string) bool {
	n := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(n, "/") || volumeName.MatchString(n) {
		return true
	}
	cleaned := path.Clean(n)
	return cleaned == ".." || strings.HasPrefix(cleaned, "../")
}

// ExtractZip extracts a zip archive into destSub, or next to the archive when
// destSub is empty. Every member is checked before anything is written.
func (a *ArchivesOps) ExtractZip(ctx context.Context, archive, destSub string) (*ExtractResult, error) {
	abs, err := a.resolve("unzip", archive)
	if err != nil {
		return nil, err
	}
	rel := a.Resolver.Rel(abs)

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, newError(KindInvalidArchive, "unzip", rel, "Invalid or not a zip file.")
	}

	dest := filepath.Dir(abs)
	if destSub != "" {
		if dest, err = a.resolve("unzip", destSub); err != nil {
			return nil, err
		}
	}
	relDest := a.Resolver.Rel(dest)

	zr, err := zip.OpenReader(abs)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return nil, &Error{Kind: KindUnsafeEntry, Op: "unzip", Path: rel, Msg: "Zip file contains potentially unsafe path.", Err: err}
	}
	if err != nil {
		return nil, &Error{Kind: KindInvalidArchive, Op: "unzip", Path: rel, Msg: "Bad zip file.", Err: err}
	}
	defer zr.Close()
	zipInflater(&zr.Reader)

	targets := make([]string, len(zr.File))
	for i, f := range zr.File {
		if unsafeMember(f.Name) {
			return nil, newError(KindUnsafeEntry, "unzip", rel, "Zip file contains potentially unsafe path: %s", f.Name)
		}
		targets[i] = filepath.Join(dest, filepath.FromSlash(path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))))
		// Extraction never creates links, so checking existing links up front is enough.
		if !a.Resolver.Contains(targets[i]) || !a.Resolver.Confined(targets[i]) {
			return nil, newError(KindUnsafeEntry, "unzip", rel, "Zip file contains potentially unsafe path: %s", f.Name)
		}
	}

	if err := a.ensureDir("unzip", dest); err != nil {
		return nil, err
	}

	extracted := 0
	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, ioError("unzip", rel, "Could not unzip file", err)
		}
		if err := extractMember(f, targets[i]); err != nil {
			return nil, ioError("unzip", rel, "Could not unzip file", err)
		}
		extracted++
	}

	a.log().Debug("archive extracted", zap.String("path", rel), zap.String("dest", relDest), zap.Int("members", extracted))
	return &ExtractResult{
		Success:   true,
		Message:   fmt.Sprintf("File '%s' unzipped to '%s'.", filepath.Base(abs), relDest),
		Path:      relDest,
		Extracted: extracted,
	}, nil
}

// extractMember writes one member as a directory or a regular file.
// Link members are written as plain files holding the link target.
func extractMember(f *zip.File, target string) error {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = writeAtomic(target, rc, -1)
	return err
}
