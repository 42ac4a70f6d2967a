package filesystem

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/nwaples/rardecode/v2"
	"github.com/ulikunitz/xz"
)

// ArchiveType tags an archive family
type ArchiveType string

const (
	ArchiveZip ArchiveType = "zip"
	ArchiveRar ArchiveType = "rar"
	Archive7z  ArchiveType = "7z"
	ArchiveTar ArchiveType = "tar"
)

// ArchiveEntry is one member of an archive, normalized across formats
type ArchiveEntry struct {
	Name           string     `json:"name"`
	IsDir          bool       `json:"is_dir"`
	Size           int64      `json:"size"`
	CompressedSize int64      `json:"compressed_size"`
	DateTime       *time.Time `json:"date_time"`
}

// Backend lists the members of one archive family
type Backend interface {
	List(ctx context.Context, path string) ([]ArchiveEntry, error)
}

// BackendFunc adapts a function to Backend
type BackendFunc func(ctx context.Context, path string) ([]ArchiveEntry, error)

// List calls f
func (f BackendFunc) List(ctx context.Context, path string) ([]ArchiveEntry, error) {
	return f(ctx, path)
}

// Registry maps archive families to the backend able to read them
type Registry struct {
	backends map[ArchiveType]Backend
}

// NewRegistry registers every built-in backend except the disabled ones.
// zip and tar cannot be disabled.
func NewRegistry(disabled ...string) *Registry {
	r := &Registry{backends: map[ArchiveType]Backend{
		ArchiveZip: BackendFunc(listZip),
		ArchiveTar: BackendFunc(listTar),
		ArchiveRar: BackendFunc(listRar),
		Archive7z:  BackendFunc(list7z),
	}}
	for _, name := range disabled {
		t := ArchiveType(strings.ToLower(strings.TrimSpace(name)))
		if t == ArchiveZip || t == ArchiveTar {
			continue
		}
		delete(r.backends, t)
	}
	return r
}

// Register installs or replaces a backend
func (r *Registry) Register(t ArchiveType, b Backend) { r.backends[t] = b }

// Lookup returns the backend for t, if one is available
func (r *Registry) Lookup(t ArchiveType) (Backend, bool) {
	b, ok := r.backends[t]
	return b, ok
}

// Types returns the available families in sorted order
func (r *Registry) Types() []ArchiveType {
	out := make([]ArchiveType, 0, len(r.backends))
	for t := range r.backends {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type compression int

const (
	compressNone compression = iota
	compressGzip
	compressBzip2
	compressXz
	compressZstd
)

var suffixes = []struct {
	suffix string
	family ArchiveType
	comp   compression
}{
	{".tar.gz", ArchiveTar, compressGzip},
	{".tgz", ArchiveTar, compressGzip},
	{".tar.bz2", ArchiveTar, compressBzip2},
	{".tbz2", ArchiveTar, compressBzip2},
	{".tar.xz", ArchiveTar, compressXz},
	{".txz", ArchiveTar, compressXz},
	{".tar.zst", ArchiveTar, compressZstd},
	{".tzst", ArchiveTar, compressZstd},
	{".tar", ArchiveTar, compressNone},
	{".zip", ArchiveZip, compressNone},
	{".rar", ArchiveRar, compressNone},
	{".7z", Archive7z, compressNone},
}

// DetectArchiveType classifies a file by its name suffix only.
func DetectArchiveType(name string) (ArchiveType, bool) {
	t, _, ok := detect(name)
	return t, ok
}

func detect(name string) (ArchiveType, compression, bool) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.family, s.comp, true
		}
	}
	return "", compressNone, false
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func listZip(ctx context.Context, path string) ([]ArchiveEntry, error) {
	r, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, err
	}
	defer r.Close()

	// Inspection only reports names, so non-local members are listed as is.
	entries := make([]ArchiveEntry, 0, len(r.File))
	for _, f := range r.File {
		entries = append(entries, ArchiveEntry{
			Name:           f.Name,
			IsDir:          f.FileInfo().IsDir(),
			Size:           int64(f.UncompressedSize64),
			CompressedSize: int64(f.CompressedSize64),
			DateTime:       timePtr(f.Modified),
		})
	}
	return entries, nil
}

func listTar(ctx context.Context, path string) ([]ArchiveEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	_, comp, _ := detect(path)
	src, closeFn, err := decompressor(f, comp)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var entries []ArchiveEntry
	tr := tar.NewReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// Tar members are not compressed individually.
		entries = append(entries, ArchiveEntry{
			Name:           hdr.Name,
			IsDir:          hdr.Typeflag == tar.TypeDir,
			Size:           hdr.Size,
			CompressedSize: hdr.Size,
			DateTime:       timePtr(hdr.ModTime),
		})
	}
	return entries, nil
}

func decompressor(r io.Reader, comp compression) (io.Reader, func(), error) {
	noop := func() {}
	switch comp {
	case compressGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return gz, func() { gz.Close() }, nil
	case compressBzip2:
		return bzip2.NewReader(r), noop, nil
	case compressXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return xr, noop, nil
	case compressZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return zr, zr.Close, nil
	default:
		return r, noop, nil
	}
}

func listRar(ctx context.Context, path string) ([]ArchiveEntry, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entries []ArchiveEntry
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, ArchiveEntry{
			Name:           hdr.Name,
			IsDir:          hdr.IsDir,
			Size:           hdr.UnPackedSize,
			CompressedSize: hdr.PackedSize,
			DateTime:       timePtr(hdr.ModificationTime),
		})
	}
	return entries, nil
}

func list7z(ctx context.Context, path string) ([]ArchiveEntry, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// 7z compresses solid blocks, so there is no per-member packed size.
	entries := make([]ArchiveEntry, 0, len(r.File))
	for _, f := range r.File {
		entries = append(entries, ArchiveEntry{
			Name:     f.Name,
			IsDir:    f.FileInfo().IsDir(),
			Size:     int64(f.UncompressedSize),
			DateTime: timePtr(f.Modified),
		})
	}
	return entries, nil
}

// zipDeflater registers the klauspost compressor on a zip writer.
func zipDeflater(w *zip.Writer) {
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
}

// zipInflater registers the klauspost decompressor on a zip reader.
func zipInflater(r *zip.Reader) {
	r.RegisterDecompressor(zip.Deflate, func(in io.Reader) io.ReadCloser {
		return flate.NewReader(in)
	})
}
