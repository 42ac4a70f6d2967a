package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, mutate ...func(*Options)) *Provider {
	t.Helper()

	opts := Options{
		Root: filepath.Join(t.TempDir(), "managed"),
		Upload: UploadConfig{
			TempDir:     filepath.Join(t.TempDir(), "uploads"),
			ChunkSize:   10,
			MaxFileSize: 1024,
		},
	}
	for _, m := range mutate {
		m(&opts)
	}

	p, err := NewProvider(opts)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

func mkdir(t *testing.T, root, rel string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(abs, 0o755))
	return abs
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
