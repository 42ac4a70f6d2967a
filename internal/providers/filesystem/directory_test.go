package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(items []DirectoryEntry) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// TestListSortsDirectoriesFirst tests the listing order
func TestListSortsDirectoriesFirst(t *testing.T) {
	p := newTestProvider(t)
	root := p.Resolver.Root()
	writeFile(t, root, "b.txt", "b")
	writeFile(t, root, "a.txt", "a")
	mkdir(t, root, "A")

	listing, err := p.Directory.List(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "", listing.Path)
	assert.Equal(t, []string{"A", "a.txt", "b.txt"}, names(listing.Items))
	assert.Equal(t, TypeDirectory, listing.Items[0].Type)
	assert.Equal(t, TypeFile, listing.Items[1].Type)
}

// TestListMixedCase tests case-insensitive ordering with exact-name ties
func TestListMixedCase(t *testing.T) {
	p := newTestProvider(t)
	root := p.Resolver.Root()
	for _, n := range []string{"beta", "Alpha", "alpha2"} {
		mkdir(t, root, n)
	}
	for _, n := range []string{"Zed.md", "apple.md", "Apple.md"} {
		writeFile(t, root, n, "")
	}

	listing, err := p.Directory.List(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "alpha2", "beta", "Apple.md", "apple.md", "Zed.md"}, names(listing.Items))
}

// TestListRelativePaths tests forward-slash relative paths in nested listings
func TestListRelativePaths(t *testing.T) {
	p := newTestProvider(t)
	root := p.Resolver.Root()
	writeFile(t, root, "docs/2024/q1.txt", "x")

	listing, err := p.Directory.List(context.Background(), "docs/./2024/")
	require.NoError(t, err)

	assert.Equal(t, "docs/2024", listing.Path)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, DirectoryEntry{Name: "q1.txt", Type: TypeFile, Path: "docs/2024/q1.txt"}, listing.Items[0])
}

// TestListErrors tests missing, non-directory and escaping paths
func TestListErrors(t *testing.T) {
	p := newTestProvider(t)
	writeFile(t, p.Resolver.Root(), "file.txt", "x")
	ctx := context.Background()

	_, err := p.Directory.List(ctx, "nope")
	requireKind(t, err, KindNotFound)

	_, err = p.Directory.List(ctx, "file.txt")
	requireKind(t, err, KindNotADirectory)

	_, err = p.Directory.List(ctx, "../")
	requireKind(t, err, KindForbidden)
}

// TestListHidesTemporaryFiles tests the exclusion globs
func TestListHidesTemporaryFiles(t *testing.T) {
	p := newTestProvider(t, func(o *Options) {
		o.Exclude = []string{"*.bak"}
	})
	root := p.Resolver.Root()
	writeFile(t, root, "keep.txt", "")
	writeFile(t, root, "old.bak", "")
	writeFile(t, root, ".qfm-123.tmp", "")

	listing, err := p.Directory.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt"}, names(listing.Items))
}

// TestListEmptyExcludeKeepsDefaults tests that an empty glob list still hides temporary files
func TestListEmptyExcludeKeepsDefaults(t *testing.T) {
	p := newTestProvider(t, func(o *Options) {
		o.Exclude = []string{}
	})
	root := p.Resolver.Root()
	writeFile(t, root, "old.bak", "")
	writeFile(t, root, ".qfm-x.tmp", "")

	listing, err := p.Directory.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"old.bak"}, names(listing.Items))
	assert.Equal(t, DefaultExclude, p.Directory.Exclude)
}

// TestListFollowsSymlinks tests symlink classification
func TestListFollowsSymlinks(t *testing.T) {
	p := newTestProvider(t)
	root := p.Resolver.Root()
	target := mkdir(t, root, "real")
	require.NoError(t, os.Symlink(target, filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	listing, err := p.Directory.List(context.Background(), "")
	require.NoError(t, err)

	types := map[string]string{}
	for _, it := range listing.Items {
		types[it.Name] = it.Type
	}
	assert.Equal(t, TypeDirectory, types["linked"])
	assert.Equal(t, TypeFile, types["dangling"])
}
