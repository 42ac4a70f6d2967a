package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 500

// SearchResult lists entries matching a glob below a directory
type SearchResult struct {
	Path      string           `json:"path"`
	Pattern   string           `json:"pattern"`
	Matches   []DirectoryEntry `json:"matches"`
	Count     int              `json:"count"`
	Truncated bool             `json:"truncated"`
}

// SearchOps handles recursive name search
type SearchOps struct {
	*FilesystemOps
}

// Find walks sub and returns entries whose path relative to sub matches the
// doublestar pattern. Patterns without a separator match the base name at
// any depth.
func (s *SearchOps) Find(ctx context.Context, sub, pattern string, limit int) (*SearchResult, error) {
	if strings.TrimSpace(pattern) == "" || !doublestar.ValidatePattern(pattern) {
		return nil, newError(KindInvalidName, "search", pattern, "Invalid search pattern: '%s'.", pattern)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	root, err := s.resolve("search", sub)
	if err != nil {
		return nil, err
	}
	rel := s.Resolver.Rel(root)
	st, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, newError(KindNotFound, "search", rel, "Path does not exist: /%s", rel)
	}
	if err != nil {
		return nil, ioError("search", rel, "Cannot access directory", unwrapPathError(err))
	}
	if !st.IsDir() {
		return nil, newError(KindNotADirectory, "search", rel, "Path is not a directory: /%s", rel)
	}

	baseOnly := !strings.Contains(pattern, "/")
	var (
		mu      sync.Mutex
		matches []DirectoryEntry
	)
	conf := fastwalk.Config{Follow: false}

	err = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || p == root {
			return nil
		}
		if s.excluded(d.Name()) {
			return nil
		}

		within, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		subject := filepath.ToSlash(within)
		if baseOnly {
			subject = d.Name()
		}
		if ok, _ := doublestar.Match(pattern, subject); !ok {
			return nil
		}

		entryType := TypeFile
		if d.IsDir() {
			entryType = TypeDirectory
		}
		mu.Lock()
		matches = append(matches, DirectoryEntry{
			Name: d.Name(),
			Type: entryType,
			Path: s.Resolver.Rel(p),
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, ioError("search", rel, "Search failed", err)
	}

	// Walk order is nondeterministic; sort by path before truncating.
	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	result := &SearchResult{Path: rel, Pattern: pattern}
	if len(matches) > limit {
		matches = matches[:limit]
		result.Truncated = true
	}
	result.Matches = matches
	result.Count = len(matches)
	return result, nil
}
