package filesystem

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resolver maps client-supplied relative paths onto the managed root.
// It is the only place the sandbox boundary is enforced.
type Resolver struct {
	root   string
	prefix string
	real   string
}

// NewResolver resolves root to an absolute path once and creates it if absent.
func NewResolver(root string) (*Resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("managed directory is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve managed directory %s: %w", root, err)
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create managed directory %s: %w", abs, err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat managed directory %s: %w", abs, err)
	case !info.IsDir():
		return nil, fmt.Errorf("managed path %s is not a directory", abs)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("evaluate managed directory %s: %w", abs, err)
	}

	return &Resolver{root: abs, prefix: withSep(abs), real: real}, nil
}

func withSep(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}

// Root returns the absolute managed root.
func (r *Resolver) Root() string { return r.root }

// Resolve converts rel into an absolute path inside the managed root.
func (r *Resolver) Resolve(rel string) (string, error) {
	cleaned := filepath.FromSlash(rel)
	cleaned = strings.TrimPrefix(cleaned, string(filepath.Separator))
	cleaned = filepath.Clean(cleaned)
	if cleaned == "." || cleaned == "" {
		return r.root, nil
	}

	abs := filepath.Clean(filepath.Join(r.root, cleaned))
	if !r.Contains(abs) {
		return "", newError(KindForbidden, "resolve", rel,
			"Access denied: Path '%s' attempts to escape managed directory.", rel)
	}
	return abs, nil
}

// Contains reports whether abs is the root or lies beneath it.
// The comparison is by path segment, so /data/mgr2 is not inside /data/mgr.
func (r *Resolver) Contains(abs string) bool {
	abs = filepath.Clean(abs)
	return abs == r.root || strings.HasPrefix(abs, r.prefix)
}

// Confined reports whether abs stays inside the root once symlinks are
// followed. Missing trailing components are ignored, so a path about to be
// created can be checked through its deepest existing ancestor.
func (r *Resolver) Confined(abs string) bool {
	if !r.Contains(abs) {
		return false
	}
	p := filepath.Clean(abs)
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			return real == r.real || strings.HasPrefix(real, withSep(r.real))
		}
		if !os.IsNotExist(err) {
			return false
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}

// Rel returns the forward-slash path of abs relative to the root.
// The root itself maps to "".
func (r *Resolver) Rel(abs string) string {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// joinRel joins forward-slash relative paths, collapsing the root to "".
func joinRel(elem ...string) string {
	p := strings.TrimPrefix(path.Join(elem...), "/")
	if p == "." {
		return ""
	}
	return p
}
