// Package security provides input validators for tool operations.
//
// Tools execute arguments chosen by a language model, so every path and
// URL crossing the tool boundary is treated as hostile: paths are confined
// to explicit roots (CWE-22) and outbound URLs are screened against
// internal networks and metadata services (SSRF).
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathDenied is returned when a path resolves outside the allowed roots
// or into a denied subtree.
var ErrPathDenied = errors.New("path outside allowed directories")

// Path confines filesystem access to a set of root directories.
//
// A zero deny list means only the root check applies. Denied entries are
// paths relative to a root (e.g. "prompts") whose whole subtree is
// rejected even though it sits under an allowed root.
type Path struct {
	roots  []string // absolute, cleaned
	denied []string // absolute, cleaned
}

// NewPath creates a path validator. roots lists allowed directories
// (relative entries resolve against the working directory; an empty list
// allows only the working directory). denied lists subtrees to reject.
func NewPath(roots, denied []string) (*Path, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}

	abs := func(items []string) ([]string, error) {
		out := make([]string, 0, len(items))
		for _, it := range items {
			a, err := filepath.Abs(it)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", it, err)
			}
			out = append(out, filepath.Clean(a))
		}
		return out, nil
	}

	absRoots, err := abs(roots)
	if err != nil {
		return nil, err
	}
	absDenied, err := abs(denied)
	if err != nil {
		return nil, err
	}

	return &Path{roots: absRoots, denied: absDenied}, nil
}

// Validate cleans and resolves path, then checks it against the roots and
// deny list. Symlinks are resolved so a link cannot escape a root; paths
// that do not exist yet are accepted as long as the lexical path is safe,
// which allows tools to create new files.
//
// Returns the safe absolute path.
func (p *Path) Validate(path string) (string, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if err := p.check(absPath); err != nil {
		return "", err
	}

	real, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", fmt.Errorf("resolving symlinks: %w", err)
	}
	if real != absPath {
		if err := p.check(real); err != nil {
			return "", fmt.Errorf("symlink target: %w", err)
		}
		absPath = real
	}

	return absPath, nil
}

// check applies the root and deny rules to an absolute, cleaned path.
func (p *Path) check(abs string) error {
	for _, d := range p.denied {
		if within(abs, d) {
			return fmt.Errorf("%w: %s is denied", ErrPathDenied, abs)
		}
	}
	for _, r := range p.roots {
		if within(abs, r) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPathDenied, abs)
}

// within reports whether abs equals dir or lies underneath it.
func within(abs, dir string) bool {
	if abs == dir {
		return true
	}
	return strings.HasPrefix(abs, dir+string(filepath.Separator))
}
