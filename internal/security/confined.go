// Package security confines file access to a single directory.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/illarion/locknote/internal/ident"
)

var (
	ErrPathEscapes  = errors.New("path escapes directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
)

// Dir performs file operations that cannot leave its root, even through
// symlinks, using os.Root.
type Dir struct {
	root *os.Root
	path string
}

// Open opens dir, creating it when missing.
func Open(dir string) (*Dir, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory root: %w", err)
	}
	return &Dir{root: root, path: absPath}, nil
}

// Close releases the root handle.
func (d *Dir) Close() error {
	if d.root != nil {
		return d.root.Close()
	}
	return nil
}

// Path is the absolute directory path.
func (d *Dir) Path() string {
	return d.path
}

// Clean validates a relative name and returns it with forward slashes.
// Empty, absolute and escaping names are rejected.
func Clean(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyPath
	}
	platformPath := filepath.FromSlash(name)
	if !filepath.IsLocal(platformPath) {
		if filepath.IsAbs(platformPath) || strings.HasPrefix(name, "/") {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, name)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}
	return filepath.ToSlash(filepath.Clean(platformPath)), nil
}

func (d *Dir) resolve(name string) (string, error) {
	clean, err := Clean(name)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return filepath.FromSlash(clean), nil
}

// WriteFile replaces name atomically: data goes to a temporary sibling
// which is then renamed over the target. Parent directories are created.
func (d *Dir) WriteFile(name string, data []byte, perm os.FileMode) error {
	p, err := d.resolve(name)
	if err != nil {
		return err
	}
	if parent := filepath.Dir(p); parent != "." {
		if err := d.root.MkdirAll(parent, 0700); err != nil {
			return fmt.Errorf("failed to create %s: %w", parent, err)
		}
	}

	tmp := p + ".tmp-" + ident.NewID()
	if err := d.root.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := d.root.Rename(tmp, p); err != nil {
		d.root.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// ReadFile reads name.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	p, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	return d.root.ReadFile(p)
}

// Stat stats name.
func (d *Dir) Stat(name string) (os.FileInfo, error) {
	p, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	return d.root.Stat(p)
}

// Remove deletes name. A missing file is not an error.
func (d *Dir) Remove(name string) error {
	p, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := d.root.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the names of regular files in sub with the given suffix,
// sorted. A missing sub directory yields nothing.
func (d *Dir) List(sub, suffix string) ([]string, error) {
	p := "."
	if sub != "" && sub != "." {
		var err error
		if p, err = d.resolve(sub); err != nil {
			return nil, err
		}
	}

	f, err := d.root.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}
