// Package assets provides read-only access to the static asset tree:
// branding images, pre-rendered results and example datasets.
package assets

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

// ErrNotExist is returned when an asset or directory is missing.
var ErrNotExist = fs.ErrNotExist

// Info describes one asset store entry.
type Info struct {
	Name    string    `json:"name"` // Base name
	Path    string    `json:"path"` // Slash-separated path relative to the store root
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

// Store is the passive asset storage every other component reads from.
// Names are slash-separated and relative to the store root.
type Store interface {
	// Stat returns the entry at name or an error wrapping ErrNotExist.
	Stat(ctx context.Context, name string) (Info, error)
	// List returns the entries directly under dir sorted by name.
	List(ctx context.Context, dir string) ([]Info, error)
	// Open returns the content of the asset at name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Exists reports whether name is present. Errors other than ErrNotExist are returned.
func Exists(ctx context.Context, s Store, name string) (bool, error) {
	_, err := s.Stat(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Glob returns the entries of dir whose extension is one of exts.
// Matching is case-sensitive; the result keeps List's name order.
func Glob(ctx context.Context, s Store, dir string, exts ...string) ([]Info, error) {
	entries, err := s.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		ext := path.Ext(e.Name)
		for _, want := range exts {
			if ext == want {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// cleanName normalises a store-relative name and rejects paths escaping the root.
func cleanName(name string) (string, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return name, nil
}
