package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
)

// FSStore serves assets from an fs.FS, typically a local directory.
type FSStore struct {
	fsys fs.FS
	desc string
}

// NewLocal returns a store rooted at the local directory root.
func NewLocal(root string) *FSStore {
	return &FSStore{fsys: os.DirFS(root), desc: root}
}

// NewFS returns a store over an arbitrary file system (embed.FS, fstest.MapFS).
func NewFS(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys, desc: "fs"}
}

// String describes the store for logs.
func (s *FSStore) String() string {
	return s.desc
}

func (s *FSStore) Stat(_ context.Context, name string) (Info, error) {
	name, err := cleanName(name)
	if err != nil {
		return Info{}, err
	}
	fi, err := fs.Stat(s.fsys, name)
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return fileInfo(name, fi), nil
}

func (s *FSStore) List(_ context.Context, dir string) ([]Info, error) {
	dir, err := cleanName(dir)
	if err != nil {
		return nil, err
	}
	// fs.ReadDir sorts by filename.
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		out = append(out, fileInfo(path.Join(dir, e.Name()), fi))
	}
	return out, nil
}

func (s *FSStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func fileInfo(name string, fi fs.FileInfo) Info {
	return Info{
		Name:    fi.Name(),
		Path:    name,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		IsDir:   fi.IsDir(),
	}
}
