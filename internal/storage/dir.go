package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dir is a Volume rooted at a host directory, e.g. a mounted SD card.
type Dir struct {
	Root string
}

func NewDir(root string) *Dir { return &Dir{Root: root} }

func (d *Dir) path(name string) string {
	return filepath.Join(d.Root, filepath.FromSlash(name))
}

func (d *Dir) List(dir string) ([]Entry, error) {
	des, err := os.ReadDir(d.path(dir))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		e := Entry{Name: de.Name(), Dir: de.IsDir()}
		if info, err := de.Info(); err == nil {
			e.Size = info.Size()
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *Dir) Open(name string) (File, error) {
	f, err := os.Open(d.path(name))
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", name, ErrNotDir)
	}
	return f, nil
}

func (d *Dir) Create(name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(d.path(name)), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(d.path(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

func (d *Dir) Remove(name string) error {
	return os.Remove(d.path(name))
}
