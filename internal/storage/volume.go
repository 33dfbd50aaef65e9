// Package storage is the block-storage side of the pattern store: a flat
// listing/open interface over either a host directory or a littlefs image.
package storage

import (
	"errors"
	"io"
	"path"
)

var ErrNotDir = errors.New("not a directory")

// Entry is one directory listing row.
type Entry struct {
	Name string
	Size int64
	Dir  bool
}

// File is an open, seekable, read-only pattern file.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Volume lists and opens files. Paths are slash separated and relative to
// the volume root.
type Volume interface {
	List(dir string) ([]Entry, error)
	Open(name string) (File, error)
}

// WritableVolume can also create and remove files.
type WritableVolume interface {
	Volume
	Create(name string) (io.WriteCloser, error)
	Remove(name string) error
}

func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}
