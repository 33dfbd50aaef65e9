package storage

import (
	"errors"
	"io"
	"os"
	"strings"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

// ErrNoSeek is returned when the filesystem hands back a file without Seek.
var ErrNoSeek = errors.New("file does not support seeking")

// LittleFS is a Volume on a littlefs block device: flash, an SD card
// partition, or an image file on the host.
type LittleFS struct {
	fs      *littlefs.LFS
	dev     tinyfs.BlockDevice
	mounted bool
}

// MountLittleFS mounts dev. With format set, an unmountable device is
// formatted and mounted again.
func MountLittleFS(dev tinyfs.BlockDevice, format bool) (*LittleFS, error) {
	lfs := littlefs.New(dev)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	if err := lfs.Mount(); err != nil {
		if !format {
			return nil, err
		}
		if err := lfs.Format(); err != nil {
			return nil, err
		}
		if err := lfs.Mount(); err != nil {
			return nil, err
		}
	}
	return &LittleFS{fs: lfs, dev: dev, mounted: true}, nil
}

// Close unmounts the filesystem.
func (v *LittleFS) Close() error {
	if v.mounted {
		v.mounted = false
		return v.fs.Unmount()
	}
	return nil
}

func lfsPath(name string) string {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

func (v *LittleFS) List(dir string) ([]Entry, error) {
	f, err := v.fs.Open(lfsPath(dir))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !f.IsDir() {
		return nil, ErrNotDir
	}
	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		out = append(out, Entry{Name: fi.Name(), Size: fi.Size(), Dir: fi.IsDir()})
	}
	return out, nil
}

func (v *LittleFS) Open(name string) (File, error) {
	f, err := v.fs.Open(lfsPath(name))
	if err != nil {
		return nil, err
	}
	if f.IsDir() {
		f.Close()
		return nil, ErrNotDir
	}
	rs, ok := f.(interface {
		io.Reader
		io.Seeker
	})
	if !ok {
		f.Close()
		return nil, ErrNoSeek
	}
	return lfsFile{ReadSeeker: rs, c: f}, nil
}

type lfsFile struct {
	io.ReadSeeker
	c io.Closer
}

func (f lfsFile) Close() error { return f.c.Close() }

func (v *LittleFS) Create(name string) (io.WriteCloser, error) {
	f, err := v.fs.OpenFile(lfsPath(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, err
	}
	return syncCloser{f}, nil
}

// syncCloser flushes before close where the file supports it.
type syncCloser struct {
	tinyfs.File
}

func (s syncCloser) Close() error {
	if syncer, ok := s.File.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			s.File.Close()
			return err
		}
	}
	return s.File.Close()
}

func (v *LittleFS) Remove(name string) error {
	return v.fs.Remove(lfsPath(name))
}

// Mkdir creates dir, ignoring "already exists".
func (v *LittleFS) Mkdir(dir string) error {
	if err := v.fs.Mkdir(lfsPath(dir), 0o755); err != nil && !isExist(err) {
		return err
	}
	return nil
}

// littlefs errors don't always match os.IsExist.
func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}
