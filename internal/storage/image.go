package storage

import (
	"fmt"
	"os"
)

const (
	DefaultImageBlockSize = 4096
	DefaultImagePageSize  = 256
)

// ImageDevice is a littlefs block device backed by a host file, for working
// with card images off-target.
type ImageDevice struct {
	f         *os.File
	size      int64
	blockSize int64
	pageSize  int64
}

// OpenImage opens (or creates and sizes) an image of blocks*blockSize bytes.
// An existing image keeps its size; blocks is only used on creation.
func OpenImage(path string, blocks int64) (*ImageDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := st.Size()
	if size == 0 {
		if blocks <= 0 {
			f.Close()
			return nil, fmt.Errorf("image %s is empty and no size was given", path)
		}
		size = blocks * DefaultImageBlockSize
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, err
		}
	}
	if size%DefaultImageBlockSize != 0 {
		f.Close()
		return nil, fmt.Errorf("image %s: size %d is not a multiple of %d", path, size, DefaultImageBlockSize)
	}
	return &ImageDevice{f: f, size: size, blockSize: DefaultImageBlockSize, pageSize: DefaultImagePageSize}, nil
}

func (d *ImageDevice) ReadAt(buf []byte, off int64) (int, error)  { return d.f.ReadAt(buf, off) }
func (d *ImageDevice) WriteAt(buf []byte, off int64) (int, error) { return d.f.WriteAt(buf, off) }
func (d *ImageDevice) Size() int64                                { return d.size }
func (d *ImageDevice) WriteBlockSize() int64                      { return d.pageSize }
func (d *ImageDevice) EraseBlockSize() int64                      { return d.blockSize }

// EraseBlocks fills the range with 0xFF, like erased flash.
func (d *ImageDevice) EraseBlocks(start, n int64) error {
	blank := make([]byte, d.blockSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	for b := start; b < start+n; b++ {
		if _, err := d.f.WriteAt(blank, b*d.blockSize); err != nil {
			return err
		}
	}
	return nil
}

func (d *ImageDevice) Sync() error  { return d.f.Sync() }
func (d *ImageDevice) Close() error { return d.f.Close() }
