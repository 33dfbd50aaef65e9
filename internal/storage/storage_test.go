package storage

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"tinygo.org/x/tinyfs"
)

func newTestLittleFS(t *testing.T) *LittleFS {
	// 256 byte pages, 4096 byte blocks, 64 blocks = 256KB
	dev := tinyfs.NewMemoryDevice(256, 4096, 64)
	v, err := MountLittleFS(dev, true)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func writeFile(t *testing.T, v WritableVolume, name string, data []byte) {
	w, err := v.Create(name)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s: %v", name, err)
	}
}

func exerciseVolume(t *testing.T, v WritableVolume) {
	writeFile(t, v, "b.bin", []byte("0123456789"))
	writeFile(t, v, "a.txt", []byte("x"))

	entries, err := v.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.bin" {
		t.Fatalf("unexpected listing %v", names)
	}

	f, err := v.Open("b.bin")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "456" {
		t.Fatalf("read %q after seek, want %q", buf, "456")
	}

	if err := v.Remove("a.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	entries, _ = v.List("")
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after remove, got %d", len(entries))
	}
}

func TestDirVolume(t *testing.T) {
	exerciseVolume(t, NewDir(t.TempDir()))
}

func TestLittleFSVolume(t *testing.T) {
	exerciseVolume(t, newTestLittleFS(t))
}

func TestDirOpenRejectsDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub.bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDir(root).Open("sub.bin"); err == nil {
		t.Fatal("expected error opening a directory")
	}
}

func TestImageDeviceSizing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "card.img")
	d, err := OpenImage(p, 8)
	if err != nil {
		t.Fatalf("open image: %v", err)
	}
	defer d.Close()
	if d.Size() != 8*DefaultImageBlockSize {
		t.Fatalf("size %d", d.Size())
	}
	if err := d.EraseBlocks(1, 1); err != nil {
		t.Fatalf("erase: %v", err)
	}
	b := make([]byte, 1)
	if _, err := d.ReadAt(b, DefaultImageBlockSize); err != nil || b[0] != 0xFF {
		t.Fatalf("erased byte = %x, err %v", b[0], err)
	}
}
