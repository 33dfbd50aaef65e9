package cache

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/storage"
)

// ImportDir is the folder looked for on removable media.
const ImportDir = "lumibed_patterns"

var ErrNothingToImport = errors.New("no non-empty pattern files to import")

// Import replaces the pattern files under dstDir with those under srcDir.
// Nothing is removed unless srcDir holds at least one non-empty pattern
// file. It returns the number of files copied.
func Import(src storage.Volume, srcDir string, dst storage.WritableVolume, dstDir string, log zerolog.Logger) (int, error) {
	entries, err := src.List(srcDir)
	if err != nil {
		return 0, fmt.Errorf("list source %q: %w", srcDir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Dir && e.Size > 0 && IsPatternFile(e.Name) {
			files = append(files, e.Name)
		}
	}
	if len(files) == 0 {
		return 0, ErrNothingToImport
	}
	sort.Strings(files)

	old, err := dst.List(dstDir)
	if err != nil {
		return 0, fmt.Errorf("list destination %q: %w", dstDir, err)
	}
	for _, e := range old {
		if e.Dir || !strings.HasSuffix(strings.ToLower(e.Name), Ext) {
			continue
		}
		if err := dst.Remove(storage.Join(dstDir, e.Name)); err != nil {
			return 0, fmt.Errorf("remove %s: %w", e.Name, err)
		}
		log.Debug().Str("file", e.Name).Msg("removed old pattern")
	}

	copied := 0
	for _, name := range files {
		if err := copyFile(src, storage.Join(srcDir, name), dst, storage.Join(dstDir, name)); err != nil {
			return copied, err
		}
		log.Info().Str("file", name).Msg("pattern imported")
		copied++
	}
	return copied, nil
}

func copyFile(src storage.Volume, from string, dst storage.WritableVolume, to string) error {
	in, err := src.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := dst.Create(to)
	if err != nil {
		return err
	}
	buf := make([]byte, 512)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", from, err)
	}
	return out.Close()
}
