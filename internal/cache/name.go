package cache

import (
	"path"
	"strings"
	"unicode"
)

const Ext = ".bin"

// IsPatternFile reports whether a directory entry name is a pattern file:
// a .bin suffix in any case, not hidden, and a non-blank stem.
func IsPatternFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if len(name) < len(Ext) || !strings.EqualFold(name[len(name)-len(Ext):], Ext) {
		return false
	}
	return strings.TrimSpace(name[:len(name)-len(Ext)]) != ""
}

// DisplayName derives the catalog name from a file path:
// "blue_light_rays.BIN" becomes "Blue Light Rays".
func DisplayName(p string) string {
	name := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(strings.ReplaceAll(name, "_", " "))

	out := []rune(name)
	for i := range out {
		if i == 0 || out[i-1] == ' ' {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}
