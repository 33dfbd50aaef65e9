package patterns

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/cache"
	"github.com/coreman2200/lumibed/internal/render"
)

// DefaultProcedural is the order procedural patterns follow the cached ones.
var DefaultProcedural = []render.Kind{render.Static, render.Strobe, render.Rotate, render.Fade, render.Blink}

// New returns a fresh procedural pattern, nil for Cached and Unknown.
func New(k render.Kind) render.Pattern {
	switch k {
	case render.Static:
		return StaticPattern{}
	case render.Strobe:
		return NewStrobe()
	case render.Rotate:
		return RotatePattern{}
	case render.Fade:
		return FadePattern{}
	case render.Blink:
		return BlinkPattern{}
	}
	return nil
}

// Title is the catalog name of a procedural kind.
func Title(k render.Kind) string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// RegisterCached adds every playable store resource in store order and
// returns how many were added.
func RegisterCached(cat *render.Catalog, store *cache.Store, log zerolog.Logger) int {
	n := 0
	for _, r := range store.Resources() {
		if !r.Header.Playable() {
			log.Warn().Str("path", r.Path).Msg("skipping cached pattern with zero steps or period")
			continue
		}
		if !cat.Register(r.Name, NewCached(store, r, log)) {
			break
		}
		n++
	}
	return n
}

// RegisterProcedural adds one entry per kind, skipping kinds that are not
// procedural.
func RegisterProcedural(cat *render.Catalog, kinds []render.Kind, log zerolog.Logger) int {
	n := 0
	for _, k := range kinds {
		p := New(k)
		if p == nil {
			log.Warn().Str("kind", k.String()).Msg("not a procedural pattern")
			continue
		}
		if !cat.Register(Title(k), p) {
			break
		}
		n++
	}
	return n
}
