package patterns

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/cache"
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
)

// FrameReader is the part of the store a cached pattern plays from.
type FrameReader interface {
	Frame(r *cache.Resource, timeMs int64, stringIndex, segmentIndex int, out []pixel.RGB) error
}

// CachedPattern plays one pattern file. Its timing comes from the file
// header, not the zone period.
type CachedPattern struct {
	Resource *cache.Resource
	frames   FrameReader
	log      zerolog.Logger
}

func NewCached(frames FrameReader, res *cache.Resource, log zerolog.Logger) *CachedPattern {
	return &CachedPattern{
		Resource: res,
		frames:   frames,
		log:      log.Sample(&zerolog.BasicSampler{N: 100}),
	}
}

func (c *CachedPattern) Kind() render.Kind { return render.Cached }

func (c *CachedPattern) Render(dst []pixel.RGB, p render.Params) {
	if err := c.frames.Frame(c.Resource, p.TimeMs, p.String, p.Segment, dst); err != nil {
		c.log.Warn().Err(err).Str("pattern", c.Resource.Name).Msg("cached frame read failed")
	}
}
