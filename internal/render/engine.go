package render

import (
	"errors"
	"time"

	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/topology"
)

// DefaultGreenScale dims the green channel, which reads brighter than red and
// blue on the strips in use.
const DefaultGreenScale = 200

type Options struct {
	GreenScale uint8
	// Limit caps the estimated current of every written frame.
	Limit Limiter
}

// Engine renders every segment of every string once per tick and hands the
// packed channel buffer to the output.
type Engine struct {
	Layout   *topology.Layout
	Zones    *topology.ZoneTable
	Catalog  *Catalog
	Palettes *PaletteSet
	Out      Output

	opts Options

	// scratch holds one string's worth of generated pixels.
	scratch []pixel.RGB
	// Frame is channels*maxPixelsPerChannel pixels, 3 bytes each, already in
	// each zone's byte order.
	Frame []byte

	// metrics (last durations in ms)
	Last struct {
		RenderMS float64
		WriteMS  float64
		TotalMS  float64
		// Scale is the limiter's last scale, 255 when not limiting.
		Scale uint8
	}
}

// NewEngine validates the layout and allocates the scratch and output
// buffers once.
func NewEngine(l *topology.Layout, zones *topology.ZoneTable, cat *Catalog, pal *PaletteSet, out Output, opts Options) (*Engine, error) {
	if l == nil || zones == nil || cat == nil {
		return nil, errors.New("engine: layout, zones and catalog are required")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if zones.Len() < l.Zones {
		return nil, errors.New("engine: zone table smaller than layout")
	}
	if pal == nil {
		pal = NewPaletteSet()
	}
	if opts.GreenScale == 0 {
		opts.GreenScale = DefaultGreenScale
	}
	return &Engine{
		Layout:   l,
		Zones:    zones,
		Catalog:  cat,
		Palettes: pal,
		Out:      out,
		opts:     opts,
		scratch:  make([]pixel.RGB, l.MaxStringPixels()),
		Frame:    make([]byte, FrameSize(l)),
	}, nil
}

// FrameSize is the byte length of the packed output buffer for l.
func FrameSize(l *topology.Layout) int {
	return l.Channels * l.MaxPixelsPerChannel * 3
}

// FrameIndex is the byte position of (channel, offset) in the output buffer,
// -1 when outside it.
func FrameIndex(l *topology.Layout, channel, offset int) int {
	if channel < 0 || channel >= l.Channels || offset < 0 || offset >= l.MaxPixelsPerChannel {
		return -1
	}
	return (channel*l.MaxPixelsPerChannel + offset) * 3
}

// Tick renders the frame for nowMs and writes it out.
func (e *Engine) Tick(nowMs int64) error {
	start := time.Now()

	for i, s := range e.Layout.Strings {
		for j, seg := range s.Segments {
			if seg.Pixels == 0 {
				continue
			}
			z := e.Zones.Zone(seg.Zone)
			if z == nil || seg.Offset+seg.Pixels > len(e.scratch) {
				continue
			}
			px := e.scratch[seg.Offset : seg.Offset+seg.Pixels]
			e.generate(px, z, seg.Zone, i, j, nowMs)
			e.post(px, z)
			e.pack(s.Channel, seg.Offset, px, z.Order)
		}
	}
	e.Last.Scale = e.opts.Limit.Apply(e.Frame)
	e.Last.RenderMS = float64(time.Since(start).Microseconds()) / 1000.0

	writeStart := time.Now()
	if e.Out != nil {
		if err := e.Out.Write(e.Frame); err != nil {
			return err
		}
	}
	e.Last.WriteMS = float64(time.Since(writeStart).Microseconds()) / 1000.0
	e.Last.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0
	return nil
}

func (e *Engine) generate(px []pixel.RGB, z *topology.Zone, zone, stringIndex, segmentIndex int, nowMs int64) {
	pixel.Fill(px, pixel.Black)
	entry, err := e.Catalog.At(z.Active)
	if err != nil || entry.Pattern == nil {
		return
	}
	entry.Pattern.Render(px, Params{
		TimeMs:   nowMs,
		PeriodMs: z.PeriodMs,
		Palette:  e.Palettes.Resolve(z.Palette, z.Accent),
		Accent:   z.Accent,
		Zone:     zone,
		String:   stringIndex,
		Segment:  segmentIndex,
	})
}

// post applies zone brightness and the green compensation.
func (e *Engine) post(px []pixel.RGB, z *topology.Zone) {
	for k := range px {
		c := px[k].NScale8(z.Brightness)
		c.G = pixel.Scale8(c.G, e.opts.GreenScale)
		px[k] = c
	}
}

func (e *Engine) pack(channel, offset int, px []pixel.RGB, order pixel.Order) {
	for k, c := range px {
		idx := FrameIndex(e.Layout, channel, offset+k)
		if idx < 0 {
			return
		}
		order.Put(e.Frame[idx:idx+3], c)
	}
}

// Blackout clears the buffer and writes it.
func (e *Engine) Blackout() error {
	for i := range e.Frame {
		e.Frame[i] = 0
	}
	if e.Out == nil {
		return nil
	}
	return e.Out.Write(e.Frame)
}
