package render

import (
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/topology"
)

const (
	DefaultPreviewSamples      = 16
	DefaultPreviewPhaseShiftMs = 250
)

// Previewer computes one swatch color per zone for the display. Each zone
// renders a short run of its preview pattern, shifted in time by its index,
// and the run is averaged. Brightness is not applied.
type Previewer struct {
	Layout   *topology.Layout
	Zones    *topology.ZoneTable
	Catalog  *Catalog
	Palettes *PaletteSet

	Samples      int
	PhaseShiftMs int64

	buf []pixel.RGB
	out []pixel.RGB
}

func NewPreviewer(l *topology.Layout, zones *topology.ZoneTable, cat *Catalog, pal *PaletteSet, samples int, shiftMs int64) *Previewer {
	if samples <= 0 {
		samples = DefaultPreviewSamples
	}
	if pal == nil {
		pal = NewPaletteSet()
	}
	return &Previewer{
		Layout:       l,
		Zones:        zones,
		Catalog:      cat,
		Palettes:     pal,
		Samples:      samples,
		PhaseShiftMs: shiftMs,
		buf:          make([]pixel.RGB, samples),
		out:          make([]pixel.RGB, zones.Len()),
	}
}

// Colors returns the swatches for nowMs. The slice is reused across calls.
func (p *Previewer) Colors(nowMs int64) []pixel.RGB {
	for zi := range p.out {
		p.out[zi] = p.zoneColor(zi, nowMs)
	}
	return p.out
}

func (p *Previewer) zoneColor(zi int, nowMs int64) pixel.RGB {
	z := p.Zones.Zone(zi)
	if z == nil {
		return pixel.Black
	}
	entry, err := p.Catalog.At(z.Preview)
	if err != nil || entry.Pattern == nil {
		return pixel.Black
	}
	n := p.Samples
	si, sj, ok := p.Layout.FirstSegment(zi)
	if entry.Pattern.Kind() == Cached {
		// cached frames are addressed by segment, so stay inside one
		if !ok {
			return pixel.Black
		}
		seg, _ := p.Layout.Segment(si, sj)
		if seg.Pixels < n {
			n = seg.Pixels
		}
	}
	px := p.buf[:n]
	pixel.Fill(px, pixel.Black)
	entry.Pattern.Render(px, Params{
		TimeMs:   nowMs + int64(zi)*p.PhaseShiftMs,
		PeriodMs: z.PeriodMs,
		Palette:  p.Palettes.Resolve(z.Palette, z.Accent),
		Accent:   z.Accent,
		Zone:     zi,
		String:   si,
		Segment:  sj,
		Preview:  true,
	})
	return pixel.Average(px)
}
