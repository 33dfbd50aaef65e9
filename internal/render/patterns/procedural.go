// Package patterns holds the pattern variants: the time-driven procedural
// ones and the cached-file player.
package patterns

import (
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
)

// wrap returns t mod period in [0, period).
func wrap(t int64, period uint32) int64 {
	p := int64(period)
	t %= p
	if t < 0 {
		t += p
	}
	return t
}

// spread is pixel i's position along the palette.
func spread(i, n int) int64 {
	return int64(i) * 255 / int64(n)
}

func palette(p render.Params) *render.Palette {
	if p.Palette != nil {
		return p.Palette
	}
	solid := render.SolidPalette("Solid", p.Accent)
	return &solid
}

func paint(dst []pixel.RGB, pal *render.Palette, brightness uint8) {
	n := len(dst)
	for i := range dst {
		dst[i] = pal.AtBrightness(uint8(spread(i, n)), brightness)
	}
}

// StaticPattern spreads the palette across the segment; with the accent
// palette every pixel is the accent color.
type StaticPattern struct{}

func (StaticPattern) Kind() render.Kind { return render.Static }

func (StaticPattern) Render(dst []pixel.RGB, p render.Params) {
	paint(dst, palette(p), 255)
}

// RotatePattern scrolls the palette once per period.
type RotatePattern struct{}

func (RotatePattern) Kind() render.Kind { return render.Rotate }

func (RotatePattern) Render(dst []pixel.RGB, p render.Params) {
	if p.PeriodMs == 0 {
		pixel.Fill(dst, pixel.Black)
		return
	}
	pal := palette(p)
	offset := 255 - wrap(p.TimeMs, p.PeriodMs)*255/int64(p.PeriodMs)
	n := len(dst)
	for i := range dst {
		dst[i] = pal.At(uint8(spread(i, n) + offset))
	}
}

// FadePattern ramps brightness up and back down once per period.
type FadePattern struct{}

func (FadePattern) Kind() render.Kind { return render.Fade }

func (FadePattern) Render(dst []pixel.RGB, p render.Params) {
	if p.PeriodMs == 0 {
		pixel.Fill(dst, pixel.Black)
		return
	}
	paint(dst, palette(p), FadeLevel(p.TimeMs, p.PeriodMs))
}

// FadeLevel is the triangular envelope used by FadePattern.
func FadeLevel(timeMs int64, periodMs uint32) uint8 {
	f := wrap(timeMs, periodMs) * 512 / int64(periodMs)
	if f >= 256 {
		f = 511 - f
	}
	return uint8(f)
}

// BlinkPattern is on for the first half of each period.
type BlinkPattern struct{}

func (BlinkPattern) Kind() render.Kind { return render.Blink }

func (BlinkPattern) Render(dst []pixel.RGB, p render.Params) {
	if !BlinkOn(p.TimeMs, p.PeriodMs) {
		pixel.Fill(dst, pixel.Black)
		return
	}
	paint(dst, palette(p), 255)
}

func BlinkOn(timeMs int64, periodMs uint32) bool {
	if periodMs == 0 {
		return false
	}
	return wrap(timeMs, periodMs) < int64(periodMs/2)
}
