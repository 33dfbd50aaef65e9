package patterns

import (
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
)

// trigger remembers when a strobe last fired.
type trigger struct {
	armed bool
	last  int64
}

// fire is true on the first call, again for every call at the firing
// instant, and whenever a full period has passed since the last firing,
// which re-arms it. Times before the last firing never fire.
func (t *trigger) fire(now int64, period uint32) bool {
	if !t.armed {
		t.armed = true
		t.last = now
		return true
	}
	since := now - t.last
	switch {
	case since == 0:
		return true
	case since >= int64(period):
		t.last = now
		return true
	}
	return false
}

// StrobePattern flashes once per period. Every zone has its own trigger,
// and strip output and display swatches are kept apart so previews never
// steal a flash from the strips.
type StrobePattern struct {
	output  []trigger
	preview []trigger
}

func NewStrobe() *StrobePattern { return &StrobePattern{} }

func (s *StrobePattern) Kind() render.Kind { return render.Strobe }

// On advances the zone's trigger selected by preview and reports the flash
// state.
func (s *StrobePattern) On(zone int, timeMs int64, periodMs uint32, preview bool) bool {
	if periodMs == 0 || zone < 0 {
		return false
	}
	set := &s.output
	if preview {
		set = &s.preview
	}
	if zone >= len(*set) {
		grown := make([]trigger, zone+1)
		copy(grown, *set)
		*set = grown
	}
	return (*set)[zone].fire(timeMs, periodMs)
}

func (s *StrobePattern) Render(dst []pixel.RGB, p render.Params) {
	if !s.On(p.Zone, p.TimeMs, p.PeriodMs, p.Preview) {
		pixel.Fill(dst, pixel.Black)
		return
	}
	paint(dst, palette(p), 255)
}
