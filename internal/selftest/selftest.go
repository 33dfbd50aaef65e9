package selftest

import (
	"fmt"

	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
	"github.com/coreman2200/lumibed/internal/topology"
)

type Kind string

const (
	None         Kind = ""
	SegmentSweep Kind = "segments"
	RGBChannels  Kind = "rgb"
	PixelSweep   Kind = "pixels"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case SegmentSweep, RGBChannels, PixelSweep:
		return k, nil
	}
	return None, fmt.Errorf("unknown self-test %q", s)
}

// DefaultRGBCycles is how many times the RGB test steps through red, green
// and blue.
const DefaultRGBCycles = 3

type Plan struct {
	Kind   Kind
	Cycles int
}

// Runner steps a wiring test, one step per frame.
type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner {
	if plan.Cycles <= 0 {
		plan.Cycles = DefaultRGBCycles
	}
	return &Runner{plan: plan}
}

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Step clears frame and draws the next step through each zone's color order
// at the zone's brightness ceiling. It returns false once the test is done.
func (r *Runner) Step(l *topology.Layout, zones *topology.ZoneTable, frame []byte) bool {
	for i := range frame {
		frame[i] = 0
	}

	switch r.plan.Kind {
	case SegmentSweep:
		n := 0
		for _, s := range l.Strings {
			for _, seg := range s.Segments {
				if n == r.step {
					lightSegment(l, zones, frame, s.Channel, seg, pixel.RGB{R: 255, G: 255, B: 255})
					r.step++
					return true
				}
				n++
			}
		}
		return false
	case PixelSweep:
		pos := r.step
		for _, s := range l.Strings {
			for _, seg := range s.Segments {
				if pos < seg.Pixels {
					put(l, zones, frame, s.Channel, seg.Offset+pos, seg.Zone, pixel.RGB{R: 255, G: 255, B: 255})
					r.step++
					return true
				}
				pos -= seg.Pixels
			}
		}
		return false
	case RGBChannels:
		if r.step >= 3*r.plan.Cycles {
			return false
		}
		var c pixel.RGB
		switch r.step % 3 {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		}
		for _, s := range l.Strings {
			for _, seg := range s.Segments {
				lightSegment(l, zones, frame, s.Channel, seg, c)
			}
		}
	default:
		return false
	}
	r.step++
	return true
}

func lightSegment(l *topology.Layout, zones *topology.ZoneTable, frame []byte, ch int, seg topology.Segment, c pixel.RGB) {
	for k := 0; k < seg.Pixels; k++ {
		put(l, zones, frame, ch, seg.Offset+k, seg.Zone, c)
	}
}

func put(l *topology.Layout, zones *topology.ZoneTable, frame []byte, channel, offset, zone int, c pixel.RGB) {
	z := zones.Zone(zone)
	idx := render.FrameIndex(l, channel, offset)
	if z == nil || idx < 0 || idx+3 > len(frame) {
		return
	}
	z.Order.Put(frame[idx:idx+3], c.NScale8(z.MaxBrightness))
}
