package render

import "github.com/coreman2200/lumibed/internal/pixel"

// Kind is the pattern discriminant. The values are also sent to the display
// so it can pick the controls that apply.
type Kind uint8

const (
	Unknown Kind = iota
	Static
	Strobe
	Rotate
	Fade
	Blink
	Cached
)

var kindNames = [...]string{"unknown", "static", "strobe", "rotate", "fade", "blink", "cached"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[Unknown]
}

// ParseKind maps a lower-case name back to its Kind; unknown names give Unknown.
func ParseKind(s string) Kind {
	for i, n := range kindNames {
		if n == s {
			return Kind(i)
		}
	}
	return Unknown
}

// Params is the per-call context handed to a pattern.
type Params struct {
	TimeMs   int64
	PeriodMs uint32
	Palette  *Palette
	Accent   pixel.RGB

	// Zone owns the pixels being rendered. Stateful patterns keep their
	// state per zone.
	Zone    int
	String  int
	Segment int

	// Preview marks renders for the display's zone swatches rather than the
	// strips.
	Preview bool
}

// Pattern fills dst with one color per pixel.
type Pattern interface {
	Kind() Kind
	Render(dst []pixel.RGB, p Params)
}

// Output receives the packed channel buffer after every tick.
type Output interface {
	Write(frame []byte) error
}
