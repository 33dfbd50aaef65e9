package link

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
)

// ProtocolRevision is the only record layout this package speaks: announce
// records carry a pattern kind, control records carry color and frequency.
const ProtocolRevision = 3

const (
	// NameLen is the fixed, NUL padded width of a pattern name on the wire.
	NameLen = 16
	// MaxPatterns bounds the display's mirror of the catalog.
	MaxPatterns = 64
)

var ErrRecordSize = errors.New("link: record size mismatch")

// Announce is sent controller to display, one catalog entry per tick.
type Announce struct {
	Index  uint8
	Name   string
	Kind   render.Kind
	Colors []pixel.RGB
}

// Control is sent display to controller. Frequency is in tenths of a hertz;
// zero leaves the zone periods alone.
type Control struct {
	Selected   uint8
	Displayed  uint8
	Brightness []uint8
	Color      pixel.RGB
	Frequency  uint8
}

// PeriodMs converts Frequency to an animation period, 0 when unset.
func (c Control) PeriodMs() uint32 {
	if c.Frequency == 0 {
		return 0
	}
	return 10000 / uint32(c.Frequency)
}

// Codec lays out records for a fixed zone count.
type Codec struct {
	Zones int
}

func (c Codec) AnnounceSize() int { return 1 + NameLen + 1 + 3*c.Zones }
func (c Codec) ControlSize() int  { return 1 + 1 + c.Zones + 3 + 1 }

// EncodeAnnounce truncates long names and zero fills missing colors.
func (c Codec) EncodeAnnounce(a Announce) []byte {
	b := make([]byte, c.AnnounceSize())
	b[0] = a.Index
	copy(b[1:1+NameLen], a.Name)
	b[1+NameLen] = uint8(a.Kind)
	off := 2 + NameLen
	for i := 0; i < c.Zones && i < len(a.Colors); i++ {
		putRGB(b[off+3*i:], a.Colors[i])
	}
	return b
}

func (c Codec) DecodeAnnounce(b []byte) (Announce, error) {
	if len(b) != c.AnnounceSize() {
		return Announce{}, fmt.Errorf("announce: %d bytes, want %d: %w", len(b), c.AnnounceSize(), ErrRecordSize)
	}
	name := b[1 : 1+NameLen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	a := Announce{
		Index:  b[0],
		Name:   string(name),
		Kind:   render.Kind(b[1+NameLen]),
		Colors: make([]pixel.RGB, c.Zones),
	}
	off := 2 + NameLen
	for i := range a.Colors {
		a.Colors[i] = getRGB(b[off+3*i:])
	}
	return a, nil
}

func (c Codec) EncodeControl(m Control) []byte {
	b := make([]byte, c.ControlSize())
	b[0] = m.Selected
	b[1] = m.Displayed
	copy(b[2:2+c.Zones], m.Brightness)
	putRGB(b[2+c.Zones:], m.Color)
	b[len(b)-1] = m.Frequency
	return b
}

func (c Codec) DecodeControl(b []byte) (Control, error) {
	if len(b) != c.ControlSize() {
		return Control{}, fmt.Errorf("control: %d bytes, want %d: %w", len(b), c.ControlSize(), ErrRecordSize)
	}
	m := Control{
		Selected:   b[0],
		Displayed:  b[1],
		Brightness: make([]uint8, c.Zones),
		Color:      getRGB(b[2+c.Zones:]),
		Frequency:  b[len(b)-1],
	}
	copy(m.Brightness, b[2:2+c.Zones])
	return m, nil
}

func putRGB(b []byte, c pixel.RGB) {
	b[0], b[1], b[2] = c.R, c.G, c.B
}

func getRGB(b []byte) pixel.RGB {
	return pixel.RGB{R: b[0], G: b[1], B: b[2]}
}
