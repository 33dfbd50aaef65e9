package topology

import "github.com/coreman2200/lumibed/internal/pixel"

const (
	DefaultPattern    = 0
	DefaultPalette    = 0
	DefaultPeriodMs   = 3000
	DefaultBrightness = 255
	DefaultOrder      = pixel.GRBOrder
)

var DefaultAccent = pixel.RGB{R: 255}

// Zone is a lighting area. Active is the committed pattern, Preview the one
// the display is currently showing.
type Zone struct {
	Name          string
	Active        int
	Preview       int
	Accent        pixel.RGB
	Palette       int
	PeriodMs      uint32
	MaxBrightness uint8
	Brightness    uint8
	Order         pixel.Order
}

// NewZone returns a zone with the default pattern, color, palette, period and
// ordering. Brightness starts at the default, clamped to max.
func NewZone(name string, max uint8) Zone {
	z := Zone{
		Name:          name,
		Active:        DefaultPattern,
		Preview:       DefaultPattern,
		Accent:        DefaultAccent,
		Palette:       DefaultPalette,
		PeriodMs:      DefaultPeriodMs,
		MaxBrightness: max,
		Order:         DefaultOrder,
	}
	z.SetBrightness(DefaultBrightness)
	return z
}

// SetBrightness stores v, clamped to MaxBrightness.
func (z *Zone) SetBrightness(v uint8) {
	if v > z.MaxBrightness {
		v = z.MaxBrightness
	}
	z.Brightness = v
}

// ZoneTable is the fixed set of zones shared by the render and link ticks.
// Both run on the same goroutine, so it carries no lock.
type ZoneTable struct {
	zones []Zone
}

func NewZoneTable(zones ...Zone) *ZoneTable {
	zs := make([]Zone, len(zones))
	copy(zs, zones)
	return &ZoneTable{zones: zs}
}

func (t *ZoneTable) Len() int { return len(t.zones) }

// Zone returns a pointer into the table, nil when i is out of range.
func (t *ZoneTable) Zone(i int) *Zone {
	if i < 0 || i >= len(t.zones) {
		return nil
	}
	return &t.zones[i]
}

func (t *ZoneTable) SetActiveAll(index int) {
	for i := range t.zones {
		t.zones[i].Active = index
	}
}

func (t *ZoneTable) SetPreviewAll(index int) {
	for i := range t.zones {
		t.zones[i].Preview = index
	}
}

func (t *ZoneTable) SetAccentAll(c pixel.RGB) {
	for i := range t.zones {
		t.zones[i].Accent = c
	}
}

func (t *ZoneTable) SetPeriodAll(ms uint32) {
	if ms == 0 {
		return
	}
	for i := range t.zones {
		t.zones[i].PeriodMs = ms
	}
}

// Brightness returns the current brightness of every zone.
func (t *ZoneTable) Brightness() []uint8 {
	out := make([]uint8, len(t.zones))
	for i, z := range t.zones {
		out[i] = z.Brightness
	}
	return out
}

// SetBrightness applies b[i] to zone i for as many zones as both hold.
func (t *ZoneTable) SetBrightness(b []uint8) {
	for i := 0; i < len(b) && i < len(t.zones); i++ {
		t.zones[i].SetBrightness(b[i])
	}
}
