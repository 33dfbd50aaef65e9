package render

import (
	"fmt"

	"github.com/coreman2200/lumibed/internal/pixel"
)

// Palette is a 16-stop gradient sampled with an 8-bit index. Stop k covers
// indices [16k, 16k+15]; the low nibble blends toward the next stop, wrapping
// from the last stop to the first.
type Palette struct {
	Name  string
	Stops [16]pixel.RGB
}

// At samples the palette at index.
func (p *Palette) At(index uint8) pixel.RGB {
	return p.AtBrightness(index, 255)
}

// AtBrightness samples the palette and scales the result by brightness.
func (p *Palette) AtBrightness(index, brightness uint8) pixel.RGB {
	hi := index >> 4
	lo := index & 0x0F
	c := p.Stops[hi]
	if next := p.Stops[(hi+1)&0x0F]; lo != 0 && next != c {
		f2 := lo << 4
		f1 := 255 - f2
		c = pixel.RGB{
			R: pixel.Scale8(c.R, f1) + pixel.Scale8(next.R, f2),
			G: pixel.Scale8(c.G, f1) + pixel.Scale8(next.G, f2),
			B: pixel.Scale8(c.B, f1) + pixel.Scale8(next.B, f2),
		}
	}
	if brightness != 255 {
		c = c.NScale8(brightness)
	}
	return c
}

// SolidPalette fills every stop with c.
func SolidPalette(name string, c pixel.RGB) Palette {
	p := Palette{Name: name}
	for i := range p.Stops {
		p.Stops[i] = c
	}
	return p
}

// PaletteFromHex builds a palette from exactly 16 "#rrggbb" strings.
func PaletteFromHex(name string, stops []string) (Palette, error) {
	p := Palette{Name: name}
	if len(stops) != len(p.Stops) {
		return p, fmt.Errorf("palette %q: %d stops, want %d", name, len(stops), len(p.Stops))
	}
	for i, s := range stops {
		c, err := pixel.Hex(s)
		if err != nil {
			return p, fmt.Errorf("palette %q stop %d: %w", name, i, err)
		}
		p.Stops[i] = c
	}
	return p, nil
}

func hexStops(v ...uint32) [16]pixel.RGB {
	var s [16]pixel.RGB
	for i := range s {
		s[i] = pixel.FromUint32(v[i])
	}
	return s
}

// Built-in palettes.
var (
	Rainbow = Palette{Name: "Rainbow", Stops: hexStops(
		0xFF0000, 0xD52A00, 0xAB5500, 0xAB7F00, 0xABAB00, 0x56D500, 0x00FF00, 0x00D52A,
		0x00AB55, 0x0056AA, 0x0000FF, 0x2A00D5, 0x5500AB, 0x7F0081, 0xAB0055, 0xD5002B)}
	Lava = Palette{Name: "Lava", Stops: hexStops(
		0x000000, 0x800000, 0x000000, 0x800000, 0x8B0000, 0x8B0000, 0x800000, 0x8B0000,
		0x8B0000, 0x8B0000, 0xFF0000, 0xFFA500, 0xFFFFFF, 0xFFA500, 0xFF0000, 0x8B0000)}
	Ocean = Palette{Name: "Ocean", Stops: hexStops(
		0x191970, 0x00008B, 0x191970, 0x000080, 0x00008B, 0x0000CD, 0x2E8B57, 0x008080,
		0x5F9EA0, 0x0000FF, 0x008B8B, 0x6495ED, 0x7FFFD4, 0x2E8B57, 0x00FFFF, 0x87CEFA)}
	Forest = Palette{Name: "Forest", Stops: hexStops(
		0x006400, 0x006400, 0x556B2F, 0x006400, 0x008000, 0x228B22, 0x6B8E23, 0x008000,
		0x2E8B57, 0x66CDAA, 0x32CD32, 0x9ACD32, 0x90EE90, 0x7CFC00, 0x66CDAA, 0x228B22)}
	Party = Palette{Name: "Party", Stops: hexStops(
		0x5500AB, 0x84007C, 0xB5004B, 0xE5001B, 0xE81700, 0xB84700, 0xAB7700, 0xABAB00,
		0xAB5500, 0xDD2200, 0xF2000E, 0xC2003E, 0x8F0071, 0x5F00A1, 0x2F00D0, 0x0007F9)}
	Heat = Palette{Name: "Heat", Stops: hexStops(
		0x000000, 0x330000, 0x660000, 0x990000, 0xCC0000, 0xFF0000, 0xFF3300, 0xFF6600,
		0xFF9900, 0xFFCC00, 0xFFFF00, 0xFFFF33, 0xFFFF66, 0xFFFF99, 0xFFFFCC, 0xFFFFFF)}
)

// PaletteSet resolves a zone's palette index. Index 0 is the zone's own
// accent color spread over every stop; the rest are fixed gradients.
type PaletteSet struct {
	fixed []Palette
	solid Palette
}

func NewPaletteSet(extra ...Palette) *PaletteSet {
	fixed := []Palette{Rainbow, Lava, Ocean, Forest, Party, Heat}
	fixed = append(fixed, extra...)
	return &PaletteSet{fixed: fixed, solid: Palette{Name: "Solid"}}
}

// Len counts the accent palette too.
func (s *PaletteSet) Len() int { return len(s.fixed) + 1 }

func (s *PaletteSet) Names() []string {
	out := []string{s.solid.Name}
	for _, p := range s.fixed {
		out = append(out, p.Name)
	}
	return out
}

// Resolve returns the palette for index composed with accent. The returned
// pointer is valid until the next call. Out of range indices fall back to
// the accent palette.
func (s *PaletteSet) Resolve(index int, accent pixel.RGB) *Palette {
	if index >= 1 && index <= len(s.fixed) {
		return &s.fixed[index-1]
	}
	for i := range s.solid.Stops {
		s.solid.Stops[i] = accent
	}
	return &s.solid
}
