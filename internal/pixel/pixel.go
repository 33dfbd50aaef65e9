// Package pixel holds the 8-bit RGB value used across the render path and the
// fixed-point scaling helpers that operate on it.
package pixel

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type RGB struct{ R, G, B uint8 }

var Black = RGB{}

// Hex parses "#rrggbb" or "rrggbb".
func Hex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", s, err)
	}
	return FromUint32(uint32(v)), nil
}

func FromUint32(v uint32) RGB {
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

func (c RGB) Uint32() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c RGB) String() string { return fmt.Sprintf("#%06x", c.Uint32()) }

func (c RGB) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255} }

// Scale8 scales i by s/256 with the +1 correction so Scale8(x, 255) == x.
func Scale8(i, s uint8) uint8 {
	return uint8((uint16(i) * (1 + uint16(s))) >> 8)
}

// NScale8 scales every channel by s.
func (c RGB) NScale8(s uint8) RGB {
	return RGB{R: Scale8(c.R, s), G: Scale8(c.G, s), B: Scale8(c.B, s)}
}

// Add saturates per channel.
func (c RGB) Add(o RGB) RGB {
	return RGB{R: qadd8(c.R, o.R), G: qadd8(c.G, o.G), B: qadd8(c.B, o.B)}
}

func qadd8(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// Fill sets every element of dst to c.
func Fill(dst []RGB, c RGB) {
	for i := range dst {
		dst[i] = c
	}
}

// Average returns the channel-wise mean of px, black for an empty slice.
func Average(px []RGB) RGB {
	if len(px) == 0 {
		return Black
	}
	var r, g, b int
	for _, p := range px {
		r += int(p.R)
		g += int(p.G)
		b += int(p.B)
	}
	n := len(px)
	return RGB{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n)}
}
