package pixel

import (
	"fmt"
	"strings"
)

// Order is the byte order a strip expects. Values match the WS2811 driver
// constants stored in cached-pattern headers.
type Order uint8

const (
	RGBOrder Order = iota
	RBGOrder
	GRBOrder
	GBROrder
	BRGOrder
	BGROrder
)

var orderNames = [...]string{"RGB", "RBG", "GRB", "GBR", "BRG", "BGR"}

func (o Order) Valid() bool { return int(o) < len(orderNames) }

func (o Order) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
	return orderNames[o]
}

// ParseOrder accepts the three-letter names, case-insensitively.
func ParseOrder(s string) (Order, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range orderNames {
		if n == up {
			return Order(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color order %q", s)
}

func (o Order) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Order) UnmarshalText(b []byte) error {
	v, err := ParseOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Put writes c into dst[0:3] in order o. An invalid order writes black.
func (o Order) Put(dst []byte, c RGB) {
	switch o {
	case RGBOrder:
		dst[0], dst[1], dst[2] = c.R, c.G, c.B
	case RBGOrder:
		dst[0], dst[1], dst[2] = c.R, c.B, c.G
	case GRBOrder:
		dst[0], dst[1], dst[2] = c.G, c.R, c.B
	case GBROrder:
		dst[0], dst[1], dst[2] = c.G, c.B, c.R
	case BRGOrder:
		dst[0], dst[1], dst[2] = c.B, c.R, c.G
	case BGROrder:
		dst[0], dst[1], dst[2] = c.B, c.G, c.R
	default:
		dst[0], dst[1], dst[2] = 0, 0, 0
	}
}

// Get is the inverse of Put.
func (o Order) Get(src []byte) RGB {
	a, b, c := src[0], src[1], src[2]
	switch o {
	case RGBOrder:
		return RGB{R: a, G: b, B: c}
	case RBGOrder:
		return RGB{R: a, B: b, G: c}
	case GRBOrder:
		return RGB{G: a, R: b, B: c}
	case GBROrder:
		return RGB{G: a, B: b, R: c}
	case BRGOrder:
		return RGB{B: a, R: b, G: c}
	case BGROrder:
		return RGB{B: a, G: b, R: c}
	}
	return Black
}

// Pack returns the pixel as a 24-bit word, first output byte in the high
// position.
func (o Order) Pack(c RGB) uint32 {
	var b [3]byte
	o.Put(b[:], c)
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
