// Package cache reads pre-rendered animations ("cached patterns") from block
// storage. A file is a 9-byte little-endian header followed by
// steps*pixels RGB records; a frame is played back by seeking to the
// segment's slice of the current step.
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/coreman2200/lumibed/internal/pixel"
)

const (
	Magic      uint16 = 0xCAFE
	HeaderSize        = 9
	PixelSize         = 3
)

var (
	ErrShortHeader = errors.New("short pattern header")
	ErrBadMagic    = errors.New("bad pattern magic")
	ErrBadOrdering = errors.New("bad pattern color ordering")
	ErrPayloadSize = errors.New("pattern payload size mismatch")
)

type Header struct {
	Magic     uint16
	Order     pixel.Order
	NumPixels uint16
	Steps     uint16
	PeriodS   uint16
}

func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(b[0:2], h.Magic)
	b[2] = byte(h.Order)
	binary.LittleEndian.PutUint16(b[3:5], h.NumPixels)
	binary.LittleEndian.PutUint16(b[5:7], h.Steps)
	binary.LittleEndian.PutUint16(b[7:9], h.PeriodS)
	return b, nil
}

// UnmarshalBinary decodes and validates magic and ordering.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}
	h.Magic = binary.LittleEndian.Uint16(b[0:2])
	h.Order = pixel.Order(b[2])
	h.NumPixels = binary.LittleEndian.Uint16(b[3:5])
	h.Steps = binary.LittleEndian.Uint16(b[5:7])
	h.PeriodS = binary.LittleEndian.Uint16(b[7:9])
	if h.Magic != Magic {
		return fmt.Errorf("%w: %#04x", ErrBadMagic, h.Magic)
	}
	if !h.Order.Valid() {
		return fmt.Errorf("%w: %d", ErrBadOrdering, h.Order)
	}
	return nil
}

// Playable is false when steps or period is zero; such files cannot be
// stepped through.
func (h Header) Playable() bool { return h.Steps > 0 && h.PeriodS > 0 }

func (h Header) PeriodMs() int64 { return int64(h.PeriodS) * 1000 }

func (h Header) FrameBytes() int64 { return int64(h.NumPixels) * PixelSize }

func (h Header) PayloadSize() int64 { return int64(h.Steps) * h.FrameBytes() }

// Step is floor(t*steps/period) mod steps. Unplayable headers give 0.
func (h Header) Step(timeMs int64) int {
	if !h.Playable() {
		return 0
	}
	period := h.PeriodMs()
	t := timeMs % period
	if t < 0 {
		t += period
	}
	return int(t * int64(h.Steps) / period)
}
