package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/coreman2200/lumibed/internal/pixel"
)

// Encode writes a header and payload. The header's magic is filled in; a
// payload that does not match steps*pixels*3 is refused.
func Encode(w io.Writer, h Header, payload []byte) error {
	h.Magic = Magic
	if !h.Order.Valid() {
		return fmt.Errorf("%w: %d", ErrBadOrdering, h.Order)
	}
	if int64(len(payload)) != h.PayloadSize() {
		return fmt.Errorf("%w: %d bytes for %d steps of %d pixels", ErrPayloadSize, len(payload), h.Steps, h.NumPixels)
	}
	hb, _ := h.MarshalBinary()
	if _, err := w.Write(hb); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// EncodeFrames writes frames (one slice of pixels per step) with pixels
// stored in order. Every frame must have the same length.
func EncodeFrames(w io.Writer, order pixel.Order, periodS uint16, frames [][]pixel.RGB) error {
	if len(frames) == 0 {
		return errors.New("no frames")
	}
	n := len(frames[0])
	if n > math.MaxUint16 || len(frames) > math.MaxUint16 {
		return fmt.Errorf("%d frames of %d pixels exceed the header range", len(frames), n)
	}
	payload := make([]byte, 0, len(frames)*n*PixelSize)
	var px [PixelSize]byte
	for i, f := range frames {
		if len(f) != n {
			return fmt.Errorf("frame %d has %d pixels, want %d", i, len(f), n)
		}
		for _, c := range f {
			order.Put(px[:], c)
			payload = append(payload, px[:]...)
		}
	}
	bw := bufio.NewWriter(w)
	h := Header{Order: order, NumPixels: uint16(n), Steps: uint16(len(frames)), PeriodS: periodS}
	if err := Encode(bw, h, payload); err != nil {
		return err
	}
	return bw.Flush()
}

// Verify reads a header from r and checks it against the total file size.
func Verify(r io.Reader, size int64) (Header, error) {
	var hb [HeaderSize]byte
	var h Header
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return h, fmt.Errorf("%w: %v", ErrShortHeader, err)
	}
	if err := h.UnmarshalBinary(hb[:]); err != nil {
		return h, err
	}
	if got := size - HeaderSize; got != h.PayloadSize() {
		return h, fmt.Errorf("%w: %d bytes, header says %d", ErrPayloadSize, got, h.PayloadSize())
	}
	return h, nil
}
