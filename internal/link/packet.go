package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Packets follow the SerialTransfer layout used by the display firmware:
//
//	[0x7E][id][overhead][len][payload...][crc8][0x81]
//
// Start bytes inside the payload are replaced by the distance to the next
// one (0 for the last) and overhead points at the first, 0xFF when there
// is none. The CRC covers the stuffed payload.
const (
	startByte  = 0x7E
	stopByte   = 0x81
	noOverhead = 0xFF

	// MaxPayload is the largest payload one packet carries.
	MaxPayload = 254

	crcPoly = 0x9B
)

var (
	ErrCRC   = errors.New("link: crc mismatch")
	ErrFrame = errors.New("link: malformed packet")
)

var crcTable = func() (t [256]uint8) {
	for i := range t {
		c := uint8(i)
		for k := 0; k < 8; k++ {
			if c&0x80 != 0 {
				c = c<<1 ^ crcPoly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}()

func crc8(b []byte) uint8 {
	var c uint8
	for _, v := range b {
		c = crcTable[c^v]
	}
	return c
}

// Packet is one decoded frame.
type Packet struct {
	ID      uint8
	Payload []byte
}

// stuff rewrites start bytes in place and returns the overhead byte.
func stuff(b []byte) uint8 {
	overhead := uint8(noOverhead)
	next := -1
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != startByte {
			continue
		}
		if next < 0 {
			b[i] = 0
		} else {
			b[i] = uint8(next - i)
		}
		next = i
		overhead = uint8(i)
	}
	return overhead
}

func unstuff(b []byte, overhead uint8) error {
	if overhead == noOverhead {
		return nil
	}
	i := int(overhead)
	for {
		if i >= len(b) {
			return fmt.Errorf("stuffing index %d past %d byte payload: %w", i, len(b), ErrFrame)
		}
		delta := b[i]
		b[i] = startByte
		if delta == 0 {
			return nil
		}
		i += int(delta)
	}
}

type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// WritePacket frames payload and writes it with a single Write call.
func (e *Encoder) WritePacket(id uint8, payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("payload of %d bytes exceeds %d: %w", len(payload), MaxPayload, ErrFrame)
	}
	buf := make([]byte, len(payload)+6)
	body := buf[4 : 4+len(payload)]
	copy(body, payload)
	buf[0] = startByte
	buf[1] = id
	buf[2] = stuff(body)
	buf[3] = uint8(len(payload))
	buf[len(buf)-2] = crc8(body)
	buf[len(buf)-1] = stopByte
	_, err := e.w.Write(buf)
	return err
}

type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder { return &Decoder{r: bufio.NewReader(r)} }

// ReadPacket skips to the next start byte and reads one packet. Corrupt
// packets return ErrCRC or ErrFrame and the decoder stays usable; other
// errors come from the underlying reader.
func (d *Decoder) ReadPacket() (Packet, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return Packet{}, err
		}
		if b == startByte {
			break
		}
	}
	var hdr [3]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return Packet{}, err
	}
	id, overhead, n := hdr[0], hdr[1], int(hdr[2])
	if n > MaxPayload {
		return Packet{}, fmt.Errorf("length %d: %w", n, ErrFrame)
	}
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return Packet{}, err
	}
	payload, sum, stop := buf[:n], buf[n], buf[n+1]
	if stop != stopByte {
		return Packet{}, fmt.Errorf("stop byte 0x%02x: %w", stop, ErrFrame)
	}
	if got := crc8(payload); got != sum {
		return Packet{}, fmt.Errorf("got 0x%02x want 0x%02x: %w", got, sum, ErrCRC)
	}
	if err := unstuff(payload, overhead); err != nil {
		return Packet{}, err
	}
	return Packet{ID: id, Payload: payload}, nil
}
