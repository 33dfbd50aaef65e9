package fake

import (
	"sync"

	"github.com/rs/zerolog"
)

// Driver keeps the last frame and logs a compact summary of each one
// (frame count and average byte value), useful for headless runs and tests.
type Driver struct {
	Count int
	Log   *zerolog.Logger

	mu     sync.Mutex
	last   []byte
	closed bool
}

func (d *Driver) Write(buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Count++
	if cap(d.last) < len(buf) {
		d.last = make([]byte, len(buf))
	}
	d.last = d.last[:len(buf)]
	copy(d.last, buf)

	if d.Log != nil {
		var sum, lit int
		for i := 0; i+2 < len(buf); i += 3 {
			s := int(buf[i]) + int(buf[i+1]) + int(buf[i+2])
			sum += s
			if s > 0 {
				lit++
			}
		}
		n := len(buf)
		if n == 0 {
			n = 1
		}
		d.Log.Debug().Int("frame", d.Count).Float64("avg", float64(sum)/float64(n)).Int("lit", lit).Msg("frame")
	}
	return nil
}

// Last returns a copy of the most recent frame.
func (d *Driver) Last() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, len(d.last))
	copy(out, d.last)
	return out
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
