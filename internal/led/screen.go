package led

import (
	"image"
	"sync"
	"time"

	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/lumibed/internal/render"
	"github.com/coreman2200/lumibed/internal/topology"
)

// Screen prints the bed on the terminal, one cell per pixel with strings
// laid end to end. Frames are unpacked back to RGB with each zone's order.
type Screen struct {
	layout *topology.Layout
	zones  *topology.ZoneTable
	dev    *screen.Dev
	img    *image.NRGBA

	throttle time.Duration
	lastEmit time.Time
	mu       sync.Mutex
}

func NewScreen(l *topology.Layout, zones *topology.ZoneTable) *Screen {
	n := l.TotalPixels()
	return &Screen{
		layout:   l,
		zones:    zones,
		dev:      screen.New(n),
		img:      image.NewNRGBA(image.Rect(0, 0, n, 1)),
		throttle: 100 * time.Millisecond, // ~10 FPS to the terminal
	}
}

func (s *Screen) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.lastEmit.Add(s.throttle).After(now) {
		return nil
	}
	s.lastEmit = now

	s.Unpack(frame)
	return s.dev.Draw(s.dev.Bounds(), s.img, image.Point{})
}

// Unpack fills the row image from a packed frame and returns it.
func (s *Screen) Unpack(frame []byte) *image.NRGBA {
	x := 0
	for _, str := range s.layout.Strings {
		for _, seg := range str.Segments {
			z := s.zones.Zone(seg.Zone)
			for k := 0; k < seg.Pixels; k++ {
				idx := render.FrameIndex(s.layout, str.Channel, seg.Offset+k)
				if z != nil && idx >= 0 && idx+3 <= len(frame) {
					s.img.SetNRGBA(x, 0, z.Order.Get(frame[idx:idx+3]).NRGBA())
				}
				x++
			}
		}
	}
	return s.img
}

func (s *Screen) Close() error { return s.dev.Halt() }
