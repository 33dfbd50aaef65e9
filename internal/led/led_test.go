package led

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
	"github.com/coreman2200/lumibed/internal/topology"
)

func smallLayout() *topology.Layout {
	return &topology.Layout{
		Channels:            2,
		MaxPixelsPerChannel: 3,
		Zones:               2,
		Strings: []topology.String{
			{Name: "b", Channel: 1, Segments: topology.Chain(
				topology.Segment{Pixels: 1, Zone: 0},
				topology.Segment{Pixels: 2, Zone: 1},
			)},
			{Name: "a", Channel: 0, Segments: topology.Chain(topology.Segment{Pixels: 2, Zone: 1})},
		},
	}
}

func TestNRZWritesWiredChannels(t *testing.T) {
	l := smallLayout()
	buf := bytes.Buffer{}
	d, err := NewNRZ(l, map[int]spi.PortCloser{1: spitest.NewRecordRaw(&buf)}, 2500*physic.KiloHertz, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()

	frame := make([]byte, render.FrameSize(l))
	for i := range frame {
		frame[i] = 0xFF
	}
	if err := d.Write(frame); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("nothing written to the spi port")
	}

	err = d.Write(frame[:3])
	if !errors.Is(err, ErrFrameSize) {
		t.Fatalf("short frame: got %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNRZRejectsUnknownChannel(t *testing.T) {
	buf := bytes.Buffer{}
	_, err := NewNRZ(smallLayout(), map[int]spi.PortCloser{5: spitest.NewRecordRaw(&buf)}, 0, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for channel outside layout")
	}
}

func TestScreenUnpack(t *testing.T) {
	l := smallLayout()
	zones := topology.NewZoneTable(topology.NewZone("z0", 255), topology.NewZone("z1", 255))
	zones.Zone(0).Order = pixel.RGBOrder
	zones.Zone(1).Order = pixel.GRBOrder

	frame := make([]byte, render.FrameSize(l))
	c := pixel.RGB{R: 10, G: 20, B: 30}
	zones.Zone(0).Order.Put(frame[render.FrameIndex(l, 1, 0):], c)
	zones.Zone(1).Order.Put(frame[render.FrameIndex(l, 1, 2):], c)
	zones.Zone(1).Order.Put(frame[render.FrameIndex(l, 0, 1):], c)

	s := NewScreen(l, zones)
	img := s.Unpack(frame)
	if got := img.Bounds().Dx(); got != 5 {
		t.Fatalf("width %d", got)
	}
	for _, x := range []int{0, 2, 4} {
		if got := img.NRGBAAt(x, 0); got != c.NRGBA() {
			t.Fatalf("pixel %d = %v, want %v", x, got, c.NRGBA())
		}
	}
	if got := img.NRGBAAt(1, 0); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Fatalf("pixel 1 should be dark, got %v", got)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": KindNRZ, "NRZ": KindNRZ, " screen ": KindScreen, "null": KindNull, "fake": KindFake} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("pwm"); err == nil {
		t.Fatal("expected error")
	}
}
