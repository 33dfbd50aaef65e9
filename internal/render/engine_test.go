package render

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/topology"
)

// fakePattern writes a constant color and records the last params.
type fakePattern struct {
	kind  Kind
	c     pixel.RGB
	calls int
	last  Params
}

func (f *fakePattern) Kind() Kind { return f.kind }
func (f *fakePattern) Render(dst []pixel.RGB, p Params) {
	f.calls++
	f.last = p
	for i := range dst {
		dst[i] = f.c
	}
}

// fakeDriver captures the last frame written.
type fakeDriver struct {
	last []byte
}

func (d *fakeDriver) Write(buf []byte) error {
	d.last = make([]byte, len(buf))
	copy(d.last, buf)
	return nil
}

func twoZoneLayout() *topology.Layout {
	return &topology.Layout{
		Channels:            3,
		MaxPixelsPerChannel: 4,
		Zones:               2,
		Strings: []topology.String{
			{Name: "a", Channel: 2, Segments: topology.Chain(
				topology.Segment{Pixels: 1, Zone: 0},
				topology.Segment{Pixels: 2, Zone: 1},
			)},
			{Name: "empty", Channel: 0},
		},
	}
}

func newTestEngine(t *testing.T, pats ...Pattern) (*Engine, *topology.ZoneTable, *fakeDriver) {
	cat := NewCatalog(0, zerolog.Nop())
	for i, p := range pats {
		cat.Register(string(rune('A'+i)), p)
	}
	zones := topology.NewZoneTable(topology.NewZone("z0", 255), topology.NewZone("z1", 255))
	drv := &fakeDriver{}
	e, err := NewEngine(twoZoneLayout(), zones, cat, nil, drv, Options{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e, zones, drv
}

func TestCatalogCapacity(t *testing.T) {
	cat := NewCatalog(2, zerolog.Nop())
	if !cat.Register("a", &fakePattern{}) || !cat.Register("b", &fakePattern{}) {
		t.Fatal("register under capacity failed")
	}
	if cat.Register("c", &fakePattern{}) {
		t.Fatal("third registration should be refused")
	}
	if cat.Len() != 2 {
		t.Fatalf("len = %d", cat.Len())
	}
	if _, err := cat.At(2); err == nil {
		t.Fatal("expected ErrIndexOutOfRange")
	}
	if _, err := cat.At(-1); err == nil {
		t.Fatal("expected ErrIndexOutOfRange")
	}
	if k := Classify(Entry{}); k != Unknown {
		t.Fatalf("nil pattern classified as %v", k)
	}
}

func TestCatalogCapIsBounded(t *testing.T) {
	cat := NewCatalog(1000, zerolog.Nop())
	for i := 0; i < MaxPatterns+5; i++ {
		cat.Register("p", &fakePattern{})
	}
	if cat.Len() != MaxPatterns {
		t.Fatalf("len = %d, want %d", cat.Len(), MaxPatterns)
	}
}

func TestEngineTickPacksPerZone(t *testing.T) {
	p0 := &fakePattern{kind: Static, c: pixel.RGB{R: 255, G: 255, B: 0}}
	p1 := &fakePattern{kind: Static, c: pixel.RGB{R: 10, G: 20, B: 30}}
	e, zones, drv := newTestEngine(t, p0, p1)

	zones.Zone(0).Active = 0
	zones.Zone(0).Order = pixel.RGBOrder
	zones.Zone(1).Active = 1
	zones.Zone(1).Order = pixel.BGROrder

	if err := e.Tick(1234); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(drv.last) != 3*4*3 {
		t.Fatalf("frame size %d", len(drv.last))
	}
	base := (2 * 4) * 3
	// zone 0: green scaled by 200
	if got := drv.last[base : base+3]; got[0] != 255 || got[1] != 200 || got[2] != 0 {
		t.Fatalf("zone 0 pixel = %v", got)
	}
	// zone 1: BGR, green 20 -> 15
	for k := 1; k <= 2; k++ {
		got := drv.last[base+k*3 : base+k*3+3]
		if got[0] != 30 || got[1] != 15 || got[2] != 10 {
			t.Fatalf("zone 1 pixel %d = %v", k, got)
		}
	}
	if p1.last.String != 0 || p1.last.Segment != 1 || p1.last.TimeMs != 1234 || p1.last.Preview {
		t.Fatalf("unexpected params %+v", p1.last)
	}
	for i := 0; i < base; i++ {
		if drv.last[i] != 0 {
			t.Fatalf("unused channel byte %d = %d", i, drv.last[i])
		}
	}
}

func TestEngineBrightness(t *testing.T) {
	p := &fakePattern{kind: Static, c: pixel.RGB{R: 200, G: 0, B: 100}}
	e, zones, drv := newTestEngine(t, p)
	zones.Zone(0).Order = pixel.RGBOrder
	zones.Zone(0).SetBrightness(127)

	if err := e.Tick(0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	base := (2 * 4) * 3
	if got := drv.last[base : base+3]; got[0] != 100 || got[2] != 50 {
		t.Fatalf("scaled pixel = %v", got)
	}
}

func TestEngineUnknownIndexIsBlack(t *testing.T) {
	p := &fakePattern{kind: Static, c: pixel.RGB{R: 255, G: 255, B: 255}}
	e, zones, drv := newTestEngine(t, p)
	zones.SetActiveAll(7)
	if err := e.Tick(0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	for i, b := range drv.last {
		if b != 0 {
			t.Fatalf("byte %d = %d, want black frame", i, b)
		}
	}
	if p.calls != 0 {
		t.Fatalf("pattern rendered %d times", p.calls)
	}
}

func TestEngineRejectsInvalidLayout(t *testing.T) {
	l := twoZoneLayout()
	l.Strings[0].Channel = 9
	_, err := NewEngine(l, topology.NewZoneTable(topology.NewZone("a", 1), topology.NewZone("b", 1)), NewCatalog(0, zerolog.Nop()), nil, nil, Options{})
	if err == nil {
		t.Fatal("expected layout error")
	}
}

func TestPreviewSkipsBrightnessAndShiftsTime(t *testing.T) {
	p := &fakePattern{kind: Static, c: pixel.RGB{R: 80, G: 40, B: 20}}
	cat := NewCatalog(0, zerolog.Nop())
	cat.Register("p", p)
	zones := topology.NewZoneTable(topology.NewZone("z0", 10), topology.NewZone("z1", 10))
	pv := NewPreviewer(twoZoneLayout(), zones, cat, nil, 4, 250)

	colors := pv.Colors(1000)
	if len(colors) != 2 {
		t.Fatalf("colors = %v", colors)
	}
	for _, c := range colors {
		if c != (pixel.RGB{R: 80, G: 40, B: 20}) {
			t.Fatalf("preview color %v", c)
		}
	}
	if !p.last.Preview || p.last.TimeMs != 1250 {
		t.Fatalf("last preview params %+v", p.last)
	}

	zones.Zone(1).Preview = 5
	if c := pv.Colors(0)[1]; c != pixel.Black {
		t.Fatalf("unknown preview pattern gave %v", c)
	}
}

func TestPaletteBlend(t *testing.T) {
	p := SolidPalette("s", pixel.RGB{R: 100})
	p.Stops[1] = pixel.RGB{B: 255}
	if c := p.At(0); c != (pixel.RGB{R: 100}) {
		t.Fatalf("At(0) = %v", c)
	}
	if c := p.At(16); c != (pixel.RGB{B: 255}) {
		t.Fatalf("At(16) = %v", c)
	}
	mid := p.At(8)
	if mid.R == 0 || mid.B == 0 {
		t.Fatalf("At(8) should blend, got %v", mid)
	}
	if c := p.AtBrightness(0, 0); c != pixel.Black {
		t.Fatalf("zero brightness gave %v", c)
	}
}

func TestPaletteSetResolve(t *testing.T) {
	s := NewPaletteSet()
	if s.Len() != 7 {
		t.Fatalf("len %d", s.Len())
	}
	accent := pixel.RGB{G: 9}
	if p := s.Resolve(0, accent); p.Stops[5] != accent {
		t.Fatalf("solid palette not composed with accent")
	}
	if p := s.Resolve(1, accent); p.Name != "Rainbow" {
		t.Fatalf("palette 1 = %s", p.Name)
	}
	if p := s.Resolve(99, accent); p.Name != "Solid" {
		t.Fatalf("out of range palette = %s", p.Name)
	}
}

func TestLimiterBudget(t *testing.T) {
	// 10 white pixels draw 600mA at 20mA per channel.
	frame := make([]byte, 30)
	for i := range frame {
		frame[i] = 255
	}
	l := Limiter{BudgetMA: 300}
	if got := l.EstimateMA(frame); got != 600 {
		t.Fatalf("estimate %d mA, want 600", got)
	}
	if s := l.Apply(frame); s != 127 {
		t.Fatalf("scale %d, want 127", s)
	}
	if got := l.EstimateMA(frame); got > 300 {
		t.Fatalf("after limiting %d mA, budget 300", got)
	}

	// Under budget and disabled limiters leave the frame alone.
	if s := l.Apply(frame); s != 255 || frame[0] != 127 {
		t.Fatalf("under budget: scale %d, byte %d", s, frame[0])
	}
	if s := (Limiter{}).Apply(frame); s != 255 {
		t.Fatalf("disabled limiter scaled by %d", s)
	}
}
