package cache

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/tinyfs"

	"github.com/coreman2200/lumibed/internal/diagnostics"
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/storage"
	"github.com/coreman2200/lumibed/internal/topology"
)

func oneSegmentLayout(n int) *topology.Layout {
	return &topology.Layout{
		Channels:            1,
		MaxPixelsPerChannel: n,
		Zones:               1,
		Strings: []topology.String{
			{Name: "s0", Channel: 0, Segments: topology.Chain(topology.Segment{Name: "seg0", Pixels: n})},
		},
	}
}

// ramp returns steps frames of n pixels whose red channel counts up from 0.
func ramp(steps, n int) [][]pixel.RGB {
	frames := make([][]pixel.RGB, steps)
	v := 0
	for s := range frames {
		frames[s] = make([]pixel.RGB, n)
		for i := range frames[s] {
			frames[s][i] = pixel.RGB{R: uint8(v), G: 100, B: 200}
			v++
		}
	}
	return frames
}

func writePattern(t *testing.T, v storage.WritableVolume, name string, order pixel.Order, periodS uint16, frames [][]pixel.RGB) {
	t.Helper()
	w, err := v.Create(name)
	require.NoError(t, err)
	require.NoError(t, EncodeFrames(w, order, periodS, frames))
	require.NoError(t, w.Close())
}

func writeRaw(t *testing.T, v storage.WritableVolume, name string, data []byte) {
	t.Helper()
	w, err := v.Create(name)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Magic: Magic, Order: pixel.GRBOrder, NumPixels: 464, Steps: 120, PeriodS: 6}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xCA, 2, 0xD0, 0x01, 120, 0, 6, 0}, b)

	var got Header
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, h, got)
}

func TestHeaderRejects(t *testing.T) {
	var h Header
	assert.ErrorIs(t, h.UnmarshalBinary([]byte{0xFE, 0xCA}), ErrShortHeader)
	assert.ErrorIs(t, h.UnmarshalBinary([]byte{0xEF, 0xBE, 0, 0, 0, 0, 0, 0, 0}), ErrBadMagic)
	assert.ErrorIs(t, h.UnmarshalBinary([]byte{0xFE, 0xCA, 9, 0, 0, 0, 0, 0, 0}), ErrBadOrdering)
}

func TestHeaderStep(t *testing.T) {
	h := Header{Steps: 2, PeriodS: 1}
	assert.Equal(t, 0, h.Step(0))
	assert.Equal(t, 0, h.Step(499))
	assert.Equal(t, 1, h.Step(500))
	assert.Equal(t, 0, h.Step(1000))
	assert.Equal(t, 1, h.Step(-1))
	assert.Equal(t, 0, Header{}.Step(1234))
}

var nameCases = []struct {
	File   string
	Expect string
}{
	{"fire.bin", "Fire"},
	{"blue_light_rays.BIN", "Blue Light Rays"},
	{"abstract_gradient.bin", "Abstract Gradient"},
	{"SPACE_WARP.bin", "Space Warp"},
	{"/patterns/color_roll.bin", "Color Roll"},
	{"a__b.bin", "A  B"},
}

func TestDisplayName(t *testing.T) {
	for _, c := range nameCases {
		t.Run(c.File, func(t *testing.T) {
			got := DisplayName(c.File)
			assert.Equal(t, c.Expect, got)
			assert.Equal(t, got, DisplayName(got+Ext), "derivation should be idempotent")
		})
	}
}

func TestIsPatternFile(t *testing.T) {
	assert.True(t, IsPatternFile("fire.bin"))
	assert.True(t, IsPatternFile("blue_light_rays.BIN"))
	assert.False(t, IsPatternFile(".fire.bin"))
	assert.False(t, IsPatternFile("  .bin"))
	assert.False(t, IsPatternFile(".bin"))
	assert.False(t, IsPatternFile("fire.bin.txt"))
	assert.False(t, IsPatternFile("bin"))
}

func TestScanOrderAndRejects(t *testing.T) {
	root := t.TempDir()
	vol := storage.NewDir(root)
	writePattern(t, vol, "fire.bin", pixel.RGBOrder, 1, ramp(1, 4))
	writePattern(t, vol, "abstract_gradient.bin", pixel.RGBOrder, 1, ramp(2, 4))
	writePattern(t, vol, ".hidden.bin", pixel.RGBOrder, 1, ramp(1, 4))
	writeRaw(t, vol, "broken.bin", []byte{0xEF, 0xBE, 0, 4, 0, 1, 0, 1, 0})
	writeRaw(t, vol, "notes.txt", []byte("hello"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir.bin"), 0o755))

	s := NewStore(vol, oneSegmentLayout(4), 0, zerolog.Nop())
	defer s.Close()
	n, err := s.Scan("")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	res := s.Resources()
	assert.Equal(t, "Abstract Gradient", res[0].Name)
	assert.Equal(t, "Fire", res[1].Name)
	assert.True(t, diagnostics.Has(s.Diagnostics(), "pattern.rejected"))
	assert.False(t, diagnostics.Has(s.Diagnostics(), "pattern.payload_size"))
}

func TestScanCapacity(t *testing.T) {
	vol := storage.NewDir(t.TempDir())
	for _, name := range []string{"a.bin", "b.bin", "c.bin"} {
		writePattern(t, vol, name, pixel.RGBOrder, 1, ramp(1, 4))
	}
	s := NewStore(vol, oneSegmentLayout(4), 2, zerolog.Nop())
	defer s.Close()
	n, err := s.Scan("")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "B", s.Resources()[1].Name)
	assert.True(t, diagnostics.Has(s.Diagnostics(), "pattern.capacity"))
}

func TestFrameReadsStepSlice(t *testing.T) {
	vol := storage.NewDir(t.TempDir())
	writePattern(t, vol, "abstract_gradient.bin", pixel.RGBOrder, 1, ramp(2, 4))
	s := NewStore(vol, oneSegmentLayout(4), 0, zerolog.Nop())
	defer s.Close()
	_, err := s.Scan("")
	require.NoError(t, err)
	r := s.Resources()[0]

	assert.Equal(t, int64(9+4*3), s.Offset(r, r.Header.Step(500), 0, 0))

	out := make([]pixel.RGB, 4)
	require.NoError(t, s.Frame(r, 500, 0, 0, out))
	for i, c := range out {
		assert.Equal(t, uint8(4+i), c.R, "pixel %d", i)
	}
	require.NoError(t, s.Frame(r, 1250, 0, 0, out))
	assert.Equal(t, uint8(0), out[0].R)
}

func TestFrameConvertsOrdering(t *testing.T) {
	vol := storage.NewDir(t.TempDir())
	frames := [][]pixel.RGB{{{R: 10, G: 20, B: 30}}}
	writePattern(t, vol, "grb.bin", pixel.GRBOrder, 1, frames)

	f, err := os.ReadFile(filepath.Join(vol.Root, "grb.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{20, 10, 30}, f[HeaderSize:])

	s := NewStore(vol, oneSegmentLayout(1), 0, zerolog.Nop())
	defer s.Close()
	_, err = s.Scan("")
	require.NoError(t, err)
	out := make([]pixel.RGB, 1)
	require.NoError(t, s.Frame(s.Resources()[0], 0, 0, 0, out))
	assert.Equal(t, pixel.RGB{R: 10, G: 20, B: 30}, out[0])
}

func TestFrameShortFileZeroFills(t *testing.T) {
	vol := storage.NewDir(t.TempDir())
	h := Header{Magic: Magic, Order: pixel.RGBOrder, NumPixels: 4, Steps: 1, PeriodS: 1}
	hb, _ := h.MarshalBinary()
	writeRaw(t, vol, "short.bin", append(hb, 1, 2, 3, 4, 5, 6))

	s := NewStore(vol, oneSegmentLayout(4), 0, zerolog.Nop())
	defer s.Close()
	_, err := s.Scan("")
	require.NoError(t, err)
	assert.True(t, diagnostics.Has(s.Diagnostics(), "pattern.payload_size"))

	out := []pixel.RGB{{R: 9}, {R: 9}, {R: 9}, {R: 9}}
	err = s.Frame(s.Resources()[0], 0, 0, 0, out)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, []pixel.RGB{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}, {}, {}}, out)
}

func TestFrameUnplayableIsBlack(t *testing.T) {
	s := NewStore(nil, nil, 0, zerolog.Nop())
	out := []pixel.RGB{{R: 1}}
	require.NoError(t, s.Frame(&Resource{Header: Header{Steps: 0, PeriodS: 1}}, 10, 0, 0, out))
	assert.Equal(t, pixel.Black, out[0])
}

func TestOffsetsInjectiveAndInBounds(t *testing.T) {
	l := topology.Bed()
	total := l.TotalPixels()
	h := Header{Magic: Magic, NumPixels: uint16(total), Steps: 3, PeriodS: 2}
	r := &Resource{Header: h}
	s := NewStore(nil, l, 0, zerolog.Nop())

	end := HeaderSize + h.PayloadSize()
	seen := map[int64]bool{}
	for step := 0; step < int(h.Steps); step++ {
		for si, str := range l.Strings {
			for sj, seg := range str.Segments {
				off := s.Offset(r, step, si, sj)
				assert.False(t, seen[off], "offset %d reused", off)
				seen[off] = true
				assert.LessOrEqual(t, off+int64(seg.Pixels*PixelSize), end)
				assert.GreaterOrEqual(t, off, int64(HeaderSize))
			}
		}
	}
}

func TestEncodeRefusesMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, Header{Order: pixel.RGBOrder, NumPixels: 2, Steps: 2, PeriodS: 1}, make([]byte, 11))
	assert.ErrorIs(t, err, ErrPayloadSize)

	err = EncodeFrames(&buf, pixel.RGBOrder, 1, [][]pixel.RGB{{{}}, {{}, {}}})
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrames(&buf, pixel.BGROrder, 3, ramp(5, 7)))
	h, err := Verify(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, uint16(5), h.Steps)
	assert.Equal(t, uint16(7), h.NumPixels)

	_, err = Verify(bytes.NewReader(buf.Bytes()), int64(buf.Len()-1))
	assert.ErrorIs(t, err, ErrPayloadSize)
}

func TestScanLittleFS(t *testing.T) {
	dev := tinyfs.NewMemoryDevice(256, 4096, 64)
	vol, err := storage.MountLittleFS(dev, true)
	require.NoError(t, err)
	defer vol.Close()

	writePattern(t, vol, "rainbow.bin", pixel.RGBOrder, 2, ramp(3, 4))
	writePattern(t, vol, "flash.bin", pixel.RGBOrder, 1, ramp(1, 4))

	s := NewStore(vol, oneSegmentLayout(4), 0, zerolog.Nop())
	defer s.Close()
	n, err := s.Scan("")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, "Flash", s.Resources()[0].Name)

	out := make([]pixel.RGB, 4)
	require.NoError(t, s.Frame(s.Resources()[1], 1500, 0, 0, out))
	assert.Equal(t, uint8(8), out[0].R)
}

func TestImport(t *testing.T) {
	src := storage.NewDir(t.TempDir())
	dst := storage.NewDir(t.TempDir())

	writePattern(t, src, "matrix.bin", pixel.RGBOrder, 1, ramp(1, 2))
	writeRaw(t, src, "empty.bin", nil)
	writePattern(t, dst, "old.bin", pixel.RGBOrder, 1, ramp(1, 2))
	writeRaw(t, dst, "keep.txt", []byte("x"))

	n, err := Import(src, "", dst, "", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := dst.List("")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"matrix.bin", "keep.txt"}, names)
}

func TestImportNothingLeavesDestination(t *testing.T) {
	src := storage.NewDir(t.TempDir())
	dst := storage.NewDir(t.TempDir())
	writeRaw(t, src, "empty.bin", nil)
	writePattern(t, dst, "old.bin", pixel.RGBOrder, 1, ramp(1, 2))

	_, err := Import(src, "", dst, "", zerolog.Nop())
	assert.ErrorIs(t, err, ErrNothingToImport)
	_, err = os.Stat(filepath.Join(dst.Root, "old.bin"))
	assert.NoError(t, err)
}
