package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBedLayoutIsValid(t *testing.T) {
	l := Bed()
	require.NoError(t, l.Validate())

	assert.Equal(t, 66, l.StringPixels(0))
	assert.Equal(t, 66, l.StringPixels(1))
	assert.Equal(t, 108, l.StringPixels(2))
	assert.Equal(t, 108, l.StringPixels(3))
	assert.Equal(t, 116, l.StringPixels(4))
	assert.Equal(t, 66+66+108+108+116, l.TotalPixels())
	assert.Equal(t, 116, l.MaxStringPixels())
}

func TestZoneOf(t *testing.T) {
	l := Bed()
	z, ok := l.ZoneOf(2, 2)
	require.True(t, ok)
	assert.Equal(t, ZoneFront, z)

	_, ok = l.ZoneOf(5, 0)
	assert.False(t, ok)
	_, ok = l.ZoneOf(0, 4)
	assert.False(t, ok)
	_, ok = l.ZoneOf(-1, 0)
	assert.False(t, ok)
}

func TestPixelsBefore(t *testing.T) {
	l := Bed()
	assert.Equal(t, 0, l.PixelsBefore(0, 0))
	assert.Equal(t, 24, l.PixelsBefore(0, 2))
	assert.Equal(t, 66+66+108+12, l.PixelsBefore(3, 1))
}

func TestEmptyStringReportsZero(t *testing.T) {
	l := &Layout{Channels: 2, MaxPixelsPerChannel: 10, Zones: 1, Strings: []String{{Name: "empty", Channel: 0}}}
	require.NoError(t, l.Validate())
	assert.Equal(t, 0, l.StringPixels(0))
	assert.Equal(t, 0, l.TotalPixels())
	_, ok := l.ZoneOf(0, 0)
	assert.False(t, ok)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]*Layout{
		"gap": {Channels: 1, MaxPixelsPerChannel: 10, Zones: 1, Strings: []String{{Channel: 0, Segments: []Segment{
			{Pixels: 2, Offset: 0}, {Pixels: 2, Offset: 3},
		}}}},
		"overlap": {Channels: 1, MaxPixelsPerChannel: 10, Zones: 1, Strings: []String{{Channel: 0, Segments: []Segment{
			{Pixels: 2, Offset: 0}, {Pixels: 2, Offset: 1},
		}}}},
		"zone": {Channels: 1, MaxPixelsPerChannel: 10, Zones: 1, Strings: []String{{Channel: 0, Segments: []Segment{
			{Pixels: 2, Zone: 3},
		}}}},
		"channel": {Channels: 1, MaxPixelsPerChannel: 10, Zones: 1, Strings: []String{{Channel: 1}}},
		"overflow": {Channels: 1, MaxPixelsPerChannel: 3, Zones: 1, Strings: []String{{Channel: 0, Segments: Chain(
			Segment{Pixels: 2}, Segment{Pixels: 2},
		)}}},
		"duplicate": {Channels: 2, MaxPixelsPerChannel: 3, Zones: 1, Strings: []String{{Channel: 1}, {Channel: 1}}},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
		})
	}
}

func TestZoneBrightnessClamped(t *testing.T) {
	zones := NewZoneTable(BedZones()...)
	assert.Equal(t, uint8(128), zones.Zone(ZoneCage).Brightness)
	assert.Equal(t, uint8(255), zones.Zone(ZoneHeadboard).Brightness)

	zones.SetBrightness([]uint8{200, 10, 255, 7})
	assert.Equal(t, []uint8{128, 10, 170, 7}, zones.Brightness())
	assert.Nil(t, zones.Zone(4))
}

func TestZoneTableSetAll(t *testing.T) {
	zones := NewZoneTable(BedZones()...)
	zones.SetActiveAll(3)
	zones.SetPreviewAll(5)
	zones.SetPeriodAll(0)
	for i := 0; i < zones.Len(); i++ {
		z := zones.Zone(i)
		assert.Equal(t, 3, z.Active)
		assert.Equal(t, 5, z.Preview)
		assert.Equal(t, uint32(DefaultPeriodMs), z.PeriodMs)
		assert.Equal(t, DefaultOrder, z.Order)
	}
}
