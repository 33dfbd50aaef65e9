package topology

import (
	"errors"
	"fmt"
)

// Segment is a contiguous run of pixels inside one String, owned by one Zone.
type Segment struct {
	Name   string
	Pixels int
	Offset int
	Zone   int
}

// String is one physical output channel built from ordered segments.
type String struct {
	Name     string
	Channel  int
	Segments []Segment
}

// Pixels is the sum of the segment pixel counts.
func (s String) Pixels() int {
	n := 0
	for _, seg := range s.Segments {
		n += seg.Pixels
	}
	return n
}

// Layout is the static addressing model: strings of segments on output
// channels, each segment owned by a zone. It is not mutated after load.
type Layout struct {
	Channels            int
	MaxPixelsPerChannel int
	Zones               int
	Strings             []String
}

var ErrInvalidLayout = errors.New("invalid layout")

// ZoneOf returns the zone owning (string, segment). ok is false when either
// index is outside the configured bounds.
func (l *Layout) ZoneOf(stringIndex, segmentIndex int) (int, bool) {
	seg, ok := l.Segment(stringIndex, segmentIndex)
	if !ok {
		return 0, false
	}
	return seg.Zone, true
}

// Segment returns the segment at (string, segment).
func (l *Layout) Segment(stringIndex, segmentIndex int) (Segment, bool) {
	if stringIndex < 0 || stringIndex >= len(l.Strings) {
		return Segment{}, false
	}
	segs := l.Strings[stringIndex].Segments
	if segmentIndex < 0 || segmentIndex >= len(segs) {
		return Segment{}, false
	}
	return segs[segmentIndex], true
}

// StringPixels returns the pixel count of string i, 0 when out of range.
func (l *Layout) StringPixels(i int) int {
	if i < 0 || i >= len(l.Strings) {
		return 0
	}
	return l.Strings[i].Pixels()
}

func (l *Layout) TotalPixels() int {
	n := 0
	for _, s := range l.Strings {
		n += s.Pixels()
	}
	return n
}

func (l *Layout) MaxStringPixels() int {
	m := 0
	for _, s := range l.Strings {
		if p := s.Pixels(); p > m {
			m = p
		}
	}
	return m
}

// PixelsBefore is the position of a segment's first pixel in a frame that
// concatenates every string in order: all pixels of earlier strings plus the
// pixels of earlier segments of the same string.
func (l *Layout) PixelsBefore(stringIndex, segmentIndex int) int {
	n := 0
	for i := 0; i < stringIndex && i < len(l.Strings); i++ {
		n += l.Strings[i].Pixels()
	}
	if stringIndex < 0 || stringIndex >= len(l.Strings) {
		return n
	}
	segs := l.Strings[stringIndex].Segments
	for j := 0; j < segmentIndex && j < len(segs); j++ {
		n += segs[j].Pixels
	}
	return n
}

// FirstSegment returns the first (string, segment) pair owned by zone.
func (l *Layout) FirstSegment(zone int) (stringIndex, segmentIndex int, ok bool) {
	for i, s := range l.Strings {
		for j, seg := range s.Segments {
			if seg.Zone == zone && seg.Pixels > 0 {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// Validate checks that segments tile their string without gaps or overlap,
// every zone exists, channels are unique and in range, and no string
// overflows its channel.
func (l *Layout) Validate() error {
	if l.Channels <= 0 || l.MaxPixelsPerChannel <= 0 {
		return fmt.Errorf("%w: channels=%d max_pixels_per_channel=%d", ErrInvalidLayout, l.Channels, l.MaxPixelsPerChannel)
	}
	seen := map[int]string{}
	for _, s := range l.Strings {
		if s.Channel < 0 || s.Channel >= l.Channels {
			return fmt.Errorf("%w: string %q channel %d outside [0,%d)", ErrInvalidLayout, s.Name, s.Channel, l.Channels)
		}
		if other, dup := seen[s.Channel]; dup {
			return fmt.Errorf("%w: strings %q and %q share channel %d", ErrInvalidLayout, other, s.Name, s.Channel)
		}
		seen[s.Channel] = s.Name
		next := 0
		for _, seg := range s.Segments {
			if seg.Pixels < 0 {
				return fmt.Errorf("%w: segment %q/%q has negative size", ErrInvalidLayout, s.Name, seg.Name)
			}
			if seg.Offset != next {
				return fmt.Errorf("%w: segment %q/%q starts at %d, want %d", ErrInvalidLayout, s.Name, seg.Name, seg.Offset, next)
			}
			if seg.Zone < 0 || seg.Zone >= l.Zones {
				return fmt.Errorf("%w: segment %q/%q zone %d outside [0,%d)", ErrInvalidLayout, s.Name, seg.Name, seg.Zone, l.Zones)
			}
			next += seg.Pixels
		}
		if next > l.MaxPixelsPerChannel {
			return fmt.Errorf("%w: string %q has %d pixels, channel holds %d", ErrInvalidLayout, s.Name, next, l.MaxPixelsPerChannel)
		}
	}
	return nil
}

// Chain builds segments with offsets assigned in order.
func Chain(segs ...Segment) []Segment {
	out := make([]Segment, len(segs))
	off := 0
	for i, s := range segs {
		s.Offset = off
		out[i] = s
		off += s.Pixels
	}
	return out
}
