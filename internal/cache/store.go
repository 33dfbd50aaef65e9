package cache

import (
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/diagnostics"
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/storage"
	"github.com/coreman2200/lumibed/internal/topology"
)

// MaxResources bounds the number of open pattern files.
const MaxResources = 64

// Resource is one indexed pattern file with its handle kept open.
type Resource struct {
	Path   string
	Name   string
	Header Header
	Size   int64

	f storage.File
}

// Store indexes the pattern files of one volume directory. Frame reads go
// seek-then-read on the resource's own handle, so calls for the same
// resource must not interleave.
type Store struct {
	vol    storage.Volume
	layout *topology.Layout
	max    int
	log    zerolog.Logger

	res   []*Resource
	diags []diagnostics.Diagnostic
	buf   []byte
}

func NewStore(vol storage.Volume, layout *topology.Layout, max int, log zerolog.Logger) *Store {
	if max <= 0 || max > MaxResources {
		max = MaxResources
	}
	return &Store{vol: vol, layout: layout, max: max, log: log}
}

func (s *Store) Resources() []*Resource { return s.res }

func (s *Store) Diagnostics() []diagnostics.Diagnostic { return s.diags }

// Scan indexes the pattern files directly under root, in ascending name
// order. Files with a bad header are skipped; once the store is full the
// remaining files are skipped with a warning. Earlier resources are closed.
func (s *Store) Scan(root string) (int, error) {
	s.Close()
	s.diags = nil

	entries, err := s.vol.List(root)
	if err != nil {
		return 0, fmt.Errorf("list %q: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if e.Dir || !IsPatternFile(e.Name) {
			continue
		}
		names = append(names, e.Name)
	}
	sort.Strings(names)

	for i, name := range names {
		if len(s.res) >= s.max {
			s.report(diagnostics.Diagnostic{
				Severity: diagnostics.Warn,
				Code:     "pattern.capacity",
				Summary:  "maximum cached pattern count reached; remaining files skipped",
				Evidence: map[string]any{"max": s.max, "skipped": len(names) - i},
			})
			break
		}
		p := storage.Join(root, name)
		r, err := s.open(p)
		if err != nil {
			s.report(diagnostics.Diagnostic{
				Severity: diagnostics.Warn,
				Code:     "pattern.rejected",
				Summary:  "pattern file rejected",
				Detail:   err.Error(),
				Evidence: map[string]any{"path": p},
			})
			continue
		}
		s.check(r)
		s.res = append(s.res, r)
		s.log.Info().
			Str("path", p).
			Str("order", r.Header.Order.String()).
			Uint16("pixels", r.Header.NumPixels).
			Uint16("steps", r.Header.Steps).
			Uint16("period_s", r.Header.PeriodS).
			Msg("cached pattern indexed")
	}
	return len(s.res), nil
}

func (s *Store) open(p string) (*Resource, error) {
	f, err := s.vol.Open(p)
	if err != nil {
		return nil, err
	}
	var hb [HeaderSize]byte
	if _, err := io.ReadFull(f, hb[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrShortHeader, err)
	}
	var h Header
	if err := h.UnmarshalBinary(hb[:]); err != nil {
		f.Close()
		return nil, err
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Resource{Path: p, Name: DisplayName(p), Header: h, Size: size, f: f}, nil
}

// check records non-fatal inconsistencies; the resource stays indexed.
func (s *Store) check(r *Resource) {
	if !r.Header.Playable() {
		s.report(diagnostics.Diagnostic{
			Severity: diagnostics.Warn,
			Code:     "pattern.unplayable",
			Summary:  "pattern has zero steps or zero period",
			Evidence: map[string]any{"path": r.Path},
		})
	}
	if want := r.Header.PayloadSize(); r.Size-HeaderSize != want {
		s.report(diagnostics.Diagnostic{
			Severity:       diagnostics.Warn,
			Code:           "pattern.payload_size",
			Summary:        "pattern payload does not match header",
			SuggestedFixes: []string{"rebuild the file with patternc build"},
			Evidence:       map[string]any{"path": r.Path, "payload": r.Size - HeaderSize, "expected": want},
		})
	}
	if s.layout != nil && int(r.Header.NumPixels) != s.layout.TotalPixels() {
		s.report(diagnostics.Diagnostic{
			Severity: diagnostics.Warn,
			Code:     "pattern.pixel_mismatch",
			Summary:  "pattern pixel count differs from the layout",
			Evidence: map[string]any{"path": r.Path, "pixels": r.Header.NumPixels, "layout": s.layout.TotalPixels()},
		})
	}
}

func (s *Store) report(d diagnostics.Diagnostic) {
	s.diags = append(s.diags, d)
	d.Log(s.log)
}

// Offset is the byte position of a segment's first pixel at step.
func (s *Store) Offset(r *Resource, step, stringIndex, segmentIndex int) int64 {
	before := 0
	if s.layout != nil {
		before = s.layout.PixelsBefore(stringIndex, segmentIndex)
	}
	return HeaderSize + int64(step)*r.Header.FrameBytes() + int64(before)*PixelSize
}

// Frame fills out with the segment's pixels for timeMs. Pixels that could not
// be read are black and the read error is returned.
func (s *Store) Frame(r *Resource, timeMs int64, stringIndex, segmentIndex int, out []pixel.RGB) error {
	if r == nil || r.f == nil || !r.Header.Playable() {
		pixel.Fill(out, pixel.Black)
		return nil
	}
	need := len(out) * PixelSize
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	off := s.Offset(r, r.Header.Step(timeMs), stringIndex, segmentIndex)
	if _, err := r.f.Seek(off, io.SeekStart); err != nil {
		pixel.Fill(out, pixel.Black)
		return fmt.Errorf("%s: seek %d: %w", r.Path, off, err)
	}
	n, err := io.ReadFull(r.f, buf)
	got := n / PixelSize
	for i := 0; i < got; i++ {
		out[i] = r.Header.Order.Get(buf[i*PixelSize:])
	}
	pixel.Fill(out[got:], pixel.Black)
	if err != nil {
		return fmt.Errorf("%s: read at %d: %w", r.Path, off, err)
	}
	return nil
}

// Close releases every open handle.
func (s *Store) Close() error {
	var first error
	for _, r := range s.res {
		if r.f == nil {
			continue
		}
		if err := r.f.Close(); err != nil && first == nil {
			first = err
		}
		r.f = nil
	}
	s.res = nil
	return first
}
