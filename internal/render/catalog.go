package render

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// MaxPatterns is the catalog capacity; indices travel over the link as one byte.
const MaxPatterns = 64

var ErrIndexOutOfRange = errors.New("pattern index out of range")

type Entry struct {
	Name    string
	Pattern Pattern
}

// Catalog is the ordered registry of patterns. Registration order is the
// index space shared with the display, so entries are never removed.
type Catalog struct {
	max     int
	entries []Entry
	log     zerolog.Logger
}

func NewCatalog(max int, log zerolog.Logger) *Catalog {
	if max <= 0 || max > MaxPatterns {
		max = MaxPatterns
	}
	return &Catalog{
		max:     max,
		entries: make([]Entry, 0, max),
		log:     log,
	}
}

// Register appends a pattern. At capacity it logs and returns false.
func (c *Catalog) Register(name string, p Pattern) bool {
	if len(c.entries) >= c.max {
		c.log.Warn().Str("pattern", name).Int("max", c.max).Msg("pattern catalog full; entry dropped")
		return false
	}
	c.entries = append(c.entries, Entry{Name: name, Pattern: p})
	return true
}

func (c *Catalog) Len() int { return len(c.entries) }

func (c *Catalog) Cap() int { return c.max }

func (c *Catalog) At(i int) (Entry, error) {
	if i < 0 || i >= len(c.entries) {
		return Entry{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(c.entries))
	}
	return c.entries[i], nil
}

// Classify reports the entry's variant.
func Classify(e Entry) Kind {
	if e.Pattern == nil {
		return Unknown
	}
	return e.Pattern.Kind()
}

func (c *Catalog) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Name
	}
	return out
}
