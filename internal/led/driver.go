package led

import (
	"fmt"
	"strings"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes a packed frame: channels*maxPixelsPerChannel pixels, three
	// bytes each, already in every strip's byte order.
	Write(frame []byte) error
	// Close releases resources.
	Close() error
}

// Null discards every frame.
type Null struct{}

func (Null) Write([]byte) error { return nil }
func (Null) Close() error       { return nil }

// Kind names a driver in configuration.
type Kind string

const (
	KindNRZ    Kind = "nrz"
	KindScreen Kind = "screen"
	KindNull   Kind = "null"
	KindFake   Kind = "fake"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindNRZ, KindScreen, KindNull, KindFake:
		return k, nil
	case "":
		return KindNRZ, nil
	}
	return "", fmt.Errorf("unknown driver %q", s)
}
