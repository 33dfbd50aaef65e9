package link

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
)

const (
	// SendIntervalMs paces control records from the display.
	SendIntervalMs = 100
	// DefaultFrequency is 1 Hz in tenths.
	DefaultFrequency = 10
)

// Display is the display side of the link: a mirror of the announced
// catalog plus the user's pending and committed choices.
type Display struct {
	Codec Codec
	T     Transport

	log zerolog.Logger

	names [MaxPatterns]string
	kinds [MaxPatterns]render.Kind
	count int

	// Colors are the latest zone swatches from the controller.
	Colors []pixel.RGB

	selected   uint8
	displayed  uint8
	brightness []uint8
	color      pixel.RGB
	frequency  uint8

	lastSend int64
	sent     bool
	onChange func()
}

func NewDisplay(t Transport, zones int, log zerolog.Logger) *Display {
	d := &Display{
		Codec:      Codec{Zones: zones},
		T:          t,
		log:        log,
		Colors:     make([]pixel.RGB, zones),
		brightness: make([]uint8, zones),
		color:      pixel.RGB{R: 255, G: 255, B: 255},
		frequency:  DefaultFrequency,
	}
	d.AllOn()
	return d
}

// OnCatalogChange registers fn to run whenever a new index grows the mirror.
func (d *Display) OnCatalogChange(fn func()) { d.onChange = fn }

// Observe records an announcement. Indices at or beyond MaxPatterns are
// ignored for the catalog but their colors are still shown.
func (d *Display) Observe(a Announce) {
	if int(a.Index) < MaxPatterns {
		i := int(a.Index)
		d.names[i] = a.Name
		d.kinds[i] = a.Kind
		if i >= d.count {
			d.count = i + 1
			if d.onChange != nil {
				d.onChange()
			}
		}
	}
	copy(d.Colors, a.Colors)
}

func (d *Display) Count() int { return d.count }

// Name returns the mirrored name of pattern i, empty when unknown.
func (d *Display) Name(i int) string {
	if i < 0 || i >= d.count {
		return ""
	}
	return d.names[i]
}

func (d *Display) Kind(i int) render.Kind {
	if i < 0 || i >= d.count {
		return render.Unknown
	}
	return d.kinds[i]
}

func (d *Display) Selected() int  { return int(d.selected) }
func (d *Display) Displayed() int { return int(d.displayed) }

// Browse previews pattern i without committing it.
func (d *Display) Browse(i int) bool {
	if i < 0 || i >= d.count {
		return false
	}
	d.displayed = uint8(i)
	return true
}

// Step moves the preview by delta, wrapping around the known catalog.
func (d *Display) Step(delta int) {
	if d.count == 0 {
		return
	}
	i := (int(d.displayed) + delta) % d.count
	if i < 0 {
		i += d.count
	}
	d.displayed = uint8(i)
}

// Commit makes the previewed pattern the active one.
func (d *Display) Commit() { d.selected = d.displayed }

// Cancel returns the preview to the active pattern.
func (d *Display) Cancel() { d.displayed = d.selected }

func (d *Display) SetBrightness(zone int, v uint8) bool {
	if zone < 0 || zone >= len(d.brightness) {
		return false
	}
	d.brightness[zone] = v
	return true
}

func (d *Display) Brightness() []uint8 {
	out := make([]uint8, len(d.brightness))
	copy(out, d.brightness)
	return out
}

func (d *Display) AllOff() {
	for i := range d.brightness {
		d.brightness[i] = 0
	}
}

func (d *Display) AllOn() {
	for i := range d.brightness {
		d.brightness[i] = 255
	}
}

func (d *Display) SetColor(c pixel.RGB) { d.color = c }
func (d *Display) Color() pixel.RGB     { return d.color }

// SetFrequency takes tenths of a hertz.
func (d *Display) SetFrequency(f uint8) { d.frequency = f }
func (d *Display) Frequency() uint8     { return d.frequency }

// Control builds the outbound record from the current UI state.
func (d *Display) Control() Control {
	return Control{
		Selected:   d.selected,
		Displayed:  d.displayed,
		Brightness: d.Brightness(),
		Color:      d.color,
		Frequency:  d.frequency,
	}
}

// Tick observes every queued announcement and sends a control record once
// SendIntervalMs has passed since the last one.
func (d *Display) Tick(nowMs int64) error {
	for {
		b, ok := d.T.Recv()
		if !ok {
			break
		}
		a, err := d.Codec.DecodeAnnounce(b)
		if err != nil {
			d.log.Debug().Err(err).Msg("ignoring announce record")
			continue
		}
		d.Observe(a)
	}
	if d.sent && nowMs-d.lastSend < SendIntervalMs {
		return nil
	}
	if err := d.T.Send(d.Codec.EncodeControl(d.Control())); err != nil {
		return err
	}
	d.sent = true
	d.lastSend = nowMs
	return nil
}
