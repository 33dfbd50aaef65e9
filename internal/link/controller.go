package link

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/render"
	"github.com/coreman2200/lumibed/internal/topology"
)

// Controller is the bed side of the link. Each tick it applies every queued
// control record and announces one catalog entry, cycling through the
// catalog so the display fills in its mirror without a handshake.
type Controller struct {
	Codec   Codec
	Zones   *topology.ZoneTable
	Catalog *render.Catalog
	Preview *render.Previewer
	T       Transport

	log    zerolog.Logger
	cursor int

	Received int
	Rejected int
	Sent     int
}

func NewController(t Transport, zones *topology.ZoneTable, cat *render.Catalog, pv *render.Previewer, log zerolog.Logger) *Controller {
	return &Controller{
		Codec:   Codec{Zones: zones.Len()},
		Zones:   zones,
		Catalog: cat,
		Preview: pv,
		T:       t,
		log:     log,
	}
}

func (c *Controller) Tick(nowMs int64) error {
	c.drain()
	a, ok := c.Announcement(nowMs)
	if !ok {
		return nil
	}
	if err := c.T.Send(c.Codec.EncodeAnnounce(a)); err != nil {
		return err
	}
	c.Sent++
	c.cursor = (c.cursor + 1) % c.Catalog.Len()
	return nil
}

func (c *Controller) drain() {
	for {
		b, ok := c.T.Recv()
		if !ok {
			return
		}
		m, err := c.Codec.DecodeControl(b)
		if err != nil {
			c.Rejected++
			c.log.Debug().Err(err).Msg("ignoring control record")
			continue
		}
		c.Received++
		c.Apply(m)
	}
}

// Apply folds one control record into the zone table. Out of range pattern
// indices leave that field unchanged.
func (c *Controller) Apply(m Control) {
	n := c.Catalog.Len()
	if int(m.Selected) < n {
		c.Zones.SetActiveAll(int(m.Selected))
	}
	if int(m.Displayed) < n {
		c.Zones.SetPreviewAll(int(m.Displayed))
	}
	c.Zones.SetBrightness(m.Brightness)
	c.Zones.SetAccentAll(m.Color)
	c.Zones.SetPeriodAll(m.PeriodMs())
}

// Announcement builds the record for the current cursor. ok is false for an
// empty catalog.
func (c *Controller) Announcement(nowMs int64) (Announce, bool) {
	n := c.Catalog.Len()
	if n == 0 {
		return Announce{}, false
	}
	if c.cursor >= n {
		c.cursor = 0
	}
	e, err := c.Catalog.At(c.cursor)
	if err != nil {
		return Announce{}, false
	}
	a := Announce{
		Index: uint8(c.cursor),
		Name:  e.Name,
		Kind:  render.Classify(e),
	}
	if c.Preview != nil {
		a.Colors = c.Preview.Colors(nowMs)
	}
	return a, true
}
