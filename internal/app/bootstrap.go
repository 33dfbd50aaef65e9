package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/lumibed/internal/cache"
	"github.com/coreman2200/lumibed/internal/config"
	"github.com/coreman2200/lumibed/internal/led"
	"github.com/coreman2200/lumibed/internal/link"
	"github.com/coreman2200/lumibed/internal/render"
	"github.com/coreman2200/lumibed/internal/render/patterns"
	"github.com/coreman2200/lumibed/internal/selftest"
	"github.com/coreman2200/lumibed/internal/storage"
	"github.com/coreman2200/lumibed/internal/topology"
)

const heartbeatMs = 1000

// Controller owns everything the tick loop touches. Run drives it from a
// single goroutine; nothing here is locked.
type Controller struct {
	Layout   *topology.Layout
	Zones    *topology.ZoneTable
	Palettes *render.PaletteSet
	Catalog  *render.Catalog
	Store    *cache.Store
	Engine   *render.Engine
	Preview  *render.Previewer
	Link     *link.Controller
	Driver   led.Driver

	// SelfTest, when set, replaces pattern output until it finishes.
	SelfTest *selftest.Runner
	// ExitAfterSelfTest makes Run return once the self-test is done.
	ExitAfterSelfTest bool

	frame     Interval
	linkTick  Interval
	heartbeat Interval
	frames    int
	log       zerolog.Logger
	closers   []io.Closer
}

// New builds the controller from cfg. It takes ownership of drv and t; t
// may be nil to run without a display.
func New(cfg *config.Config, drv led.Driver, t link.Transport, log zerolog.Logger) (*Controller, error) {
	l, zones, pal, kinds, err := build(cfg)
	if err != nil {
		release(drv, t)
		return nil, err
	}

	c := &Controller{
		Layout:    l,
		Zones:     zones,
		Palettes:  pal,
		Driver:    drv,
		frame:     Interval{Period: cfg.TickInterval().Milliseconds()},
		linkTick:  Interval{Period: int64(cfg.Link.IntervalMs)},
		heartbeat: Interval{Period: heartbeatMs},
		log:       log,
	}
	if drv != nil {
		c.closers = append(c.closers, drv)
	}
	if t != nil {
		c.closers = append(c.closers, t)
	}

	vol, scanRoot, err := OpenVolume(cfg.Store)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Store.Backend).Msg("pattern storage unavailable; procedural patterns only")
	} else {
		if cl, ok := vol.(io.Closer); ok {
			c.closers = append(c.closers, cl)
		}
		c.Store = cache.NewStore(vol, l, cfg.Store.Max, log)
		c.closers = append(c.closers, c.Store)
		// Scan logs each diagnostic as it is recorded.
		n, err := c.Store.Scan(scanRoot)
		if err != nil {
			log.Warn().Err(err).Str("root", scanRoot).Msg("pattern scan failed")
		}
		log.Info().Int("files", n).Int("diagnostics", len(c.Store.Diagnostics())).Msg("pattern store scanned")
	}

	c.Catalog = render.NewCatalog(render.MaxPatterns, log)
	if c.Store != nil {
		patterns.RegisterCached(c.Catalog, c.Store, log)
	}
	patterns.RegisterProcedural(c.Catalog, kinds, log)
	log.Info().Int("patterns", c.Catalog.Len()).Strs("names", c.Catalog.Names()).Msg("catalog ready")

	var out render.Output
	if drv != nil {
		out = drv
	}
	c.Engine, err = render.NewEngine(l, zones, c.Catalog, pal, out, cfg.RenderOptions())
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Preview = render.NewPreviewer(l, zones, c.Catalog, pal, cfg.Preview.Samples, cfg.Preview.PhaseShiftMs)
	if t != nil {
		c.Link = link.NewController(t, zones, c.Catalog, c.Preview, log.With().Str("component", "link").Logger())
	}
	return c, nil
}

func build(cfg *config.Config) (*topology.Layout, *topology.ZoneTable, *render.PaletteSet, []render.Kind, error) {
	l, err := cfg.Layout()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	zones, err := cfg.ZoneTable()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	pal, err := cfg.PaletteSet()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	kinds, err := cfg.ProceduralKinds()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return l, zones, pal, kinds, nil
}

// release closes whatever New was handed when it fails before the
// controller owns them.
func release(drv led.Driver, t link.Transport) {
	if t != nil {
		t.Close()
	}
	if drv != nil {
		drv.Close()
	}
}

// OpenVolume opens the configured pattern storage and returns it with the
// directory to scan inside it.
func OpenVolume(s config.Store) (storage.Volume, string, error) {
	switch s.Backend {
	case config.BackendLittleFS:
		blocks := s.Blocks
		if blocks == 0 {
			blocks = config.DefaultImageBlock
		}
		dev, err := storage.OpenImage(s.Image, blocks)
		if err != nil {
			return nil, "", err
		}
		fs, err := storage.MountLittleFS(dev, false)
		if err != nil {
			dev.Close()
			return nil, "", fmt.Errorf("mount %s: %w", s.Image, err)
		}
		return &imageVolume{LittleFS: fs, dev: dev}, s.Root, nil
	default:
		return storage.NewDir(s.Root), "", nil
	}
}

// imageVolume unmounts and then closes the image file.
type imageVolume struct {
	*storage.LittleFS
	dev *storage.ImageDevice
}

func (v *imageVolume) Close() error {
	err := v.LittleFS.Close()
	if cerr := v.dev.Close(); err == nil {
		err = cerr
	}
	return err
}

// Step runs whatever is due at nowMs: one frame, one link exchange and the
// heartbeat. It reports done once a self-test run with ExitAfterSelfTest
// has finished.
func (c *Controller) Step(nowMs int64) (done bool, err error) {
	if c.frame.Due(nowMs) {
		if c.SelfTest != nil {
			if c.SelfTest.Step(c.Layout, c.Zones, c.Engine.Frame) {
				if c.Engine.Out != nil {
					err = c.Engine.Out.Write(c.Engine.Frame)
				}
			} else {
				c.log.Info().Str("test", string(c.SelfTest.Kind())).Msg("self-test complete")
				c.SelfTest = nil
				if c.ExitAfterSelfTest {
					return true, c.Engine.Blackout()
				}
			}
		} else {
			err = c.Engine.Tick(nowMs)
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("frame dropped")
		}
		c.frames++
	}
	if c.Link != nil && c.linkTick.Due(nowMs) {
		if lerr := c.Link.Tick(nowMs); lerr != nil {
			c.log.Debug().Err(lerr).Msg("link send failed")
		}
	}
	if c.heartbeat.Due(nowMs) {
		ev := c.log.Debug().
			Int("frames", c.frames).
			Float64("render_ms", c.Engine.Last.RenderMS).
			Float64("write_ms", c.Engine.Last.WriteMS).
			Float64("total_ms", c.Engine.Last.TotalMS).
			Uint8("limit", c.Engine.Last.Scale).
			Ints("active", c.activePatterns()).
			Uints8("brightness", c.Zones.Brightness())
		if c.Link != nil {
			ev = ev.Int("rx", c.Link.Received).Int("tx", c.Link.Sent)
		}
		ev.Msg("heartbeat")
		c.frames = 0
	}
	return false, nil
}

func (c *Controller) activePatterns() []int {
	out := make([]int, c.Zones.Len())
	for i := range out {
		out[i] = c.Zones.Zone(i).Active
	}
	return out
}

// Run ticks until ctx is cancelled or a self-test exits. Missed ticks are
// dropped by the ticker.
func (c *Controller) Run(ctx context.Context) error {
	period := c.frame.Period
	if c.Link != nil && c.linkTick.Period > 0 && c.linkTick.Period < period {
		period = c.linkTick.Period
	}
	if period <= 0 {
		period = 1
	}
	ticker := time.NewTicker(time.Duration(period) * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			done, err := c.Step(now.Sub(start).Milliseconds())
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// Close blanks the strips and releases the driver, link and storage.
func (c *Controller) Close() error {
	var errs []error
	if c.Engine != nil {
		if err := c.Engine.Blackout(); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
