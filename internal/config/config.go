package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/lumibed/internal/cache"
	"github.com/coreman2200/lumibed/internal/led"
	"github.com/coreman2200/lumibed/internal/link"
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/render"
	"github.com/coreman2200/lumibed/internal/selftest"
	"github.com/coreman2200/lumibed/internal/topology"
)

type Segment struct {
	Name   string `yaml:"name"`
	Pixels int    `yaml:"pixels"`
	Zone   string `yaml:"zone"`
}

type String struct {
	Name     string    `yaml:"name"`
	Channel  int       `yaml:"channel"`
	Segments []Segment `yaml:"segments"`
}

type Zone struct {
	Name          string `yaml:"name"`
	MaxBrightness uint8  `yaml:"max_brightness"`
	Brightness    *uint8 `yaml:"brightness,omitempty"`
	Order         string `yaml:"order,omitempty"`   // e.g. GRB
	Accent        string `yaml:"accent,omitempty"`  // #rrggbb
	Palette       int    `yaml:"palette,omitempty"` // 0 = accent color
	PeriodMs      uint32 `yaml:"period_ms,omitempty"`
}

type Palette struct {
	Name  string   `yaml:"name"`
	Stops []string `yaml:"stops"`
}

type Serial struct {
	Port          string `yaml:"port"` // e.g. /dev/ttyAMA0
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

type Link struct {
	Revision   int    `yaml:"revision"`
	IntervalMs int    `yaml:"interval_ms"`
	Serial     Serial `yaml:"serial"`
}

type Store struct {
	Backend string `yaml:"backend"` // "dir" | "littlefs"
	Root    string `yaml:"root"`    // directory, or directory inside the image
	Image   string `yaml:"image,omitempty"`
	Blocks  int64  `yaml:"blocks,omitempty"`
	Max     int    `yaml:"max"`
}

type Driver struct {
	Kind       string         `yaml:"kind"` // "nrz" | "screen" | "null" | "fake"
	SPIPorts   map[int]string `yaml:"spi_ports,omitempty"`
	FreqKHz    int            `yaml:"freq_khz,omitempty"`
	GreenScale uint8          `yaml:"green_scale"`
	// BudgetMA caps the estimated strip current; 0 disables the limiter.
	BudgetMA  int `yaml:"budget_ma,omitempty"`
	ChannelMA int `yaml:"channel_ma,omitempty"`
}

type Preview struct {
	Samples      int   `yaml:"samples"`
	PhaseShiftMs int64 `yaml:"phase_shift_ms"`
}

type Config struct {
	LogLevel string `yaml:"log_level"`
	FPS      int    `yaml:"fps"`
	SelfTest string `yaml:"self_test,omitempty"`

	Channels            int       `yaml:"channels"`
	MaxPixelsPerChannel int       `yaml:"max_pixels_per_channel"`
	Zones               []Zone    `yaml:"zones"`
	Strings             []String  `yaml:"strings"`
	Palettes            []Palette `yaml:"palettes,omitempty"`
	Patterns            []string  `yaml:"patterns"` // procedural kinds, after cached ones

	Preview Preview `yaml:"preview"`
	Link    Link    `yaml:"link"`
	Store   Store   `yaml:"store"`
	Driver  Driver  `yaml:"driver"`
}

const (
	DefaultFPS        = 20
	DefaultBaud       = 115200
	DefaultLinkMs     = 50
	DefaultStoreRoot  = "patterns"
	BackendDir        = "dir"
	BackendLittleFS   = "littlefs"
	DefaultImageBlock = 1024
)

// Default mirrors the bed wiring.
func Default() *Config {
	c := &Config{
		LogLevel:            "info",
		FPS:                 DefaultFPS,
		Channels:            topology.BedChannels,
		MaxPixelsPerChannel: topology.BedMaxPixelsPerChannel,
		Preview:             Preview{Samples: render.DefaultPreviewSamples, PhaseShiftMs: render.DefaultPreviewPhaseShiftMs},
		Link: Link{
			Revision:   link.ProtocolRevision,
			IntervalMs: DefaultLinkMs,
			Serial:     Serial{Port: "/dev/serial0", Baud: DefaultBaud, ReadTimeoutMs: 100},
		},
		Store:  Store{Backend: BackendDir, Root: DefaultStoreRoot, Max: cache.MaxResources},
		Driver: Driver{Kind: string(led.KindNRZ), GreenScale: render.DefaultGreenScale},
	}
	for _, k := range []render.Kind{render.Static, render.Strobe, render.Rotate, render.Fade, render.Blink} {
		c.Patterns = append(c.Patterns, k.String())
	}
	zones := topology.BedZones()
	for _, z := range zones {
		c.Zones = append(c.Zones, Zone{
			Name:          z.Name,
			MaxBrightness: z.MaxBrightness,
			Order:         z.Order.String(),
			Accent:        z.Accent.String(),
			PeriodMs:      z.PeriodMs,
		})
	}
	bed := topology.Bed()
	for _, s := range bed.Strings {
		cs := String{Name: s.Name, Channel: s.Channel}
		for _, seg := range s.Segments {
			cs.Segments = append(cs.Segments, Segment{Name: seg.Name, Pixels: seg.Pixels, Zone: zones[seg.Zone].Name})
		}
		c.Strings = append(c.Strings, cs)
	}
	return c
}

// Load reads path over the defaults; keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ApplyEnv loads the optional .env files and then applies LUMIBED_*
// overrides. Unparsable numbers are reported and ignored.
func (c *Config) ApplyEnv(log zerolog.Logger, files ...string) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("env file")
	}
	if v := os.Getenv("LUMIBED_SERIAL_PORT"); v != "" {
		c.Link.Serial.Port = v
	}
	if v := os.Getenv("LUMIBED_SERIAL_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Link.Serial.Baud = n
		} else {
			log.Warn().Str("LUMIBED_SERIAL_BAUD", v).Msg("not a number; ignored")
		}
	}
	if v := os.Getenv("LUMIBED_STORE_ROOT"); v != "" {
		c.Store.Root = v
	}
	if v := os.Getenv("LUMIBED_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("LUMIBED_DRIVER"); v != "" {
		c.Driver.Kind = v
	}
	if v := os.Getenv("LUMIBED_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the settings that are not covered by Layout and Zones.
func (c *Config) Validate() error {
	if c.Link.Revision != link.ProtocolRevision {
		return fmt.Errorf("link revision %d unsupported, only %d", c.Link.Revision, link.ProtocolRevision)
	}
	if c.FPS <= 0 {
		return errors.New("fps must be > 0")
	}
	if _, err := led.ParseKind(c.Driver.Kind); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendDir, BackendLittleFS:
	default:
		return fmt.Errorf("store backend %q, want %s or %s", c.Store.Backend, BackendDir, BackendLittleFS)
	}
	if c.Driver.BudgetMA < 0 || c.Driver.ChannelMA < 0 {
		return errors.New("current budget must not be negative")
	}
	if c.Store.Backend == BackendLittleFS && c.Store.Image == "" {
		return errors.New("littlefs store needs an image path")
	}
	if c.SelfTest != "" {
		if _, err := selftest.ParseKind(c.SelfTest); err != nil {
			return err
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) zoneIndex() (map[string]int, error) {
	idx := make(map[string]int, len(c.Zones))
	for i, z := range c.Zones {
		key := strings.ToLower(z.Name)
		if _, dup := idx[key]; dup {
			return nil, fmt.Errorf("zone %q defined twice", z.Name)
		}
		idx[key] = i
	}
	return idx, nil
}

// Layout builds and validates the topology.
func (c *Config) Layout() (*topology.Layout, error) {
	idx, err := c.zoneIndex()
	if err != nil {
		return nil, err
	}
	l := &topology.Layout{
		Channels:            c.Channels,
		MaxPixelsPerChannel: c.MaxPixelsPerChannel,
		Zones:               len(c.Zones),
	}
	for _, s := range c.Strings {
		ts := topology.String{Name: s.Name, Channel: s.Channel}
		var segs []topology.Segment
		for _, seg := range s.Segments {
			zi, ok := idx[strings.ToLower(seg.Zone)]
			if !ok {
				return nil, fmt.Errorf("string %q segment %q: unknown zone %q", s.Name, seg.Name, seg.Zone)
			}
			segs = append(segs, topology.Segment{Name: seg.Name, Pixels: seg.Pixels, Zone: zi})
		}
		ts.Segments = topology.Chain(segs...)
		l.Strings = append(l.Strings, ts)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// ZoneTable builds the runtime zone table, filling defaults.
func (c *Config) ZoneTable() (*topology.ZoneTable, error) {
	if len(c.Zones) == 0 {
		return nil, errors.New("no zones configured")
	}
	zones := make([]topology.Zone, 0, len(c.Zones))
	for _, cz := range c.Zones {
		z := topology.NewZone(cz.Name, cz.MaxBrightness)
		if cz.Order != "" {
			o, err := pixel.ParseOrder(cz.Order)
			if err != nil {
				return nil, fmt.Errorf("zone %q: %w", cz.Name, err)
			}
			z.Order = o
		}
		if cz.Accent != "" {
			a, err := pixel.Hex(cz.Accent)
			if err != nil {
				return nil, fmt.Errorf("zone %q: %w", cz.Name, err)
			}
			z.Accent = a
		}
		z.Palette = cz.Palette
		if cz.PeriodMs > 0 {
			z.PeriodMs = cz.PeriodMs
		}
		if cz.Brightness != nil {
			z.SetBrightness(*cz.Brightness)
		}
		zones = append(zones, z)
	}
	return topology.NewZoneTable(zones...), nil
}

func (c *Config) PaletteSet() (*render.PaletteSet, error) {
	var extra []render.Palette
	for _, p := range c.Palettes {
		rp, err := render.PaletteFromHex(p.Name, p.Stops)
		if err != nil {
			return nil, err
		}
		extra = append(extra, rp)
	}
	return render.NewPaletteSet(extra...), nil
}

// ProceduralKinds parses Patterns. Unknown names and "cached" are errors;
// cached entries come from the store.
func (c *Config) ProceduralKinds() ([]render.Kind, error) {
	out := make([]render.Kind, 0, len(c.Patterns))
	for _, s := range c.Patterns {
		k := render.ParseKind(strings.ToLower(strings.TrimSpace(s)))
		if k == render.Unknown || k == render.Cached {
			return nil, fmt.Errorf("pattern %q is not a procedural kind", s)
		}
		out = append(out, k)
	}
	return out, nil
}

func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(max(1, c.FPS))
}

func (c *Config) SerialConfig() link.SerialConfig {
	return link.SerialConfig{
		Port:        c.Link.Serial.Port,
		Baud:        c.Link.Serial.Baud,
		ReadTimeout: time.Duration(c.Link.Serial.ReadTimeoutMs) * time.Millisecond,
	}
}

func (c *Config) RenderOptions() render.Options {
	return render.Options{
		GreenScale: c.Driver.GreenScale,
		Limit:      render.Limiter{BudgetMA: c.Driver.BudgetMA, ChannelMA: c.Driver.ChannelMA},
	}
}

func (c *Config) NRZConfig() led.NRZConfig {
	return led.NRZConfig{
		Ports: c.Driver.SPIPorts,
		Freq:  physic.Frequency(c.Driver.FreqKHz) * physic.KiloHertz,
	}
}
