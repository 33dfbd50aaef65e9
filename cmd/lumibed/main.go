package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lumibed/internal/app"
	"github.com/coreman2200/lumibed/internal/config"
	"github.com/coreman2200/lumibed/internal/driver/fake"
	"github.com/coreman2200/lumibed/internal/led"
	"github.com/coreman2200/lumibed/internal/link"
	"github.com/coreman2200/lumibed/internal/selftest"
	"github.com/coreman2200/lumibed/internal/topology"
)

func main() {
	// ---- Flags (config.yaml and LUMIBED_* fill in the rest) ----
	var (
		configPath = flag.String("config", "lumibed.yaml", "path to lumibed.yaml")
		envFile    = flag.String("env", "", "optional .env file (default .env)")
		driver     = flag.String("driver", "", "driver: nrz | screen | null | fake")
		serialPort = flag.String("serial", "", "display serial port")
		noLink     = flag.Bool("no-link", false, "run without the display link")
		storeRoot  = flag.String("patterns", "", "pattern directory (or directory inside the littlefs image)")
		fps        = flag.Int("fps", 0, "frames per second")
		test       = flag.String("selftest", "", "run a wiring test and exit: segments | pixels | rgb")
		logLevel   = flag.String("log-level", "", "trace | debug | info | warn | error")
		writeCfg   = flag.Bool("write-config", false, "write the effective config to -config and exit")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config: defaults < yaml < env < flags ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
		log.Warn().Str("path", *configPath).Msg("no config file; using bed defaults")
		cfg = config.Default()
	}
	if *envFile != "" {
		cfg.ApplyEnv(log.Logger, *envFile)
	} else {
		cfg.ApplyEnv(log.Logger)
	}
	if *driver != "" {
		cfg.Driver.Kind = *driver
	}
	if *serialPort != "" {
		cfg.Link.Serial.Port = *serialPort
	}
	if *storeRoot != "" {
		cfg.Store.Root = *storeRoot
	}
	if *fps > 0 {
		cfg.FPS = *fps
	}
	if *test != "" {
		cfg.SelfTest = *test
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	if *writeCfg {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	layout, err := cfg.Layout()
	if err != nil {
		log.Fatal().Err(err).Msg("layout")
	}
	zones, err := cfg.ZoneTable()
	if err != nil {
		log.Fatal().Err(err).Msg("zones")
	}

	// ---- Driver selection; hardware failures fall back to the screen ----
	kind, _ := led.ParseKind(cfg.Driver.Kind)
	drv := openDriver(kind, cfg, layout, zones)

	// ---- Display link ----
	var t link.Transport
	if !*noLink && cfg.SelfTest == "" {
		st, err := link.OpenSerial(cfg.SerialConfig(), log.With().Str("component", "serial").Logger())
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.Link.Serial.Port).Msg("display link unavailable; running standalone")
		} else {
			t = st
		}
	}

	ctl, err := app.New(cfg, drv, t, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("controller init failed")
	}
	if cfg.SelfTest != "" {
		k, _ := selftest.ParseKind(cfg.SelfTest)
		ctl.SelfTest = selftest.NewRunner(selftest.Plan{Kind: k})
		ctl.ExitAfterSelfTest = true
		log.Info().Str("test", cfg.SelfTest).Msg("self-test starting")
	}

	// ---- Run until signalled ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("driver", string(kind)).Int("fps", cfg.FPS).Bool("link", t != nil).Msg("lumibed running")
	if err := ctl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("run")
	}
	log.Info().Msg("shutting down")
	if err := ctl.Close(); err != nil {
		log.Warn().Err(err).Msg("close")
	}
}

func openDriver(kind led.Kind, cfg *config.Config, l *topology.Layout, zones *topology.ZoneTable) led.Driver {
	switch kind {
	case led.KindNRZ:
		if len(cfg.Driver.SPIPorts) == 0 {
			log.Warn().Msg("driver=nrz but no spi_ports configured; using SCREEN instead")
			return led.NewScreen(l, zones)
		}
		drv, err := led.OpenNRZ(l, cfg.NRZConfig(), log.With().Str("component", "nrz").Logger())
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "nrz").
				Interface("spi_ports", cfg.Driver.SPIPorts).
				Msg("NRZ init failed; falling back to SCREEN")
			return led.NewScreen(l, zones)
		}
		return drv
	case led.KindScreen:
		return led.NewScreen(l, zones)
	case led.KindFake:
		lg := log.With().Str("component", "fake").Logger()
		return &fake.Driver{Log: &lg}
	default:
		return led.Null{}
	}
}
