package link

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

type SerialConfig struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// OpenSerial opens the display link on a serial port, 8N1.
func OpenSerial(cfg SerialConfig, log zerolog.Logger) (*StreamTransport, error) {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	if err := p.Flush(); err != nil {
		log.Debug().Err(err).Msg("serial flush")
	}
	log.Info().Str("port", cfg.Port).Int("baud", cfg.Baud).Msg("serial link open")
	return newStreamTransport(p, log, cfg.ReadTimeout > 0), nil
}
