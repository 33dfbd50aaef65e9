package led

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/lumibed/internal/topology"
)

// DefaultNRZFreq is three SPI bits per NRZ bit at 800kHz plus margin.
const DefaultNRZFreq = 2500 * physic.KiloHertz

var ErrFrameSize = errors.New("led: frame size mismatch")

type NRZConfig struct {
	// Ports maps output channel to SPI port name; "" opens the first port.
	Ports map[int]string
	Freq  physic.Frequency
}

type channelDev struct {
	channel int
	dev     *nrzled.Dev
	port    spi.PortCloser
}

// NRZ drives WS281x strips through nrzled, one SPI port per wired channel.
// Channels without a port are skipped.
type NRZ struct {
	layout *topology.Layout
	devs   []channelDev
	log    zerolog.Logger
}

// OpenNRZ initializes the host and opens every configured port.
func OpenNRZ(l *topology.Layout, cfg NRZConfig, log zerolog.Logger) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	ports := map[int]spi.PortCloser{}
	for ch, name := range cfg.Ports {
		p, err := spireg.Open(name)
		if err != nil {
			for _, o := range ports {
				o.Close()
			}
			return nil, fmt.Errorf("channel %d: open spi %q: %w", ch, name, err)
		}
		ports[ch] = p
	}
	return NewNRZ(l, ports, cfg.Freq, log)
}

// NewNRZ wraps already opened ports. It takes ownership of them.
func NewNRZ(l *topology.Layout, ports map[int]spi.PortCloser, freq physic.Frequency, log zerolog.Logger) (*NRZ, error) {
	if freq == 0 {
		freq = DefaultNRZFreq
	}
	n := &NRZ{layout: l, log: log}
	chans := make([]int, 0, len(ports))
	for ch := range ports {
		chans = append(chans, ch)
	}
	sort.Ints(chans)
	for _, ch := range chans {
		p := ports[ch]
		if ch < 0 || ch >= l.Channels {
			p.Close()
			n.Close()
			return nil, fmt.Errorf("channel %d outside [0,%d)", ch, l.Channels)
		}
		d, err := nrzled.NewSPI(p, &nrzled.Opts{
			NumPixels: l.MaxPixelsPerChannel,
			Channels:  3,
			Freq:      freq,
		})
		if err != nil {
			p.Close()
			n.Close()
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		d.Halt()
		n.devs = append(n.devs, channelDev{channel: ch, dev: d, port: p})
		log.Info().Int("channel", ch).Str("port", d.String()).Msg("nrz channel ready")
	}
	return n, nil
}

func (n *NRZ) Write(frame []byte) error {
	stride := n.layout.MaxPixelsPerChannel * 3
	if len(frame) != n.layout.Channels*stride {
		return fmt.Errorf("%d bytes for %d channels: %w", len(frame), n.layout.Channels, ErrFrameSize)
	}
	for _, c := range n.devs {
		off := c.channel * stride
		if _, err := c.dev.Write(frame[off : off+stride]); err != nil {
			return fmt.Errorf("channel %d: %w", c.channel, err)
		}
	}
	return nil
}

// Close blanks every strip and releases the ports.
func (n *NRZ) Close() error {
	var first error
	for _, c := range n.devs {
		if err := c.dev.Halt(); err != nil && first == nil {
			first = err
		}
		if err := c.port.Close(); err != nil && first == nil {
			first = err
		}
	}
	n.devs = nil
	return first
}
