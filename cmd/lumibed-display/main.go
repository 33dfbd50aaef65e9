// Command lumibed-display is a console stand-in for the bed's touch
// display. It mirrors the controller's pattern catalog over the serial
// link and sends the same control records the display would.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lumibed/internal/app"
	"github.com/coreman2200/lumibed/internal/config"
	"github.com/coreman2200/lumibed/internal/led"
	"github.com/coreman2200/lumibed/internal/link"
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/topology"
)

const help = `commands:
  list               show the mirrored catalog
  browse N | next | prev
  ok | cancel        commit or drop the previewed pattern
  bright ZONE V      set one zone's brightness (0-255)
  on | off           all zones full or dark
  color R G B        pattern color
  freq F             frequency in tenths of a hertz
  show               current control state and zone swatches
  quit`

func main() {
	var (
		port     = flag.String("serial", "/dev/ttyUSB0", "serial port wired to the controller")
		baud     = flag.Int("baud", config.DefaultBaud, "baud rate")
		sim      = flag.Bool("sim", false, "run an in-process controller with the bed defaults instead of a serial port")
		patterns = flag.String("patterns", config.DefaultStoreRoot, "pattern directory for -sim")
		debug    = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var t link.Transport
	if *sim {
		a, b := link.Pipe(log.Logger)
		cfg := config.Default()
		cfg.Store.Root = *patterns
		ctl, err := app.New(cfg, led.Null{}, a, log.With().Str("component", "controller").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("simulated controller")
		}
		defer ctl.Close()
		go func() {
			if err := ctl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("simulated controller stopped")
			}
		}()
		t = b
	} else {
		st, err := link.OpenSerial(link.SerialConfig{Port: *port, Baud: *baud, ReadTimeout: 100 * time.Millisecond},
			log.With().Str("component", "serial").Logger())
		if err != nil {
			log.Fatal().Err(err).Str("port", *port).Msg("open serial")
		}
		t = st
	}
	defer t.Close()

	var mu sync.Mutex
	disp := link.NewDisplay(t, topology.NumZones, log.With().Str("component", "display").Logger())
	disp.OnCatalogChange(func() {
		log.Debug().Int("patterns", disp.Count()).Msg("catalog grew")
	})

	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				mu.Lock()
				err := disp.Tick(now.Sub(start).Milliseconds())
				mu.Unlock()
				if err != nil {
					log.Debug().Err(err).Msg("control send failed")
				}
			}
		}
	}()

	fmt.Println(help)
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			mu.Lock()
			err := run(disp, os.Stdout, strings.Fields(line))
			mu.Unlock()
			if errors.Is(err, errQuit) {
				return
			}
			if err != nil {
				fmt.Println(err)
			}
		}
	}
}

var errQuit = errors.New("quit")

func run(d *link.Display, w io.Writer, args []string) error {
	if len(args) == 0 {
		return nil
	}
	nums, err := atois(args[1:])
	if err != nil {
		return err
	}
	need := func(n int) error {
		if len(nums) != n {
			return fmt.Errorf("%s takes %d argument(s)", args[0], n)
		}
		return nil
	}
	switch args[0] {
	case "list", "ls":
		for i := 0; i < d.Count(); i++ {
			mark := " "
			switch i {
			case d.Selected():
				mark = "*"
			case d.Displayed():
				mark = ">"
			}
			fmt.Fprintf(w, "%s %2d  %-16s %s\n", mark, i, d.Name(i), d.Kind(i))
		}
	case "browse":
		if err := need(1); err != nil {
			return err
		}
		if !d.Browse(nums[0]) {
			return fmt.Errorf("no pattern %d (have %d)", nums[0], d.Count())
		}
	case "next":
		d.Step(1)
	case "prev":
		d.Step(-1)
	case "ok":
		d.Commit()
	case "cancel":
		d.Cancel()
	case "bright":
		if err := need(2); err != nil {
			return err
		}
		if !d.SetBrightness(nums[0], clamp8(nums[1])) {
			return fmt.Errorf("no zone %d", nums[0])
		}
	case "on":
		d.AllOn()
	case "off":
		d.AllOff()
	case "color":
		if err := need(3); err != nil {
			return err
		}
		d.SetColor(pixel.RGB{R: clamp8(nums[0]), G: clamp8(nums[1]), B: clamp8(nums[2])})
	case "freq":
		if err := need(1); err != nil {
			return err
		}
		d.SetFrequency(clamp8(nums[0]))
	case "show":
		m := d.Control()
		fmt.Fprintf(w, "selected %d (%s), previewing %d (%s)\n", m.Selected, d.Name(int(m.Selected)), m.Displayed, d.Name(int(m.Displayed)))
		fmt.Fprintf(w, "brightness %v  color %s  freq %d (%d ms)\n", m.Brightness, m.Color, m.Frequency, m.PeriodMs())
		for z, c := range d.Colors {
			fmt.Fprintf(w, "  zone %d  %s\n", z, c)
		}
	case "help", "?":
		fmt.Fprintln(w, help)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func atois(s []string) ([]int, error) {
	out := make([]int, len(s))
	for i, v := range s {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", v)
		}
		out[i] = n
	}
	return out, nil
}

func clamp8(n int) uint8 {
	return uint8(min(max(n, 0), 255))
}
