// Command patternc builds, checks and installs cached pattern files.
//
//	patternc build  -in sunset.png -out patterns/sunset.bin -steps 120 -period 30
//	patternc check  patterns/*.bin
//	patternc ls     -root patterns
//	patternc png    -in patterns/sunset.bin -out sunset_strip.png
//	patternc import -from /media/usb -to patterns [-image card.img]
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lumibed/internal/app"
	"github.com/coreman2200/lumibed/internal/cache"
	"github.com/coreman2200/lumibed/internal/config"
	"github.com/coreman2200/lumibed/internal/pixel"
	"github.com/coreman2200/lumibed/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "build":
		err = build(os.Args[2:])
	case "check":
		err = check(os.Args[2:])
	case "ls":
		err = ls(os.Args[2:])
	case "png":
		err = toPNG(os.Args[2:])
	case "import":
		err = importCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", os.Args[1]).Msg("failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: patternc build|check|ls|png|import [flags]")
}

// build samples an image into a pattern: each row is one step, resized to
// the bed's pixel count.
func build(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("in", "", "source image (png, jpeg, gif, bmp, tiff)")
	out := fs.String("out", "", "output .bin (default: <in>.bin)")
	cfgPath := fs.String("config", "", "lumibed.yaml for the pixel count (default: bed)")
	steps := fs.Int("steps", 0, "animation steps (default: image height)")
	period := fs.Uint("period", 10, "seconds for one full cycle (1-65535)")
	order := fs.String("order", "grb", "stored color order")
	fs.Parse(args)
	if *in == "" {
		return errors.New("-in is required")
	}
	periodS, err := periodSeconds(*period)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = trimExt(*in) + cache.Ext
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	l, err := cfg.Layout()
	if err != nil {
		return err
	}
	ord, err := pixel.ParseOrder(*order)
	if err != nil {
		return err
	}

	src, err := imaging.Open(*in)
	if err != nil {
		return err
	}
	n := l.TotalPixels()
	h := *steps
	if h <= 0 {
		h = src.Bounds().Dy()
	}
	img := imaging.Resize(src, n, h, imaging.Lanczos)

	frames := make([][]pixel.RGB, h)
	for y := 0; y < h; y++ {
		f := make([]pixel.RGB, n)
		for x := 0; x < n; x++ {
			c := img.NRGBAAt(x, y)
			f[x] = pixel.RGB{R: c.R, G: c.G, B: c.B}
		}
		frames[y] = f
	}

	w, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := cache.EncodeFrames(w, ord, periodS, frames); err != nil {
		w.Close()
		os.Remove(*out)
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Info().Str("out", *out).Int("pixels", n).Int("steps", h).Uint16("period_s", periodS).Msg("pattern written")
	return nil
}

// periodSeconds checks a cycle length against the header's u16 field. Zero
// would write a file the controller skips as unplayable.
func periodSeconds(v uint) (uint16, error) {
	if v == 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("-period %d out of range 1..%d", v, math.MaxUint16)
	}
	return uint16(v), nil
}

func check(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)
	bad := 0
	for _, p := range fs.Args() {
		h, err := verifyFile(p)
		if err != nil {
			log.Error().Err(err).Str("file", p).Msg("invalid")
			bad++
			continue
		}
		ev := log.Info()
		if !h.Playable() {
			ev = log.Warn()
		}
		ev.Str("file", p).
			Str("name", cache.DisplayName(p)).
			Str("order", h.Order.String()).
			Uint16("pixels", h.NumPixels).
			Uint16("steps", h.Steps).
			Uint16("period_s", h.PeriodS).
			Bool("playable", h.Playable()).
			Msg("ok")
	}
	if bad > 0 {
		return fmt.Errorf("%d invalid file(s)", bad)
	}
	return nil
}

func verifyFile(p string) (cache.Header, error) {
	f, err := os.Open(p)
	if err != nil {
		return cache.Header{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return cache.Header{}, err
	}
	return cache.Verify(f, st.Size())
}

// ls scans a store exactly as the controller does at startup and prints
// what it would load.
func ls(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	cfgPath := fs.String("config", "", "lumibed.yaml (default: bed)")
	root := fs.String("root", "", "override the store root")
	imgPath := fs.String("image", "", "read from a littlefs image instead of a directory")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *root != "" {
		cfg.Store.Root = *root
	}
	if *imgPath != "" {
		cfg.Store.Backend = config.BackendLittleFS
		cfg.Store.Image = *imgPath
	}
	l, err := cfg.Layout()
	if err != nil {
		return err
	}
	vol, scanRoot, err := app.OpenVolume(cfg.Store)
	if err != nil {
		return err
	}
	if c, ok := vol.(io.Closer); ok {
		defer c.Close()
	}
	st := cache.NewStore(vol, l, cfg.Store.Max, log.Logger)
	defer st.Close()
	if _, err := st.Scan(scanRoot); err != nil {
		return err
	}
	for i, r := range st.Resources() {
		fmt.Printf("%2d  %-24s %5d px %5d steps %4ds  %s\n", i, r.Name, r.Header.NumPixels, r.Header.Steps, r.Header.PeriodS, r.Path)
	}
	return nil
}

// toPNG renders a pattern file as an image, one row per step.
func toPNG(args []string) error {
	fs := flag.NewFlagSet("png", flag.ExitOnError)
	in := fs.String("in", "", "pattern .bin")
	out := fs.String("out", "", "output image (default: <in>.png)")
	scale := fs.Int("scale", 1, "row height in pixels")
	fs.Parse(args)
	if *in == "" {
		return errors.New("-in is required")
	}
	if *out == "" {
		*out = trimExt(*in) + ".png"
	}
	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	h, err := cache.Verify(f, st.Size())
	if err != nil {
		return err
	}
	payload := make([]byte, h.PayloadSize())
	if _, err := io.ReadFull(f, payload); err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, int(h.NumPixels), int(h.Steps)))
	for y := 0; y < int(h.Steps); y++ {
		for x := 0; x < int(h.NumPixels); x++ {
			off := (y*int(h.NumPixels) + x) * cache.PixelSize
			c := h.Order.Get(payload[off : off+cache.PixelSize])
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	var res image.Image = img
	if *scale > 1 {
		res = imaging.Resize(img, img.Bounds().Dx(), img.Bounds().Dy()**scale, imaging.NearestNeighbor)
	}
	if err := imaging.Save(res, *out); err != nil {
		return err
	}
	log.Info().Str("out", *out).Msg("preview written")
	return nil
}

// importCmd replaces the store's patterns with those found under the
// import folder of a removable volume.
func importCmd(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	from := fs.String("from", "", "mounted removable volume")
	dir := fs.String("dir", cache.ImportDir, "pattern folder on the removable volume")
	to := fs.String("to", config.DefaultStoreRoot, "store directory (inside the image with -image)")
	img := fs.String("image", "", "littlefs image to write into")
	blocks := fs.Int64("blocks", config.DefaultImageBlock, "image size in blocks when creating it")
	fs.Parse(args)
	if *from == "" {
		return errors.New("-from is required")
	}
	src := storage.NewDir(*from)

	var dst storage.WritableVolume
	dstDir := *to
	if *img != "" {
		dev, err := storage.OpenImage(*img, *blocks)
		if err != nil {
			return err
		}
		defer dev.Close()
		lfs, err := storage.MountLittleFS(dev, true)
		if err != nil {
			return fmt.Errorf("mount %s: %w", *img, err)
		}
		defer lfs.Close()
		if err := lfs.Mkdir(dstDir); err != nil {
			return err
		}
		dst = lfs
	} else {
		if err := os.MkdirAll(dstDir, 0o755); err != nil {
			return err
		}
		dst = storage.NewDir(dstDir)
		dstDir = ""
	}
	n, err := cache.Import(src, *dir, dst, dstDir, log.Logger)
	if err != nil {
		return err
	}
	log.Info().Int("files", n).Msg("import complete")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func trimExt(p string) string {
	return p[:len(p)-len(filepath.Ext(p))]
}
