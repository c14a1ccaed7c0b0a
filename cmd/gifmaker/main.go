// Command gifmaker turns a list of images into an animated GIF.
//
//	gifmaker -o out.gif -fps 12 -dither FloydSteinberg frames/*.png
//	gifmaker -project meme.json -o meme.gif -info
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"

	gifencoder "github.com/ManInM00N/memegif"
	"github.com/ManInM00N/memegif/internal/project"
	"github.com/disintegration/imaging"
	"github.com/tidwall/pretty"
)

var (
	output      = flag.String("o", "out.gif", "output file")
	projectFile = flag.String("project", "", "JSON project manifest")
	width       = flag.Int("width", 0, "output width, 0 uses the first frame")
	height      = flag.Int("height", 0, "output height, 0 uses the first frame")
	fps         = flag.Int("fps", 10, "frames per second")
	delay       = flag.Int("delay", 0, "delay per frame in milliseconds, overrides -fps")
	quality     = flag.Int("quality", 10, "palette sampling, 1 (best) to 30 (fastest)")
	dither      = flag.String("dither", "", "FloydSteinberg, FalseFloydSteinberg, Stucki or Atkinson, optionally with -serpentine")
	quantizer   = flag.String("quantizer", "neuquant", "neuquant or mediancut")
	repeat      = flag.Int("repeat", 0, "-1 plays once, 0 loops forever, n loops n extra times")
	global      = flag.Bool("global", false, "share one palette between all frames")
	workers     = flag.Int("workers", 0, "frames encoded at once, 0 uses all CPUs")
	blur        = flag.Float64("blur", 0, "gaussian blur sigma in pixels")
	contrast    = flag.Float64("contrast", 0, "contrast change in percent")
	saturation  = flag.Float64("saturation", 0, "saturation change in percent")
	brightness  = flag.Float64("brightness", 0, "brightness change in percent")
	grain       = flag.Float64("grain", 0, "film grain, 0 to 100")
	seed        = flag.Int64("seed", 1, "grain seed")
	verbose     = flag.Bool("v", false, "log every frame")
	info        = flag.Bool("info", false, "print a JSON summary when done")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image|glob...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("gifmaker failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	m, err := manifest()
	if err != nil {
		return err
	}

	images := make([]image.Image, len(m.Frames))
	for i, f := range m.Frames {
		img, err := imaging.Open(f.Path, imaging.AutoOrientation(true))
		if err != nil {
			return err
		}
		images[i] = img
		logger.Debug("loaded frame", "path", f.Path, "size", img.Bounds().Size())
	}
	if m.Width == 0 || m.Height == 0 {
		b := images[0].Bounds()
		m.Width, m.Height = b.Dx(), b.Dy()
	}

	opts, err := m.Options()
	if err != nil {
		return err
	}
	opts.Logger = logger
	last := -1
	opts.Progress = func(p float64) {
		// every 10%
		if step := int(p * 10); step > last {
			last = step
			logger.Info("rendering", "progress", fmt.Sprintf("%.0f%%", p*100))
		}
	}

	r, err := gifencoder.NewRenderer(opts)
	if err != nil {
		return err
	}
	total := 0
	for i, img := range images {
		fo := m.FrameOptions(i)
		total += fo.Delay
		if err := r.AddImage(img, fo); err != nil {
			return fmt.Errorf("%s: %w", m.Frames[i].Path, err)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	n, err := r.RenderTo(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(*output)
		return err
	}
	logger.Info("wrote gif", "path", *output, "frames", r.Len(), "bytes", n)

	if *info {
		return printInfo(m, opts, r.Len(), n, total)
	}
	return nil
}

// manifest builds the project from -project, then applies any flags given
// on the command line on top of it.
func manifest() (*project.Manifest, error) {
	var m *project.Manifest
	if *projectFile != "" {
		var err error
		if m, err = project.Load(*projectFile); err != nil {
			return nil, err
		}
	} else {
		m = &project.Manifest{
			FPS:       *fps,
			Quality:   *quality,
			Dither:    *dither,
			Quantizer: *quantizer,
			Repeat:    *repeat,
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["width"] {
		m.Width = *width
	}
	if set["height"] {
		m.Height = *height
	}
	if set["fps"] {
		m.FPS = *fps
	}
	if set["quality"] {
		m.Quality = *quality
	}
	if set["dither"] {
		m.Dither = *dither
	}
	if set["quantizer"] {
		m.Quantizer = *quantizer
	}
	if set["repeat"] {
		m.Repeat = *repeat
	}
	if set["global"] {
		m.GlobalPalette = *global
	}
	if set["workers"] {
		m.Workers = *workers
	}
	if set["blur"] || set["contrast"] || set["saturation"] || set["brightness"] || set["grain"] || set["seed"] {
		e := gifencoder.Effects{}
		if m.Effects != nil {
			e = *m.Effects
		}
		if set["blur"] {
			e.Blur = float32(*blur)
		}
		if set["contrast"] {
			e.Contrast = float32(*contrast)
		}
		if set["saturation"] {
			e.Saturation = float32(*saturation)
		}
		if set["brightness"] {
			e.Brightness = float32(*brightness)
		}
		if set["grain"] {
			e.Grain = float32(*grain)
		}
		if set["seed"] {
			e.Seed = *seed
		}
		m.Effects = &e
	}

	for _, arg := range flag.Args() {
		if err := m.AddFrames(".", arg, project.Frame{}); err != nil {
			return nil, err
		}
	}
	if len(m.Frames) == 0 {
		flag.Usage()
		return nil, errors.New("no input images")
	}
	if *delay > 0 {
		for i := range m.Frames {
			m.Frames[i].Delay = *delay
		}
	}
	return m, nil
}

func printInfo(m *project.Manifest, opts gifencoder.Options, frames int, size int64, duration int) error {
	summary := map[string]any{
		"output":        *output,
		"width":         opts.Width,
		"height":        opts.Height,
		"frames":        frames,
		"bytes":         size,
		"durationMs":    duration,
		"repeat":        opts.Repeat,
		"globalPalette": opts.GlobalPalette,
		"dither":        opts.Dither.String(),
		"quantizer":     opts.Quantizer.String(),
	}
	if m.Effects != nil {
		summary["effects"] = m.Effects
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	data = pretty.Pretty(data)
	if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		data = pretty.Color(data, nil)
	}
	_, err = os.Stdout.Write(data)
	return err
}
