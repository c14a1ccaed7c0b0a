package gifencoder

import (
	"context"
	"errors"
	"image"
	"math"
)

const (
	defaultDelay = 100 // ms
	defaultFPS   = 10
)

// DelayForFPS returns the per-frame delay in milliseconds for fps frames per
// second. Non-positive rates fall back to 10 fps.
func DelayForFPS(fps int) int {
	if fps <= 0 {
		fps = defaultFPS
	}
	return int(math.Round(1000 / float64(fps)))
}

// EncodeGIF is a convenience function to quickly encode multiple images into a GIF
// images: slice of images to encode
// delays: slice of delays in milliseconds for each frame
func EncodeGIF(images []image.Image, delays []int) ([]byte, error) {
	return EncodeGIFWithOptions(images, EncodeOptions{Delays: delays})
}

// EncodeOptions provides more control over EncodeGIFWithOptions
type EncodeOptions struct {
	Width         int      // width of output GIF
	Height        int      // height of output GIF
	Repeat        int      // -1 = once, 0 = forever, >0 = count
	Quality       int      // 1-30, lower is better
	Dither        string   // dithering method, see ParseDither
	GlobalPalette bool     // share one palette between frames
	Palette       []byte   // optional explicit global palette
	Delays        []int    // delays in milliseconds
	Effects       *Effects // applied to every frame
	Workers       int
}

// EncodeGIFWithOptions encodes images with custom options. Images that do
// not match the output size are fitted onto a black canvas.
func EncodeGIFWithOptions(images []image.Image, opts EncodeOptions) ([]byte, error) {
	if len(images) == 0 {
		return nil, errors.New("no images provided")
	}

	width := opts.Width
	height := opts.Height
	if width == 0 || height == 0 {
		bounds := images[0].Bounds()
		width = bounds.Dx()
		height = bounds.Dy()
	}

	dither, err := ParseDither(opts.Dither)
	if err != nil {
		return nil, err
	}

	r, err := NewRenderer(Options{
		Width:         width,
		Height:        height,
		Quality:       opts.Quality,
		Dither:        dither,
		Repeat:        opts.Repeat,
		GlobalPalette: opts.GlobalPalette,
		Palette:       opts.Palette,
		Workers:       opts.Workers,
	})
	if err != nil {
		return nil, err
	}

	for i, img := range images {
		delay := defaultDelay
		if i < len(opts.Delays) && opts.Delays[i] > 0 {
			delay = opts.Delays[i]
		}
		if err := r.AddImage(img, FrameOptions{Delay: delay, Effects: opts.Effects}); err != nil {
			return nil, err
		}
	}

	return r.Render(context.Background())
}
