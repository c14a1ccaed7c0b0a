package gifencoder

import (
	"image"
	"math/rand"

	"github.com/disintegration/gift"
)

// Effects are per-frame pixel adjustments applied before a frame is fitted
// to the canvas. The zero value changes nothing.
type Effects struct {
	Blur       float32 // gaussian blur sigma in pixels
	Contrast   float32 // percent, -100..100
	Saturation float32 // percent, -100..500
	Brightness float32 // percent, -100..100

	// Grain sprinkles coloured dots over up to 30% of the pixels at 100.
	Grain float32 // 0..100
	Seed  int64
}

func (e Effects) filters() *gift.GIFT {
	g := gift.New()
	if e.Blur > 0 {
		g.Add(gift.GaussianBlur(e.Blur))
	}
	if e.Contrast != 0 {
		g.Add(gift.Contrast(e.Contrast))
	}
	if e.Saturation != 0 {
		g.Add(gift.Saturation(e.Saturation))
	}
	if e.Brightness != 0 {
		g.Add(gift.Brightness(e.Brightness))
	}
	return g
}

// Apply returns a filtered copy of img with its origin at (0, 0).
func (e Effects) Apply(img image.Image) *image.NRGBA {
	g := e.filters()
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	if e.Grain > 0 {
		e.addGrain(dst)
	}
	return dst
}

// addGrain lightens random pixels: 40% grey dots, then 20% each red and
// blue, the rest a dimmer green.
func (e Effects) addGrain(img *image.NRGBA) {
	rng := rand.New(rand.NewSource(e.Seed))
	density := float64(min(e.Grain, 100)) / 100 * 0.3

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			if rng.Float64() >= density {
				continue
			}
			kind := rng.Float64()
			lift := 20 + rng.Float64()*40
			switch {
			case kind < 0.4:
				row[i] = lighten(row[i], lift)
				row[i+1] = lighten(row[i+1], lift)
				row[i+2] = lighten(row[i+2], lift)
			case kind < 0.6:
				row[i] = lighten(row[i], lift)
			case kind < 0.8:
				row[i+2] = lighten(row[i+2], lift)
			default:
				row[i+1] = lighten(row[i+1], lift*0.7)
			}
		}
	}
}

func lighten(v byte, by float64) byte {
	return clampByte(int(float64(v) + by))
}
