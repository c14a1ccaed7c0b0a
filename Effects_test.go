package gifencoder

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func grayImage(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, color.RGBA{v, v, v, 255})
	return img
}

func TestEffectsZeroValue(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	copy(src.Pix, gradientRGBA(8, 8))
	out := Effects{}.Apply(src)
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Error("Expected the zero Effects to leave pixels unchanged")
	}
}

func TestEffectsBrightness(t *testing.T) {
	out := Effects{Brightness: 30}.Apply(grayImage(4, 4, 100))
	if c := out.NRGBAAt(2, 2); c.R <= 100 || c.R != c.G || c.G != c.B {
		t.Errorf("Expected a lighter grey, got %v", c)
	}
	out = Effects{Brightness: -30}.Apply(grayImage(4, 4, 100))
	if c := out.NRGBAAt(2, 2); c.R >= 100 {
		t.Errorf("Expected a darker grey, got %v", c)
	}
}

func TestEffectsSaturation(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	fill(src, color.RGBA{200, 100, 100, 255})
	out := Effects{Saturation: -100}.Apply(src)
	if c := out.NRGBAAt(0, 0); c.R != c.G || c.G != c.B {
		t.Errorf("Expected grey after full desaturation, got %v", c)
	}
}

func TestEffectsBlurKeepsBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 25, 15))
	out := Effects{Blur: 2}.Apply(src)
	if out.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Errorf("Expected 20x10 at the origin, got %v", out.Bounds())
	}
}

func TestEffectsGrain(t *testing.T) {
	src := grayImage(32, 32, 50)
	e := Effects{Grain: 100, Seed: 42}

	a := e.Apply(src)
	b := e.Apply(src)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("Expected the same grain for the same seed")
	}

	changed := 0
	for i := 0; i < len(a.Pix); i += 4 {
		if a.Pix[i] != 50 || a.Pix[i+1] != 50 || a.Pix[i+2] != 50 {
			changed++
		}
		if a.Pix[i] < 50 || a.Pix[i+1] < 50 || a.Pix[i+2] < 50 {
			t.Fatalf("Grain darkened pixel %d", i/4)
		}
	}
	// Density at 100 is 30% of 1024 pixels.
	if changed < 200 || changed > 420 {
		t.Errorf("Expected roughly 300 grain pixels, got %d", changed)
	}

	other := Effects{Grain: 100, Seed: 43}.Apply(src)
	if bytes.Equal(a.Pix, other.Pix) {
		t.Error("Expected a different seed to move the grain")
	}
}
