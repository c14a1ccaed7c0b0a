package gifencoder

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/ericpauley/go-quantize/quantize"
)

const maxPaletteColors = 256

// Quantizer selects the algorithm used to learn a palette from a frame.
type Quantizer int

const (
	// QuantizerNeuQuant trains a NeuQuant network. Quality trades speed for
	// fidelity.
	QuantizerNeuQuant Quantizer = iota
	// QuantizerMedianCut splits the colour space by median cut. Quality is
	// ignored.
	QuantizerMedianCut
)

func (q Quantizer) String() string {
	switch q {
	case QuantizerNeuQuant:
		return "neuquant"
	case QuantizerMedianCut:
		return "mediancut"
	}
	return fmt.Sprintf("Quantizer(%d)", int(q))
}

// ParseQuantizer maps a quantizer name to its Quantizer. The empty string
// selects NeuQuant.
func ParseQuantizer(name string) (Quantizer, error) {
	switch strings.ToLower(name) {
	case "", "neuquant":
		return QuantizerNeuQuant, nil
	case "mediancut", "median-cut":
		return QuantizerMedianCut, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuantizer, name)
}

// Palette is an immutable RGB colour table of 1 to 256 entries.
type Palette struct {
	colors []byte
	nq     *NeuQuant // set when the palette came from NeuQuant
}

// NewPalette copies rgb ([r,g,b,r,g,b,...]) into a Palette.
func NewPalette(rgb []byte) (*Palette, error) {
	if len(rgb) == 0 || len(rgb)%3 != 0 || len(rgb) > maxPaletteColors*3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPalette, len(rgb))
	}
	colors := make([]byte, len(rgb))
	copy(colors, rgb)
	return &Palette{colors: colors}, nil
}

// Len returns the number of entries.
func (p *Palette) Len() int {
	return len(p.colors) / 3
}

// Bytes returns a copy of the table as [r,g,b,r,g,b,...].
func (p *Palette) Bytes() []byte {
	out := make([]byte, len(p.colors))
	copy(out, p.colors)
	return out
}

// Lookup returns the index of the entry closest to r, g, b.
func (p *Palette) Lookup(r, g, b byte) int {
	if p.nq != nil {
		return p.nq.LookupRGB(r, g, b)
	}

	minpos := 0
	dmin := 256 * 256 * 256
	for i, index := 0, 0; i+2 < len(p.colors); i, index = i+3, index+1 {
		dr := int(r) - int(p.colors[i])
		dg := int(g) - int(p.colors[i+1])
		db := int(b) - int(p.colors[i+2])
		d := dr*dr + dg*dg + db*db
		if d < dmin {
			dmin = d
			minpos = index
		}
	}
	return minpos
}

func (p *Palette) rgb(i int) (r, g, b int) {
	c := p.colors[i*3 : i*3+3]
	return int(c[0]), int(c[1]), int(c[2])
}

// buildPalette learns a palette for the RGB pixels of one frame.
func buildPalette(pixels []byte, width, height, quality int, q Quantizer) *Palette {
	if q == QuantizerMedianCut && len(pixels) > 0 {
		if p := medianCutPalette(pixels, width, height); p != nil {
			return p
		}
	}
	nq := NewNeuQuant(pixels, quality)
	nq.BuildColormap()
	return &Palette{colors: nq.GetColormap(), nq: nq}
}

func medianCutPalette(pixels []byte, width, height int) *Palette {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, k := 0, 0; k+2 < len(pixels) && i+3 < len(img.Pix); i, k = i+4, k+3 {
		img.Pix[i] = pixels[k]
		img.Pix[i+1] = pixels[k+1]
		img.Pix[i+2] = pixels[k+2]
		img.Pix[i+3] = 0xff
	}

	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, maxPaletteColors), img)
	if len(pal) == 0 {
		return nil
	}
	if len(pal) > maxPaletteColors {
		pal = pal[:maxPaletteColors]
	}

	colors := make([]byte, 0, len(pal)*3)
	for _, c := range pal {
		r, g, b, _ := c.RGBA()
		colors = append(colors, byte(r>>8), byte(g>>8), byte(b>>8))
	}
	return &Palette{colors: colors}
}

// tableBits returns the GIF colour table size field for n entries:
// the table holds 2^(bits+1) entries, never fewer than 8.
func tableBits(n int) int {
	size := 2
	for size < 7 && 1<<(size+1) < n {
		size++
	}
	return size
}
