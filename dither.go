package gifencoder

import (
	"fmt"
	"strings"
)

// Kernel names an error diffusion kernel.
type Kernel int

const (
	KernelNone Kernel = iota
	KernelFalseFloydSteinberg
	KernelFloydSteinberg
	KernelStucki
	KernelAtkinson
)

// tap spreads weight of the quantization error to the pixel at (x+dx, y+dy).
type tap struct {
	weight float64
	dx, dy int
}

var kernelTaps = map[Kernel][]tap{
	KernelFalseFloydSteinberg: {
		{3.0 / 8.0, 1, 0},
		{3.0 / 8.0, 0, 1},
		{2.0 / 8.0, 1, 1},
	},
	KernelFloydSteinberg: {
		{7.0 / 16.0, 1, 0},
		{3.0 / 16.0, -1, 1},
		{5.0 / 16.0, 0, 1},
		{1.0 / 16.0, 1, 1},
	},
	KernelStucki: {
		{8.0 / 42.0, 1, 0},
		{4.0 / 42.0, 2, 0},
		{2.0 / 42.0, -2, 1},
		{4.0 / 42.0, -1, 1},
		{8.0 / 42.0, 0, 1},
		{4.0 / 42.0, 1, 1},
		{2.0 / 42.0, 2, 1},
		{1.0 / 42.0, -2, 2},
		{2.0 / 42.0, -1, 2},
		{4.0 / 42.0, 0, 2},
		{2.0 / 42.0, 1, 2},
		{1.0 / 42.0, 2, 2},
	},
	// Atkinson only diffuses 6/8 of the error.
	KernelAtkinson: {
		{1.0 / 8.0, 1, 0},
		{1.0 / 8.0, 2, 0},
		{1.0 / 8.0, -1, 1},
		{1.0 / 8.0, 0, 1},
		{1.0 / 8.0, 1, 1},
		{1.0 / 8.0, 0, 2},
	},
}

var kernelNames = map[Kernel]string{
	KernelNone:                "none",
	KernelFalseFloydSteinberg: "FalseFloydSteinberg",
	KernelFloydSteinberg:      "FloydSteinberg",
	KernelStucki:              "Stucki",
	KernelAtkinson:            "Atkinson",
}

func (k Kernel) String() string {
	if name, ok := kernelNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kernel(%d)", int(k))
}

// Weight returns the fraction of the quantization error the kernel diffuses.
func (k Kernel) Weight() float64 {
	var sum float64
	for _, t := range kernelTaps[k] {
		sum += t.weight
	}
	return sum
}

func (k Kernel) valid() bool {
	_, ok := kernelNames[k]
	return ok
}

// Dither selects a kernel and scan order. The zero value disables dithering.
type Dither struct {
	Kernel Kernel
	// Serpentine alternates the scan direction on every row.
	Serpentine bool
}

func (d Dither) String() string {
	if d.Serpentine && d.Kernel != KernelNone {
		return d.Kernel.String() + "-serpentine"
	}
	return d.Kernel.String()
}

// ParseDither accepts "FloydSteinberg", "FalseFloydSteinberg", "Stucki" and
// "Atkinson", each optionally suffixed with "-serpentine". "", "none" and
// "false" disable dithering, "true" selects FloydSteinberg.
func ParseDither(name string) (Dither, error) {
	lower := strings.ToLower(name)
	switch lower {
	case "", "none", "false":
		return Dither{}, nil
	case "true":
		return Dither{Kernel: KernelFloydSteinberg}, nil
	}

	base, serpentine := strings.CutSuffix(lower, "-serpentine")
	for k, kn := range kernelNames {
		if k != KernelNone && strings.EqualFold(base, kn) {
			return Dither{Kernel: k, Serpentine: serpentine}, nil
		}
	}
	return Dither{}, fmt.Errorf("%w: %q", ErrUnknownDither, name)
}

// ditherPixels maps pixels to the palette while diffusing each pixel's
// quantization error onto its unvisited neighbours. Serpentine rows run
// right to left with the kernel mirrored.
func (fe *frameEncoder) ditherPixels(taps []tap, serpentine bool) {
	width := fe.cfg.width
	height := fe.cfg.height
	data := fe.pixels
	pal := fe.palette

	direction := 1
	if serpentine {
		direction = -1
	}

	for y := 0; y < height; y++ {
		if serpentine {
			direction = -direction
		}

		x, xEnd := 0, width
		if direction < 0 {
			x, xEnd = width-1, -1
		}

		for ; x != xEnd; x += direction {
			index := y*width + x
			k := index * 3
			r1, g1, b1 := int(data[k]), int(data[k+1]), int(data[k+2])

			ci := pal.Lookup(byte(r1), byte(g1), byte(b1))
			fe.usedEntry[ci] = true
			fe.indexedPixels[index] = byte(ci)

			r2, g2, b2 := pal.rgb(ci)
			er, eg, eb := float64(r1-r2), float64(g1-g2), float64(b1-b2)

			for _, t := range taps {
				nx := x + t.dx*direction
				ny := y + t.dy
				if nx < 0 || nx >= width || ny >= height {
					continue
				}
				n := (ny*width + nx) * 3
				data[n] = clampByte(int(data[n]) + int(er*t.weight))
				data[n+1] = clampByte(int(data[n+1]) + int(eg*t.weight))
				data[n+2] = clampByte(int(data[n+2]) + int(eb*t.weight))
			}
		}
	}
}

func clampByte(value int) byte {
	if value < 0 {
		return 0
	}
	if value > 255 {
		return 255
	}
	return byte(value)
}
