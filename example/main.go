package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	gifencoder "github.com/ManInM00N/memegif"
)

func main() {
	fmt.Println("GIF Encoder Examples")
	fmt.Println("====================")

	// Example 1: Frames pushed as raw RGBA
	fmt.Println("\n1. Creating bouncing ball...")
	if err := bouncingBall(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("✅ Created ball.gif")
	}

	// Example 2: Dithered gradient with grain
	fmt.Println("\n2. Creating dithered gradient...")
	if err := ditheredGradient(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("✅ Created gradient.gif")
	}

	// Example 3: Background render with a shared palette
	fmt.Println("\n3. Creating hue cycle in the background...")
	if err := hueCycle(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("✅ Created hue.gif")
	}

	fmt.Println("\nAll done!")
}

// bouncingBall draws a ball into RGBA buffers and hands them to a Renderer.
func bouncingBall() error {
	const width, height = 160, 120
	r, err := gifencoder.NewRenderer(gifencoder.Options{
		Width:   width,
		Height:  height,
		Quality: 10,
		Progress: func(p float64) {
			fmt.Printf("\r   %3.0f%%", p*100)
		},
	})
	if err != nil {
		return err
	}

	delay := gifencoder.DelayForFPS(20)
	for f := 0; f < 24; f++ {
		pix := make([]byte, width*height*4)
		cx := 20 + f*5
		cy := height - 20 - int(math.Abs(math.Sin(float64(f)/24*2*math.Pi))*70)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 4
				dx, dy := x-cx, y-cy
				if dx*dx+dy*dy <= 15*15 {
					pix[i], pix[i+1], pix[i+2] = 230, 40, 40
				} else {
					pix[i], pix[i+1], pix[i+2] = 250, 250, 245
				}
				pix[i+3] = 255
			}
		}
		if err := r.AddFrame(pix, gifencoder.FrameOptions{Delay: delay}); err != nil {
			return err
		}
	}

	f, err := os.Create("ball.gif")
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.RenderTo(context.Background(), f)
	fmt.Println()
	return err
}

// ditheredGradient uses the one-call helper with dithering and effects.
func ditheredGradient() error {
	const width, height = 200, 200
	frames := make([]image.Image, 12)
	for f := range frames {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(x, y, color.RGBA{
					uint8((x + f*20) % 256),
					uint8((y + f*10) % 256),
					200,
					255,
				})
			}
		}
		frames[f] = img
	}

	gifData, err := gifencoder.EncodeGIFWithOptions(frames, gifencoder.EncodeOptions{
		Repeat:  0, // loop forever
		Quality: 5,
		Dither:  "FloydSteinberg-serpentine",
		Effects: &gifencoder.Effects{Contrast: 10, Grain: 20, Seed: 1},
	})
	if err != nil {
		return err
	}
	return os.WriteFile("gradient.gif", gifData, 0644)
}

// hueCycle renders a spinning square on a shared palette in the background
// and prints progress from the job channel.
func hueCycle() error {
	const width, height = 150, 150
	r, err := gifencoder.NewRenderer(gifencoder.Options{
		Width:         width,
		Height:        height,
		GlobalPalette: true,
		Dither:        gifencoder.Dither{Kernel: gifencoder.KernelAtkinson},
	})
	if err != nil {
		return err
	}

	for f := 0; f < 15; f++ {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 20, 20, 40, 255
		}
		cr, cg, cb := hsvToRGB(float64(f)/15, 1, 1)
		angle := float64(f) / 15 * math.Pi / 2
		sin, cos := math.Sincos(angle)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				// rotate into the square's frame
				u := float64(x-75)*cos + float64(y-75)*sin
				v := -float64(x-75)*sin + float64(y-75)*cos
				if math.Abs(u) <= 30 && math.Abs(v) <= 30 {
					img.SetRGBA(x, y, color.RGBA{cr, cg, cb, 255})
				}
			}
		}
		if err := r.AddImage(img, gifencoder.FrameOptions{Delay: 80}); err != nil {
			return err
		}
	}

	job := r.Start(context.Background())
	for p := range job.Progress() {
		fmt.Printf("\r   %3.0f%%", p*100)
	}
	fmt.Println()
	gifData, err := job.Wait()
	if err != nil {
		return err
	}
	return os.WriteFile("hue.gif", gifData, 0644)
}

// hsvToRGB converts HSV color to RGB (h: 0-1, s: 0-1, v: 0-1)
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	if s == 0 {
		val := uint8(v * 255)
		return val, val, val
	}

	h *= 6
	i := int(h) % 6
	f := h - math.Floor(h)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch i {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return uint8(r * 255), uint8(g * 255), uint8(b * 255)
}
