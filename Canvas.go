package gifencoder

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Fit draws img centred on a width x height canvas filled with bg, scaled
// by min(width/w, height/h) so the whole image stays visible.
func Fit(img image.Image, width, height int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	sb := img.Bounds()
	if sb.Empty() || width <= 0 || height <= 0 {
		return dst
	}

	scale := math.Min(float64(width)/float64(sb.Dx()), float64(height)/float64(sb.Dy()))
	dw := max(1, int(math.Round(float64(sb.Dx())*scale)))
	dh := max(1, int(math.Round(float64(sb.Dy())*scale)))
	x0 := (width - dw) / 2
	y0 := (height - dh) / 2
	dr := image.Rect(x0, y0, x0+dw, y0+dh)

	if dw == sb.Dx() && dh == sb.Dy() {
		draw.Draw(dst, dr, img, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dr, img, sb, draw.Over, nil)
	}
	return dst
}
