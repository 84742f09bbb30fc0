package tuner

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
)

// RenderDisparity maps a disparity matrix onto a false-color image.
// Disparities are normalized by the map's current maximum so the full hue
// range stays visible as parameters change; near points come out red, far
// points blue. Invalid disparities (negative sentinel values) render black.
func RenderDisparity(disparity *mat.Dense) *image.NRGBA {
	rows, cols := disparity.Dims()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	max := mat.Max(disparity)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := disparity.At(y, x)
			if v < 0 || max <= 0 {
				img.SetNRGBA(x, y, color.NRGBA{A: 255})
				continue
			}
			norm := v / max
			if norm > 1 {
				norm = 1
			}
			r, g, b := colorful.Hsv(240*(1-norm), 1, 1).RGB255()
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
