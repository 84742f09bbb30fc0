package calib

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/golang/geo/r2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawCorners overlays detected chessboard corners on a copy of the image,
// marking each with a small square and its index in detection order. Useful
// for eyeballing whether a board was detected in a sane order before
// accepting it into the observation set.
func DrawCorners(img image.Image, corners []r2.Point) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	mark := color.RGBA{R: 255, A: 255}
	const radius = 2
	for i, c := range corners {
		for dx := -radius; dx <= radius; dx++ {
			for dy := -radius; dy <= radius; dy++ {
				x, y := int(c.X)+dx, int(c.Y)+dy
				if image.Pt(x, y).In(out.Bounds()) {
					out.Set(x, y, mark)
				}
			}
		}
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(mark),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.I(int(c.X) + radius + 1), Y: fixed.I(int(c.Y))},
		}
		d.DrawString(strconv.Itoa(i))
	}
	return out
}
