package tuner

import (
	"image/color"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestRenderDisparity(t *testing.T) {
	disparity := mat.NewDense(2, 3, []float64{
		4, 4, 2,
		0, -1, 4,
	})
	img := RenderDisparity(disparity)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 3)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 2)

	// the maximum disparity renders as pure red, invalid pixels as black
	test.That(t, img.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{R: 255, A: 255})
	test.That(t, img.NRGBAAt(1, 1), test.ShouldResemble, color.NRGBA{A: 255})

	// sub-maximum disparities keep a colder hue than the maximum
	mid := img.NRGBAAt(2, 0)
	test.That(t, mid.B > 0 || mid.G > 0, test.ShouldBeTrue)
}

func TestRenderDisparityAllZero(t *testing.T) {
	img := RenderDisparity(mat.NewDense(2, 2, nil))
	test.That(t, img.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{A: 255})
}
