package kernel

import (
	"image"
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestChessboardSizeCornerCount(t *testing.T) {
	test.That(t, ChessboardSize{Rows: 6, Columns: 9}.CornerCount(), test.ShouldEqual, 54)
}

func TestSyntheticCorners(t *testing.T) {
	sk := &SyntheticKernel{FocalLength: 250, Baseline: 10}
	img := image.NewGray(image.Rect(0, 0, 64, 48))

	corners, found, err := sk.FindChessboardCorners(img, ChessboardSize{Rows: 6, Columns: 9})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, len(corners), test.ShouldEqual, 54)
	for _, c := range corners {
		test.That(t, c.X >= 16 && c.X <= 48, test.ShouldBeTrue)
		test.That(t, c.Y >= 12 && c.Y <= 36, test.ShouldBeTrue)
	}
}

func TestReprojectTo3DValidation(t *testing.T) {
	sk := &SyntheticKernel{FocalLength: 250, Baseline: 10}

	_, err := sk.ReprojectTo3D(mat.NewDense(2, 2, nil), mat.NewDense(3, 3, nil))
	test.That(t, err, test.ShouldNotBeNil)

	q := mat.NewDense(4, 4, nil)
	q.Set(3, 2, 0.1)
	empty := &mat.Dense{}
	_, err = sk.ReprojectTo3D(empty, q)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReprojectTo3DZeroWeightSentinel(t *testing.T) {
	sk := &SyntheticKernel{FocalLength: 250, Baseline: 10}

	// W = d/baseline, so a zero disparity pixel has zero homogeneous weight
	q := mat.NewDense(4, 4, nil)
	q.Set(0, 0, 1)
	q.Set(1, 1, 1)
	q.Set(2, 3, 250)
	q.Set(3, 2, 0.1)

	disparity := mat.NewDense(1, 2, []float64{0, 4})
	points, err := sk.ReprojectTo3D(disparity, q)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(points), test.ShouldEqual, 2)
	test.That(t, math.IsInf(points[0].Z, -1), test.ShouldBeTrue)
	test.That(t, points[1].Z, test.ShouldAlmostEqual, 250.0/0.4, 1e-9)
}
