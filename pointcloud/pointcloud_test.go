package pointcloud

import (
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testCloud(t *testing.T) *PointCloud {
	t.Helper()
	pc, err := New(
		[]r3.Vector{
			{X: 0, Y: 0, Z: math.Inf(-1)},
			{X: 1, Y: 2, Z: 30},
			{X: 2, Y: 1, Z: 45},
			{X: 3, Y: 3, Z: math.Inf(-1)},
		},
		[]color.NRGBA{
			{A: 255},
			{R: 10, A: 255},
			{R: 20, A: 255},
			{R: 30, A: 255},
		},
	)
	test.That(t, err, test.ShouldBeNil)
	return pc
}

func TestNewLengthMismatch(t *testing.T) {
	_, err := New(make([]r3.Vector, 3), make([]color.NRGBA, 2))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSizeAndAt(t *testing.T) {
	pc := testCloud(t)
	test.That(t, pc.Size(), test.ShouldEqual, 4)
	test.That(t, len(pc.Positions()), test.ShouldEqual, len(pc.Colors()))

	p, c := pc.At(2)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 2, Y: 1, Z: 45})
	test.That(t, c, test.ShouldResemble, color.NRGBA{R: 20, A: 255})
}

func TestFilterInfinity(t *testing.T) {
	pc := testCloud(t)
	filtered := pc.FilterInfinity()
	test.That(t, filtered.Size(), test.ShouldEqual, 2)
	test.That(t, len(filtered.Positions()), test.ShouldEqual, len(filtered.Colors()))

	p, c := filtered.At(0)
	test.That(t, p.Z, test.ShouldEqual, 30.0)
	test.That(t, c, test.ShouldResemble, color.NRGBA{R: 10, A: 255})

	// the original cloud is untouched
	test.That(t, pc.Size(), test.ShouldEqual, 4)
}

func TestFilterInfinityIdempotent(t *testing.T) {
	pc := testCloud(t)
	once := pc.FilterInfinity()
	twice := once.FilterInfinity()
	test.That(t, twice.Size(), test.ShouldEqual, once.Size())
	test.That(t, twice.Positions(), test.ShouldResemble, once.Positions())
	test.That(t, twice.Colors(), test.ShouldResemble, once.Colors())
}

func TestFilterInfinityEmpty(t *testing.T) {
	pc, err := New(nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.FilterInfinity().Size(), test.ShouldEqual, 0)
}

func TestMinZ(t *testing.T) {
	pc, err := New(
		[]r3.Vector{{Z: 5}, {Z: -3}, {Z: 12}},
		make([]color.NRGBA, 3),
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.MinZ(), test.ShouldEqual, -3.0)
}
