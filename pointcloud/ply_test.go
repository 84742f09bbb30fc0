package pointcloud

import (
	"bytes"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestWritePLYHeader(t *testing.T) {
	pc, err := New(
		[]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -1.5, Y: 0, Z: 4.25}},
		[]color.NRGBA{{R: 255, G: 128, B: 0, A: 255}, {R: 1, G: 2, B: 3, A: 255}},
	)
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, pc.WritePLY(&buf), test.ShouldBeNil)

	lines := strings.Split(buf.String(), "\n")
	test.That(t, lines[0], test.ShouldEqual, "ply")
	test.That(t, lines[1], test.ShouldEqual, "format ascii 1.0")
	test.That(t, lines[2], test.ShouldEqual, "element vertex 2")
	test.That(t, lines[3], test.ShouldEqual, "property float x")
	test.That(t, lines[4], test.ShouldEqual, "property float y")
	test.That(t, lines[5], test.ShouldEqual, "property float z")
	test.That(t, lines[6], test.ShouldEqual, "property uchar red")
	test.That(t, lines[7], test.ShouldEqual, "property uchar green")
	test.That(t, lines[8], test.ShouldEqual, "property uchar blue")
	test.That(t, lines[9], test.ShouldEqual, "end_header")
	test.That(t, lines[10], test.ShouldEqual, "1.000000 2.000000 3.000000 255 128 0")
	test.That(t, lines[11], test.ShouldEqual, "-1.500000 0.000000 4.250000 1 2 3")
}

func TestPLYFileRoundTrip(t *testing.T) {
	pc, err := New(
		[]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}, {X: 7, Y: 8, Z: 9}},
		[]color.NRGBA{
			{R: 255, A: 255},
			{G: 255, A: 255},
			{B: 255, A: 255},
		},
	)
	test.That(t, err, test.ShouldBeNil)

	path := filepath.Join(t.TempDir(), "cloud.ply")
	test.That(t, pc.WritePLYFile(path), test.ShouldBeNil)

	loaded, err := ReadPLYFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.Size(), test.ShouldEqual, 3)
	for i := 0; i < pc.Size(); i++ {
		wantPos, wantColor := pc.At(i)
		gotPos, gotColor := loaded.At(i)
		test.That(t, gotPos.X, test.ShouldAlmostEqual, wantPos.X, 1e-5)
		test.That(t, gotPos.Y, test.ShouldAlmostEqual, wantPos.Y, 1e-5)
		test.That(t, gotPos.Z, test.ShouldAlmostEqual, wantPos.Z, 1e-5)
		test.That(t, gotColor, test.ShouldResemble, wantColor)
	}
}

func TestReadPLYFileMissing(t *testing.T) {
	_, err := ReadPLYFile(filepath.Join(t.TempDir(), "nope.ply"))
	test.That(t, err, test.ShouldNotBeNil)
}
