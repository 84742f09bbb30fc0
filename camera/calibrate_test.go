package camera

import (
	"context"
	"image"
	"io"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/visionworks/stereo/kernel"
)

func writePairFolder(t *testing.T, count, w, h int) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 1; i <= count; i++ {
		left, right := PairName(i, ".png")
		test.That(t, imaging.Save(img, filepath.Join(dir, left)), test.ShouldBeNil)
		test.That(t, imaging.Save(img, filepath.Join(dir, right)), test.ShouldBeNil)
	}
	return dir
}

func TestCalibrateFolder(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sk := &kernel.SyntheticKernel{FocalLength: 250, Baseline: 10, Disparity: 4}
	dir := writePairFolder(t, 3, 16, 12)

	calibration, avgErr, err := CalibrateFolder(sk, dir, 6, 9, 2.5, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calibration.CamMats.Left.At(0, 0), test.ShouldEqual, 250.0)
	test.That(t, avgErr, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestCalibrateFolderEmpty(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sk := &kernel.SyntheticKernel{FocalLength: 250, Baseline: 10, Disparity: 4}
	_, _, err := CalibrateFolder(sk, t.TempDir(), 6, 9, 2.5, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewFolderSource(t *testing.T) {
	dir := writePairFolder(t, 1, 8, 6)
	src, err := NewFolderSource(dir)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, src.Close(), test.ShouldBeNil)
	}()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		img, err := src.Next(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img.Bounds().Dx(), test.ShouldEqual, 8)
	}
	_, err = src.Next(ctx)
	test.That(t, err, test.ShouldEqual, io.EOF)
}

func TestSourcesFromFolder(t *testing.T) {
	dir := writePairFolder(t, 2, 8, 6)
	left, right, err := SourcesFromFolder(dir)
	test.That(t, err, test.ShouldBeNil)

	ctx := context.Background()
	l, err := left.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	r, err := right.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.Bounds(), test.ShouldResemble, r.Bounds())
}
