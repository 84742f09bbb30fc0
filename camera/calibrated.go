package camera

import (
	"context"
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/visionworks/stereo/blockmatch"
	"github.com/visionworks/stereo/calib"
	"github.com/visionworks/stereo/kernel"
	"github.com/visionworks/stereo/pointcloud"
)

// CalibratedPair is a stereo session whose frames are rectified by a
// calibration and turned into point clouds by a block matcher. Pair may be
// nil for offline use against images already on disk.
type CalibratedPair struct {
	Pair        *StereoPair
	Calibration *calib.StereoCalibration
	Matcher     blockmatch.Matcher
	Kernel      kernel.Kernel
}

// NextRectified returns the next frame pair, rectified.
func (cp *CalibratedPair) NextRectified(ctx context.Context) (image.Image, image.Image, error) {
	left, right, err := cp.Pair.NextPair(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cp.Calibration.Rectify(left, right)
}

// PointCloud computes a colored point cloud from a rectified image pair:
// disparity from the block matcher, 3D positions from the kernel's
// reprojection through the disparity-to-depth matrix, and colors sampled
// from the left rectified image in RGB order at the same pixel index. Any
// kernel failure is fatal to the pipeline; a mismatch between pair and
// calibration dimensions is a configuration error, not a retryable one.
func (cp *CalibratedPair) PointCloud(left, right image.Image) (*pointcloud.PointCloud, error) {
	disparity, err := cp.Matcher.Disparity(left, right)
	if err != nil {
		return nil, errors.Wrap(err, "computing disparity")
	}
	positions, err := cp.Kernel.ReprojectTo3D(disparity, cp.Calibration.DispToDepthMat)
	if err != nil {
		return nil, errors.Wrap(err, "reprojecting disparity")
	}
	colors, err := imageColors(left, len(positions))
	if err != nil {
		return nil, err
	}
	return pointcloud.New(positions, colors)
}

// imageColors flattens an image to RGB colors in the reprojection's
// row-major pixel order.
func imageColors(img image.Image, want int) ([]color.NRGBA, error) {
	b := img.Bounds()
	if b.Dx()*b.Dy() != want {
		return nil, errors.Errorf("image has %d pixels but reprojection produced %d points",
			b.Dx()*b.Dy(), want)
	}
	colors := make([]color.NRGBA, 0, want)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			colors = append(colors, color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
		}
	}
	return colors, nil
}
