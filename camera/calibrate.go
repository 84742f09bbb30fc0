package camera

import (
	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/visionworks/stereo/calib"
	"github.com/visionworks/stereo/kernel"
)

// CalibrateFolder detects chessboard corners in every stereo pair found in
// dir and solves a calibration. Pairs where the board is not visible on both
// sides are skipped with a warning. Returns the calibration and its average
// epipolar error across all accepted observations.
func CalibrateFolder(
	k kernel.Kernel,
	dir string,
	rows, columns int,
	squareSize float64,
	logger golog.Logger,
) (*calib.StereoCalibration, float64, error) {
	pairs, err := FindPairs(dir)
	if err != nil {
		return nil, 0, err
	}
	first, err := imaging.Open(pairs[0].Left)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "reading image %s", pairs[0].Left)
	}
	calibrator := calib.NewStereoCalibrator(k, rows, columns, squareSize, first.Bounds().Size(), logger)
	for _, p := range pairs {
		left, err := imaging.Open(p.Left)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "reading image %s", p.Left)
		}
		right, err := imaging.Open(p.Right)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "reading image %s", p.Right)
		}
		if err := calibrator.AddCorners(left, right); err != nil {
			if errors.Is(err, calib.ErrChessboardNotFound) {
				logger.Warnw("skipping pair without a full chessboard", "left", p.Left, "error", err)
				continue
			}
			return nil, 0, err
		}
	}
	calibration, err := calibrator.Calibrate()
	if err != nil {
		return nil, 0, err
	}
	avgErr, err := calibrator.CheckCalibration(calibration)
	if err != nil {
		return nil, 0, err
	}
	logger.Infow("calibration solved", "pairs", calibrator.ImageCount(), "avgEpipolarError", avgErr)
	return calibration, avgErr, nil
}
