package calib

import (
	"image"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/visionworks/stereo/kernel"
)

// ErrChessboardNotFound signals that no chessboard was visible in one of the
// two frames. It is an expected condition during interactive capture; the
// caller retries with a new frame.
var ErrChessboardNotFound = errors.New("no chessboard could be found")

// ErrNoObservations signals a calibration attempt without a single accepted
// chessboard pair.
var ErrNoObservations = errors.New("no chessboard observations accumulated")

// StereoCalibrator accumulates chessboard corner observations across an
// image set and drives the kernel's calibration solve.
type StereoCalibrator struct {
	k          kernel.Kernel
	logger     golog.Logger
	boardSize  kernel.ChessboardSize
	squareSize float64
	imageSize  image.Point
	template   []r3.Vector
	obs        kernel.Observations
}

// NewStereoCalibrator sets up a calibrator for a board with the given number
// of inside corners per row and column, square size in world units, and the
// pixel size of the calibration images. The real-world corner template is
// generated once and shared by every accepted observation.
func NewStereoCalibrator(
	k kernel.Kernel,
	rows, columns int,
	squareSize float64,
	imageSize image.Point,
	logger golog.Logger,
) *StereoCalibrator {
	template := make([]r3.Vector, 0, rows*columns)
	for j := 0; j < columns; j++ {
		for i := 0; i < rows; i++ {
			template = append(template, r3.Vector{
				X: float64(i) * squareSize,
				Y: float64(j) * squareSize,
				Z: 0,
			})
		}
	}
	return &StereoCalibrator{
		k:          k,
		logger:     logger,
		boardSize:  kernel.ChessboardSize{Rows: rows, Columns: columns},
		squareSize: squareSize,
		imageSize:  imageSize,
		template:   template,
	}
}

// ImageCount returns the number of accepted image pairs.
func (c *StereoCalibrator) ImageCount() int {
	return c.obs.Count()
}

// AddCorners runs chessboard detection on both frames and records the
// observation triple. If either side fails, the whole pair is rejected,
// nothing is appended, and ErrChessboardNotFound is returned.
func (c *StereoCalibrator) AddCorners(left, right image.Image) error {
	leftCorners, err := c.findCorners(left, SideLeft)
	if err != nil {
		return err
	}
	rightCorners, err := c.findCorners(right, SideRight)
	if err != nil {
		return err
	}
	c.obs.Object = append(c.obs.Object, c.template)
	c.obs.Left = append(c.obs.Left, leftCorners)
	c.obs.Right = append(c.obs.Right, rightCorners)
	c.logger.Debugf("accepted chessboard pair %d", c.obs.Count())
	return nil
}

func (c *StereoCalibrator) findCorners(img image.Image, side Side) ([]r2.Point, error) {
	corners, found, err := c.k.FindChessboardCorners(img, c.boardSize)
	if err != nil {
		return nil, errors.Wrapf(err, "detecting corners in %s image", side)
	}
	if !found {
		return nil, errors.Wrapf(ErrChessboardNotFound, "%s image", side)
	}
	return corners, nil
}

// Calibrate consumes the accumulated observations in a single solve,
// computes rectification transforms, projection matrices and remap tables
// for both sides, and returns the complete calibration.
func (c *StereoCalibrator) Calibrate() (*StereoCalibration, error) {
	if c.obs.Count() == 0 {
		return nil, ErrNoObservations
	}
	opts := kernel.SolveOptions{
		FixAspectRatio:  true,
		ZeroTangentDist: true,
		SameFocalLength: true,
		MaxIterations:   100,
		Epsilon:         1e-5,
	}
	solve, err := c.k.StereoCalibrate(&c.obs, c.imageSize, opts)
	if err != nil {
		return nil, errors.Wrap(err, "stereo calibration solve")
	}
	rect, err := c.k.RectifyMaps(solve, c.imageSize)
	if err != nil {
		return nil, errors.Wrap(err, "computing rectification maps")
	}
	return &StereoCalibration{
		CamMats:           SidePair{Left: solve.LeftCameraMat, Right: solve.RightCameraMat},
		DistCoeffs:        SidePair{Left: solve.LeftDistCoeffs, Right: solve.RightDistCoeffs},
		RectTrans:         SidePair{Left: rect.LeftRectTrans, Right: rect.RightRectTrans},
		ProjMats:          SidePair{Left: rect.LeftProjMat, Right: rect.RightProjMat},
		ValidBoxes:        SidePair{Left: boxToDense(rect.LeftValidBox), Right: boxToDense(rect.RightValidBox)},
		UndistortionMaps:  SidePair{Left: rect.LeftMapX, Right: rect.RightMapX},
		RectificationMaps: SidePair{Left: rect.LeftMapY, Right: rect.RightMapY},
		RotMat:            solve.RotMat,
		TransVec:          solve.TransVec,
		EssentialMat:      solve.EssentialMat,
		FundamentalMat:    solve.FundamentalMat,
		DispToDepthMat:    rect.DispToDepthMat,
	}, nil
}

// CheckCalibration reports calibration quality as the average absolute
// epipolar residual |x*a + y*b + c| in pixels over every accumulated point,
// both directions. Each detected point is undistorted, the epipolar line of
// its counterpart is computed from the fundamental matrix, and the point is
// evaluated against that line. Smaller is better; there is no fixed
// pass/fail threshold.
func (c *StereoCalibrator) CheckCalibration(calibration *StereoCalibration) (float64, error) {
	if c.obs.Count() == 0 {
		return 0, ErrNoObservations
	}
	f := calibration.FundamentalMat
	residuals := make([]float64, 0, 2*c.obs.Count()*c.boardSize.CornerCount())
	for i := range c.obs.Object {
		for j := range c.obs.Left[i] {
			left := undistortPoint(c.obs.Left[i][j], calibration.CamMats.Left, calibration.DistCoeffs.Left)
			right := undistortPoint(c.obs.Right[i][j], calibration.CamMats.Right, calibration.DistCoeffs.Right)

			// line in the right image for the left point, and vice versa
			a, b, cc := epiline(left, f, 1)
			residuals = append(residuals, abs(right.X*a+right.Y*b+cc))
			a, b, cc = epiline(right, f, 2)
			residuals = append(residuals, abs(left.X*a+left.Y*b+cc))
		}
	}
	avg, err := stats.Mean(residuals)
	if err != nil {
		return 0, errors.Wrap(err, "averaging epipolar residuals")
	}
	return avg, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
