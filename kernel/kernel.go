// Package kernel defines the boundary to the numerical vision library that
// performs chessboard detection, the stereo calibration solve, rectification
// map construction, block matching and 3D reprojection. The rest of the
// repository consumes these operations through the interfaces here and never
// reimplements them.
package kernel

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Preset selects the camera-geometry preset of the basic block matcher's
// prefilter stage.
type Preset int

const (
	// PresetBasic is the default preset for standard lenses.
	PresetBasic Preset = iota
	// PresetFishEye compensates for wide-angle lens distortion.
	PresetFishEye
	// PresetNarrow is for narrow field of view rigs.
	PresetNarrow
)

// ChessboardSize is the inner-corner geometry of a calibration chessboard.
type ChessboardSize struct {
	Rows    int
	Columns int
}

// CornerCount returns the number of inner corners the board exposes.
func (s ChessboardSize) CornerCount() int {
	return s.Rows * s.Columns
}

// Observations accumulates, per accepted image pair, the real-world corner
// coordinates together with the corners detected on each side. The three
// outer slices are index aligned.
type Observations struct {
	Object [][]r3.Vector
	Left   [][]r2.Point
	Right  [][]r2.Point
}

// Count returns the number of accepted image pairs.
func (o *Observations) Count() int {
	return len(o.Object)
}

// SolveOptions are the flags and termination criterion handed to the
// calibration solve.
type SolveOptions struct {
	FixAspectRatio  bool
	ZeroTangentDist bool
	SameFocalLength bool
	MaxIterations   int
	Epsilon         float64
}

// SolveResult is the output of the stereo calibration solve. Camera matrices
// are 3x3, distortion coefficient rows are 1x5 (k1, k2, p1, p2, k3), the
// rotation matrix is 3x3 and the translation vector 3x1.
type SolveResult struct {
	LeftCameraMat   *mat.Dense
	RightCameraMat  *mat.Dense
	LeftDistCoeffs  *mat.Dense
	RightDistCoeffs *mat.Dense
	RotMat          *mat.Dense
	TransVec        *mat.Dense
	EssentialMat    *mat.Dense
	FundamentalMat  *mat.Dense
}

// RectifyResult holds the rectification transforms, projection matrices,
// disparity-to-depth matrix and the precomputed remap tables derived from a
// SolveResult. The remap tables are height x width; entry (y, x) holds the
// source coordinate sampled for destination pixel (x, y).
type RectifyResult struct {
	LeftRectTrans  *mat.Dense
	RightRectTrans *mat.Dense
	LeftProjMat    *mat.Dense
	RightProjMat   *mat.Dense
	DispToDepthMat *mat.Dense
	LeftValidBox   image.Rectangle
	RightValidBox  image.Rectangle
	LeftMapX       *mat.Dense
	LeftMapY       *mat.Dense
	RightMapX      *mat.Dense
	RightMapY      *mat.Dense
}

// StereoBMSettings is the complete parameter set a basic block matcher is
// built from. Validation happens upstream; the kernel treats these as final.
type StereoBMSettings struct {
	Preset      Preset
	SearchRange int
	WindowSize  int
}

// StereoSGBMSettings is the complete parameter set a semi-global block
// matcher is built from.
type StereoSGBMSettings struct {
	MinDisparity      int
	NumDisparities    int
	SADWindowSize     int
	UniquenessRatio   int
	SpeckleWindowSize int
	SpeckleRange      int
	Disp12MaxDiff     int
	P1                int
	P2                int
	FullDP            bool
}

// Matcher is an opaque handle to a configured block matching engine. Compute
// returns raw fixed-point disparities as a height x width dense matrix; the
// sub-pixel scaling convention is the caller's contract.
type Matcher interface {
	Compute(left, right *image.Gray) (*mat.Dense, error)
}

// Kernel is the full surface this pipeline needs from the vision library.
//
// FindChessboardCorners returns found=false when no chessboard is visible;
// that is an expected condition, not an error. On found=true the returned
// corners have length size.CornerCount() and are in row-major board order.
//
// ReprojectTo3D maps each disparity pixel through the 4x4 disparity-to-depth
// matrix and returns the homogeneous-divided 3D points in row-major pixel
// order (index = y*width + x). Pixels whose homogeneous weight is zero are
// reported at the kernel's invalid-match depth sentinel, which is the
// minimum Z of the returned set.
type Kernel interface {
	FindChessboardCorners(img image.Image, size ChessboardSize) ([]r2.Point, bool, error)
	StereoCalibrate(obs *Observations, imageSize image.Point, opts SolveOptions) (*SolveResult, error)
	RectifyMaps(solve *SolveResult, imageSize image.Point) (*RectifyResult, error)
	NewStereoBM(cfg StereoBMSettings) (Matcher, error)
	NewStereoSGBM(cfg StereoSGBMSettings) (Matcher, error)
	ReprojectTo3D(disparity, dispToDepth *mat.Dense) ([]r3.Vector, error)
}
