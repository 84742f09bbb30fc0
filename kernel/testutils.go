package kernel

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SyntheticKernel is a deterministic Kernel over an ideal rectified rig: both
// cameras share the same pinhole model, the right camera is translated by
// -Baseline along X, and the block matchers report a constant disparity. It
// exists so the pipeline can be exercised without the real vision library;
// only the linear reprojection math is genuine.
type SyntheticKernel struct {
	// FocalLength is the shared focal length in pixels.
	FocalLength float64
	// Baseline is the distance between the two camera centers in world units.
	Baseline float64
	// Disparity is the constant sub-pixel disparity every matcher built by
	// this kernel reports, after the caller's fixed-point scaling.
	Disparity float64
	// CornersFn, if set, replaces the default corner grid. It lets tests
	// drive side-dependent detection failures.
	CornersFn func(img image.Image, size ChessboardSize) ([]r2.Point, bool, error)
}

func (sk *SyntheticKernel) cameraMatrix(imageSize image.Point) *mat.Dense {
	k := mat.NewDense(3, 3, nil)
	k.Set(0, 0, sk.FocalLength)
	k.Set(1, 1, sk.FocalLength)
	k.Set(0, 2, float64(imageSize.X)/2)
	k.Set(1, 2, float64(imageSize.Y)/2)
	k.Set(2, 2, 1)
	return k
}

// FindChessboardCorners returns an evenly spaced corner grid covering the
// middle half of the image, identical for both sides so that a perfect rig's
// epipolar residual is zero.
func (sk *SyntheticKernel) FindChessboardCorners(img image.Image, size ChessboardSize) ([]r2.Point, bool, error) {
	if sk.CornersFn != nil {
		return sk.CornersFn(img, size)
	}
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	stepX, stepY := w/2, h/2
	if size.Rows > 1 {
		stepX = w / 2 / float64(size.Rows-1)
	}
	if size.Columns > 1 {
		stepY = h / 2 / float64(size.Columns-1)
	}
	corners := make([]r2.Point, 0, size.CornerCount())
	for j := 0; j < size.Columns; j++ {
		for i := 0; i < size.Rows; i++ {
			corners = append(corners, r2.Point{
				X: w/4 + float64(i)*stepX,
				Y: h/4 + float64(j)*stepY,
			})
		}
	}
	return corners, true, nil
}

// StereoCalibrate returns the ideal rig: identical intrinsics, zero
// distortion, identity rotation and a pure X translation of -Baseline. The
// essential and fundamental matrices are derived from that geometry.
func (sk *SyntheticKernel) StereoCalibrate(obs *Observations, imageSize image.Point, opts SolveOptions) (*SolveResult, error) {
	if obs.Count() == 0 {
		return nil, errors.New("synthetic solve needs at least one observation")
	}
	k := sk.cameraMatrix(imageSize)
	rot := mat.NewDense(3, 3, nil)
	rot.Set(0, 0, 1)
	rot.Set(1, 1, 1)
	rot.Set(2, 2, 1)
	trans := mat.NewDense(3, 1, []float64{-sk.Baseline, 0, 0})

	// E = [t]x R, with R = I.
	ess := mat.NewDense(3, 3, []float64{
		0, 0, 0,
		0, 0, sk.Baseline,
		0, -sk.Baseline, 0,
	})

	// F = K^-T E K^-1.
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, errors.Wrap(err, "inverting synthetic camera matrix")
	}
	var tmp, fund mat.Dense
	tmp.Mul(kInv.T(), ess)
	fund.Mul(&tmp, &kInv)

	zeroDist := func() *mat.Dense { return mat.NewDense(1, 5, nil) }
	return &SolveResult{
		LeftCameraMat:   k,
		RightCameraMat:  mat.DenseCopyOf(k),
		LeftDistCoeffs:  zeroDist(),
		RightDistCoeffs: zeroDist(),
		RotMat:          rot,
		TransVec:        trans,
		EssentialMat:    ess,
		FundamentalMat:  &fund,
	}, nil
}

// RectifyMaps returns identity remap tables, projection matrices for the
// ideal rig and a disparity-to-depth matrix satisfying Z = f*baseline/d.
func (sk *SyntheticKernel) RectifyMaps(solve *SolveResult, imageSize image.Point) (*RectifyResult, error) {
	w, h := imageSize.X, imageSize.Y
	identityMap := func(byColumn bool) *mat.Dense {
		m := mat.NewDense(h, w, nil)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if byColumn {
					m.Set(y, x, float64(x))
				} else {
					m.Set(y, x, float64(y))
				}
			}
		}
		return m
	}

	k := solve.LeftCameraMat
	f := k.At(0, 0)
	cx, cy := k.At(0, 2), k.At(1, 2)

	projLeft := mat.NewDense(3, 4, nil)
	projRight := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			projLeft.Set(i, j, k.At(i, j))
			projRight.Set(i, j, k.At(i, j))
		}
	}
	projRight.Set(0, 3, -f*sk.Baseline)

	// Q maps (x, y, d, 1) to homogeneous (X, Y, Z, W) with W = d/baseline,
	// so depth comes out as Z = f*baseline/d.
	q := mat.NewDense(4, 4, nil)
	q.Set(0, 0, 1)
	q.Set(0, 3, -cx)
	q.Set(1, 1, 1)
	q.Set(1, 3, -cy)
	q.Set(2, 3, f)
	q.Set(3, 2, 1/sk.Baseline)

	identity := func() *mat.Dense {
		m := mat.NewDense(3, 3, nil)
		m.Set(0, 0, 1)
		m.Set(1, 1, 1)
		m.Set(2, 2, 1)
		return m
	}
	fullBox := image.Rect(0, 0, w, h)
	return &RectifyResult{
		LeftRectTrans:  identity(),
		RightRectTrans: identity(),
		LeftProjMat:    projLeft,
		RightProjMat:   projRight,
		DispToDepthMat: q,
		LeftValidBox:   fullBox,
		RightValidBox:  fullBox,
		LeftMapX:       identityMap(true),
		LeftMapY:       identityMap(false),
		RightMapX:      identityMap(true),
		RightMapY:      identityMap(false),
	}, nil
}

type constMatcher struct {
	raw float64
}

func (m *constMatcher) Compute(left, right *image.Gray) (*mat.Dense, error) {
	if left.Bounds() != right.Bounds() {
		return nil, errors.Errorf("image pair dimensions differ: %v vs %v", left.Bounds(), right.Bounds())
	}
	h, w := left.Bounds().Dy(), left.Bounds().Dx()
	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(y, x, m.raw)
		}
	}
	return out, nil
}

// NewStereoBM returns a matcher that reports the constant disparity in the
// basic matcher's raw fixed-point convention (disparity * 32).
func (sk *SyntheticKernel) NewStereoBM(cfg StereoBMSettings) (Matcher, error) {
	return &constMatcher{raw: sk.Disparity * 32}, nil
}

// NewStereoSGBM returns a matcher that reports the constant disparity in the
// semi-global matcher's raw fixed-point convention (disparity * 16).
func (sk *SyntheticKernel) NewStereoSGBM(cfg StereoSGBMSettings) (Matcher, error) {
	return &constMatcher{raw: sk.Disparity * 16}, nil
}

// ReprojectTo3D multiplies every disparity pixel through the 4x4
// disparity-to-depth matrix and divides out the homogeneous weight. Pixels
// with zero weight land at negative-infinite depth, the invalid-match
// sentinel downstream filtering removes.
func (sk *SyntheticKernel) ReprojectTo3D(disparity, dispToDepth *mat.Dense) ([]r3.Vector, error) {
	qr, qc := dispToDepth.Dims()
	if qr != 4 || qc != 4 {
		return nil, errors.Errorf("disparity-to-depth matrix must be 4x4, got %dx%d", qr, qc)
	}
	h, w := disparity.Dims()
	if h == 0 || w == 0 {
		return nil, errors.New("cannot reproject an empty disparity map")
	}
	points := make([]r3.Vector, 0, h*w)
	q := dispToDepth
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := disparity.At(y, x)
			in := [4]float64{float64(x), float64(y), d, 1}
			var out [4]float64
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					out[i] += q.At(i, j) * in[j]
				}
			}
			if out[3] == 0 {
				points = append(points, r3.Vector{X: 0, Y: 0, Z: math.Inf(-1)})
				continue
			}
			points = append(points, r3.Vector{
				X: out[0] / out[3],
				Y: out[1] / out[3],
				Z: out[2] / out[3],
			})
		}
	}
	return points, nil
}
