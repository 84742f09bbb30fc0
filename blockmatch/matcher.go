// Package blockmatch wraps the vision kernel's two block matching engines in
// validated parameter records. Every parameter edit goes through a setter
// that either commits a fully rebuilt matcher handle or leaves the previous
// valid state untouched; the kernel has no incremental-update API.
package blockmatch

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/visionworks/stereo/kernel"
)

// Kind names one of the two block matching strategies.
type Kind string

const (
	// KindStereoBM is the basic correlation-window block matcher.
	KindStereoBM = Kind("stereo_bm")
	// KindStereoSGBM is the semi-global block matcher.
	KindStereoSGBM = Kind("stereo_sgbm")
)

// Parameter names shared by settings files, interactive edits and reports.
const (
	FieldPreset            = "preset"
	FieldSearchRange       = "search_range"
	FieldWindowSize        = "window_size"
	FieldMinDisparity      = "min_disparity"
	FieldNumDisparities    = "num_disparities"
	FieldSADWindowSize     = "sad_window_size"
	FieldUniquenessRatio   = "uniqueness_ratio"
	FieldSpeckleWindowSize = "speckle_window_size"
	FieldSpeckleRange      = "speckle_range"
	FieldDisp12MaxDiff     = "disp12_max_diff"
	FieldP1                = "p1"
	FieldP2                = "p2"
	FieldFullDP            = "full_dp"
)

// Matcher is a configured block matching strategy. Exactly two
// implementations exist, StereoBM and StereoSGBM.
//
// Disparity computes a height x width map of sub-pixel disparities from a
// rectified image pair, already divided down from the engine's raw
// fixed-point output (by 32 for the basic matcher, 16 for semi-global).
type Matcher interface {
	Kind() Kind
	Fields() []string
	Get(field string) (float64, error)
	Set(field string, value float64) error
	Disparity(left, right image.Image) (*mat.Dense, error)
	SaveSettings(path string) error
	LoadSettings(path string) error
}

// NewMatcher builds a matcher of the given kind with its default parameters.
func NewMatcher(kind Kind, k kernel.Kernel) (Matcher, error) {
	switch kind {
	case KindStereoBM:
		return NewStereoBM(k)
	case KindStereoSGBM:
		return NewStereoSGBM(k)
	default:
		return nil, errors.Errorf("unknown block matcher kind %q", kind)
	}
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	return gray
}

func grayPair(left, right image.Image) (*image.Gray, *image.Gray, error) {
	if left.Bounds().Dx() != right.Bounds().Dx() || left.Bounds().Dy() != right.Bounds().Dy() {
		return nil, nil, errors.Errorf("image pair dimensions differ: %v vs %v",
			left.Bounds().Size(), right.Bounds().Size())
	}
	return toGray(left), toGray(right), nil
}

func scaleDisparity(raw *mat.Dense, divisor float64) *mat.Dense {
	var out mat.Dense
	out.Scale(1/divisor, raw)
	return &out
}
