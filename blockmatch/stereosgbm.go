package blockmatch

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/visionworks/stereo/kernel"
)

// sgbmDisparityDivisor converts the semi-global engine's raw fixed-point
// output to sub-pixel disparities.
const sgbmDisparityDivisor = 16.0

type sgbmParams struct {
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

// StereoSGBM is the semi-global block matcher.
type StereoSGBM struct {
	k      kernel.Kernel
	params sgbmParams
	handle kernel.Matcher
}

// NewStereoSGBM returns a semi-global matcher with its default parameters
// and a freshly built kernel handle.
func NewStereoSGBM(k kernel.Kernel) (*StereoSGBM, error) {
	sgbm := &StereoSGBM{k: k}
	if err := sgbm.commit(sgbmParams{
		MinDisparity:      16,
		NumDisparities:    96,
		SADWindowSize:     3,
		UniquenessRatio:   10,
		SpeckleWindowSize: 100,
		SpeckleRange:      32,
		Disp12MaxDiff:     1,
		P1:                216,
		P2:                864,
		FullDP:            false,
	}); err != nil {
		return nil, err
	}
	return sgbm, nil
}

func (sgbm *StereoSGBM) commit(p sgbmParams) error {
	handle, err := sgbm.k.NewStereoSGBM(kernel.StereoSGBMSettings{
		MinDisparity:      p.MinDisparity,
		NumDisparities:    p.NumDisparities,
		SADWindowSize:     p.SADWindowSize,
		UniquenessRatio:   p.UniquenessRatio,
		SpeckleWindowSize: p.SpeckleWindowSize,
		SpeckleRange:      p.SpeckleRange,
		Disp12MaxDiff:     p.Disp12MaxDiff,
		P1:                p.P1,
		P2:                p.P2,
		FullDP:            p.FullDP,
	})
	if err != nil {
		return errors.Wrap(err, "rebuilding semi-global block matcher")
	}
	sgbm.params = p
	sgbm.handle = handle
	return nil
}

// stageSGBM validates one edit against the staged parameter set. The P1/P2
// ordering invariant is checked against the staged values so a legal
// reordering (lower P1, then raise P2) succeeds in sequence.
func stageSGBM(p *sgbmParams, field string, value float64) error {
	switch field {
	case FieldMinDisparity:
		p.MinDisparity = int(value)
	case FieldNumDisparities:
		v := int(value)
		if v <= 0 || v%16 != 0 {
			return newParameterError(field, value, "number of disparities must be a positive multiple of 16")
		}
		p.NumDisparities = v
	case FieldSADWindowSize:
		v := int(value)
		if v < 1 || v > 11 || v%2 == 0 {
			return newParameterError(field, value, "SAD window size must be odd and between 1 and 11")
		}
		p.SADWindowSize = v
	case FieldUniquenessRatio:
		v := int(value)
		if v < 5 || v > 15 {
			return newParameterError(field, value, "uniqueness ratio must be between 5 and 15")
		}
		p.UniquenessRatio = v
	case FieldSpeckleWindowSize:
		v := int(value)
		if v < 0 || v > 200 {
			return newParameterError(field, value, "speckle window size must be between 0 and 200")
		}
		p.SpeckleWindowSize = v
	case FieldSpeckleRange:
		v := int(value)
		if v < 0 {
			return newParameterError(field, value, "speckle range cannot be negative")
		}
		p.SpeckleRange = v
	case FieldDisp12MaxDiff:
		p.Disp12MaxDiff = int(value)
	case FieldP1:
		v := int(value)
		if v >= p.P2 {
			return newParameterError(field, value, "P1 must be less than P2")
		}
		p.P1 = v
	case FieldP2:
		v := int(value)
		if v <= p.P1 {
			return newParameterError(field, value, "P2 must be greater than P1")
		}
		p.P2 = v
	case FieldFullDP:
		p.FullDP = value != 0
	default:
		return newParameterError(field, value, "unknown parameter")
	}
	return nil
}

// Kind implements Matcher.
func (sgbm *StereoSGBM) Kind() Kind {
	return KindStereoSGBM
}

// Fields returns the parameter names in their settings-file order. P1 comes
// before P2, so loads validate P1 against the staged current P2 first.
func (sgbm *StereoSGBM) Fields() []string {
	return []string{
		FieldMinDisparity,
		FieldNumDisparities,
		FieldSADWindowSize,
		FieldUniquenessRatio,
		FieldSpeckleWindowSize,
		FieldSpeckleRange,
		FieldDisp12MaxDiff,
		FieldP1,
		FieldP2,
		FieldFullDP,
	}
}

// Get returns the current value of the named parameter. FullDP is reported
// as 0 or 1.
func (sgbm *StereoSGBM) Get(field string) (float64, error) {
	p := sgbm.params
	switch field {
	case FieldMinDisparity:
		return float64(p.MinDisparity), nil
	case FieldNumDisparities:
		return float64(p.NumDisparities), nil
	case FieldSADWindowSize:
		return float64(p.SADWindowSize), nil
	case FieldUniquenessRatio:
		return float64(p.UniquenessRatio), nil
	case FieldSpeckleWindowSize:
		return float64(p.SpeckleWindowSize), nil
	case FieldSpeckleRange:
		return float64(p.SpeckleRange), nil
	case FieldDisp12MaxDiff:
		return float64(p.Disp12MaxDiff), nil
	case FieldP1:
		return float64(p.P1), nil
	case FieldP2:
		return float64(p.P2), nil
	case FieldFullDP:
		if p.FullDP {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, newParameterError(field, 0, "unknown parameter")
	}
}

// Set validates the edit and, on success, commits it together with a rebuilt
// kernel handle. On failure nothing changes.
func (sgbm *StereoSGBM) Set(field string, value float64) error {
	staged := sgbm.params
	if err := stageSGBM(&staged, field, value); err != nil {
		return err
	}
	return sgbm.commit(staged)
}

// Disparity implements Matcher with the semi-global engine's raw/16
// sub-pixel convention.
func (sgbm *StereoSGBM) Disparity(left, right image.Image) (*mat.Dense, error) {
	grayL, grayR, err := grayPair(left, right)
	if err != nil {
		return nil, err
	}
	raw, err := sgbm.handle.Compute(grayL, grayR)
	if err != nil {
		return nil, errors.Wrap(err, "semi-global block matcher")
	}
	return scaleDisparity(raw, sgbmDisparityDivisor), nil
}

// SaveSettings writes the full parameter set as JSON.
func (sgbm *StereoSGBM) SaveSettings(path string) error {
	return saveSettings(sgbm, path)
}

// LoadSettings replaces the full parameter set from a settings file. Any
// invalid or missing field aborts the load with the prior state intact.
func (sgbm *StereoSGBM) LoadSettings(path string) error {
	values, err := readSettings(path, sgbm.Fields())
	if err != nil {
		return err
	}
	staged := sgbm.params
	for _, field := range sgbm.Fields() {
		if err := stageSGBM(&staged, field, values[field]); err != nil {
			return errors.Wrapf(err, "settings file %s", path)
		}
	}
	return sgbm.commit(staged)
}
