package blockmatch

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/visionworks/stereo/kernel"
)

// maxWindowSize is the exclusive upper bound on the basic matcher's
// correlation window.
const maxWindowSize = 255

// bmDisparityDivisor converts the basic engine's raw fixed-point output to
// sub-pixel disparities.
const bmDisparityDivisor = 32.0

type bmParams struct {
	Preset      kernel.Preset
	SearchRange int
	WindowSize  int
}

// StereoBM is the basic correlation-window block matcher.
type StereoBM struct {
	k      kernel.Kernel
	params bmParams
	handle kernel.Matcher
}

// NewStereoBM returns a basic matcher with its default parameters and a
// freshly built kernel handle.
func NewStereoBM(k kernel.Kernel) (*StereoBM, error) {
	bm := &StereoBM{k: k}
	if err := bm.commit(bmParams{
		Preset:      kernel.PresetBasic,
		SearchRange: 80,
		WindowSize:  21,
	}); err != nil {
		return nil, err
	}
	return bm, nil
}

// commit rebuilds the kernel handle from a complete candidate parameter set
// and adopts both only if the rebuild succeeds.
func (bm *StereoBM) commit(p bmParams) error {
	handle, err := bm.k.NewStereoBM(kernel.StereoBMSettings{
		Preset:      p.Preset,
		SearchRange: p.SearchRange,
		WindowSize:  p.WindowSize,
	})
	if err != nil {
		return errors.Wrap(err, "rebuilding basic block matcher")
	}
	bm.params = p
	bm.handle = handle
	return nil
}

func stageBM(p *bmParams, field string, value float64) error {
	switch field {
	case FieldPreset:
		preset := kernel.Preset(int(value))
		switch preset {
		case kernel.PresetBasic, kernel.PresetFishEye, kernel.PresetNarrow:
			p.Preset = preset
		default:
			return newParameterError(field, value, "preset must be basic, fish eye or narrow")
		}
	case FieldSearchRange:
		v := int(value)
		if v != 0 && v%16 != 0 {
			return newParameterError(field, value, "search range must be a multiple of 16")
		}
		p.SearchRange = v
	case FieldWindowSize:
		v := int(value)
		if v <= 4 || v >= maxWindowSize || v%2 == 0 {
			return newParameterError(field, value, "window size must be an odd number between 5 and 253")
		}
		p.WindowSize = v
	default:
		return newParameterError(field, value, "unknown parameter")
	}
	return nil
}

// Kind implements Matcher.
func (bm *StereoBM) Kind() Kind {
	return KindStereoBM
}

// Fields returns the parameter names in their settings-file order.
func (bm *StereoBM) Fields() []string {
	return []string{FieldPreset, FieldSearchRange, FieldWindowSize}
}

// Get returns the current value of the named parameter.
func (bm *StereoBM) Get(field string) (float64, error) {
	switch field {
	case FieldPreset:
		return float64(bm.params.Preset), nil
	case FieldSearchRange:
		return float64(bm.params.SearchRange), nil
	case FieldWindowSize:
		return float64(bm.params.WindowSize), nil
	default:
		return 0, newParameterError(field, 0, "unknown parameter")
	}
}

// Set validates the edit against the current parameter set and, on success,
// commits it together with a rebuilt kernel handle. On failure nothing
// changes.
func (bm *StereoBM) Set(field string, value float64) error {
	staged := bm.params
	if err := stageBM(&staged, field, value); err != nil {
		return err
	}
	return bm.commit(staged)
}

// Disparity implements Matcher with the basic engine's raw/32 sub-pixel
// convention.
func (bm *StereoBM) Disparity(left, right image.Image) (*mat.Dense, error) {
	grayL, grayR, err := grayPair(left, right)
	if err != nil {
		return nil, err
	}
	raw, err := bm.handle.Compute(grayL, grayR)
	if err != nil {
		return nil, errors.Wrap(err, "basic block matcher")
	}
	return scaleDisparity(raw, bmDisparityDivisor), nil
}

// SaveSettings writes the full parameter set as JSON.
func (bm *StereoBM) SaveSettings(path string) error {
	return saveSettings(bm, path)
}

// LoadSettings replaces the full parameter set from a settings file. Every
// field passes through the same validation as an interactive edit; any
// invalid or missing field aborts the load with the prior state intact.
func (bm *StereoBM) LoadSettings(path string) error {
	values, err := readSettings(path, bm.Fields())
	if err != nil {
		return err
	}
	staged := bm.params
	for _, field := range bm.Fields() {
		if err := stageBM(&staged, field, values[field]); err != nil {
			return errors.Wrapf(err, "settings file %s", path)
		}
	}
	return bm.commit(staged)
}
