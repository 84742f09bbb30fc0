// Package calib holds stereo rig calibration: accumulating chessboard
// observations, driving the kernel's calibration solve, rectifying image
// pairs and persisting the resulting matrices.
package calib

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// Side identifies one camera of the stereo pair.
type Side string

const (
	// SideLeft is the left camera.
	SideLeft = Side("left")
	// SideRight is the right camera.
	SideRight = Side("right")
)

// Sides lists both cameras in their conventional order.
var Sides = []Side{SideLeft, SideRight}

// SidePair holds one matrix per camera.
type SidePair struct {
	Left  *mat.Dense
	Right *mat.Dense
}

// Get returns the matrix for the given side.
func (p *SidePair) Get(side Side) *mat.Dense {
	if side == SideRight {
		return p.Right
	}
	return p.Left
}

func (p *SidePair) set(side Side, m *mat.Dense) {
	if side == SideRight {
		p.Right = m
		return
	}
	p.Left = m
}

// StereoCalibration is the result of a stereo calibration solve. It is
// produced once and never mutated afterwards except by whole replacement.
// Valid-pixel boxes are stored as 1x4 rows (minX, minY, maxX, maxY) so that
// every field persists through the same matrix encoding.
type StereoCalibration struct {
	CamMats           SidePair
	DistCoeffs        SidePair
	RectTrans         SidePair
	ProjMats          SidePair
	ValidBoxes        SidePair
	UndistortionMaps  SidePair
	RectificationMaps SidePair
	RotMat            *mat.Dense
	TransVec          *mat.Dense
	EssentialMat      *mat.Dense
	FundamentalMat    *mat.Dense
	DispToDepthMat    *mat.Dense
}

// ValidBox returns the valid-pixel bounding box for one side.
func (c *StereoCalibration) ValidBox(side Side) image.Rectangle {
	b := c.ValidBoxes.Get(side)
	return image.Rect(int(b.At(0, 0)), int(b.At(0, 1)), int(b.At(0, 2)), int(b.At(0, 3)))
}

func boxToDense(r image.Rectangle) *mat.Dense {
	return mat.NewDense(1, 4, []float64{
		float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y),
	})
}

// Rectify applies the precomputed undistortion and rectification remap to
// both frames with nearest-neighbor resampling, which disparity matching
// tolerates and is much cheaper than interpolation. It is a pure function of
// the calibration state.
func (c *StereoCalibration) Rectify(left, right image.Image) (image.Image, image.Image, error) {
	outLeft, err := remapNearest(left, c.UndistortionMaps.Left, c.RectificationMaps.Left)
	if err != nil {
		return nil, nil, errors.Wrap(err, "rectifying left image")
	}
	outRight, err := remapNearest(right, c.UndistortionMaps.Right, c.RectificationMaps.Right)
	if err != nil {
		return nil, nil, errors.Wrap(err, "rectifying right image")
	}
	return outLeft, outRight, nil
}

func remapNearest(img image.Image, mapX, mapY *mat.Dense) (*image.NRGBA, error) {
	h, w := mapX.Dims()
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		return nil, errors.Errorf("image dimensions (%d,%d) do not match calibration (%d,%d)",
			img.Bounds().Dx(), img.Bounds().Dy(), w, h)
	}
	min := img.Bounds().Min
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := int(math.Round(mapX.At(y, x)))
			sy := int(math.Round(mapY.At(y, x)))
			if sx < 0 || sx >= w || sy < 0 || sy >= h {
				continue
			}
			out.Set(x, y, color.NRGBAModel.Convert(img.At(min.X+sx, min.Y+sy)))
		}
	}
	return out, nil
}

// fileExt is the extension of the per-field matrix files in a calibration
// folder. The encoding is gonum's binary matrix format, which round-trips
// bit-identically.
const fileExt = ".mat"

type sideField struct {
	name string
	get  func(c *StereoCalibration) *SidePair
}

type pairField struct {
	name string
	get  func(c *StereoCalibration) **mat.Dense
}

var sideFields = []sideField{
	{"cam_mats", func(c *StereoCalibration) *SidePair { return &c.CamMats }},
	{"dist_coefs", func(c *StereoCalibration) *SidePair { return &c.DistCoeffs }},
	{"rect_trans", func(c *StereoCalibration) *SidePair { return &c.RectTrans }},
	{"proj_mats", func(c *StereoCalibration) *SidePair { return &c.ProjMats }},
	{"valid_boxes", func(c *StereoCalibration) *SidePair { return &c.ValidBoxes }},
	{"undistortion_map", func(c *StereoCalibration) *SidePair { return &c.UndistortionMaps }},
	{"rectification_map", func(c *StereoCalibration) *SidePair { return &c.RectificationMaps }},
}

var pairFields = []pairField{
	{"rot_mat", func(c *StereoCalibration) **mat.Dense { return &c.RotMat }},
	{"trans_vec", func(c *StereoCalibration) **mat.Dense { return &c.TransVec }},
	{"e_mat", func(c *StereoCalibration) **mat.Dense { return &c.EssentialMat }},
	{"f_mat", func(c *StereoCalibration) **mat.Dense { return &c.FundamentalMat }},
	{"disp_to_depth_mat", func(c *StereoCalibration) **mat.Dense { return &c.DispToDepthMat }},
}

// Export writes every calibration field as an individually named matrix
// file: per-side fields as <field>_<side>.mat, pair-wide fields as
// <field>.mat. The folder carries no other structure or metadata.
func (c *StereoCalibration) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating calibration folder %s", dir)
	}
	for _, field := range sideFields {
		pair := field.get(c)
		for _, side := range Sides {
			if err := writeMatrix(sideFilename(dir, field.name, side), pair.Get(side)); err != nil {
				return err
			}
		}
	}
	for _, field := range pairFields {
		if err := writeMatrix(filepath.Join(dir, field.name+fileExt), *field.get(c)); err != nil {
			return err
		}
	}
	return nil
}

// LoadStereoCalibration is the exact inverse of Export. It fails fast on the
// first missing or malformed file, naming it.
func LoadStereoCalibration(dir string) (*StereoCalibration, error) {
	c := &StereoCalibration{}
	for _, field := range sideFields {
		pair := field.get(c)
		for _, side := range Sides {
			m, err := readMatrix(sideFilename(dir, field.name, side))
			if err != nil {
				return nil, err
			}
			pair.set(side, m)
		}
	}
	for _, field := range pairFields {
		m, err := readMatrix(filepath.Join(dir, field.name+fileExt))
		if err != nil {
			return nil, err
		}
		*field.get(c) = m
	}
	return c, nil
}

func sideFilename(dir, field string, side Side) string {
	return filepath.Join(dir, field+"_"+string(side)+fileExt)
}

func writeMatrix(path string, m *mat.Dense) (err error) {
	if m == nil {
		return errors.Errorf("calibration field for %s is not set", path)
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating calibration file %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	if _, err := m.MarshalBinaryTo(f); err != nil {
		return errors.Wrapf(err, "writing calibration file %s", path)
	}
	return nil
}

func readMatrix(path string) (_ *mat.Dense, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "missing calibration file %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(f); err != nil {
		return nil, errors.Wrapf(err, "malformed calibration file %s", path)
	}
	return &m, nil
}
