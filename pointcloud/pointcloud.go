// Package pointcloud defines the colored point cloud produced by stereo
// reprojection, with filtering and PLY import/export.
package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PointCloud pairs 3D positions with RGB colors. The two sequences are
// always equal length and index aligned: point i's color is Colors()[i].
// A cloud is an immutable value; filtering returns a new instance.
type PointCloud struct {
	positions []r3.Vector
	colors    []color.NRGBA

	// filtered marks a cloud whose invalid-match sentinel points are
	// already removed; filtering it again is a no-op.
	filtered bool
}

// New returns a point cloud over the given parallel slices. The slices must
// have equal length; the cloud takes ownership of them.
func New(positions []r3.Vector, colors []color.NRGBA) (*PointCloud, error) {
	if len(positions) != len(colors) {
		return nil, errors.Errorf("positions and colors must be the same length: %d vs %d",
			len(positions), len(colors))
	}
	return &PointCloud{positions: positions, colors: colors}, nil
}

// Size returns the number of points.
func (pc *PointCloud) Size() int {
	return len(pc.positions)
}

// At returns the position and color of point i.
func (pc *PointCloud) At(i int) (r3.Vector, color.NRGBA) {
	return pc.positions[i], pc.colors[i]
}

// Positions returns the position sequence. Callers must not mutate it.
func (pc *PointCloud) Positions() []r3.Vector {
	return pc.positions
}

// Colors returns the color sequence. Callers must not mutate it.
func (pc *PointCloud) Colors() []color.NRGBA {
	return pc.colors
}

// MinZ returns the minimum depth in the cloud, which is also the sentinel
// depth the reprojection kernel assigns to invalid matches.
func (pc *PointCloud) MinZ() float64 {
	if len(pc.positions) == 0 {
		return 0
	}
	min := pc.positions[0].Z
	for _, p := range pc.positions[1:] {
		if p.Z < min {
			min = p.Z
		}
	}
	return min
}

// FilterInfinity returns a new cloud without the points whose depth equals
// the minimum depth in this cloud, the sentinel used by the reprojection
// kernel for pixels with no disparity. Positions and colors are filtered by
// the same mask, preserving index alignment. The sentinel only exists in raw
// reprojection output, so filtering an already filtered cloud changes
// nothing.
func (pc *PointCloud) FilterInfinity() *PointCloud {
	if pc.filtered {
		return pc
	}
	if len(pc.positions) == 0 {
		return &PointCloud{filtered: true}
	}
	min := pc.MinZ()
	positions := make([]r3.Vector, 0, len(pc.positions))
	colors := make([]color.NRGBA, 0, len(pc.colors))
	for i, p := range pc.positions {
		if p.Z > min {
			positions = append(positions, p)
			colors = append(colors, pc.colors[i])
		}
	}
	return &PointCloud{positions: positions, colors: colors, filtered: true}
}
