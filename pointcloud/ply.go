package pointcloud

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// WritePLY exports the cloud as an ASCII PLY mesh viewable in MeshLab: a
// fixed header followed by one line per point, three floats for position
// then three unsigned bytes for color.
func (pc *PointCloud) WritePLY(out io.Writer) error {
	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintf(w, "ply\n"+
		"format ascii 1.0\n"+
		"element vertex %d\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n"+
		"property uchar red\n"+
		"property uchar green\n"+
		"property uchar blue\n"+
		"end_header\n", pc.Size()); err != nil {
		return err
	}
	for i := range pc.positions {
		p, c := pc.positions[i], pc.colors[i]
		if _, err := fmt.Fprintf(w, "%f %f %f %d %d %d\n", p.X, p.Y, p.Z, c.R, c.G, c.B); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WritePLYFile writes the cloud to a PLY file at the given path.
func (pc *PointCloud) WritePLYFile(path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating point cloud file %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return pc.WritePLY(f)
}

// ReadPLYFile returns a point cloud read in from the given PLY file.
func ReadPLYFile(path string) (*PointCloud, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening point cloud file %s", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)

	ply := goply.New(f)
	vertices := ply.Elements("vertex")
	positions := make([]r3.Vector, 0, len(vertices))
	colors := make([]color.NRGBA, 0, len(vertices))
	for i, v := range vertices {
		x, err := plyFloat(v["x"])
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d x", i)
		}
		y, err := plyFloat(v["y"])
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d y", i)
		}
		z, err := plyFloat(v["z"])
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d z", i)
		}
		r, err := plyByte(v["red"])
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d red", i)
		}
		g, err := plyByte(v["green"])
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d green", i)
		}
		b, err := plyByte(v["blue"])
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d blue", i)
		}
		positions = append(positions, r3.Vector{X: x, Y: y, Z: z})
		colors = append(colors, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return New(positions, colors)
}

func plyFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	default:
		return 0, errors.Errorf("not a numeric property: %v", v)
	}
}

func plyByte(v interface{}) (uint8, error) {
	switch t := v.(type) {
	case uint8:
		return t, nil
	case int:
		return uint8(t), nil
	case float64:
		return uint8(t), nil
	case float32:
		return uint8(t), nil
	default:
		return 0, errors.Errorf("not a color property: %v", v)
	}
}
