// Produces a PLY point cloud from one rectifiable image pair, a calibration
// folder and a block matcher settings file.
package main

import (
	"flag"
	"os"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/visionworks/stereo/blockmatch"
	"github.com/visionworks/stereo/calib"
	"github.com/visionworks/stereo/camera"
	"github.com/visionworks/stereo/kernel"
)

var logger = golog.NewDevelopmentLogger("stereotoply")

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		logger.Fatal(err)
	}
}

func realMain(args []string) error {
	flags := flag.NewFlagSet("stereotoply", flag.ContinueOnError)
	kind := flags.String("matcher", string(blockmatch.KindStereoSGBM), "block matcher kind (stereo_bm or stereo_sgbm)")
	keepInfinity := flags.Bool("keep-infinity", false, "keep points reprojected to infinity")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 5 {
		return errors.New("usage: stereotoply [flags] <left image> <right image> <calibration folder> <settings file> <out.ply>")
	}

	k, err := kernel.Registered()
	if err != nil {
		return err
	}
	calibration, err := calib.LoadStereoCalibration(flags.Arg(2))
	if err != nil {
		return err
	}
	matcher, err := blockmatch.NewMatcher(blockmatch.Kind(*kind), k)
	if err != nil {
		return err
	}
	if err := matcher.LoadSettings(flags.Arg(3)); err != nil {
		return err
	}

	left, err := imaging.Open(flags.Arg(0))
	if err != nil {
		return errors.Wrapf(err, "reading image %s", flags.Arg(0))
	}
	right, err := imaging.Open(flags.Arg(1))
	if err != nil {
		return errors.Wrapf(err, "reading image %s", flags.Arg(1))
	}
	rectLeft, rectRight, err := calibration.Rectify(left, right)
	if err != nil {
		return err
	}

	cp := &camera.CalibratedPair{Calibration: calibration, Matcher: matcher, Kernel: k}
	cloud, err := cp.PointCloud(rectLeft, rectRight)
	if err != nil {
		return err
	}
	if !*keepInfinity {
		cloud = cloud.FilterInfinity()
	}
	if err := cloud.WritePLYFile(flags.Arg(4)); err != nil {
		return err
	}
	logger.Infow("point cloud written", "points", cloud.Size(), "file", flags.Arg(4))
	return nil
}
