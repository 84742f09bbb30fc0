// Calibrates a folder of chessboard stereo pairs and exports the result to
// a calibration folder.
package main

import (
	"flag"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/visionworks/stereo/camera"
	"github.com/visionworks/stereo/kernel"
)

var logger = golog.NewDevelopmentLogger("stereocalibrate")

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		logger.Fatal(err)
	}
}

func realMain(args []string) error {
	flags := flag.NewFlagSet("stereocalibrate", flag.ContinueOnError)
	rows := flags.Int("rows", 6, "inside corner rows on the chessboard")
	columns := flags.Int("columns", 9, "inside corner columns on the chessboard")
	square := flags.Float64("square-size", 1.0, "chessboard square size in world units")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 2 {
		return errors.New("usage: stereocalibrate [flags] <image folder> <calibration folder>")
	}

	k, err := kernel.Registered()
	if err != nil {
		return err
	}
	calibration, avgErr, err := camera.CalibrateFolder(k, flags.Arg(0), *rows, *columns, *square, logger)
	if err != nil {
		return err
	}
	if err := calibration.Export(flags.Arg(1)); err != nil {
		return err
	}
	logger.Infow("calibration exported", "folder", flags.Arg(1), "avgEpipolarError", avgErr)
	return nil
}
