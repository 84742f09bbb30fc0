// Captures chessboard stereo pairs from recorded frame folders into an
// output folder, optionally calibrating the captured set afterwards.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/visionworks/stereo/camera"
	"github.com/visionworks/stereo/kernel"
)

var logger = golog.NewDevelopmentLogger("stereocapture")

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		logger.Fatal(err)
	}
}

func realMain(args []string) error {
	flags := flag.NewFlagSet("stereocapture", flag.ContinueOnError)
	count := flags.Int("count", 10, "number of chessboard pairs to capture")
	rows := flags.Int("rows", 6, "inside corner rows on the chessboard")
	columns := flags.Int("columns", 9, "inside corner columns on the chessboard")
	single := flags.Bool("single", false, "frames hold both views side by side in one image")
	calibrate := flags.Bool("calibrate", false, "calibrate the captured pairs afterwards")
	square := flags.Float64("square-size", 1.0, "chessboard square size in world units")
	calibFolder := flags.String("calibration-folder", "calibration", "output folder for -calibrate")
	if err := flags.Parse(args); err != nil {
		return err
	}

	k, err := kernel.Registered()
	if err != nil {
		return err
	}
	pair, outDir, err := openPair(flags, *single)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(pair.Close)

	finder := &camera.ChessboardFinder{
		Pair:      pair,
		Kernel:    k,
		BoardSize: kernel.ChessboardSize{Rows: *rows, Columns: *columns},
	}
	if err := finder.CaptureChessboards(context.Background(), outDir, *count); err != nil {
		return err
	}
	logger.Infow("capture complete", "pairs", *count, "folder", outDir)

	if !*calibrate {
		return nil
	}
	calibration, _, err := camera.CalibrateFolder(k, outDir, *rows, *columns, *square, logger)
	if err != nil {
		return err
	}
	return calibration.Export(*calibFolder)
}

func openPair(flags *flag.FlagSet, single bool) (*camera.StereoPair, string, error) {
	if single {
		if flags.NArg() < 2 {
			return nil, "", errors.New("usage: stereocapture -single [flags] <frames folder> <output folder>")
		}
		src, err := camera.NewFolderSource(flags.Arg(0))
		if err != nil {
			return nil, "", err
		}
		return camera.NewSingleDevicePair(src, logger), flags.Arg(1), nil
	}
	if flags.NArg() < 3 {
		return nil, "", errors.New("usage: stereocapture [flags] <left frames folder> <right frames folder> <output folder>")
	}
	left, err := camera.NewFolderSource(flags.Arg(0))
	if err != nil {
		return nil, "", err
	}
	right, err := camera.NewFolderSource(flags.Arg(1))
	if err != nil {
		return nil, "", err
	}
	return camera.NewStereoPair(left, right, logger), flags.Arg(2), nil
}
