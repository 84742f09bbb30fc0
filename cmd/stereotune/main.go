// Interactively tunes block matcher parameters against a calibration and a
// folder of stereo pairs. Commands are read line by line from stdin:
//
//	set <field> <value>   edit one parameter
//	next                  move to the next image pair
//	report <field>        print the frequency table for a field
//	quit                  finish the session
//
// The rendered disparity map is written to the -display file after every
// accepted change so it can be watched in any image viewer.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/visionworks/stereo/blockmatch"
	"github.com/visionworks/stereo/calib"
	"github.com/visionworks/stereo/camera"
	"github.com/visionworks/stereo/kernel"
	"github.com/visionworks/stereo/tuner"
)

var logger = golog.NewDevelopmentLogger("stereotune")

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		logger.Fatal(err)
	}
}

type fileSink struct {
	path string
}

func (s *fileSink) Display(img image.Image) error {
	return imaging.Save(img, s.path)
}

func realMain(args []string) error {
	flags := flag.NewFlagSet("stereotune", flag.ContinueOnError)
	kind := flags.String("matcher", string(blockmatch.KindStereoSGBM), "block matcher kind (stereo_bm or stereo_sgbm)")
	display := flags.String("display", "disparity.png", "file the rendered disparity map is written to")
	savePath := flags.String("save", "", "write the most frequent settings here when the session ends")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 2 {
		return errors.New("usage: stereotune [flags] <calibration folder> <image folder>")
	}

	k, err := kernel.Registered()
	if err != nil {
		return err
	}
	calibration, err := calib.LoadStereoCalibration(flags.Arg(0))
	if err != nil {
		return err
	}
	matcher, err := blockmatch.NewMatcher(blockmatch.Kind(*kind), k)
	if err != nil {
		return err
	}
	pairs, err := camera.FindPairs(flags.Arg(1))
	if err != nil {
		return err
	}

	session := tuner.New(matcher, &fileSink{path: *display}, logger)
	nextPair := pairLoader(session, calibration, pairs)
	if err := nextPair(); err != nil {
		return err
	}
	if err := runCommands(session, matcher, nextPair, os.Stdin, os.Stdout); err != nil {
		return err
	}

	if *savePath == "" {
		return nil
	}
	return saveRecommended(session, matcher, *savePath)
}

// pairLoader returns a closure cycling the session through the image pairs,
// rectifying each pair before display.
func pairLoader(session *tuner.Tuner, calibration *calib.StereoCalibration, pairs []camera.PairPaths) func() error {
	idx := 0
	return func() error {
		p := pairs[idx%len(pairs)]
		idx++
		left, err := imaging.Open(p.Left)
		if err != nil {
			return errors.Wrapf(err, "reading image %s", p.Left)
		}
		right, err := imaging.Open(p.Right)
		if err != nil {
			return errors.Wrapf(err, "reading image %s", p.Right)
		}
		rectLeft, rectRight, err := calibration.Rectify(left, right)
		if err != nil {
			return err
		}
		return session.TunePair(rectLeft, rectRight)
	}
}

func runCommands(session *tuner.Tuner, matcher blockmatch.Matcher, nextPair func() error, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "fields: %v\n", matcher.Fields())
	for scanner.Scan() {
		var field string
		var value float64
		line := scanner.Text()
		switch {
		case line == "quit":
			return nil
		case line == "next":
			if err := nextPair(); err != nil {
				return err
			}
		default:
			if _, err := fmt.Sscanf(line, "report %s", &field); err == nil {
				report, err := session.ReportParameter(field)
				if err != nil {
					fmt.Fprintln(out, err)
					continue
				}
				fmt.Fprintln(out, report.Render())
				continue
			}
			if _, err := fmt.Sscanf(line, "set %s %f", &field, &value); err != nil {
				fmt.Fprintf(out, "unknown command %q\n", line)
				continue
			}
			if err := session.EditParameter(field, value); err != nil {
				fmt.Fprintln(out, err)
			}
		}
	}
	return scanner.Err()
}

// saveRecommended applies the most frequent historical value of every field
// and writes the resulting settings file. A recommendation that no longer
// validates against the final state is skipped with a warning.
func saveRecommended(session *tuner.Tuner, matcher blockmatch.Matcher, path string) error {
	for _, field := range matcher.Fields() {
		report, err := session.ReportParameter(field)
		if err != nil {
			return err
		}
		if err := session.EditParameter(field, report.Recommended()); err != nil {
			logger.Warnw("skipping recommended value", "field", field, "value", report.Recommended(), "error", err)
		}
	}
	if err := matcher.SaveSettings(path); err != nil {
		return err
	}
	logger.Infow("settings saved", "file", path)
	return nil
}
