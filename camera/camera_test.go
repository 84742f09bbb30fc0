package camera

import (
	"context"
	"image"
	"io"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/visionworks/stereo/kernel"
)

// stubSource replays fixed frames and records whether it was closed.
type stubSource struct {
	frames []image.Image
	idx    int
	closed bool
}

func (s *stubSource) Next(ctx context.Context) (image.Image, error) {
	if s.idx >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.idx]
	s.idx++
	return frame, nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func grayFrames(n, w, h int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = image.NewGray(image.Rect(0, 0, w, h))
	}
	return frames
}

func TestStereoPairNext(t *testing.T) {
	logger := golog.NewTestLogger(t)
	left := &stubSource{frames: grayFrames(1, 8, 6)}
	right := &stubSource{frames: grayFrames(1, 8, 6)}
	pair := NewStereoPair(left, right, logger)

	l, r, err := pair.NextPair(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.Bounds(), test.ShouldResemble, r.Bounds())

	_, _, err = pair.NextPair(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStereoPairCloseReleasesBoth(t *testing.T) {
	logger := golog.NewTestLogger(t)
	left := &stubSource{}
	right := &stubSource{}
	pair := NewStereoPair(left, right, logger)

	test.That(t, pair.Close(), test.ShouldBeNil)
	test.That(t, left.closed, test.ShouldBeTrue)
	test.That(t, right.closed, test.ShouldBeTrue)
}

func TestSingleDevicePairSplitsFrames(t *testing.T) {
	logger := golog.NewTestLogger(t)
	src := &stubSource{frames: grayFrames(1, 16, 6)}
	pair := NewSingleDevicePair(src, logger)

	l, r, err := pair.NextPair(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.Bounds().Dx(), test.ShouldEqual, 8)
	test.That(t, r.Bounds().Dx(), test.ShouldEqual, 8)
	test.That(t, l.Bounds().Dy(), test.ShouldEqual, 6)

	test.That(t, pair.Close(), test.ShouldBeNil)
	test.That(t, src.closed, test.ShouldBeTrue)
}

func TestChessboardFinderSkipsMisses(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sk := &kernel.SyntheticKernel{FocalLength: 250, Baseline: 10, Disparity: 4}

	// the first frame pair misses the board on the left side
	calls := 0
	sk.CornersFn = func(img image.Image, size kernel.ChessboardSize) ([]r2.Point, bool, error) {
		calls++
		if calls == 1 {
			return nil, false, nil
		}
		return make([]r2.Point, size.CornerCount()), true, nil
	}

	left := &stubSource{frames: grayFrames(2, 8, 6)}
	right := &stubSource{frames: grayFrames(2, 8, 6)}
	finder := &ChessboardFinder{
		Pair:      NewStereoPair(left, right, logger),
		Kernel:    sk,
		BoardSize: kernel.ChessboardSize{Rows: 6, Columns: 9},
	}

	_, _, err := finder.NextChessboardPair(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, left.idx, test.ShouldEqual, 2)

	// source exhaustion propagates
	_, _, err = finder.NextChessboardPair(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
}
