package camera

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/visionworks/stereo/kernel"
)

// StereoPair owns the two frame sources of a rig for the lifetime of a
// session. Close releases both deterministically and must run on every exit
// path.
type StereoPair struct {
	left   FrameSource
	right  FrameSource
	single bool
	logger golog.Logger
}

// NewStereoPair returns a session over separate left and right sources.
func NewStereoPair(left, right FrameSource, logger golog.Logger) *StereoPair {
	return &StereoPair{left: left, right: right, logger: logger}
}

// NewSingleDevicePair returns a session over one source whose frames hold
// both views side by side; each frame is split down the middle.
func NewSingleDevicePair(src FrameSource, logger golog.Logger) *StereoPair {
	return &StereoPair{left: src, single: true, logger: logger}
}

// NextPair returns the current frame from each side.
func (sp *StereoPair) NextPair(ctx context.Context) (image.Image, image.Image, error) {
	if sp.single {
		frame, err := sp.left.Next(ctx)
		if err != nil {
			return nil, nil, err
		}
		b := frame.Bounds()
		half := b.Dx() / 2
		left := imaging.Crop(frame, image.Rect(b.Min.X, b.Min.Y, b.Min.X+half, b.Max.Y))
		right := imaging.Crop(frame, image.Rect(b.Min.X+half, b.Min.Y, b.Max.X, b.Max.Y))
		return left, right, nil
	}
	left, err := sp.left.Next(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "left source")
	}
	right, err := sp.right.Next(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "right source")
	}
	return left, right, nil
}

// Close releases both sources.
func (sp *StereoPair) Close() error {
	if sp.single {
		return sp.left.Close()
	}
	return multierr.Combine(sp.left.Close(), sp.right.Close())
}

// ChessboardFinder wraps a StereoPair and skips ahead to frames where a
// chessboard is visible on both sides.
type ChessboardFinder struct {
	Pair      *StereoPair
	Kernel    kernel.Kernel
	BoardSize kernel.ChessboardSize
}

// NextChessboardPair advances the pair until chessboards are detected in
// both frames, returning that frame pair. Frames where either side misses
// the board are skipped; source exhaustion propagates as the source's error.
func (f *ChessboardFinder) NextChessboardPair(ctx context.Context) (image.Image, image.Image, error) {
	for {
		left, right, err := f.Pair.NextPair(ctx)
		if err != nil {
			return nil, nil, err
		}
		_, foundLeft, err := f.Kernel.FindChessboardCorners(left, f.BoardSize)
		if err != nil {
			return nil, nil, errors.Wrap(err, "left image")
		}
		_, foundRight, err := f.Kernel.FindChessboardCorners(right, f.BoardSize)
		if err != nil {
			return nil, nil, errors.Wrap(err, "right image")
		}
		if foundLeft && foundRight {
			return left, right, nil
		}
	}
}
