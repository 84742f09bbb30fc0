package camera

import (
	"context"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

const captureExt = ".png"

// CaptureChessboards reads frames from the finder until count pairs showing
// a full chessboard have been saved into dir. Saved files follow the
// left_NN/right_NN naming that FindPairs discovers later.
func (cf *ChessboardFinder) CaptureChessboards(ctx context.Context, dir string, count int) error {
	if count <= 0 {
		return errors.Errorf("need a positive number of pairs, got %d", count)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating capture folder %s", dir)
	}
	for i := 0; i < count; i++ {
		left, right, err := cf.NextChessboardPair(ctx)
		if err != nil {
			return errors.Wrapf(err, "finding chessboard pair %d", i+1)
		}
		leftName, rightName := PairName(i+1, captureExt)
		if err := imaging.Save(left, filepath.Join(dir, leftName)); err != nil {
			return errors.Wrapf(err, "saving %s", leftName)
		}
		if err := imaging.Save(right, filepath.Join(dir, rightName)); err != nil {
			return errors.Wrapf(err, "saving %s", rightName)
		}
		cf.Pair.logger.Infow("captured chessboard pair", "index", i+1, "of", count)
	}
	return nil
}
