// Package camera provides the frame sources and stereo pair sessions the
// pipeline consumes: file-backed sources, left/right pair discovery,
// chessboard-gated capture and the calibrated pair that turns rectified
// frames into point clouds.
package camera

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// FrameSource produces frames from a camera or a recorded image set. A
// source is owned by exactly one session and must be closed when the session
// ends.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// FileSource replays a fixed sequence of image files in order. Next returns
// io.EOF once the sequence is exhausted.
type FileSource struct {
	paths []string
	idx   int
}

// NewFileSource returns a source over the given image files.
func NewFileSource(paths []string) *FileSource {
	return &FileSource{paths: paths}
}

// Next implements FrameSource.
func (s *FileSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.idx >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.idx]
	s.idx++
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading image %s", path)
	}
	return img, nil
}

// Close implements FrameSource.
func (s *FileSource) Close() error {
	return nil
}

// NewFolderSource returns a source over every file in dir, sorted by name.
func NewFolderSource(dir string) (*FileSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading frame folder %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no frames in %s", dir)
	}
	sort.Strings(paths)
	return NewFileSource(paths), nil
}
