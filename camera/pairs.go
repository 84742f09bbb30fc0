package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// sidePrefixes are the basename prefixes pairing stereo images in a folder.
const (
	leftPrefix  = "left"
	rightPrefix = "right"
)

// PairPaths is one discovered stereo image pair on disk.
type PairPaths struct {
	Left  string
	Right string
}

// FindPairs discovers stereo photos in a folder. Files named left<suffix>
// are matched to right<suffix> by basename and returned in sorted order; a
// left file without its right counterpart is an error.
func FindPairs(dir string) ([]PairPaths, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading image folder %s", dir)
	}
	names := map[string]bool{}
	var lefts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names[e.Name()] = true
		if strings.HasPrefix(e.Name(), leftPrefix) {
			lefts = append(lefts, e.Name())
		}
	}
	sort.Strings(lefts)

	pairs := make([]PairPaths, 0, len(lefts))
	for _, left := range lefts {
		right := rightPrefix + strings.TrimPrefix(left, leftPrefix)
		if !names[right] {
			return nil, errors.Errorf("no matching %s for %s in %s", right, left, dir)
		}
		pairs = append(pairs, PairPaths{
			Left:  filepath.Join(dir, left),
			Right: filepath.Join(dir, right),
		})
	}
	if len(pairs) == 0 {
		return nil, errors.Errorf("no stereo pairs found in %s", dir)
	}
	return pairs, nil
}

// PairName returns the zero-padded basenames for captured pair number idx.
func PairName(idx int, ext string) (string, string) {
	return fmt.Sprintf("%s_%02d%s", leftPrefix, idx, ext),
		fmt.Sprintf("%s_%02d%s", rightPrefix, idx, ext)
}

// SourcesFromFolder builds one FrameSource per side from the pairs
// discovered in a folder.
func SourcesFromFolder(dir string) (*FileSource, *FileSource, error) {
	pairs, err := FindPairs(dir)
	if err != nil {
		return nil, nil, err
	}
	lefts := make([]string, len(pairs))
	rights := make([]string, len(pairs))
	for i, p := range pairs {
		lefts[i] = p.Left
		rights[i] = p.Right
	}
	return NewFileSource(lefts), NewFileSource(rights), nil
}
