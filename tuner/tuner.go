// Package tuner drives an interactive block matcher tuning session. An
// external event source (trackbar, keyboard, test harness) calls the
// transition methods synchronously; each edit either fully commits and
// refreshes the display or is rejected with no visible change.
package tuner

import (
	"image"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/visionworks/stereo/blockmatch"
)

// DisplaySink receives the rendered disparity map after every accepted
// change. Implementations are display drivers and stay outside the tuning
// logic.
type DisplaySink interface {
	Display(img image.Image) error
}

// Tuner holds one operator session: the live matcher, the pair being
// displayed, and a history of parameter snapshots taken each time the
// operator moved to a new pair.
type Tuner struct {
	matcher blockmatch.Matcher
	sink    DisplaySink
	logger  golog.Logger

	left, right image.Image
	history     []map[string]float64
}

// New returns an idle session. The session starts displaying once the first
// pair is loaded with TunePair.
func New(matcher blockmatch.Matcher, sink DisplaySink, logger golog.Logger) *Tuner {
	return &Tuner{matcher: matcher, sink: sink, logger: logger}
}

// TunePair snapshots the current parameters into the session history,
// switches to the new pair and recomputes the display. The first pair of a
// session is not preceded by a snapshot; there is nothing tuned yet.
func (t *Tuner) TunePair(left, right image.Image) error {
	if t.left != nil {
		t.history = append(t.history, t.snapshot())
	}
	t.left, t.right = left, right
	return t.refresh()
}

// EditParameter applies one validated parameter change. On success the
// disparity map is recomputed and redisplayed; on rejection the matcher and
// the display are untouched and the validation error is returned.
func (t *Tuner) EditParameter(field string, value float64) error {
	if err := t.matcher.Set(field, value); err != nil {
		return err
	}
	t.logger.Debugw("parameter updated", "field", field, "value", value)
	if t.left == nil {
		return nil
	}
	return t.refresh()
}

// History returns the recorded parameter snapshots, oldest first.
func (t *Tuner) History() []map[string]float64 {
	return t.history
}

func (t *Tuner) refresh() error {
	disparity, err := t.matcher.Disparity(t.left, t.right)
	if err != nil {
		return errors.Wrap(err, "recomputing disparity")
	}
	return t.sink.Display(RenderDisparity(disparity))
}

func (t *Tuner) snapshot() map[string]float64 {
	snap := make(map[string]float64, len(t.matcher.Fields()))
	for _, field := range t.matcher.Fields() {
		v, err := t.matcher.Get(field)
		if err != nil {
			continue
		}
		snap[field] = v
	}
	return snap
}
