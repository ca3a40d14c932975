// Package movie implements the movie controller: it turns host events into
// keyframe store operations and feeds view states back to the host.
package movie

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/framereel/internal/builder"
	"github.com/Faultbox/framereel/internal/interp"
	"github.com/Faultbox/framereel/internal/keyframe"
	"github.com/Faultbox/framereel/internal/script"
	"github.com/Faultbox/framereel/internal/viewstate"
)

// Host is the rendering side of an editing session. The controller never
// inspects host state other than through ReadState.
type Host interface {
	// ReadState returns the view the user is currently looking at.
	ReadState() viewstate.State
	// ApplyState makes the host display s.
	ApplyState(s viewstate.State)
}

// Options configures a Controller.
type Options struct {
	Interp     interp.Options
	Layers     int
	TimeExtent int
	Logger     *zap.Logger
}

// Controller owns the keyframe store of one editing session and is its only
// mutator. Every event runs to completion before Handle returns.
type Controller struct {
	host  Host
	store *keyframe.Store
	opts  Options
	log   *zap.Logger

	seq     *interp.Sequence // nil after a mutation
	preview int              // -1 when no preview is running
}

// New creates a controller with an empty keyframe store.
func New(host Host, opts Options) *Controller {
	return NewWithStore(host, keyframe.NewStore(), opts)
}

// NewWithStore creates a controller editing an existing store.
func NewWithStore(host Host, store *keyframe.Store, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		host:    host,
		store:   store,
		opts:    opts,
		log:     log,
		preview: -1,
	}
}

// Store returns the controller's keyframe store. Callers must not mutate it
// while the controller is in use.
func (c *Controller) Store() *keyframe.Store {
	return c.store
}

// Preview returns the output frame last shown by PreviewStep, or -1.
func (c *Controller) Preview() int {
	return c.preview
}

// Handle performs the store operation bound to ev.
func (c *Controller) Handle(ev Event) error {
	var err error
	switch ev {
	case EventNewKeyframe:
		err = c.newKeyframe()
	case EventReplaceKeyframe:
		err = c.replaceKeyframe()
	case EventDeleteKeyframe:
		err = c.deleteKeyframe()
	case EventNext:
		err = c.navigate(c.store.Advance)
	case EventPrevious:
		err = c.navigate(c.store.Retreat)
	case EventPreviewStep:
		err = c.previewStep()
	default:
		err = fmt.Errorf("%w: unsupported event %s", viewstate.ErrInvalidParameter, ev)
	}

	if err != nil {
		c.log.Debug("event rejected", zap.Stringer("event", ev), zap.Error(err))
		return fmt.Errorf("%s: %w", ev, err)
	}
	c.log.Debug("event handled",
		zap.Stringer("event", ev),
		zap.Int("current", c.store.Current()),
		zap.Int("keyframes", c.store.Len()))
	return nil
}

// Sequence returns the interpolated movie for the current store, rebuilding
// it if the store changed since the last call.
func (c *Controller) Sequence() (*interp.Sequence, error) {
	if c.seq != nil {
		return c.seq, nil
	}
	seq, err := interp.FromStore(c.store, c.opts.Interp)
	if err != nil {
		return nil, err
	}
	c.seq = seq
	return seq, nil
}

// RunScript compiles cmds and appends the result to the store. When the
// store already holds keyframes, the script starts from the last one: its
// frame 0 is that keyframe's frame and its state is the seed. Commands at
// script frame 0 replace that keyframe's state.
func (c *Controller) RunScript(cmds []script.Command) error {
	bopts := builder.Options{
		Layers:     c.opts.Layers,
		TimeExtent: c.opts.TimeExtent,
		Logger:     c.log,
	}
	last, err := c.store.Last()
	continuing := err == nil
	if continuing {
		bopts.Seed = &last.State
		bopts.FrameOffset = last.Frame
	}

	built, err := builder.Build(cmds, bopts)
	if err != nil {
		return err
	}

	kfs := built.Keyframes()
	if continuing {
		// Script frame 0 is the last keyframe. "At frame 0" commands edit it
		// in place; the rest of the script follows it.
		start := kfs[0]
		kfs = kfs[1:]
		if !start.State.Equal(last.State) {
			if err := c.store.Seek(c.store.Len() - 1); err != nil {
				return err
			}
			if err := c.store.ReplaceCurrent(start.State); err != nil {
				return err
			}
			c.log.Debug("script adjusted starting keyframe", zap.Int("frame", last.Frame))
		}
	}
	for _, kf := range kfs {
		if err := c.store.Insert(kf); err != nil {
			return err
		}
	}
	c.invalidate()
	c.log.Info("script compiled",
		zap.Int("commands", len(cmds)),
		zap.Int("added", len(kfs)),
		zap.Int("keyframes", c.store.Len()))
	return c.applyCurrent()
}

func (c *Controller) invalidate() {
	c.seq = nil
	c.preview = -1
}

func (c *Controller) readState() (viewstate.State, error) {
	st := c.host.ReadState()
	if err := st.Validate(c.opts.Layers, c.opts.TimeExtent); err != nil {
		return viewstate.State{}, err
	}
	return st, nil
}

// spacing is the frame-index gap left after the last keyframe.
func (c *Controller) spacing() int {
	if c.opts.Interp.Steps > 0 {
		return c.opts.Interp.Steps + 1
	}
	return 1
}

// nextFrame picks the frame index for a keyframe inserted after the cursor:
// one spacing past the last keyframe, or halfway to the following one.
func (c *Controller) nextFrame() (int, error) {
	cur, err := c.store.CurrentKeyframe()
	if errors.Is(err, keyframe.ErrEmptyStore) {
		return 0, nil
	}
	if c.store.Current() == c.store.Len()-1 {
		return cur.Frame + c.spacing(), nil
	}
	next, err := c.store.At(c.store.Current() + 1)
	if err != nil {
		return 0, err
	}
	if next.Frame-cur.Frame < 2 {
		return 0, fmt.Errorf("%w: no free frame between %d and %d",
			keyframe.ErrDuplicateFrameIndex, cur.Frame, next.Frame)
	}
	return cur.Frame + (next.Frame-cur.Frame)/2, nil
}

func (c *Controller) newKeyframe() error {
	st, err := c.readState()
	if err != nil {
		return err
	}
	frame, err := c.nextFrame()
	if err != nil {
		return err
	}
	if err := c.store.InsertAfterCurrent(st, frame); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

func (c *Controller) replaceKeyframe() error {
	st, err := c.readState()
	if err != nil {
		return err
	}
	if err := c.store.ReplaceCurrent(st); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

func (c *Controller) deleteKeyframe() error {
	if err := c.store.DeleteCurrent(); err != nil {
		return err
	}
	c.invalidate()
	return c.applyCurrent()
}

func (c *Controller) navigate(move func() (int, error)) error {
	if _, err := move(); err != nil {
		return err
	}
	return c.applyCurrent()
}

func (c *Controller) applyCurrent() error {
	kf, err := c.store.CurrentKeyframe()
	if err != nil {
		return err
	}
	c.host.ApplyState(kf.State)
	return nil
}

// previewStep shows the next interpolated frame, wrapping to the first one
// after the end of the movie.
func (c *Controller) previewStep() error {
	seq, err := c.Sequence()
	if err != nil {
		return err
	}
	c.preview = (c.preview + 1) % seq.Len()
	st, err := seq.At(c.preview)
	if err != nil {
		return err
	}
	c.host.ApplyState(st)
	return nil
}
