// Package builder compiles parsed script commands into a keyframe store, the
// same structure an interactive session produces.
package builder

import (
	"fmt"
	gomath "math"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/framereel/internal/keyframe"
	"github.com/Faultbox/framereel/internal/script"
	"github.com/Faultbox/framereel/internal/viewstate"
	"github.com/Faultbox/framereel/pkg/math"
)

// maxSegmentDegrees bounds the rotation between two keyframes emitted for a
// single range rotation; slerp would otherwise take the short way round.
const maxSegmentDegrees = 120.0

// Options configures a build.
type Options struct {
	// Layers is the number of data layers; SetLayerVisible must address one.
	Layers int
	// TimeExtent bounds the time index to [0, TimeExtent). Zero disables the check.
	TimeExtent int
	// Seed is the state at script frame 0. Identity when nil.
	Seed *viewstate.State
	// FrameOffset is added to every script frame when emitting keyframes.
	FrameOffset int
	Logger      *zap.Logger
}

// Build applies cmds in textual order and emits one keyframe per boundary.
//
// Boundaries are frame 0, every point frame and both ends of every range.
// A command is not yet in effect at its start frame and fully in effect
// from its end frame on; boundaries strictly inside a range carry the
// proportional part of the change so interpolation stays continuous.
// Rotations, translations, zooms and time shifts accumulate; visibility
// changes overwrite and take effect only at the end frame.
func Build(cmds []script.Command, opts Options) (*keyframe.Store, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Layers < 0 {
		return nil, fmt.Errorf("%w: negative layer count %d", viewstate.ErrInvalidParameter, opts.Layers)
	}

	seed := viewstate.Identity(opts.Layers)
	if opts.Seed != nil {
		seed = opts.Seed.Clone()
	}
	if err := seed.Validate(opts.Layers, opts.TimeExtent); err != nil {
		return nil, fmt.Errorf("seed state: %w", err)
	}

	for _, c := range cmds {
		if err := validate(c, opts.Layers); err != nil {
			return nil, err
		}
	}

	bounds := boundaries(cmds)
	log.Debug("compiling script",
		zap.Int("commands", len(cmds)),
		zap.Ints("boundaries", bounds))

	store := keyframe.NewStore()
	for _, b := range bounds {
		st, err := stateAt(seed, cmds, b)
		if err != nil {
			return nil, err
		}
		if err := st.Validate(opts.Layers, opts.TimeExtent); err != nil {
			return nil, fmt.Errorf("state at frame %d: %w", b, err)
		}
		if err := store.Insert(keyframe.Keyframe{Frame: b + opts.FrameOffset, State: st}); err != nil {
			return nil, err
		}
		log.Debug("keyframe", zap.Int("frame", b+opts.FrameOffset), zap.Stringer("state", st))
	}
	if err := store.Seek(0); err != nil {
		return nil, err
	}
	return store, nil
}

func validate(c script.Command, layers int) error {
	if c.Range.From < 0 || c.Range.To < c.Range.From {
		return fmt.Errorf("line %d: %w: bad range %s", c.Line, viewstate.ErrInvalidParameter, c.Range)
	}
	switch a := c.Action.(type) {
	case script.SetLayerVisible:
		if a.Layer < 0 || a.Layer >= layers {
			return fmt.Errorf("line %d: %w: layer %d outside [0, %d)", c.Line, viewstate.ErrInvalidParameter, a.Layer, layers)
		}
	case script.Zoom:
		if !(a.Factor > 0) {
			return fmt.Errorf("line %d: %w: zoom factor %v", c.Line, viewstate.ErrInvalidParameter, a.Factor)
		}
	case script.Rotate:
		if _, err := math.QuatFromAxisAngle(a.Axis, a.Degrees); err != nil {
			return fmt.Errorf("line %d: %w", c.Line, err)
		}
		if n := rotationSegments(a); !c.Range.IsPoint() && c.Range.To-c.Range.From < n {
			return fmt.Errorf("line %d: %w: range %s too short for a %v degree rotation, needs %d frames",
				c.Line, viewstate.ErrInvalidParameter, c.Range, a.Degrees, n)
		}
	case script.Translate, script.ShiftTime:
	default:
		return fmt.Errorf("line %d: %w: unknown action %T", c.Line, viewstate.ErrInvalidParameter, c.Action)
	}
	return nil
}

// rotationSegments returns how many keyframe intervals a range rotation is
// split into so that no interval turns by more than maxSegmentDegrees.
func rotationSegments(r script.Rotate) int {
	if gomath.Abs(r.Degrees) <= 180 {
		return 1
	}
	return int(gomath.Ceil(gomath.Abs(r.Degrees) / maxSegmentDegrees))
}

// boundaries returns the sorted, distinct frames that receive a keyframe.
func boundaries(cmds []script.Command) []int {
	bs := []int{0}
	for _, c := range cmds {
		bs = append(bs, c.Range.From, c.Range.To)
		if r, ok := c.Action.(script.Rotate); ok && !c.Range.IsPoint() {
			n := rotationSegments(r)
			span := float64(c.Range.To - c.Range.From)
			for k := 1; k < n; k++ {
				bs = append(bs, c.Range.From+int(gomath.Round(span*float64(k)/float64(n))))
			}
		}
	}
	slices.Sort(bs)
	return slices.Compact(bs)
}

// progress is the fraction of c in effect at frame b.
func progress(c script.Command, b int) float64 {
	switch {
	case b >= c.Range.To:
		return 1
	case b <= c.Range.From:
		return 0
	}
	return float64(b-c.Range.From) / float64(c.Range.To-c.Range.From)
}

func stateAt(seed viewstate.State, cmds []script.Command, b int) (viewstate.State, error) {
	st := seed.Clone()
	for _, c := range cmds {
		f := progress(c, b)
		if f == 0 {
			continue
		}
		switch a := c.Action.(type) {
		case script.Rotate:
			q, err := math.QuatFromAxisAngle(a.Axis, a.Degrees*f)
			if err != nil {
				return st, fmt.Errorf("line %d: %w", c.Line, err)
			}
			st.Rotation = math.Compose(st.Rotation, q)
		case script.Translate:
			st.Translation = r3.Add(st.Translation, r3.Scale(f, a.Vector))
		case script.Zoom:
			st.Zoom *= 1 + (a.Factor-1)*f
		case script.ShiftTime:
			st.Time += int(gomath.Round(float64(a.Delta) * f))
		case script.SetLayerVisible:
			if f == 1 {
				st.Visibility[a.Layer] = a.Visible
			}
		}
	}
	return st, nil
}
