// Package interp expands a keyframe sequence into the dense, finite list of
// view states rendered frame by frame.
package interp

import (
	"fmt"
	"iter"
	gomath "math"
	"sort"

	"github.com/Faultbox/framereel/internal/keyframe"
	"github.com/Faultbox/framereel/internal/viewstate"
	"github.com/Faultbox/framereel/pkg/math"
)

// Options controls how many frames are generated between keyframes.
type Options struct {
	// Steps is the number of frames generated strictly between each pair of
	// consecutive keyframes.
	Steps int
	// FrameSpacing derives the per-segment step count from the keyframes'
	// frame indices instead, so output frame n lines up with frame index n
	// relative to the first keyframe.
	FrameSpacing bool
}

// Sequence is a lazy, restartable view over the interpolated frames of a
// keyframe snapshot. Building one is cheap; states are computed on demand.
type Sequence struct {
	keyframes []keyframe.Keyframe
	starts    []int // output index of each keyframe
	total     int
}

// New snapshots kfs and prepares the frame layout. kfs must be sorted by
// frame index, as a keyframe.Store guarantees.
func New(kfs []keyframe.Keyframe, opts Options) (*Sequence, error) {
	if len(kfs) == 0 {
		return nil, keyframe.ErrEmptyStore
	}
	if !opts.FrameSpacing && opts.Steps < 0 {
		return nil, fmt.Errorf("%w: steps must be non-negative, got %d", viewstate.ErrInvalidParameter, opts.Steps)
	}

	seq := &Sequence{
		keyframes: make([]keyframe.Keyframe, len(kfs)),
		starts:    make([]int, len(kfs)),
	}
	pos := 0
	for i, kf := range kfs {
		if i > 0 && kf.Frame <= kfs[i-1].Frame {
			return nil, fmt.Errorf("%w: keyframes not strictly ascending at frame %d", viewstate.ErrInvalidParameter, kf.Frame)
		}
		seq.keyframes[i] = keyframe.Keyframe{Frame: kf.Frame, State: kf.State.Clone()}
		seq.starts[i] = pos
		if i < len(kfs)-1 {
			steps := opts.Steps
			if opts.FrameSpacing {
				steps = kfs[i+1].Frame - kf.Frame - 1
			}
			pos += steps + 1
		}
	}
	seq.total = pos + 1
	return seq, nil
}

// FromStore snapshots the store's keyframes.
func FromStore(s *keyframe.Store, opts Options) (*Sequence, error) {
	return New(s.Keyframes(), opts)
}

// Len returns the number of output frames.
func (s *Sequence) Len() int {
	return s.total
}

// At computes the state of output frame i.
func (s *Sequence) At(i int) (viewstate.State, error) {
	if i < 0 || i >= s.total {
		return viewstate.State{}, fmt.Errorf("%w: frame %d outside [0, %d)", viewstate.ErrInvalidParameter, i, s.total)
	}

	// Last keyframe whose start is <= i.
	k := sort.Search(len(s.starts), func(j int) bool { return s.starts[j] > i }) - 1
	a := s.keyframes[k]
	if i == s.starts[k] {
		return a.State.Clone(), nil
	}
	b := s.keyframes[k+1]
	span := s.starts[k+1] - s.starts[k]
	t := float64(i-s.starts[k]) / float64(span)
	return Blend(a.State, b.State, t), nil
}

// All yields every output frame in order. Each call starts from frame 0.
func (s *Sequence) All() iter.Seq2[int, viewstate.State] {
	return func(yield func(int, viewstate.State) bool) {
		for i := 0; i < s.total; i++ {
			st, _ := s.At(i)
			if !yield(i, st) {
				return
			}
		}
	}
}

// States collects the whole sequence.
func (s *Sequence) States() []viewstate.State {
	out := make([]viewstate.State, 0, s.total)
	for _, st := range s.All() {
		out = append(out, st)
	}
	return out
}

// KeyframeAt reports whether output frame i is a keyframe and which one.
func (s *Sequence) KeyframeAt(i int) (int, bool) {
	k := sort.SearchInts(s.starts, i)
	if k < len(s.starts) && s.starts[k] == i {
		return k, true
	}
	return -1, false
}

// Blend interpolates between two states at t in [0, 1). Rotation uses slerp;
// translation, zoom and time are linear with time rounded to the nearest
// index. Visibility is a step: a's flags are kept until the next keyframe.
func Blend(a, b viewstate.State, t float64) viewstate.State {
	if t == 0 {
		return a.Clone()
	}
	return viewstate.State{
		Rotation:    math.Slerp(a.Rotation, b.Rotation, t),
		Translation: math.LerpVec3(a.Translation, b.Translation, t),
		Zoom:        lerp(a.Zoom, b.Zoom, t),
		Time:        int(gomath.Round(lerp(float64(a.Time), float64(b.Time), t))),
		Visibility:  a.Clone().Visibility,
	}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
