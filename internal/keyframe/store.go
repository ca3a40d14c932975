// Package keyframe holds the ordered anchor states of a movie and the
// navigable cursor used while editing them.
package keyframe

import (
	"errors"
	"fmt"

	"github.com/Faultbox/framereel/internal/viewstate"
)

var (
	// ErrDuplicateFrameIndex is returned when a frame index is already taken.
	ErrDuplicateFrameIndex = errors.New("duplicate frame index")
	// ErrEmptyStore is returned when an operation needs at least one keyframe.
	ErrEmptyStore = errors.New("keyframe store is empty")
	// ErrNoMoreKeyframes is returned when navigating past either end.
	ErrNoMoreKeyframes = errors.New("no more keyframes")
)

// Keyframe binds a view state to a position in output-frame numbering.
type Keyframe struct {
	Frame int             `yaml:"frame"`
	State viewstate.State `yaml:"state"`
}

// Store is an ordered set of keyframes with unique, ascending frame indices
// and a current-entry cursor. The cursor is -1 only while the store is empty.
//
// A Store has a single mutator; it is not safe for concurrent use.
type Store struct {
	frames  []Keyframe
	current int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{current: -1}
}

// FromKeyframes builds a store from keyframes that are already sorted by
// frame index. The cursor is placed on the first entry.
func FromKeyframes(kfs []Keyframe) (*Store, error) {
	s := NewStore()
	for i, kf := range kfs {
		if kf.Frame < 0 {
			return nil, fmt.Errorf("%w: negative frame index %d", viewstate.ErrInvalidParameter, kf.Frame)
		}
		if i > 0 {
			prev := kfs[i-1].Frame
			if kf.Frame == prev {
				return nil, fmt.Errorf("%w: %d", ErrDuplicateFrameIndex, kf.Frame)
			}
			if kf.Frame < prev {
				return nil, fmt.Errorf("%w: frame %d follows frame %d", viewstate.ErrInvalidParameter, kf.Frame, prev)
			}
		}
		s.frames = append(s.frames, Keyframe{Frame: kf.Frame, State: kf.State.Clone()})
	}
	if len(s.frames) > 0 {
		s.current = 0
	}
	return s, nil
}

// Len returns the number of keyframes.
func (s *Store) Len() int {
	return len(s.frames)
}

// Current returns the cursor position, or -1 when the store is empty.
func (s *Store) Current() int {
	return s.current
}

// CurrentKeyframe returns a copy of the keyframe under the cursor.
func (s *Store) CurrentKeyframe() (Keyframe, error) {
	if len(s.frames) == 0 {
		return Keyframe{}, ErrEmptyStore
	}
	return s.at(s.current), nil
}

// At returns a copy of the i-th keyframe.
func (s *Store) At(i int) (Keyframe, error) {
	if i < 0 || i >= len(s.frames) {
		return Keyframe{}, fmt.Errorf("%w: index %d outside [0, %d)", viewstate.ErrInvalidParameter, i, len(s.frames))
	}
	return s.at(i), nil
}

func (s *Store) at(i int) Keyframe {
	kf := s.frames[i]
	kf.State = kf.State.Clone()
	return kf
}

// Last returns the final keyframe.
func (s *Store) Last() (Keyframe, error) {
	if len(s.frames) == 0 {
		return Keyframe{}, ErrEmptyStore
	}
	return s.at(len(s.frames) - 1), nil
}

// Keyframes returns a deep copy of the ordered keyframe sequence.
func (s *Store) Keyframes() []Keyframe {
	out := make([]Keyframe, len(s.frames))
	for i := range s.frames {
		out[i] = s.at(i)
	}
	return out
}

// InsertAfterCurrent inserts a keyframe directly after the cursor and moves
// the cursor onto it. The frame index must fall strictly between the current
// and the following keyframe; the store is unchanged on error.
func (s *Store) InsertAfterCurrent(state viewstate.State, frame int) error {
	if frame < 0 {
		return fmt.Errorf("%w: negative frame index %d", viewstate.ErrInvalidParameter, frame)
	}
	if idx := s.indexOf(frame); idx >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateFrameIndex, frame)
	}
	pos := s.current + 1
	if s.current >= 0 && frame < s.frames[s.current].Frame {
		return fmt.Errorf("%w: frame %d precedes current keyframe at %d",
			viewstate.ErrInvalidParameter, frame, s.frames[s.current].Frame)
	}
	if pos < len(s.frames) && frame > s.frames[pos].Frame {
		return fmt.Errorf("%w: frame %d is past next keyframe at %d",
			viewstate.ErrInvalidParameter, frame, s.frames[pos].Frame)
	}
	s.insertAt(pos, Keyframe{Frame: frame, State: state.Clone()})
	s.current = pos
	return nil
}

// Insert places a keyframe at its sorted position and moves the cursor onto it.
func (s *Store) Insert(kf Keyframe) error {
	if kf.Frame < 0 {
		return fmt.Errorf("%w: negative frame index %d", viewstate.ErrInvalidParameter, kf.Frame)
	}
	pos := 0
	for pos < len(s.frames) && s.frames[pos].Frame < kf.Frame {
		pos++
	}
	if pos < len(s.frames) && s.frames[pos].Frame == kf.Frame {
		return fmt.Errorf("%w: %d", ErrDuplicateFrameIndex, kf.Frame)
	}
	s.insertAt(pos, Keyframe{Frame: kf.Frame, State: kf.State.Clone()})
	s.current = pos
	return nil
}

func (s *Store) insertAt(pos int, kf Keyframe) {
	s.frames = append(s.frames, Keyframe{})
	copy(s.frames[pos+1:], s.frames[pos:])
	s.frames[pos] = kf
}

func (s *Store) indexOf(frame int) int {
	for i, kf := range s.frames {
		if kf.Frame == frame {
			return i
		}
	}
	return -1
}

// ReplaceCurrent overwrites the state under the cursor; the frame index is kept.
func (s *Store) ReplaceCurrent(state viewstate.State) error {
	if len(s.frames) == 0 {
		return ErrEmptyStore
	}
	s.frames[s.current].State = state.Clone()
	return nil
}

// DeleteCurrent removes the keyframe under the cursor. The last remaining
// keyframe cannot be deleted. The cursor moves to the previous entry, or to
// the first one when there is none.
func (s *Store) DeleteCurrent() error {
	if len(s.frames) <= 1 {
		return ErrEmptyStore
	}
	s.frames = append(s.frames[:s.current], s.frames[s.current+1:]...)
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Advance moves the cursor forward by one and returns the new position.
// At the last keyframe it returns ErrNoMoreKeyframes and stays put.
func (s *Store) Advance() (int, error) {
	if len(s.frames) == 0 {
		return -1, ErrEmptyStore
	}
	if s.current == len(s.frames)-1 {
		return s.current, ErrNoMoreKeyframes
	}
	s.current++
	return s.current, nil
}

// Retreat moves the cursor back by one and returns the new position.
// At the first keyframe it returns ErrNoMoreKeyframes and stays put.
func (s *Store) Retreat() (int, error) {
	if len(s.frames) == 0 {
		return -1, ErrEmptyStore
	}
	if s.current == 0 {
		return s.current, ErrNoMoreKeyframes
	}
	s.current--
	return s.current, nil
}

// Seek moves the cursor to index i.
func (s *Store) Seek(i int) error {
	if len(s.frames) == 0 {
		return ErrEmptyStore
	}
	if i < 0 || i >= len(s.frames) {
		return fmt.Errorf("%w: index %d outside [0, %d)", viewstate.ErrInvalidParameter, i, len(s.frames))
	}
	s.current = i
	return nil
}
