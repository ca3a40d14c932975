package viewstate

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/framereel/pkg/math"
)

func TestIdentity(t *testing.T) {
	s := Identity(3)

	if s.Zoom != 1 {
		t.Errorf("expected zoom 1, got %v", s.Zoom)
	}
	if s.Time != 0 {
		t.Errorf("expected time 0, got %d", s.Time)
	}
	if s.Rotation != math.QuatIdentity() {
		t.Errorf("expected identity rotation, got %+v", s.Rotation)
	}
	if len(s.Visibility) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(s.Visibility))
	}
	for i, v := range s.Visibility {
		if !v {
			t.Errorf("layer %d should be visible", i)
		}
	}
	if err := s.Validate(3, 0); err != nil {
		t.Errorf("identity should validate: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Identity(2)
	b := a.Clone()
	b.Visibility[0] = false

	if !a.Visibility[0] {
		t.Error("mutating the clone changed the original")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*State)
		layers     int
		timeExtent int
		wantErr    bool
	}{
		{"ok", func(s *State) {}, 2, 0, false},
		{"zero zoom", func(s *State) { s.Zoom = 0 }, 2, 0, true},
		{"negative zoom", func(s *State) { s.Zoom = -1 }, 2, 0, true},
		{"negative time", func(s *State) { s.Time = -1 }, 2, 0, true},
		{"time at extent", func(s *State) { s.Time = 10 }, 2, 10, true},
		{"time inside extent", func(s *State) { s.Time = 9 }, 2, 10, false},
		{"time unbounded", func(s *State) { s.Time = 1000 }, 2, 0, false},
		{"layer count mismatch", func(s *State) {}, 3, 0, true},
		{"layer count ignored", func(s *State) {}, -1, 0, false},
		{"non-unit rotation", func(s *State) { s.Rotation = math.Quat{W: 2} }, 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Identity(2)
			tt.mutate(&s)
			err := s.Validate(tt.layers, tt.timeExtent)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParameter) {
					t.Errorf("expected ErrInvalidParameter, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := Identity(2)
	b := a.Clone()
	if !a.Equal(b) {
		t.Error("clone should be equal")
	}

	b.Visibility[1] = false
	if a.Equal(b) {
		t.Error("visibility difference not detected")
	}

	c := a.Clone()
	c.Rotation = c.Rotation.Neg()
	if a.Equal(c) {
		t.Error("Equal should compare components exactly")
	}
	if !a.ApproxEqual(c, 1e-12) {
		t.Error("ApproxEqual should treat q and -q as the same rotation")
	}
}

func TestMatrix(t *testing.T) {
	s := Identity(0)
	s.Zoom = 2
	s.Translation = r3.Vec{X: 1, Y: 2, Z: 3}

	got := s.Matrix().TransformPoint(r3.Vec{X: 1})
	want := r3.Vec{X: 3, Y: 2, Z: 3}
	if got != want {
		t.Errorf("Matrix transform: got %v, want %v", got, want)
	}
}
