// Package viewstate defines the camera/view configuration rendered for one
// output frame.
package viewstate

import (
	"errors"
	"fmt"
	gomath "math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/framereel/pkg/math"
)

// ErrInvalidParameter is returned when a numeric value is outside its domain.
var ErrInvalidParameter = errors.New("invalid parameter")

// State is one point-in-time view configuration.
// Treat it as a value: use Clone before mutating Visibility.
type State struct {
	Rotation    math.Quat `yaml:"rotation"`
	Translation r3.Vec    `yaml:"translation"`
	Zoom        float64   `yaml:"zoom"`
	Time        int       `yaml:"time"`
	Visibility  []bool    `yaml:"visibility"` // one flag per layer, in layer order
}

// Identity returns the neutral state with every layer visible.
func Identity(layers int) State {
	vis := make([]bool, layers)
	for i := range vis {
		vis[i] = true
	}
	return State{
		Rotation:   math.QuatIdentity(),
		Zoom:       1,
		Visibility: vis,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Visibility = slices.Clone(s.Visibility)
	return s
}

// Validate checks the state invariants. layers < 0 skips the layer count
// check; timeExtent <= 0 means the data has no time axis bound.
func (s State) Validate(layers, timeExtent int) error {
	if !(s.Zoom > 0) || gomath.IsInf(s.Zoom, 0) {
		return fmt.Errorf("%w: zoom must be positive, got %v", ErrInvalidParameter, s.Zoom)
	}
	if s.Time < 0 {
		return fmt.Errorf("%w: time index must be non-negative, got %d", ErrInvalidParameter, s.Time)
	}
	if timeExtent > 0 && s.Time >= timeExtent {
		return fmt.Errorf("%w: time index %d outside [0, %d)", ErrInvalidParameter, s.Time, timeExtent)
	}
	if layers >= 0 && len(s.Visibility) != layers {
		return fmt.Errorf("%w: %d visibility flags for %d layers", ErrInvalidParameter, len(s.Visibility), layers)
	}
	if gomath.Abs(s.Rotation.Len()-1) > 1e-6 {
		return fmt.Errorf("%w: rotation is not a unit quaternion (norm %v)", ErrInvalidParameter, s.Rotation.Len())
	}
	return nil
}

// Equal reports exact equality of every field.
func (s State) Equal(o State) bool {
	return s.Rotation == o.Rotation &&
		s.Translation == o.Translation &&
		s.Zoom == o.Zoom &&
		s.Time == o.Time &&
		slices.Equal(s.Visibility, o.Visibility)
}

// ApproxEqual compares real-valued fields within tol. Rotations that differ
// only in sign are considered equal.
func (s State) ApproxEqual(o State, tol float64) bool {
	return s.Rotation.SameRotation(o.Rotation, tol) &&
		r3.Norm(r3.Sub(s.Translation, o.Translation)) <= tol &&
		gomath.Abs(s.Zoom-o.Zoom) <= tol &&
		s.Time == o.Time &&
		slices.Equal(s.Visibility, o.Visibility)
}

// Matrix returns the model-view transform a GL host would upload:
// zoom, then rotation, then translation.
func (s State) Matrix() math.Mat4 {
	return math.Translate(s.Translation).Mul(s.Rotation.ToMat4()).Mul(math.Scale(s.Zoom))
}

// String implements fmt.Stringer.
func (s State) String() string {
	return fmt.Sprintf("rot=(%.4f,%.4f,%.4f,%.4f) t=(%.3f,%.3f,%.3f) zoom=%.4f time=%d vis=%v",
		s.Rotation.X, s.Rotation.Y, s.Rotation.Z, s.Rotation.W,
		s.Translation.X, s.Translation.Y, s.Translation.Z,
		s.Zoom, s.Time, s.Visibility)
}
