package movie

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/framereel/internal/viewstate"
	"github.com/Faultbox/framereel/pkg/math"
)

// Trackball is a Host that keeps the view in memory and turns pointer
// gestures into view changes. Renderers without their own camera can embed
// it and draw Matrix() each frame.
type Trackball struct {
	view viewstate.State

	// Constraints
	MinZoom float64
	MaxZoom float64

	// Sensitivity
	DragSensitivity float64 // degrees per pixel
	ZoomSensitivity float64 // fraction of the zoom per wheel step
	PanSensitivity  float64 // scene units per pixel at zoom 1
}

// NewTrackball creates a trackball showing the identity view.
func NewTrackball(layers int) *Trackball {
	return &Trackball{
		view:            viewstate.Identity(layers),
		MinZoom:         0.05,
		MaxZoom:         50,
		DragSensitivity: 0.3,
		ZoomSensitivity: 0.1,
		PanSensitivity:  0.01,
	}
}

// ReadState returns the current view.
func (t *Trackball) ReadState() viewstate.State {
	return t.view.Clone()
}

// ApplyState replaces the current view.
func (t *Trackball) ApplyState(s viewstate.State) {
	t.view = s.Clone()
}

// HandleDrag rotates the view. Horizontal drags turn around the screen's
// vertical axis, vertical drags around its horizontal axis.
func (t *Trackball) HandleDrag(deltaX, deltaY float64) {
	if deltaX != 0 {
		q, _ := math.QuatFromAxisAngle(r3.Vec{Y: 1}, deltaX*t.DragSensitivity)
		t.view.Rotation = math.Compose(q, t.view.Rotation)
	}
	if deltaY != 0 {
		q, _ := math.QuatFromAxisAngle(r3.Vec{X: 1}, deltaY*t.DragSensitivity)
		t.view.Rotation = math.Compose(q, t.view.Rotation)
	}
}

// HandleZoom scales the view by one wheel step per unit of delta.
func (t *Trackball) HandleZoom(delta float64) {
	z := t.view.Zoom * (1 + delta*t.ZoomSensitivity)
	if z < t.MinZoom {
		z = t.MinZoom
	}
	if z > t.MaxZoom {
		z = t.MaxZoom
	}
	t.view.Zoom = z
}

// HandlePan moves the view in screen space. Pans slow down as the view
// zooms in so the scene follows the pointer.
func (t *Trackball) HandlePan(deltaX, deltaY float64) {
	speed := t.PanSensitivity / t.view.Zoom
	t.view.Translation = r3.Add(t.view.Translation, r3.Vec{X: deltaX * speed, Y: -deltaY * speed})
}

// StepTime moves the time index by delta, clamped to [0, extent) when
// extent > 0.
func (t *Trackball) StepTime(delta, extent int) {
	v := t.view.Time + delta
	if v < 0 {
		v = 0
	}
	if extent > 0 && v >= extent {
		v = extent - 1
	}
	t.view.Time = v
}

// ToggleLayer flips the visibility of layer i. Unknown layers are ignored.
func (t *Trackball) ToggleLayer(i int) {
	if i >= 0 && i < len(t.view.Visibility) {
		t.view.Visibility[i] = !t.view.Visibility[i]
	}
}

// Matrix returns the model-view transform of the current view.
func (t *Trackball) Matrix() math.Mat4 {
	return t.view.Matrix()
}
