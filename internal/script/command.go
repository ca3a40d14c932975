// Package script parses the line-oriented animation language into commands.
//
// A script is a sequence of statements:
//
//	At frame 10 make layer 0 invisible
//	From frame 0 to frame 20
//	-shift time by 45
//	-rotate by 180 degrees around (1,0,0)
//	-zoom by a factor of 2
//
// Keywords are case-insensitive. Lines starting with '#' and blank lines
// are ignored.
package script

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Range is the inclusive span of frames a command applies to.
// A point command has From == To.
type Range struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// IsPoint reports whether the range covers a single frame.
func (r Range) IsPoint() bool {
	return r.From == r.To
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.From, r.To)
}

// Action is one of Zoom, Translate, Rotate, SetLayerVisible or ShiftTime.
type Action interface {
	fmt.Stringer
	action()
}

// Zoom multiplies the zoom factor.
type Zoom struct {
	Factor float64
}

// Translate adds a displacement.
type Translate struct {
	Vector r3.Vec
}

// Rotate turns the view by Degrees around Axis.
type Rotate struct {
	Degrees float64
	Axis    r3.Vec
}

// SetLayerVisible overwrites the visibility flag of one layer.
type SetLayerVisible struct {
	Layer   int
	Visible bool
}

// ShiftTime moves the time index by Delta.
type ShiftTime struct {
	Delta int
}

func (Zoom) action()            {}
func (Translate) action()       {}
func (Rotate) action()          {}
func (SetLayerVisible) action() {}
func (ShiftTime) action()       {}

func (a Zoom) String() string { return fmt.Sprintf("Zoom(%g)", a.Factor) }

func (a Translate) String() string {
	return fmt.Sprintf("Translate(%g,%g,%g)", a.Vector.X, a.Vector.Y, a.Vector.Z)
}

func (a Rotate) String() string {
	return fmt.Sprintf("Rotate(%g°,(%g,%g,%g))", a.Degrees, a.Axis.X, a.Axis.Y, a.Axis.Z)
}

func (a SetLayerVisible) String() string {
	return fmt.Sprintf("SetLayerVisible(%d,%t)", a.Layer, a.Visible)
}

func (a ShiftTime) String() string { return fmt.Sprintf("ShiftTime(%d)", a.Delta) }

// Command is one action bound to the frame range of its header line.
type Command struct {
	Line   int // 1-based line of the action
	Range  Range
	Action Action
}

func (c Command) String() string {
	return fmt.Sprintf("{range=%s, %s}", c.Range, c.Action)
}
