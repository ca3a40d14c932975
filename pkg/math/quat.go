package math

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateAxis is returned when a rotation axis has (near) zero length.
var ErrDegenerateAxis = errors.New("degenerate rotation axis")

// axisEpsilon is the smallest axis magnitude accepted by QuatFromAxisAngle.
const axisEpsilon = 1e-12

// nearlyParallel is the dot product above which Slerp falls back to a
// normalized linear blend.
const nearlyParallel = 0.9995

// Quat represents a unit quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
	W float64 `yaml:"w"`
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from an axis and an angle in degrees.
// The axis does not need to be normalized.
func QuatFromAxisAngle(axis r3.Vec, degrees float64) (Quat, error) {
	if r3.Norm(axis) < axisEpsilon {
		return Quat{}, ErrDegenerateAxis
	}
	axis = r3.Unit(axis)
	halfAngle := degrees * math.Pi / 360
	s := math.Sin(halfAngle)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math.Cos(halfAngle),
	}.Normalize(), nil
}

func fromNumber(n quat.Number) Quat {
	return Quat{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

func (q Quat) components() []float64 {
	return []float64{q.X, q.Y, q.Z, q.W}
}

func (q Quat) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Len returns the quaternion norm.
func (q Quat) Len() float64 {
	return quat.Abs(q.number())
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := q.Len()
	if length < 1e-12 {
		return QuatIdentity()
	}
	return fromNumber(quat.Scale(1/length, q.number()))
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float64 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Neg returns -q, which encodes the same rotation.
func (q Quat) Neg() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

// Mul multiplies two quaternions (q * other).
func (q Quat) Mul(other Quat) Quat {
	return fromNumber(quat.Mul(q.number(), other.number()))
}

// Compose returns rotation a followed by rotation b, where b is expressed in
// the frame already rotated by a. The result is renormalized.
func Compose(a, b Quat) Quat {
	return a.Mul(b).Normalize()
}

// Slerp performs spherical linear interpolation between two quaternions
// along the shorter arc. t should be in range [0, 1].
func Slerp(a, b Quat, t float64) Quat {
	dot := a.Dot(b)

	// Negate one quaternion to take the shorter path
	if dot < 0 {
		b = b.Neg()
		dot = -dot
	}

	if dot > nearlyParallel {
		return a.Lerp(b, t)
	}

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	s0 := math.Sin((1-t)*theta) / sinTheta
	s1 := math.Sin(t*theta) / sinTheta

	return Quat{
		X: a.X*s0 + b.X*s1,
		Y: a.Y*s0 + b.Y*s1,
		Z: a.Z*s0 + b.Z*s1,
		W: a.W*s0 + b.W*s1,
	}.Normalize()
}

// Slerp is the method form of Slerp(q, other, t).
func (q Quat) Slerp(other Quat, t float64) Quat {
	return Slerp(q, other, t)
}

// Lerp performs linear interpolation between two quaternions.
// Use Slerp for rotation interpolation; this is for simple blending.
func (q Quat) Lerp(other Quat, t float64) Quat {
	return Quat{
		X: q.X + t*(other.X-q.X),
		Y: q.Y + t*(other.Y-q.Y),
		Z: q.Z + t*(other.Z-q.Z),
		W: q.W + t*(other.W-q.W),
	}.Normalize()
}

// AngleDegrees returns the rotation angle in degrees, in [0, 360).
func (q Quat) AngleDegrees() float64 {
	w := math.Max(-1, math.Min(1, q.Normalize().W))
	return 2 * math.Acos(w) * 180 / math.Pi
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v r3.Vec) r3.Vec {
	n := q.Normalize().number()
	p := quat.Mul(quat.Mul(n, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(n))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// SameRotation reports whether q and other encode the same rotation within
// tol, treating q and -q as equal.
func (q Quat) SameRotation(other Quat, tol float64) bool {
	return q.ApproxEqual(other, tol) || q.ApproxEqual(other.Neg(), tol)
}

// ApproxEqual compares components within tol.
func (q Quat) ApproxEqual(other Quat, tol float64) bool {
	return floats.EqualApprox(q.components(), other.components(), tol)
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// LerpVec3 performs linear interpolation between two 3D vectors.
func LerpVec3(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}
