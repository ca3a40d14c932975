package math

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func mustAxisAngle(t *testing.T, axis r3.Vec, degrees float64) Quat {
	t.Helper()
	q, err := QuatFromAxisAngle(axis, degrees)
	if err != nil {
		t.Fatalf("QuatFromAxisAngle(%v, %v): %v", axis, degrees, err)
	}
	return q
}

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	if math.Abs(n.Len()-1.0) > tol {
		t.Errorf("Normalized quaternion length should be 1, got %v", n.Len())
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around an unnormalized Y axis
	q := mustAxisAngle(t, r3.Vec{Y: 5}, 90)

	expectedW := math.Cos(math.Pi / 4)
	expectedY := math.Sin(math.Pi / 4)

	if math.Abs(q.W-expectedW) > tol {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(q.Y-expectedY) > tol {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatFromAxisAngleDegenerate(t *testing.T) {
	_, err := QuatFromAxisAngle(r3.Vec{}, 45)
	if !errors.Is(err, ErrDegenerateAxis) {
		t.Fatalf("expected ErrDegenerateAxis, got %v", err)
	}
}

func TestComposeRotatesVector(t *testing.T) {
	rx := mustAxisAngle(t, r3.Vec{X: 1}, 90)
	rz := mustAxisAngle(t, r3.Vec{Z: 1}, 90)

	// Two 90 degree turns around the same axis make a half turn.
	half := Compose(rx, rx)
	got := half.Rotate(r3.Vec{Y: 1})
	if r3.Norm(r3.Sub(got, r3.Vec{Y: -1})) > tol {
		t.Errorf("180 around X should map +Y to -Y, got %v", got)
	}

	c := Compose(rx, rz)
	if math.Abs(c.Len()-1) > tol {
		t.Errorf("Compose should stay normalized, len %v", c.Len())
	}
	// rz applied in the frame rotated by rx: +X -> +Y (rz) -> +Z (rx).
	got = c.Rotate(r3.Vec{X: 1})
	if r3.Norm(r3.Sub(got, r3.Vec{Z: 1})) > tol {
		t.Errorf("Compose(rx, rz) applied to +X: got %v, want +Z", got)
	}
}

func TestQuatSlerp(t *testing.T) {
	q1 := QuatIdentity()
	q2 := mustAxisAngle(t, r3.Vec{Y: 1}, 90)

	if r := Slerp(q1, q2, 0); !r.ApproxEqual(q1, tol) {
		t.Errorf("Slerp at t=0 should equal q1, got %+v", r)
	}
	if r := Slerp(q1, q2, 1); !r.ApproxEqual(q2, tol) {
		t.Errorf("Slerp at t=1 should equal q2, got %+v", r)
	}

	// For a 90 degree rotation, halfway should be 45 degrees
	result5 := q1.Slerp(q2, 0.5)
	if math.Abs(result5.AngleDegrees()-45) > 1e-6 {
		t.Errorf("Slerp at t=0.5: expected 45 degrees, got %v", result5.AngleDegrees())
	}
}

func TestSlerpShorterArc(t *testing.T) {
	a := mustAxisAngle(t, r3.Vec{Z: 1}, 10)
	b := mustAxisAngle(t, r3.Vec{Z: 1}, 350)

	mid := Slerp(a, b, 0.5)
	// 10 and 350 degrees are 20 degrees apart through 0.
	if !mid.SameRotation(QuatIdentity(), 1e-9) {
		t.Errorf("Slerp should pass through identity, got %+v", mid)
	}
	if r := Slerp(a, b, 1); !r.SameRotation(b, tol) {
		t.Errorf("Slerp at t=1 should be the same rotation as b, got %+v", r)
	}
}

func TestSlerpNearlyParallel(t *testing.T) {
	a := mustAxisAngle(t, r3.Vec{X: 1}, 1)
	b := mustAxisAngle(t, r3.Vec{X: 1}, 1.5)

	for _, tt := range []float64{0, 0.25, 0.5, 1} {
		r := Slerp(a, b, tt)
		if math.IsNaN(r.W) {
			t.Fatalf("Slerp(%v) produced NaN", tt)
		}
		if want := 1 + 0.5*tt; math.Abs(r.AngleDegrees()-want) > 1e-3 {
			t.Errorf("Slerp(%v): angle %v, want ~%v", tt, r.AngleDegrees(), want)
		}
	}
}

func TestSlerpProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomQuat := func() Quat {
		return Quat{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64(), W: rng.NormFloat64()}.Normalize()
	}

	for i := 0; i < 200; i++ {
		a, b := randomQuat(), randomQuat()

		if r := Slerp(a, b, 0); !r.ApproxEqual(a, tol) {
			t.Fatalf("case %d: slerp(a,b,0) = %+v, want %+v", i, r, a)
		}
		if r := Slerp(a, b, 1); !r.SameRotation(b, tol) {
			t.Fatalf("case %d: slerp(a,b,1) = %+v, want %+v", i, r, b)
		}
		for s := 0; s <= 10; s++ {
			r := Slerp(a, b, float64(s)/10)
			if math.Abs(r.Len()-1) > tol {
				t.Fatalf("case %d t=%v: norm %v", i, float64(s)/10, r.Len())
			}
		}
	}
}

func TestQuatToMat4(t *testing.T) {
	q := QuatIdentity()
	m := q.ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(m[i]-identity[i]) > tol {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}

	// Matrix and quaternion must agree on a rotated point.
	rz := mustAxisAngle(t, r3.Vec{Z: 1}, 90)
	p := rz.ToMat4().TransformPoint(r3.Vec{X: 1})
	if r3.Norm(r3.Sub(p, rz.Rotate(r3.Vec{X: 1}))) > tol {
		t.Errorf("ToMat4 and Rotate disagree: %v vs %v", p, rz.Rotate(r3.Vec{X: 1}))
	}
}

func TestLerpVec3(t *testing.T) {
	a := r3.Vec{}
	b := r3.Vec{X: 10, Y: 20, Z: 30}

	result := LerpVec3(a, b, 0.5)
	expected := r3.Vec{X: 5, Y: 10, Z: 15}

	if r3.Norm(r3.Sub(result, expected)) > tol {
		t.Errorf("LerpVec3: expected %v, got %v", expected, result)
	}
}
