package interp

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/framereel/internal/keyframe"
	"github.com/Faultbox/framereel/internal/viewstate"
	"github.com/Faultbox/framereel/pkg/math"
)

func state(t *testing.T, degrees, x, zoom float64, time int, vis ...bool) viewstate.State {
	t.Helper()
	q, err := math.QuatFromAxisAngle(r3.Vec{Z: 1}, degrees)
	if err != nil {
		t.Fatal(err)
	}
	return viewstate.State{
		Rotation:    q,
		Translation: r3.Vec{X: x},
		Zoom:        zoom,
		Time:        time,
		Visibility:  vis,
	}
}

func testKeyframes(t *testing.T) []keyframe.Keyframe {
	return []keyframe.Keyframe{
		{Frame: 0, State: state(t, 0, 0, 1, 0, true, true)},
		{Frame: 4, State: state(t, 90, 10, 2, 8, false, true)},
		{Frame: 10, State: state(t, 90, -10, 1, 2, false, false)},
	}
}

func TestLength(t *testing.T) {
	kfs := testKeyframes(t)
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"zero steps", Options{Steps: 0}, 3},
		{"one step", Options{Steps: 1}, 5},
		{"fifteen steps", Options{Steps: 15}, 2*16 + 1},
		{"frame spacing", Options{FrameSpacing: true}, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := New(kfs, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if seq.Len() != tt.want {
				t.Errorf("Len: got %d, want %d", seq.Len(), tt.want)
			}
			if n := len(seq.States()); n != tt.want {
				t.Errorf("States: got %d, want %d", n, tt.want)
			}
		})
	}
}

func TestZeroStepsReproducesKeyframes(t *testing.T) {
	kfs := testKeyframes(t)
	seq, err := New(kfs, Options{Steps: 0})
	if err != nil {
		t.Fatal(err)
	}

	var want []viewstate.State
	for _, kf := range kfs {
		want = append(want, kf.State)
	}
	if diff := cmp.Diff(want, seq.States()); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleKeyframe(t *testing.T) {
	kfs := testKeyframes(t)[:1]
	seq, err := New(kfs, Options{Steps: 10})
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 1 {
		t.Fatalf("expected one frame, got %d", seq.Len())
	}
	got, _ := seq.At(0)
	if !got.Equal(kfs[0].State) {
		t.Errorf("got %v, want %v", got, kfs[0].State)
	}
}

func TestEmpty(t *testing.T) {
	if _, err := New(nil, Options{Steps: 3}); !errors.Is(err, keyframe.ErrEmptyStore) {
		t.Errorf("expected ErrEmptyStore, got %v", err)
	}
	if _, err := New(testKeyframes(t), Options{Steps: -1}); !errors.Is(err, viewstate.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestIdempotent(t *testing.T) {
	seq, err := New(testKeyframes(t), Options{Steps: 7})
	if err != nil {
		t.Fatal(err)
	}
	first := seq.States()
	second := seq.States()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("regenerating differs (-first +second):\n%s", diff)
	}

	again, _ := New(testKeyframes(t), Options{Steps: 7})
	if diff := cmp.Diff(first, again.States()); diff != "" {
		t.Errorf("rebuilding differs (-first +again):\n%s", diff)
	}
}

func TestKeyframesAppearExactly(t *testing.T) {
	kfs := testKeyframes(t)
	seq, err := New(kfs, Options{Steps: 3})
	if err != nil {
		t.Fatal(err)
	}
	for k, i := range []int{0, 4, 8} {
		got, _ := seq.At(i)
		if !got.Equal(kfs[k].State) {
			t.Errorf("frame %d: got %v, want keyframe %d %v", i, got, k, kfs[k].State)
		}
		if idx, ok := seq.KeyframeAt(i); !ok || idx != k {
			t.Errorf("KeyframeAt(%d) = %d, %v", i, idx, ok)
		}
	}
	if _, ok := seq.KeyframeAt(5); ok {
		t.Error("frame 5 is not a keyframe")
	}
}

func TestMidpointValues(t *testing.T) {
	kfs := testKeyframes(t)
	seq, err := New(kfs, Options{Steps: 1})
	if err != nil {
		t.Fatal(err)
	}

	mid, _ := seq.At(1)
	want := state(t, 45, 5, 1.5, 4, true, true)

	if !mid.ApproxEqual(want, 1e-9) {
		t.Errorf("midpoint: got %v, want %v", mid, want)
	}

	// Fields compared one by one; State.Equal would short-circuit cmp.
	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(want.Rotation, mid.Rotation, opt); diff != "" {
		t.Errorf("rotation mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeRoundsPerSegment(t *testing.T) {
	kfs := []keyframe.Keyframe{
		{Frame: 0, State: state(t, 0, 0, 1, 0)},
		{Frame: 3, State: state(t, 0, 0, 1, 1)},
		{Frame: 6, State: state(t, 0, 0, 1, 2)},
	}
	seq, err := New(kfs, Options{FrameSpacing: true})
	if err != nil {
		t.Fatal(err)
	}
	var times []int
	for _, st := range seq.All() {
		times = append(times, st.Time)
	}
	// 1/3 -> 0, 2/3 -> 1, then 4/3 -> 1, 5/3 -> 2.
	want := []int{0, 0, 1, 1, 1, 2, 2}
	if diff := cmp.Diff(want, times); diff != "" {
		t.Errorf("time indices (-want +got):\n%s", diff)
	}
}

func TestVisibilityIsStep(t *testing.T) {
	kfs := testKeyframes(t)
	seq, err := New(kfs, Options{Steps: 5})
	if err != nil {
		t.Fatal(err)
	}
	for i, st := range seq.All() {
		k := i / 6
		if k >= len(kfs) {
			k = len(kfs) - 1
		}
		if diff := cmp.Diff(kfs[k].State.Visibility, st.Visibility); diff != "" {
			t.Errorf("frame %d visibility (-want +got):\n%s", i, diff)
		}
	}
}

func TestRotationStaysUnit(t *testing.T) {
	seq, err := New(testKeyframes(t), Options{Steps: 25})
	if err != nil {
		t.Fatal(err)
	}
	for i, st := range seq.All() {
		if gomath.Abs(st.Rotation.Len()-1) > 1e-9 {
			t.Errorf("frame %d: rotation norm %v", i, st.Rotation.Len())
		}
	}
}

func TestAllStopsEarly(t *testing.T) {
	seq, err := New(testKeyframes(t), Options{Steps: 10})
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for i := range seq.All() {
		n++
		if i == 3 {
			break
		}
	}
	if n != 4 {
		t.Errorf("expected 4 frames before break, got %d", n)
	}
}

func TestAtOutOfRange(t *testing.T) {
	seq, _ := New(testKeyframes(t), Options{Steps: 1})
	if _, err := seq.At(seq.Len()); !errors.Is(err, viewstate.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}
