package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) <= eps }

func TestPose2DCompose(t *testing.T) {
	a := Pose2D{X: 1, Y: 0, Phi: math.Pi / 2}
	b := Pose2D{X: 1, Y: 0, Phi: 0}

	got := a.Compose(b)
	if !approx(got.X, 1) || !approx(got.Y, 1) || !approx(got.Phi, math.Pi/2) {
		t.Errorf("Compose = %v, want (1, 1, pi/2)", got)
	}
}

func TestPose2DComposeInverseRoundTrip(t *testing.T) {
	a := Pose2D{X: 2, Y: -1, Phi: 0.7}
	b := Pose2D{X: -0.5, Y: 3, Phi: -1.2}

	got := a.Compose(b).InverseCompose(a)
	if !approx(got.X, b.X) || !approx(got.Y, b.Y) || !approx(WrapToPi(got.Phi-b.Phi), 0) {
		t.Errorf("(a+b)-a = %v, want %v", got, b)
	}
}

func TestPose2DComposePoint(t *testing.T) {
	p := Pose2D{X: 1, Y: 2, Phi: math.Pi / 2}
	l := Point2D{X: 1, Y: 0}

	g := p.ComposePoint(l)
	if !approx(g.X, 1) || !approx(g.Y, 3) {
		t.Errorf("ComposePoint = %v, want (1, 3)", g)
	}

	back := p.InverseComposePoint(g)
	if !approx(back.X, l.X) || !approx(back.Y, l.Y) {
		t.Errorf("InverseComposePoint = %v, want %v", back, l)
	}
}

func TestPose2DEqualWrapsPhi(t *testing.T) {
	a := Pose2D{X: 1, Y: 1, Phi: 0}
	b := Pose2D{X: 1, Y: 1, Phi: 2 * math.Pi}
	if !a.Equal(b) {
		t.Error("poses differing by a full turn should compare equal")
	}
	c := Pose2D{X: 1, Y: 1, Phi: math.Pi}
	if a.Equal(c) {
		t.Error("poses differing by half a turn must not compare equal")
	}
}

func TestPose2DStringRoundTrip(t *testing.T) {
	p := Pose2D{X: 0.02, Y: 1.04, Phi: DegToRad(-45)}
	got, err := ParsePose2D(p.String())
	if err != nil {
		t.Fatalf("ParsePose2D: %v", err)
	}
	if !approx(got.X, p.X) || !approx(got.Y, p.Y) || math.Abs(got.Phi-p.Phi) > 1e-6 {
		t.Errorf("round trip = %v, want %v", got, p)
	}
}

func TestPose3DComposePointYaw(t *testing.T) {
	p := Pose3D{Yaw: math.Pi / 2}
	g := p.ComposePoint(Point3D{X: 1})
	if !approx(g.X, 0) || !approx(g.Y, 1) || !approx(g.Z, 0) {
		t.Errorf("ComposePoint = %v, want (0, 1, 0)", g)
	}
}

func TestPose3DComposePointPitch(t *testing.T) {
	// Under the ZYX convention, positive pitch rotates the local X axis
	// toward the parent frame's -Z axis.
	p := Pose3D{Pitch: math.Pi / 2}
	g := p.ComposePoint(Point3D{X: 1})
	if !approx(g.X, 0) || !approx(g.Y, 0) || !approx(g.Z, -1) {
		t.Errorf("ComposePoint = %v, want (0, 0, -1)", g)
	}
}

func TestPose3DHomogeneousMatchesComposePoint(t *testing.T) {
	p := Pose3D{X: 1, Y: -2, Z: 0.5, Yaw: 0.3, Pitch: -0.2, Roll: 1.1}
	h := p.Homogeneous()

	l := Point3D{X: 0.7, Y: -1.3, Z: 2.2}
	want := p.ComposePoint(l)

	v := mat.NewVecDense(4, []float64{l.X, l.Y, l.Z, 1})
	var out mat.VecDense
	out.MulVec(h, v)

	if !approx(out.AtVec(0), want.X) || !approx(out.AtVec(1), want.Y) || !approx(out.AtVec(2), want.Z) {
		t.Errorf("homogeneous transform = (%v, %v, %v), want %v",
			out.AtVec(0), out.AtVec(1), out.AtVec(2), want)
	}
	if !approx(out.AtVec(3), 1) {
		t.Errorf("homogeneous w = %v, want 1", out.AtVec(3))
	}
}

func TestPose3DIsHorizontal(t *testing.T) {
	tests := []struct {
		pose Pose3D
		want bool
	}{
		{Pose3D{}, true},
		{Pose3D{Yaw: 2.0}, true}, // yaw does not tilt the plane
		{Pose3D{Pitch: 0.3}, false},
		{Pose3D{Roll: math.Pi}, true}, // upside down is still planar
		{Pose3D{Pitch: math.Pi - 1e-4}, true},
		{Pose3D{Pitch: 0.05, Roll: -0.05}, false},
	}
	for _, tt := range tests {
		if got := tt.pose.IsHorizontal(1e-3); got != tt.want {
			t.Errorf("IsHorizontal(%+v) = %v, want %v", tt.pose, got, tt.want)
		}
	}
}
