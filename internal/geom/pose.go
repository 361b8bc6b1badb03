// Package geom provides the lightweight geometry primitives shared by the
// observation and map layers: 2D/3D points, SE(2) and SE(3) poses, angle
// normalization and planar polygons.
//
// Poses are plain value types. Pose composition follows the usual mobile
// robotics convention: a pose describes a child frame expressed in a parent
// frame, and ComposePoint maps child-frame coordinates into the parent frame.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point2D is a point in the plane.
type Point2D struct {
	X, Y float64
}

// Point3D is a point in 3D space.
type Point3D struct {
	X, Y, Z float64
}

// Pose2D is an SE(2) pose: planar position plus heading in radians.
type Pose2D struct {
	X, Y float64
	Phi  float64
}

// Compose returns the pose composition p ⊕ b: b expressed in p's parent frame.
func (p Pose2D) Compose(b Pose2D) Pose2D {
	c, s := math.Cos(p.Phi), math.Sin(p.Phi)
	return Pose2D{
		X:   p.X + b.X*c - b.Y*s,
		Y:   p.Y + b.X*s + b.Y*c,
		Phi: WrapToPi(p.Phi + b.Phi),
	}
}

// InverseCompose returns the pose composition p ⊖ b: p expressed in b's frame.
func (p Pose2D) InverseCompose(b Pose2D) Pose2D {
	c, s := math.Cos(b.Phi), math.Sin(b.Phi)
	dx, dy := p.X-b.X, p.Y-b.Y
	return Pose2D{
		X:   dx*c + dy*s,
		Y:   -dx*s + dy*c,
		Phi: WrapToPi(p.Phi - b.Phi),
	}
}

// ComposePoint maps a point from p's local frame into the parent frame.
func (p Pose2D) ComposePoint(l Point2D) Point2D {
	c, s := math.Cos(p.Phi), math.Sin(p.Phi)
	return Point2D{
		X: p.X + l.X*c - l.Y*s,
		Y: p.Y + l.X*s + l.Y*c,
	}
}

// InverseComposePoint maps a parent-frame point into p's local frame.
func (p Pose2D) InverseComposePoint(g Point2D) Point2D {
	c, s := math.Cos(p.Phi), math.Sin(p.Phi)
	dx, dy := g.X-p.X, g.Y-p.Y
	return Point2D{
		X: dx*c + dy*s,
		Y: -dx*s + dy*c,
	}
}

// Translation returns the (x,y) translational part of the pose.
func (p Pose2D) Translation() Point2D { return Point2D{p.X, p.Y} }

// Norm returns the norm of the (x,y) vector; Phi is not used.
func (p Pose2D) Norm() float64 { return math.Hypot(p.X, p.Y) }

// NormalizePhi forces Phi into [-pi, pi).
func (p *Pose2D) NormalizePhi() { p.Phi = WrapToPi(p.Phi) }

// Equal reports exact equality, taking heading cycles into account.
func (p Pose2D) Equal(b Pose2D) bool {
	return p.X == b.X && p.Y == b.Y && WrapTo2Pi(p.Phi) == WrapTo2Pi(b.Phi)
}

// String renders the pose as "[x y phi]" with phi in degrees.
func (p Pose2D) String() string {
	return fmt.Sprintf("[%f %f %f]", p.X, p.Y, RadToDeg(p.Phi))
}

// ParsePose2D parses the format produced by Pose2D.String.
func ParsePose2D(s string) (Pose2D, error) {
	var p Pose2D
	var deg float64
	if _, err := fmt.Sscanf(s, "[%f %f %f]", &p.X, &p.Y, &deg); err != nil {
		return Pose2D{}, fmt.Errorf("geom: parsing pose %q: %w", s, err)
	}
	p.Phi = DegToRad(deg)
	return p, nil
}

// Pose3D is an SE(3) pose with yaw/pitch/roll Euler angles in radians
// (ZYX convention: yaw about Z, then pitch about Y, then roll about X).
type Pose3D struct {
	X, Y, Z          float64
	Yaw, Pitch, Roll float64
}

// rotation returns the 3x3 rotation matrix entries in row-major order.
func (p Pose3D) rotation() [9]float64 {
	cy, sy := math.Cos(p.Yaw), math.Sin(p.Yaw)
	cp, sp := math.Cos(p.Pitch), math.Sin(p.Pitch)
	cr, sr := math.Cos(p.Roll), math.Sin(p.Roll)
	return [9]float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	}
}

// ComposePoint maps a point from p's local frame into the parent frame.
func (p Pose3D) ComposePoint(l Point3D) Point3D {
	r := p.rotation()
	return Point3D{
		X: p.X + r[0]*l.X + r[1]*l.Y + r[2]*l.Z,
		Y: p.Y + r[3]*l.X + r[4]*l.Y + r[5]*l.Z,
		Z: p.Z + r[6]*l.X + r[7]*l.Y + r[8]*l.Z,
	}
}

// Homogeneous returns the 4x4 homogeneous transform matrix of the pose.
func (p Pose3D) Homogeneous() *mat.Dense {
	r := p.rotation()
	return mat.NewDense(4, 4, []float64{
		r[0], r[1], r[2], p.X,
		r[3], r[4], r[5], p.Y,
		r[6], r[7], r[8], p.Z,
		0, 0, 0, 1,
	})
}

// Pose2D projects the pose onto the plane, keeping yaw as the heading.
func (p Pose3D) Pose2D() Pose2D {
	return Pose2D{X: p.X, Y: p.Y, Phi: p.Yaw}
}

// IsHorizontal reports whether the pose's local XY plane is parallel to the
// parent XY plane within tolerance radians. Upside-down poses (pitch or roll
// at pi) count as horizontal.
func (p Pose3D) IsHorizontal(tolerance float64) bool {
	pitch := math.Abs(WrapToPi(p.Pitch))
	roll := math.Abs(WrapToPi(p.Roll))
	pitchOK := pitch <= tolerance || math.Pi-pitch <= tolerance
	rollOK := roll <= tolerance || math.Pi-roll <= tolerance
	return pitchOK && rollOK
}

// String renders the pose as "[x y z yaw pitch roll]" with angles in degrees.
func (p Pose3D) String() string {
	return fmt.Sprintf("[%f %f %f %f %f %f]",
		p.X, p.Y, p.Z, RadToDeg(p.Yaw), RadToDeg(p.Pitch), RadToDeg(p.Roll))
}
