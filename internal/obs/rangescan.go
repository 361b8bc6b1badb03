// Package obs defines sensor observation records and their versioned binary
// codecs. Records are plain structs populated either by direct assignment or
// by decoding an archived byte stream; encoding always targets the newest
// format version while decoding understands every version ever shipped.
package obs

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/banshee-data/rangekit/internal/geom"
)

// Default field values installed by NewRangeScan2D and used to fill fields
// absent from legacy stream layouts.
const (
	// DefaultAperture is the default angular field of view in radians (180°).
	DefaultAperture = float32(math.Pi)
	// DefaultMaxRange is the default maximum sensing range in meters.
	DefaultMaxRange = float32(80.0)
	// DefaultStdError is the default per-ray range uncertainty in meters.
	DefaultStdError = float32(0.01)
)

// defaultBeamAperture (0.25°) is synthesized when decoding layouts that
// predate the per-scan beam aperture field.
var defaultBeamAperture = float32(geom.DegToRad(0.25))

// RangeScan2D is one planar laser range scan: N rays swept across Aperture
// radians, each with a measured range and a validity flag, plus optional
// per-ray intensity. Ranges, Valid and (when non-empty) Intensity are
// parallel sequences sharing the logical ray index 0..N-1 and must stay the
// same length for the record's whole lifetime.
//
// A RangeScan2D is not safe for concurrent mutation; the caller owns
// exclusive access for the duration of any method call.
type RangeScan2D struct {
	// Aperture is the total angular field of view in radians.
	Aperture float32
	// RightToLeft is true when rays sweep counter-clockwise (the usual
	// direction for a laser sitting upright on a robot).
	RightToLeft bool
	// MaxRange is the maximum sensing range in meters. Rays that saw no
	// return are typically recorded at or above this range with Valid=false.
	MaxRange float32
	// SensorPose is the sensor's pose on the robot frame.
	SensorPose geom.Pose3D

	// Ranges holds the measured range of each ray in meters.
	Ranges []float32
	// Valid flags each ray; filters only ever clear flags, never resize.
	Valid []bool
	// Intensity optionally holds per-ray return intensity. Either empty or
	// the same length as Ranges.
	Intensity []float32

	// StdError is the sensor's range measurement uncertainty in meters.
	StdError float32
	// Timestamp is the capture time; the zero value means unset.
	Timestamp time.Time
	// BeamAperture is the aperture of a single beam in radians.
	BeamAperture float32
	// SensorLabel is a free-text tag identifying the originating sensor.
	SensorLabel string
	// DeltaPitch is the pitch increment applied across the scan, in radians,
	// for sensors mounted on a nodding mechanism.
	DeltaPitch float64

	// auxMap caches the points map lazily built by BuildPointsMap.
	// Cleared whenever the record is freshly decoded.
	auxMap PointsMap
}

// NewRangeScan2D returns an empty scan with the documented defaults.
func NewRangeScan2D() *RangeScan2D {
	return &RangeScan2D{
		Aperture:    DefaultAperture,
		RightToLeft: true,
		MaxRange:    DefaultMaxRange,
		StdError:    DefaultStdError,
	}
}

// ScanProperties describes the scan geometry fields that determine whether
// two scans can share cached per-geometry state (e.g. precomputed ray
// direction tables).
type ScanProperties struct {
	NRays       int
	Aperture    float32
	RightToLeft bool
}

// Properties returns the scan's geometry key.
func (s *RangeScan2D) Properties() ScanProperties {
	return ScanProperties{
		NRays:       len(s.Ranges),
		Aperture:    s.Aperture,
		RightToLeft: s.RightToLeft,
	}
}

// Less imposes a total order on scan properties so they can key ordered maps.
func (p ScanProperties) Less(q ScanProperties) bool {
	if p.NRays != q.NRays {
		return p.NRays < q.NRays
	}
	if p.Aperture != q.Aperture {
		return p.Aperture < q.Aperture
	}
	return p.RightToLeft && !q.RightToLeft
}

// CountValid returns the number of rays with their validity flag set.
func (s *RangeScan2D) CountValid() int {
	n := 0
	for _, v := range s.Valid {
		if v {
			n++
		}
	}
	return n
}

// IsPlanar reports whether the sensor pose keeps the scan plane horizontal
// within tolerance radians.
func (s *RangeScan2D) IsPlanar(tolerance float64) bool {
	return s.SensorPose.IsHorizontal(tolerance)
}

// RayAngles returns the start angle and per-ray increment of the sweep in
// radians, local to the sensor frame. The increment is negative for
// left-to-right scans. N must be at least 2.
func (s *RangeScan2D) RayAngles() (start, delta float64) {
	n := len(s.Ranges)
	if n < 2 {
		return 0, 0
	}
	if s.RightToLeft {
		return -0.5 * float64(s.Aperture), float64(s.Aperture) / float64(n-1)
	}
	return 0.5 * float64(s.Aperture), -float64(s.Aperture) / float64(n-1)
}

// DescriptionText renders a human-readable summary of the scan.
func (s *RangeScan2D) DescriptionText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sensor label: %q\n", s.SensorLabel)
	if s.Timestamp.IsZero() {
		b.WriteString("Timestamp: (unset)\n")
	} else {
		fmt.Fprintf(&b, "Timestamp: %s\n", s.Timestamp.UTC().Format(time.RFC3339Nano))
	}
	fmt.Fprintf(&b, "Sensor pose on robot: %s\n", s.SensorPose)
	dir := "Right->Left"
	if !s.RightToLeft {
		dir = "Left->Right"
	}
	fmt.Fprintf(&b, "Samples direction: %s\n", dir)
	fmt.Fprintf(&b, "Points in the scan: %d\n", len(s.Ranges))
	fmt.Fprintf(&b, "Invalid points in the scan: %d\n", len(s.Ranges)-s.CountValid())
	fmt.Fprintf(&b, "Estimated sensor sigma: %f m\n", s.StdError)
	fmt.Fprintf(&b, "Sensor maximum range: %.2f m\n", s.MaxRange)
	fmt.Fprintf(&b, "Sensor field-of-view (aperture): %.1f deg\n", geom.RadToDeg(float64(s.Aperture)))
	fmt.Fprintf(&b, "Increment in pitch during the scan: %f deg\n", geom.RadToDeg(s.DeltaPitch))
	if len(s.Intensity) > 0 {
		fmt.Fprintf(&b, "Per-ray intensity: present (%d samples)\n", len(s.Intensity))
	} else {
		b.WriteString("Per-ray intensity: absent\n")
	}
	return b.String()
}
