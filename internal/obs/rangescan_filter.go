package obs

import (
	"fmt"
	"math"

	"github.com/banshee-data/rangekit/internal/geom"
)

// The filters below mask rays by clearing their Valid flag. They never
// resize the parallel sequences and never touch Ranges or Intensity, so a
// filtered scan still satisfies the length invariant and can be re-encoded
// or re-filtered freely.

// ExclusionArea masks rays whose world-frame hit point falls inside a planar
// polygon within a height band. The zero values of MinZ/MaxZ do not mean
// "unbounded"; use NewExclusionArea for an unbounded band.
type ExclusionArea struct {
	Region geom.Polygon
	MinZ   float64
	MaxZ   float64
}

// NewExclusionArea returns an area covering all heights.
func NewExclusionArea(region geom.Polygon) ExclusionArea {
	return ExclusionArea{
		Region: region,
		MinZ:   math.Inf(-1),
		MaxZ:   math.Inf(1),
	}
}

func (s *RangeScan2D) checkParallel() error {
	if len(s.Valid) != len(s.Ranges) {
		return fmt.Errorf("%w: %d ranges, %d validity flags", ErrSequenceMismatch, len(s.Ranges), len(s.Valid))
	}
	return nil
}

// TruncateByDistanceAndAngle invalidates rays closer than minDistance or
// further than maxAngle radians off the scan's center direction. When a
// height band (minHeight, maxHeight) is given, rays whose forward projection
// leaves the band around sensorHeight are invalidated as well; both heights
// zero disables the band check.
func (s *RangeScan2D) TruncateByDistanceAndAngle(minDistance, maxAngle, minHeight, maxHeight, sensorHeight float32) error {
	if err := s.checkParallel(); err != nil {
		return err
	}
	useHeights := minHeight != 0 || maxHeight != 0
	if useHeights && maxHeight <= minHeight {
		return fmt.Errorf("obs: height band [%v, %v] is empty", minHeight, maxHeight)
	}

	n := len(s.Ranges)
	for k := 0; k < n; k++ {
		ang := float32(math.Abs(float64(k)*float64(s.Aperture)/float64(n) - float64(s.Aperture)*0.5))
		d := s.Ranges[k]
		if d < minDistance || ang > maxAngle {
			s.Valid[k] = false
			continue
		}
		if useHeights {
			x := d * float32(math.Cos(float64(ang)))
			if x > sensorHeight-minHeight || x < sensorHeight-maxHeight {
				s.Valid[k] = false
			}
		}
	}
	return nil
}

// FilterByExclusionAngles invalidates every ray whose sweep angle falls in
// one of the given [start, end] forbidden ranges (radians, robot frame,
// wrap-around ranges allowed).
func (s *RangeScan2D) FilterByExclusionAngles(zones [][2]float64) error {
	if err := s.checkParallel(); err != nil {
		return err
	}
	n := len(s.Ranges)
	if len(zones) == 0 || n < 2 {
		return nil
	}
	start, delta := s.RayAngles()

	for _, zone := range zones {
		idxIni := int(geom.WrapTo2Pi(zone[0]-start) / delta)
		idxEnd := int(geom.WrapTo2Pi(zone[1]-start) / delta)
		if idxIni < 0 {
			idxIni = 0
		}
		if idxEnd < 0 {
			idxEnd = 0
		}
		if idxIni >= n {
			idxIni = n - 1
		}
		if idxEnd >= n {
			idxEnd = n - 1
		}

		if idxEnd >= idxIni {
			for i := idxIni; i <= idxEnd; i++ {
				s.Valid[i] = false
			}
		} else {
			// The forbidden range wraps past the end of the sweep.
			for i := 0; i <= idxEnd; i++ {
				s.Valid[i] = false
			}
			for i := idxIni; i < n; i++ {
				s.Valid[i] = false
			}
		}
	}
	return nil
}

// FilterByExclusionAreas invalidates rays whose hit point, projected through
// the sensor pose into the robot frame, lands inside any of the areas.
// Already-invalid rays are left untouched.
func (s *RangeScan2D) FilterByExclusionAreas(areas []ExclusionArea) error {
	if err := s.checkParallel(); err != nil {
		return err
	}
	n := len(s.Ranges)
	if len(areas) == 0 || n < 2 {
		return nil
	}
	ang, delta := s.RayAngles()

	for i := 0; i < n; i++ {
		a := ang
		ang += delta
		if !s.Valid[i] {
			continue
		}

		local := geom.Point3D{
			X: float64(s.Ranges[i]) * math.Cos(a),
			Y: float64(s.Ranges[i]) * math.Sin(a),
		}
		world := s.SensorPose.ComposePoint(local)

		for _, area := range areas {
			if world.Z >= area.MinZ && world.Z <= area.MaxZ &&
				area.Region.Contains(geom.Point2D{X: world.X, Y: world.Y}) {
				s.Valid[i] = false
				break
			}
		}
	}
	return nil
}

// FilterByExclusionPolygons is a convenience wrapper applying polygons with
// no height bound.
func (s *RangeScan2D) FilterByExclusionPolygons(polys []geom.Polygon) error {
	areas := make([]ExclusionArea, 0, len(polys))
	for _, p := range polys {
		areas = append(areas, NewExclusionArea(p))
	}
	return s.FilterByExclusionAreas(areas)
}
