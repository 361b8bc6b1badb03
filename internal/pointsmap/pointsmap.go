// Package pointsmap provides a weighted 3D point-cloud map built from range
// scans: every valid ray is projected through the sensor pose into the robot
// frame, and nearby insertions can be fused into a single weighted point
// instead of growing the cloud unboundedly.
//
// The package registers itself as the observation layer's points-map builder
// via Register, which hosts call once at startup.
package pointsmap

import (
	"fmt"
	"math"

	"github.com/banshee-data/rangekit/internal/geom"
	"github.com/banshee-data/rangekit/internal/obs"
)

// Options control how scans are inserted into a map.
type Options struct {
	// MinDistance drops rays closer than this many meters. Zero keeps all.
	MinDistance float64
	// FuseDistance, when positive, merges an inserted point into an existing
	// point closer than this many meters, bumping its weight, instead of
	// appending a new point.
	FuseDistance float64
}

// Map is a weighted 3D point cloud. Points carry an insertion count so that
// repeatedly observed structure outweighs one-off returns.
type Map struct {
	Xs, Ys, Zs []float64
	Weights    []uint32
}

// New returns an empty map.
func New() *Map {
	return &Map{}
}

// Size returns the number of points in the map.
func (m *Map) Size() int { return len(m.Xs) }

// Point returns the i-th point and its weight.
func (m *Map) Point(i int) (geom.Point3D, uint32) {
	return geom.Point3D{X: m.Xs[i], Y: m.Ys[i], Z: m.Zs[i]}, m.Weights[i]
}

// InsertRangeScan projects the scan's valid rays into the robot frame and
// adds them to the map according to opts. Invalid rays are skipped; the scan
// itself is never mutated.
func (m *Map) InsertRangeScan(scan *obs.RangeScan2D, opts Options) error {
	n := len(scan.Ranges)
	if len(scan.Valid) != n {
		return fmt.Errorf("pointsmap: %w", obs.ErrSequenceMismatch)
	}
	if n < 2 {
		return nil
	}
	ang, delta := scan.RayAngles()

	for i := 0; i < n; i++ {
		a := ang
		ang += delta
		if !scan.Valid[i] {
			continue
		}
		d := float64(scan.Ranges[i])
		if d < opts.MinDistance {
			continue
		}
		local := geom.Point3D{X: d * math.Cos(a), Y: d * math.Sin(a)}
		m.insert(scan.SensorPose.ComposePoint(local), opts.FuseDistance)
	}
	return nil
}

// insert appends p or fuses it into the nearest existing point within
// fuseDist. The scan sizes this map serves make a linear nearest-point scan
// acceptable; swap in a spatial index if maps grow past a few hundred
// thousand points.
func (m *Map) insert(p geom.Point3D, fuseDist float64) {
	if fuseDist > 0 {
		best, bestSq := -1, fuseDist*fuseDist
		for i := range m.Xs {
			dx, dy, dz := m.Xs[i]-p.X, m.Ys[i]-p.Y, m.Zs[i]-p.Z
			if sq := dx*dx + dy*dy + dz*dz; sq <= bestSq {
				best, bestSq = i, sq
			}
		}
		if best >= 0 {
			// Weighted average keeps the fused point at the centroid of all
			// observations it absorbed.
			w := float64(m.Weights[best])
			m.Xs[best] = (m.Xs[best]*w + p.X) / (w + 1)
			m.Ys[best] = (m.Ys[best]*w + p.Y) / (w + 1)
			m.Zs[best] = (m.Zs[best]*w + p.Z) / (w + 1)
			m.Weights[best]++
			return
		}
	}
	m.Xs = append(m.Xs, p.X)
	m.Ys = append(m.Ys, p.Y)
	m.Zs = append(m.Zs, p.Z)
	m.Weights = append(m.Weights, 1)
}

// Builder adapts this package to the observation layer's builder contract.
type Builder struct {
	// Defaults apply when BuildFromRangeScan receives no per-call options.
	Defaults Options
}

// BuildFromRangeScan builds a fresh map holding the single scan. opts may be
// nil, an Options value or an *Options.
func (b Builder) BuildFromRangeScan(scan *obs.RangeScan2D, opts any) (obs.PointsMap, error) {
	o := b.Defaults
	switch v := opts.(type) {
	case nil:
	case Options:
		o = v
	case *Options:
		if v != nil {
			o = *v
		}
	default:
		return nil, fmt.Errorf("pointsmap: unsupported options type %T", opts)
	}
	m := New()
	if err := m.InsertRangeScan(scan, o); err != nil {
		return nil, err
	}
	return m, nil
}

// Register installs this package as the process-wide points-map builder.
func Register() {
	obs.RegisterPointsMapBuilder(Builder{})
}
