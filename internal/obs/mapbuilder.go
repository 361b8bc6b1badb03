package obs

import (
	"errors"
	"sync"
)

// The observation layer can hand a scan to a map-building component without
// depending on one: a builder is registered at process startup by whichever
// higher-level package provides maps, stays nullable, and is checked before
// every use. This replaces the historical trick of a bare global function
// pointer patched in by a downstream library.

// PointsMap is the minimal surface the observation layer needs from a built
// point-cloud map. Concrete map types live in higher-level packages.
type PointsMap interface {
	// Size returns the number of points in the map.
	Size() int
}

// PointsMapBuilder converts a range scan into a points map. Implementations
// must be safe for concurrent use; opts is builder-specific and may be nil.
type PointsMapBuilder interface {
	BuildFromRangeScan(scan *RangeScan2D, opts any) (PointsMap, error)
}

// ErrNoPointsMapBuilder is returned by BuildPointsMap when no builder has
// been registered in this process.
var ErrNoPointsMapBuilder = errors.New("obs: no points-map builder registered")

var (
	builderMu sync.RWMutex
	builder   PointsMapBuilder
)

// RegisterPointsMapBuilder installs b as the process-wide points-map
// builder. Call it once at startup from the map-providing package; passing
// nil is equivalent to ResetPointsMapBuilder.
func RegisterPointsMapBuilder(b PointsMapBuilder) {
	builderMu.Lock()
	builder = b
	builderMu.Unlock()
}

// ResetPointsMapBuilder removes the registered builder. Intended for
// teardown in tests.
func ResetPointsMapBuilder() {
	RegisterPointsMapBuilder(nil)
}

func registeredBuilder() PointsMapBuilder {
	builderMu.RLock()
	defer builderMu.RUnlock()
	return builder
}

// BuildPointsMap returns a points map built from the scan, building it on
// first use and serving the cached map afterwards. The cache is dropped
// whenever the record is freshly decoded. Fails with ErrNoPointsMapBuilder
// when no builder is registered.
func (s *RangeScan2D) BuildPointsMap(opts any) (PointsMap, error) {
	if s.auxMap != nil {
		return s.auxMap, nil
	}
	b := registeredBuilder()
	if b == nil {
		return nil, ErrNoPointsMapBuilder
	}
	m, err := b.BuildFromRangeScan(s, opts)
	if err != nil {
		return nil, err
	}
	s.auxMap = m
	return m, nil
}

// invalidateCachedMap drops the lazily built points map.
func (s *RangeScan2D) invalidateCachedMap() {
	s.auxMap = nil
}
