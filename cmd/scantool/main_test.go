package main

import (
	"math"
	"testing"

	"github.com/banshee-data/rangekit/internal/obs"
)

func TestScanXYsProjection(t *testing.T) {
	s := obs.NewRangeScan2D()
	s.Aperture = math.Pi
	s.Ranges = []float32{2, 3, 4}
	s.Valid = []bool{true, true, true}

	xys := scanXYs(s)
	if len(xys) != 3 {
		t.Fatalf("got %d points, want 3", len(xys))
	}

	// Rays cover [-pi/2, pi/2], so the three returns land at the right,
	// front and left of the sensor.
	want := [][2]float64{{0, -2}, {3, 0}, {0, 4}}
	for i, w := range want {
		if math.Abs(xys[i].X-w[0]) > 1e-9 || math.Abs(xys[i].Y-w[1]) > 1e-9 {
			t.Errorf("point %d = (%v, %v), want (%v, %v)", i, xys[i].X, xys[i].Y, w[0], w[1])
		}
	}
}

func TestScanXYsSkipsInvalid(t *testing.T) {
	s := obs.NewRangeScan2D()
	s.Aperture = math.Pi
	s.Ranges = []float32{2, 3, 4}
	s.Valid = []bool{true, false, true}

	xys := scanXYs(s)
	if len(xys) != 2 {
		t.Fatalf("got %d points, want 2", len(xys))
	}
	// The skipped middle ray must not shift the angle of the last one.
	if math.Abs(xys[1].X) > 1e-9 || math.Abs(xys[1].Y-4) > 1e-9 {
		t.Errorf("last point = (%v, %v), want (0, 4)", xys[1].X, xys[1].Y)
	}
}

func TestScanXYsEmpty(t *testing.T) {
	if xys := scanXYs(obs.NewRangeScan2D()); len(xys) != 0 {
		t.Errorf("empty scan produced %d points", len(xys))
	}
}
