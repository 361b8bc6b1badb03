package geom

import "math"

// WrapTo2Pi normalizes an angle in radians to [0, 2*pi).
func WrapTo2Pi(a float64) float64 {
	r := math.Mod(a, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r
}

// WrapToPi normalizes an angle in radians to [-pi, pi).
func WrapToPi(a float64) float64 {
	return WrapTo2Pi(a+math.Pi) - math.Pi
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
