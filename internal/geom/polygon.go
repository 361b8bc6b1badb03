package geom

// Polygon is a simple planar polygon given by its vertices in order.
// The boundary may be given clockwise or counter-clockwise; it is treated
// as implicitly closed (last vertex connects back to the first).
type Polygon []Point2D

// Contains reports whether p lies inside the polygon using the even-odd
// ray-casting rule. Points exactly on an edge may land on either side;
// callers that care about boundary points should not rely on them.
func (pg Polygon) Contains(p Point2D) bool {
	if len(pg) < 3 {
		return false
	}
	inside := false
	j := len(pg) - 1
	for i := 0; i < len(pg); i++ {
		vi, vj := pg[i], pg[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xCross := vj.X + (p.Y-vj.Y)*(vi.X-vj.X)/(vi.Y-vj.Y)
			if p.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
