// Package geometry holds the line-segment math used to sense track walls:
// segment intersection and nearest-hit ray tracing against polylines.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is a directed line segment from A to B. For rays, A is the origin.
type Segment struct {
	A, B r2.Vec
}

// Length returns the euclidean length of the segment.
func (s Segment) Length() float64 {
	return r2.Norm(r2.Sub(s.B, s.A))
}

// At returns the point at parameter t along the segment, where t=0 is A and t=1 is B.
func (s Segment) At(t float64) r2.Vec {
	return r2.Add(s.A, r2.Scale(t, r2.Sub(s.B, s.A)))
}

// SegmentIntersect tests segment p1->p2 against segment p3->p4 using the parametric
// form of both lines. It reports whether they intersect and the parameter t of the
// intersection along p1->p2. Both t and u (the parameter along p3->p4) must lie in
// [0,1] for a true intersection. Parallel or degenerate segments never intersect.
func SegmentIntersect(p1, p2, p3, p4 r2.Vec) (bool, float64) {
	denom := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if denom == 0 || math.IsNaN(denom) {
		return false, 0
	}
	t := ((p1.X-p3.X)*(p3.Y-p4.Y) - (p1.Y-p3.Y)*(p3.X-p4.X)) / denom
	u := ((p1.X-p3.X)*(p1.Y-p2.Y) - (p1.Y-p3.Y)*(p1.X-p2.X)) / denom
	return 0 <= t && t <= 1 && 0 <= u && u <= 1, t
}

// Intersect is SegmentIntersect for two Segments; t is along s1.
func Intersect(s1, s2 Segment) (bool, float64) {
	return SegmentIntersect(s1.A, s1.B, s2.A, s2.B)
}

// RayTrace returns the distance from the ray's origin to the nearest point at which
// the ray crosses any consecutive pair of points in the passed polylines, or maxLen
// if nothing is hit.
func RayTrace(ray Segment, maxLen float64, polylines ...[]r2.Vec) float64 {
	nearest := math.Inf(1)
	for _, line := range polylines {
		for i := 1; i < len(line); i++ {
			wall := Segment{A: line[i-1], B: line[i]}
			if hit, t := Intersect(wall, ray); hit {
				dist := r2.Norm(r2.Sub(wall.At(t), ray.A))
				nearest = math.Min(nearest, dist)
			}
		}
	}
	if math.IsInf(nearest, 1) {
		return maxLen
	}
	return nearest
}

// Crosses reports whether seg intersects any consecutive pair of points in the
// passed polylines.
func Crosses(seg Segment, polylines ...[]r2.Vec) bool {
	for _, line := range polylines {
		for i := 1; i < len(line); i++ {
			if hit, _ := Intersect(seg, Segment{A: line[i-1], B: line[i]}); hit {
				return true
			}
		}
	}
	return false
}

// Clip shortens the ray to dist from its origin, keeping its direction.
// Rays shorter than dist are returned unchanged.
func Clip(ray Segment, dist float64) Segment {
	length := ray.Length()
	if length == 0 || dist >= length {
		return ray
	}
	return Segment{A: ray.A, B: ray.At(dist / length)}
}

// FromAngle returns the unit vector at angle radians, measured from the +x axis.
func FromAngle(angle float64) r2.Vec {
	return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Heading returns the angle of v from the +x axis, in radians.
func Heading(v r2.Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// Limit scales v down to max magnitude, if it exceeds it.
func Limit(v r2.Vec, max float64) r2.Vec {
	mag := r2.Norm(v)
	if mag > max && mag > 0 {
		return r2.Scale(max/mag, v)
	}
	return v
}

// SetMag returns v rescaled to the passed magnitude. The zero vector stays zero.
func SetMag(v r2.Vec, mag float64) r2.Vec {
	norm := r2.Norm(v)
	if norm == 0 {
		return r2.Vec{}
	}
	return r2.Scale(mag/norm, v)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
