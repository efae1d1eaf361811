// Package geometry provides the 2D vector math used to measure body joint angles.
package geometry

import "math"

// minRayLength is the shortest ray accepted by AngleAt.
const minRayLength = 1e-10

// Vec2 represents a point or direction in the image plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsFinite reports whether both components are finite numbers.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	return a.Sub(b).Len()
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec2) Vec2 {
	return Vec2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// AngleAt returns the angle in degrees at vertex b formed by the rays b->a and b->c.
// The result lies in [0, 180]. It is computed from the difference of the two ray
// directions (atan2) rather than the law of cosines, which loses precision near
// 0 and 180 degrees.
//
// ok is false when either ray has zero length or any coordinate is not finite.
func AngleAt(a, b, c Vec2) (angle float64, ok bool) {
	if !a.IsFinite() || !b.IsFinite() || !c.IsFinite() {
		return 0, false
	}

	ba := a.Sub(b)
	bc := c.Sub(b)
	if ba.Len() < minRayLength || bc.Len() < minRayLength {
		return 0, false
	}

	radians := math.Atan2(bc.Y, bc.X) - math.Atan2(ba.Y, ba.X)
	angle = math.Mod(math.Abs(radians*180/math.Pi), 360)
	if angle > 180 {
		angle = 360 - angle
	}

	return angle, true
}

// BoundingBox returns the minimum and maximum corners of the given points.
// ok is false for an empty slice.
func BoundingBox(points []Vec2) (lo, hi Vec2, ok bool) {
	if len(points) == 0 {
		return Vec2{}, Vec2{}, false
	}

	lo, hi = points[0], points[0]
	for _, p := range points[1:] {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}

	return lo, hi, true
}
