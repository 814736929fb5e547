package geom

import "math"

// Vec2 is a 2D vector in world units.
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

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// LengthSquared returns the squared magnitude of v.
func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// IsFinite reports whether both components are finite numbers.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// AABB is an axis-aligned bounding box stored as center plus full size
// (width and height, not half-extents).
type AABB struct {
	Center Vec2 `json:"center"`
	Size   Vec2 `json:"size"`
}

// Rect is the corner+size form of the same box, used for overlap arithmetic.
type Rect struct {
	Corner Vec2 `json:"corner"`
	Size   Vec2 `json:"size"`
}

// Rect converts the box to corner+size form. The conversion is exact and
// reversible, including for zero-size boxes.
func (b AABB) Rect() Rect {
	return Rect{Corner: b.Center.Sub(b.Size.Scale(0.5)), Size: b.Size}
}

// AABB converts the rect back to center+size form.
func (r Rect) AABB() AABB {
	return AABB{Center: r.Corner.Add(r.Size.Scale(0.5)), Size: r.Size}
}

// IsDegenerate reports whether the box cannot participate in overlap tests:
// zero or negative extent on either axis, or non-finite geometry.
func (b AABB) IsDegenerate() bool {
	if !b.Center.IsFinite() || !b.Size.IsFinite() {
		return true
	}
	return b.Size.X <= 0 || b.Size.Y <= 0
}

// Overlap returns the per-axis magnitude of intersection between a and b and
// whether the boxes intersect at all. Boxes that merely touch report a zero
// magnitude on the touching axis; degenerate boxes never overlap. The
// magnitudes are symmetric in a and b.
func Overlap(a, b AABB) (Vec2, bool) {
	if a.IsDegenerate() || b.IsDegenerate() {
		return Vec2{}, false
	}
	ra := a.Rect()
	rb := b.Rect()
	xOverlap := math.Min(ra.Corner.X+ra.Size.X, rb.Corner.X+rb.Size.X) -
		math.Max(ra.Corner.X, rb.Corner.X)
	yOverlap := math.Min(ra.Corner.Y+ra.Size.Y, rb.Corner.Y+rb.Size.Y) -
		math.Max(ra.Corner.Y, rb.Corner.Y)
	if xOverlap < 0 || yOverlap < 0 {
		return Vec2{}, false
	}
	return Vec2{X: xOverlap, Y: yOverlap}, true
}
