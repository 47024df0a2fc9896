// Package geometry provides the integer and floating-point primitives the
// simulation builds on: points, rectangles, and the road segments that
// define where an avatar may stand.
package geometry

import "math"

// Point is a floating-point coordinate in world space.
type Point struct {
	X, Y float64
}

// PointInt is an integer tile coordinate.
type PointInt struct {
	X, Y int
}

// Float returns the floating-point equivalent of an integer point.
func (p PointInt) Float() Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Rect is an axis-aligned rectangle in world space.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies within the rectangle, edges inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Clamp restricts value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// CircleRectOverlap reports whether a circle centered at (cx, cy) intersects r.
func CircleRectOverlap(cx, cy, radius float64, r Rect) bool {
	closestX := Clamp(cx, r.X, r.X+r.W)
	closestY := Clamp(cy, r.Y, r.Y+r.H)
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy < radius*radius
}

// Orientation is the axis a road runs along.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// roadHalfWidth is the perpendicular extension (±0.4 units) that turns a
// road's centerline into its absolute rectangle, per the map format.
const roadHalfWidth = 0.4

// Road is an oriented segment between two integer tile coordinates. Roads
// are never diagonal: Start and End always share one coordinate.
type Road struct {
	Orientation Orientation
	Start       PointInt
	End         PointInt
}

// NewHorizontalRoad builds a road running along the X axis at row y.
func NewHorizontalRoad(x0, x1, y int) Road {
	return Road{Orientation: Horizontal, Start: PointInt{X: x0, Y: y}, End: PointInt{X: x1, Y: y}}
}

// NewVerticalRoad builds a road running along the Y axis at column x.
func NewVerticalRoad(x, y0, y1 int) Road {
	return Road{Orientation: Vertical, Start: PointInt{X: x, Y: y0}, End: PointInt{X: x, Y: y1}}
}

// AbsoluteRect returns the road's collision rectangle: the centerline span
// extended by roadHalfWidth on either side of the perpendicular axis.
func (r Road) AbsoluteRect() Rect {
	x0, x1 := float64(r.Start.X), float64(r.End.X)
	y0, y1 := float64(r.Start.Y), float64(r.End.Y)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	switch r.Orientation {
	case Horizontal:
		return Rect{X: x0 - roadHalfWidth, Y: y0 - roadHalfWidth, W: (x1 - x0) + 2*roadHalfWidth, H: 2 * roadHalfWidth}
	default:
		return Rect{X: x0 - roadHalfWidth, Y: y0 - roadHalfWidth, W: 2 * roadHalfWidth, H: (y1 - y0) + 2*roadHalfWidth}
	}
}

// TileRange returns the inclusive integer span the road covers on its
// varying axis, and the fixed coordinate on the other axis.
func (r Road) TileRange() (lo, hi, fixed int) {
	if r.Orientation == Horizontal {
		lo, hi = r.Start.X, r.End.X
		fixed = r.Start.Y
	} else {
		lo, hi = r.Start.Y, r.End.Y
		fixed = r.Start.X
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, fixed
}

// NearestInt rounds v to the nearest integer, banking toward the ceiling
// exactly at the .5 boundary (floor when the fractional part is < 0.5, else
// ceil), matching the reference implementation's tile-rounding behavior.
func NearestInt(v float64) int {
	floor := math.Floor(v)
	if v-floor < 0.5 {
		return int(floor)
	}
	return int(math.Ceil(v))
}

// NearestTile rounds a floating-point position to its nearest integer tile.
func NearestTile(p Point) PointInt {
	return PointInt{X: NearestInt(p.X), Y: NearestInt(p.Y)}
}
