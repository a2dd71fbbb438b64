package vehicle

import (
	"math"

	"racetrack/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// Shape is an oriented rectangle. Width runs along the heading, Height across it.
type Shape struct {
	Width, Height float64
	Position      r2.Vec
	Heading       float64
}

// Corners are the four corners of a Shape, named relative to its heading.
type Corners struct {
	FrontLeft, FrontRight, BackLeft, BackRight r2.Vec
}

// Slice returns the corners in drawing order.
func (c Corners) Slice() []r2.Vec {
	return []r2.Vec{c.FrontLeft, c.FrontRight, c.BackRight, c.BackLeft}
}

// arm returns the distance from the center to any corner and the angle of the
// front-right corner off the heading.
func arm(s Shape) (length, base float64) {
	hw, hh := s.Width/2, s.Height/2
	return math.Sqrt(hw*hw + hh*hh), math.Atan(hh / hw)
}

// GetCorners derives the corners from the pose. Screen coordinates are assumed,
// so +y is to the right of a +x heading.
func GetCorners(s Shape) Corners {
	x, y := s.Position.X, s.Position.Y
	length, base := arm(s)
	plus, minus := base+s.Heading, base-s.Heading
	return Corners{
		FrontLeft:  r2.Vec{X: x + length*math.Cos(minus), Y: y - length*math.Sin(minus)},
		FrontRight: r2.Vec{X: x + length*math.Cos(plus), Y: y + length*math.Sin(plus)},
		BackLeft:   r2.Vec{X: x - length*math.Cos(plus), Y: y - length*math.Sin(plus)},
		BackRight:  r2.Vec{X: x - length*math.Cos(minus), Y: y + length*math.Sin(minus)},
	}
}

// FrontCenter is the midpoint of the front edge.
func FrontCenter(s Shape) r2.Vec {
	return r2.Add(s.Position, r2.Scale(s.Width/2, geometry.FromAngle(s.Heading)))
}

// BodyLine runs from the rear center to the front center, along the heading.
func BodyLine(s Shape) geometry.Segment {
	front := FrontCenter(s)
	back := r2.Sub(front, r2.Scale(s.Width, geometry.FromAngle(s.Heading)))
	return geometry.Segment{A: back, B: front}
}
