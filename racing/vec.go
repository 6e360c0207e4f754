package racing

import "math"

// Vec3 is a world position, Y up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Length() }

// Normalize returns v scaled to length 1, or zero for a zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Cross returns v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// RotateY turns v around the Y axis by rad, counter-clockwise seen from above.
func (v Vec3) RotateY(rad float64) Vec3 {
	s, c := math.Sincos(rad)
	return Vec3{v.X*c + v.Z*s, v.Y, -v.X*s + v.Z*c}
}

var up = Vec3{Y: 1}

// Quat is an orientation. The zero value is treated as identity.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the rotation that does nothing.
var Identity = Quat{W: 1}

// Pose places a car: where it is and which way it faces.
type Pose struct {
	Position Vec3
	Forward  Vec3
}
