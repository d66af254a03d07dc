// ABOUTME: 3D vector and listener types for spatial audio
// ABOUTME: Value types so per-frame position updates never allocate
package audio

import "math"

// Vec3 is a position or direction in scene space
type Vec3 struct {
	X, Y, Z float64
}

// V3 builds a Vec3
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }
func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Len() }

// Cross returns v × o
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalize returns the unit vector, or the zero vector unchanged
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Listener is the process-wide ear position and orientation
type Listener struct {
	Position Vec3
	Forward  Vec3
	Up       Vec3
}

// DefaultListener sits at the origin looking down -Z with +Y up
func DefaultListener() Listener {
	return Listener{
		Forward: Vec3{0, 0, -1},
		Up:      Vec3{0, 1, 0},
	}
}

// Right returns the unit vector pointing out of the listener's right ear
func (l Listener) Right() Vec3 {
	return l.Forward.Cross(l.Up).Normalize()
}

// Yaw returns the heading of the forward vector around +Y in radians,
// 0 when facing -Z and positive turning toward +X.
func (l Listener) Yaw() float64 {
	return math.Atan2(l.Forward.X, -l.Forward.Z)
}
