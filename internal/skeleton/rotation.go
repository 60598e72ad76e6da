package skeleton

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// identityEpsilon treats rotations whose dot product is this close to 1 as equal.
const identityEpsilon = 1e-6

// Rotation is a unit quaternion describing a bone orientation.
type Rotation struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity is the rotation that leaves a bone unchanged.
var Identity = Rotation{W: 1}

// FromQuat converts a gonum quaternion to a Rotation.
func FromQuat(q quat.Number) Rotation {
	return Rotation{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// Quat returns r as a gonum quaternion.
func (r Rotation) Quat() quat.Number {
	return quat.Number{Real: r.W, Imag: r.X, Jmag: r.Y, Kmag: r.Z}
}

// FromAxisAngle builds a rotation of degrees around the axis (x, y, z).
// A zero axis yields Identity.
func FromAxisAngle(x, y, z, degrees float64) Rotation {
	n := math.Sqrt(x*x + y*y + z*z)
	if n == 0 {
		return Identity
	}
	half := degrees * math.Pi / 360
	s := math.Sin(half) / n
	return Rotation{W: math.Cos(half), X: x * s, Y: y * s, Z: z * s}
}

// Valid reports whether r is finite and has non-zero length.
func (r Rotation) Valid() bool {
	q := r.Quat()
	if quat.IsNaN(q) || quat.IsInf(q) {
		return false
	}
	return quat.Abs(q) > 0
}

// Normalize returns r scaled to unit length.
// Invalid rotations are returned unchanged.
func (r Rotation) Normalize() Rotation {
	if !r.Valid() {
		return r
	}
	q := r.Quat()
	return FromQuat(quat.Scale(1/quat.Abs(q), q))
}

// Dot returns the four-component dot product of two rotations.
func Dot(a, b Rotation) float64 {
	return a.W*b.W + a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Angle returns the angular distance in degrees between two orientations.
// Inputs are normalized first. Rotations within identityEpsilon of each other
// yield exactly zero.
func Angle(a, b Rotation) float64 {
	qa := a.Normalize().Quat()
	qb := b.Normalize().Quat()

	// Real part of conj(a)*b is the dot product of the two unit quaternions.
	dot := math.Abs(quat.Mul(quat.Conj(qa), qb).Real)
	if dot > 1-identityEpsilon {
		return 0
	}
	return math.Acos(math.Min(dot, 1)) * 2 * 180 / math.Pi
}
