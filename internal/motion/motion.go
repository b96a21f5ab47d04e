// Package motion produces orientation samples for a tracker to stream.
// Real sensor fusion lives on the device; these sources stand in for it.
package motion

import (
	"math"
	"time"

	"github.com/danmuck/slimectl/internal/protocol"
	"gonum.org/v1/gonum/num/quat"
)

// Source yields the orientation after dt has elapsed since the last call.
type Source interface {
	Next(dt time.Duration) protocol.Quaternion
}

// Static always reports the same orientation.
type Static struct {
	Orientation protocol.Quaternion
}

func (s Static) Next(time.Duration) protocol.Quaternion {
	return s.Orientation
}

// Spin rotates at a constant angular velocity about a fixed axis.
type Spin struct {
	q    quat.Number
	axis quat.Number
	rate float64
}

// NewSpin returns a source starting at identity and rotating about
// (x, y, z) at degPerSec. A zero axis yields a static identity source.
func NewSpin(x, y, z, degPerSec float64) *Spin {
	axis := quat.Number{Imag: x, Jmag: y, Kmag: z}
	if n := quat.Abs(axis); n > 0 {
		axis = quat.Scale(1/n, axis)
	}
	return &Spin{
		q:    quat.Number{Real: 1},
		axis: axis,
		rate: degPerSec * math.Pi / 180,
	}
}

func (s *Spin) Next(dt time.Duration) protocol.Quaternion {
	half := s.rate * dt.Seconds() / 2
	// exp of a pure quaternion is the rotation by 2*half about its axis.
	step := quat.Exp(quat.Scale(half, s.axis))
	s.q = quat.Mul(s.q, step)
	if n := quat.Abs(s.q); n > 0 {
		s.q = quat.Scale(1/n, s.q)
	}
	return toWire(s.q)
}

func toWire(q quat.Number) protocol.Quaternion {
	return protocol.Quaternion{
		X: float32(q.Imag),
		Y: float32(q.Jmag),
		Z: float32(q.Kmag),
		W: float32(q.Real),
	}
}
