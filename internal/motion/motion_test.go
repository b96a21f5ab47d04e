package motion

import (
	"math"
	"testing"
	"time"

	"github.com/danmuck/slimectl/internal/protocol"
)

func TestStaticSource(t *testing.T) {
	q := protocol.Quaternion{X: 0.5, Y: 0.5, Z: 0.5, W: 0.5}
	src := Static{Orientation: q}
	if got := src.Next(time.Second); got != q {
		t.Fatalf("unexpected orientation: %+v", got)
	}
}

func TestSpinQuarterTurn(t *testing.T) {
	src := NewSpin(0, 0, 2, 90)
	var q protocol.Quaternion
	for range 10 {
		q = src.Next(100 * time.Millisecond)
	}
	// 90 degrees about z: (0, 0, sin 45, cos 45)
	want := float32(math.Sqrt2 / 2)
	if !near(q.Z, want) || !near(q.W, want) || !near(q.X, 0) || !near(q.Y, 0) {
		t.Fatalf("unexpected orientation after quarter turn: %+v", q)
	}
}

func TestSpinStaysNormalised(t *testing.T) {
	src := NewSpin(1, 1, 0, 720)
	for range 1000 {
		q := src.Next(7 * time.Millisecond)
		n := math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W))
		if math.Abs(n-1) > 1e-5 {
			t.Fatalf("quaternion drifted from unit length: %v", n)
		}
	}
}

func TestSpinZeroAxisIsIdentity(t *testing.T) {
	src := NewSpin(0, 0, 0, 90)
	if got := src.Next(time.Second); got != (protocol.Quaternion{W: 1}) {
		t.Fatalf("expected identity, got %+v", got)
	}
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}
