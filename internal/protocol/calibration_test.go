package protocol

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReverseVector(t *testing.T) {
	in := [3]float32{1, 2, 3}
	got := ReverseVector(in)
	if got != [3]float32{3, 2, 1} {
		t.Fatalf("unexpected reverse: %v", got)
	}
	if in != [3]float32{1, 2, 3} {
		t.Fatalf("input mutated: %v", in)
	}
	if twice := ReverseVector(got); twice != in {
		t.Fatalf("reverse is not an involution: %v", twice)
	}
}

func TestReverseMatrix(t *testing.T) {
	in := [3][3]float32{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	got := ReverseMatrix(in)
	want := [3][3]float32{{9, 8, 7}, {6, 5, 4}, {3, 2, 1}}
	if got != want {
		t.Fatalf("unexpected reverse: %v", got)
	}
	if twice := ReverseMatrix(got); twice != in {
		t.Fatalf("reverse is not an involution: %v", twice)
	}
}

func TestCalibrationRoundTrip(t *testing.T) {
	cfg := sampleConfig()
	buf := appendConfig(nil, littleEndian, cfg)
	if len(buf) != 27*4+8 {
		t.Fatalf("unexpected config block length: %d", len(buf))
	}
	out, err := decodeConfig(&reader{buf: buf}, littleEndian)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if diff := cmp.Diff(cfg, out); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

// The firmware's exact swap pattern has not been checked against hardware
// captures. These cases pin the full-reverse layout so a capture that
// disagrees fails loudly here rather than as bad calibration downstream.
func TestCalibrationWireLayoutIsFullReverse(t *testing.T) {
	var cal Calibration
	cal.GyroBias = [3]float32{1, 2, 3}
	cal.MagCorrection = [3][3]float32{{11, 12, 13}, {14, 15, 16}, {17, 18, 19}}
	cal.MagBias = [3]float32{21, 22, 23}
	cal.AccelCorrection = [3][3]float32{{31, 32, 33}, {34, 35, 36}, {37, 38, 39}}
	cal.AccelBias = [3]float32{41, 42, 43}

	buf := appendConfig(nil, littleEndian, DeviceConfig{Calibration: cal})
	got := make([]float32, 27)
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	want := []float32{
		3, 2, 1,
		19, 18, 17, 16, 15, 14, 13, 12, 11,
		23, 22, 21,
		39, 38, 37, 36, 35, 34, 33, 32, 31,
		43, 42, 41,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Logf("calibration layout unverified against device captures")
		t.Fatalf("wire layout mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfigTruncatedMidMatrix(t *testing.T) {
	buf := appendConfig(nil, littleEndian, sampleConfig())
	_, err := decodeConfig(&reader{buf: buf[:12+20]}, littleEndian)
	var truncated *TruncatedError
	if err == nil {
		t.Fatalf("expected truncation error")
	}
	if !errors.As(err, &truncated) || truncated.Expected != 36 || truncated.Remaining != 20 {
		t.Fatalf("unexpected error: %v", err)
	}
}
