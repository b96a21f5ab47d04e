package protocol

import (
	"encoding/binary"
	"math"
)

// byteOrder is threaded explicitly through every field read and write so the
// configuration block can switch to little-endian without shared state.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var (
	bigEndian    byteOrder = binary.BigEndian
	littleEndian byteOrder = binary.LittleEndian
)

// reader is a bounds-checked cursor over one envelope buffer.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, &TruncatedError{Expected: n, Remaining: r.remaining()}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// bytes returns a copy of the next n bytes.
func (r *reader) bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return cloneBytes(b), nil
}

// rest consumes and copies everything left in the buffer.
func (r *reader) rest() []byte {
	b := cloneBytes(r.buf[r.off:])
	r.off = len(r.buf)
	return b
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32(o byteOrder) (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return o.Uint32(b), nil
}

func (r *reader) u64(o byteOrder) (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return o.Uint64(b), nil
}

func (r *reader) f32(o byteOrder) (float32, error) {
	v, err := r.u32(o)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) vec3(o byteOrder) ([3]float32, error) {
	var out [3]float32
	b, err := r.take(12)
	if err != nil {
		return out, err
	}
	for i := range out {
		out[i] = math.Float32frombits(o.Uint32(b[i*4:]))
	}
	return out, nil
}

func (r *reader) mat3(o byteOrder) ([3][3]float32, error) {
	var out [3][3]float32
	if r.remaining() < 36 {
		return out, &TruncatedError{Expected: 36, Remaining: r.remaining()}
	}
	for i := range out {
		row, err := r.vec3(o)
		if err != nil {
			return out, err
		}
		out[i] = row
	}
	return out, nil
}

func (r *reader) quaternion(o byteOrder) (Quaternion, error) {
	b, err := r.take(16)
	if err != nil {
		return Quaternion{}, err
	}
	return Quaternion{
		X: math.Float32frombits(o.Uint32(b[0:4])),
		Y: math.Float32frombits(o.Uint32(b[4:8])),
		Z: math.Float32frombits(o.Uint32(b[8:12])),
		W: math.Float32frombits(o.Uint32(b[12:16])),
	}, nil
}

// vector reads x, y, z and discards the trailing w.
func (r *reader) vector(o byteOrder) (Vector, error) {
	b, err := r.take(16)
	if err != nil {
		return Vector{}, err
	}
	return Vector{
		X: math.Float32frombits(o.Uint32(b[0:4])),
		Y: math.Float32frombits(o.Uint32(b[4:8])),
		Z: math.Float32frombits(o.Uint32(b[8:12])),
	}, nil
}

func appendF32(dst []byte, o byteOrder, v float32) []byte {
	return o.AppendUint32(dst, math.Float32bits(v))
}

func appendVec3(dst []byte, o byteOrder, v [3]float32) []byte {
	for _, f := range v {
		dst = appendF32(dst, o, f)
	}
	return dst
}

func appendMat3(dst []byte, o byteOrder, m [3][3]float32) []byte {
	for _, row := range m {
		dst = appendVec3(dst, o, row)
	}
	return dst
}

func appendQuaternion(dst []byte, o byteOrder, q Quaternion) []byte {
	dst = appendF32(dst, o, q.X)
	dst = appendF32(dst, o, q.Y)
	dst = appendF32(dst, o, q.Z)
	return appendF32(dst, o, q.W)
}

func appendVector(dst []byte, o byteOrder, v Vector) []byte {
	dst = appendF32(dst, o, v.X)
	dst = appendF32(dst, o, v.Y)
	dst = appendF32(dst, o, v.Z)
	return appendF32(dst, o, 0)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
