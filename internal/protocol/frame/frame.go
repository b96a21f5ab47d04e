package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is the fixed envelope header: u32 discriminant + u64 packet number.
const HeaderLen = 12

var (
	ErrShortHeader      = errors.New("frame: short envelope header")
	ErrDatagramTooLarge = errors.New("frame: datagram too large")
	ErrEmptyDatagram    = errors.New("frame: empty datagram")
)

// Header is the big-endian envelope header preceding every payload.
type Header struct {
	Discriminant uint32
	PacketNumber uint64
}

// Limits constrains datagram sizes on the transport.
type Limits struct {
	MaxDatagramBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxDatagramBytes: 1500,
	}
}

// Check rejects datagrams that cannot be sent or received under l.
func (l Limits) Check(b []byte) error {
	if len(b) == 0 {
		return ErrEmptyDatagram
	}
	if l.MaxDatagramBytes > 0 && len(b) > l.MaxDatagramBytes {
		return fmt.Errorf("%w: %d > %d", ErrDatagramTooLarge, len(b), l.MaxDatagramBytes)
	}
	return nil
}

func AppendHeader(dst []byte, h Header) []byte {
	dst = binary.BigEndian.AppendUint32(dst, h.Discriminant)
	return binary.BigEndian.AppendUint64(dst, h.PacketNumber)
}

func EncodeHeader(h Header) []byte {
	return AppendHeader(make([]byte, 0, HeaderLen), h)
}

// DecodeHeader reads the header from the front of b. Bytes past HeaderLen
// are the payload and are ignored.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrShortHeader
	}
	return Header{
		Discriminant: binary.BigEndian.Uint32(b[0:4]),
		PacketNumber: binary.BigEndian.Uint64(b[4:12]),
	}, nil
}
