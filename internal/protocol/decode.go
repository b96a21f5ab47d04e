package protocol

import (
	"errors"

	"github.com/danmuck/slimectl/internal/protocol/frame"
)

// DecodeDevice decodes one envelope sent by a tracker.
func DecodeDevice(b []byte) (Envelope[DevicePacket], error) {
	head, r, err := decodeHeader(b)
	if err != nil {
		return Envelope[DevicePacket]{}, err
	}
	payload, err := decodeDevicePayload(head.Discriminant, r)
	if err != nil {
		return Envelope[DevicePacket]{}, err
	}
	return Envelope[DevicePacket]{PacketNumber: head.PacketNumber, Payload: payload}, nil
}

// DecodeServer decodes one envelope sent by the server.
func DecodeServer(b []byte) (Envelope[ServerPacket], error) {
	head, r, err := decodeHeader(b)
	if err != nil {
		return Envelope[ServerPacket]{}, err
	}
	payload, err := decodeServerPayload(head.Discriminant, r)
	if err != nil {
		return Envelope[ServerPacket]{}, err
	}
	return Envelope[ServerPacket]{PacketNumber: head.PacketNumber, Payload: payload}, nil
}

// Decode decodes one envelope against the taxonomy selected by dir.
func Decode(dir Direction, b []byte) (Envelope[Packet], error) {
	switch dir {
	case DeviceOrigin:
		env, err := DecodeDevice(b)
		if err != nil {
			return Envelope[Packet]{}, err
		}
		return Envelope[Packet]{PacketNumber: env.PacketNumber, Payload: env.Payload}, nil
	case ServerOrigin:
		env, err := DecodeServer(b)
		if err != nil {
			return Envelope[Packet]{}, err
		}
		return Envelope[Packet]{PacketNumber: env.PacketNumber, Payload: env.Payload}, nil
	default:
		return Envelope[Packet]{}, ErrInvalidDirection
	}
}

// Discriminant peeks the discriminant of an encoded envelope.
func Discriminant(b []byte) (uint32, error) {
	head, _, err := decodeHeader(b)
	if err != nil {
		return 0, err
	}
	return head.Discriminant, nil
}

func decodeHeader(b []byte) (frame.Header, *reader, error) {
	head, err := frame.DecodeHeader(b)
	if err != nil {
		if errors.Is(err, frame.ErrShortHeader) {
			return frame.Header{}, nil, &TruncatedError{Expected: frame.HeaderLen, Remaining: len(b)}
		}
		return frame.Header{}, nil, err
	}
	return head, &reader{buf: b, off: frame.HeaderLen}, nil
}
