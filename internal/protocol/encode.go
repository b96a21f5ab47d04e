package protocol

import (
	"github.com/danmuck/slimectl/internal/protocol/frame"
)

// Encode serialises env. The discriminant is taken from the payload variant.
// The only content-dependent failure is a length prefix overflow.
func Encode[P Packet](env Envelope[P]) ([]byte, error) {
	return AppendEnvelope(make([]byte, 0, frame.HeaderLen+64), env)
}

// AppendEnvelope appends the encoding of env to dst. On error dst is
// returned unchanged.
func AppendEnvelope[P Packet](dst []byte, env Envelope[P]) ([]byte, error) {
	if any(env.Payload) == nil {
		return dst, ErrNilPayload
	}
	head := frame.Header{
		Discriminant: env.Payload.Discriminant(),
		PacketNumber: env.PacketNumber,
	}
	out, err := env.Payload.appendPayload(frame.AppendHeader(dst, head))
	if err != nil {
		return dst, err
	}
	return out, nil
}
