// Package capture replays tracker traffic from pcap files through the
// protocol decoder.
package capture

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/danmuck/slimectl/internal/protocol"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rs/zerolog/log"
)

// DefaultPort is the UDP port SlimeVR servers listen on.
const DefaultPort uint16 = 6969

// ErrStop may be returned from a Replay callback to end the replay early
// without an error.
var ErrStop = errors.New("capture: stop")

// Record is one UDP datagram on the server port. Err is set when the
// payload did not decode; Envelope is then the zero value.
type Record struct {
	Index       int                                `json:"index"`
	Timestamp   time.Time                          `json:"timestamp"`
	Direction   protocol.Direction                 `json:"-"`
	Source      string                             `json:"source"`
	Destination string                             `json:"destination"`
	Length      int                                `json:"length"`
	Kind        string                             `json:"kind"`
	Envelope    protocol.Envelope[protocol.Packet] `json:"-"`
	Err         error                              `json:"-"`
}

// Replay reads a pcap stream from r and calls fn for every UDP datagram to
// or from port. Datagrams to port are decoded as device packets, datagrams
// from port as server packets. Other traffic is skipped.
func Replay(r io.Reader, port uint16, fn func(Record) error) error {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("open pcap: %w", err)
	}
	source := gopacket.NewPacketSource(reader, reader.LinkType())
	source.NoCopy = true

	index := 0
	skipped := 0
	for {
		packet, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read pcap packet %d: %w", index+skipped+1, err)
		}

		rec, ok := recordFor(packet, port)
		if !ok {
			skipped++
			continue
		}
		index++
		rec.Index = index
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStop) {
				break
			}
			return err
		}
	}
	log.Debug().Int("records", index).Int("skipped", skipped).Msg("pcap replay complete")
	return nil
}

func recordFor(packet gopacket.Packet, port uint16) (Record, bool) {
	udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return Record{}, false
	}
	var dir protocol.Direction
	switch {
	case uint16(udp.DstPort) == port:
		dir = protocol.DeviceOrigin
	case uint16(udp.SrcPort) == port:
		dir = protocol.ServerOrigin
	default:
		return Record{}, false
	}

	src, dst := endpoints(packet)
	rec := Record{
		Timestamp:   packet.Metadata().Timestamp,
		Direction:   dir,
		Source:      net.JoinHostPort(src, strconv.Itoa(int(udp.SrcPort))),
		Destination: net.JoinHostPort(dst, strconv.Itoa(int(udp.DstPort))),
		Length:      len(udp.Payload),
		Kind:        "unknown",
	}
	env, err := protocol.Decode(dir, udp.Payload)
	if err != nil {
		rec.Err = err
		return rec, true
	}
	rec.Envelope = env
	rec.Kind = protocol.KindName(dir, env.Payload.Discriminant())
	return rec, true
}

func endpoints(packet gopacket.Packet) (string, string) {
	switch ip := packet.NetworkLayer().(type) {
	case *layers.IPv4:
		return ip.SrcIP.String(), ip.DstIP.String()
	case *layers.IPv6:
		return ip.SrcIP.String(), ip.DstIP.String()
	default:
		return "", ""
	}
}
