// Package udptest runs a minimal in-process server end of the tracker
// protocol for session tests.
package udptest

import (
	"net"
	"testing"
	"time"

	"github.com/danmuck/slimectl/internal/protocol"
)

type Server struct {
	conn *net.UDPConn
	next uint64
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &Server{conn: conn}
}

func (s *Server) Addr() string {
	return s.conn.LocalAddr().String()
}

// ReadRaw waits up to timeout for one datagram.
func (s *Server) ReadRaw(timeout time.Duration) ([]byte, *net.UDPAddr, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, err
	}
	buf := make([]byte, 2048)
	n, from, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], from, nil
}

// ReadDevice waits up to timeout for one device envelope.
func (s *Server) ReadDevice(timeout time.Duration) (protocol.Envelope[protocol.DevicePacket], *net.UDPAddr, error) {
	b, from, err := s.ReadRaw(timeout)
	if err != nil {
		return protocol.Envelope[protocol.DevicePacket]{}, nil, err
	}
	env, err := protocol.DecodeDevice(b)
	return env, from, err
}

// Send encodes pkt with the server's own packet counter and writes it to.
func (s *Server) Send(to *net.UDPAddr, pkt protocol.ServerPacket) error {
	s.next++
	b, err := protocol.Encode(protocol.Envelope[protocol.ServerPacket]{PacketNumber: s.next, Payload: pkt})
	if err != nil {
		return err
	}
	return s.SendRaw(to, b)
}

func (s *Server) SendRaw(to *net.UDPAddr, b []byte) error {
	_, err := s.conn.WriteToUDP(b, to)
	return err
}
