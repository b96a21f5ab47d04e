package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/danmuck/slimectl/internal/motion"
	"github.com/danmuck/slimectl/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrHandshakeFailed = errors.New("session: handshake failed")
	ErrServerTimeout   = errors.New("session: server timed out")
	ErrInvalidRate     = errors.New("session: invalid rotation rate")
)

// Handlers receive server packets the session does not answer itself.
// Nil handlers are skipped.
type Handlers struct {
	OnVibrate   func()
	OnCommand   func(protocol.ServerCommand)
	OnSetConfig func(protocol.DeviceConfig)
}

// Tracker is one tracker's UDP session with a server.
type Tracker struct {
	id       string
	cfg      Config
	conn     net.Conn
	handlers Handlers
	logger   zerolog.Logger
	number   atomic.Uint64
	lastSeen atomic.Int64
	rng      *rand.Rand
}

// Dial opens a connected UDP socket to cfg.ServerAddress. No packets are
// sent until Handshake.
func Dial(ctx context.Context, cfg Config, handlers Handlers) (*Tracker, error) {
	if len(cfg.Identity.Version) > 255 {
		return nil, fmt.Errorf("session: identity version too long: %d bytes", len(cfg.Identity.Version))
	}
	var d net.Dialer
	if cfg.LocalAddress != "" {
		laddr, err := net.ResolveUDPAddr("udp", cfg.LocalAddress)
		if err != nil {
			return nil, fmt.Errorf("resolve local address: %w", err)
		}
		d.LocalAddr = laddr
	}
	conn, err := d.DialContext(ctx, "udp", cfg.ServerAddress)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.ServerAddress, err)
	}

	id := uuid.NewString()
	t := &Tracker{
		id:       id,
		cfg:      cfg,
		conn:     conn,
		handlers: handlers,
		logger: log.With().
			Str("session", id).
			Str("server", cfg.ServerAddress).
			Logger(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	t.logger.Debug().Str("local", conn.LocalAddr().String()).Msg("dialed")
	return t, nil
}

func (t *Tracker) ID() string { return t.id }

func (t *Tracker) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// LastSeen is when the last well-formed server packet arrived.
func (t *Tracker) LastSeen() time.Time {
	ns := t.lastSeen.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (t *Tracker) Close() error {
	return t.conn.Close()
}

// Send assigns the next packet number to pkt, encodes it and writes one
// datagram. It returns the packet number used.
func (t *Tracker) Send(pkt protocol.DevicePacket) (uint64, error) {
	number := t.number.Add(1)
	b, err := protocol.Encode(protocol.Envelope[protocol.DevicePacket]{PacketNumber: number, Payload: pkt})
	if err != nil {
		return 0, err
	}
	if err := t.cfg.Limits.Check(b); err != nil {
		return 0, err
	}
	if _, err := t.conn.Write(b); err != nil {
		return 0, fmt.Errorf("write %s: %w", protocol.KindName(protocol.DeviceOrigin, pkt.Discriminant()), err)
	}
	return number, nil
}

func (t *Tracker) handshakePacket() protocol.DeviceHandshake {
	id := t.cfg.Identity
	return protocol.DeviceHandshake{
		Board:       id.Board,
		IMU:         id.IMU,
		MCU:         id.MCU,
		BuildNumber: id.BuildNumber,
		Version:     []byte(id.Version),
	}
}

// Handshake announces the tracker and waits for the server's handshake,
// retrying with backoff up to cfg.HandshakeAttempts times.
func (t *Tracker) Handshake(ctx context.Context) error {
	attempts := max(t.cfg.HandshakeAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if _, err := t.Send(t.handshakePacket()); err != nil {
			return err
		}
		t.logger.Debug().Int("attempt", attempt).Msg("handshake sent")

		ok, err := t.awaitHandshake(ctx)
		if err != nil {
			return err
		}
		if ok {
			t.logger.Info().Int("attempt", attempt).Msg("handshake complete")
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleepContext(ctx, NextBackoffDelay(t.cfg.Backoff, attempt, t.rng)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrHandshakeFailed, attempts)
}

// awaitHandshake reads until a server handshake arrives or ReadTimeout
// passes. Other packets are handled normally so heartbeats are not missed.
func (t *Tracker) awaitHandshake(ctx context.Context) (bool, error) {
	deadline := time.Now().Add(t.pollInterval())
	buf := make([]byte, t.readBufferSize())
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		env, err := t.read(buf, deadline)
		if err != nil {
			if isTimeout(err) {
				return false, nil
			}
			return false, err
		}
		if env == nil {
			continue
		}
		if _, ok := env.Payload.(protocol.ServerHandshake); ok {
			return true, nil
		}
		t.handle(*env)
	}
}

// Run answers server packets until ctx is cancelled, the socket fails, or
// nothing well-formed arrives for cfg.HeartbeatTimeout.
func (t *Tracker) Run(ctx context.Context) error {
	buf := make([]byte, t.readBufferSize())
	if t.lastSeen.Load() == 0 {
		t.lastSeen.Store(time.Now().UnixNano())
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Dropped datagrams do not advance lastSeen, so check every pass.
		if t.cfg.HeartbeatTimeout > 0 && time.Since(t.LastSeen()) > t.cfg.HeartbeatTimeout {
			return ErrServerTimeout
		}
		env, err := t.read(buf, time.Now().Add(t.pollInterval()))
		if err != nil {
			if !isTimeout(err) {
				return err
			}
			continue
		}
		if env != nil {
			t.handle(*env)
		}
	}
}

// read returns nil with no error when a datagram arrived but was dropped.
// The buffer holds one byte more than the datagram limit so an oversize
// datagram is seen as such instead of being silently cut.
func (t *Tracker) read(buf []byte, deadline time.Time) (*protocol.Envelope[protocol.ServerPacket], error) {
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	if err := t.cfg.Limits.Check(buf[:n]); err != nil {
		t.logger.Warn().Err(err).Int("len", n).Msg("dropping server packet")
		return nil, nil
	}
	env, err := protocol.DecodeServer(buf[:n])
	if err != nil {
		t.logger.Warn().Err(err).Int("len", n).Msg("dropping malformed server packet")
		return nil, nil
	}
	t.lastSeen.Store(time.Now().UnixNano())
	return &env, nil
}

func (t *Tracker) handle(env protocol.Envelope[protocol.ServerPacket]) {
	disc := env.Payload.Discriminant()
	t.logger.Trace().
		Uint64("packet_number", env.PacketNumber).
		Str("kind", protocol.KindName(protocol.ServerOrigin, disc)).
		Msg("received")

	var reply protocol.DevicePacket
	switch p := env.Payload.(type) {
	case protocol.ServerHeartbeat:
		reply = protocol.DeviceHeartbeat{}
	case protocol.ServerPingPong:
		reply = protocol.DevicePingPong{Data: p.Data}
	case protocol.ServerSensorInfo:
		reply = protocol.DeviceSensorInfo{SensorID: t.cfg.SensorID, Status: protocol.SensorStatusOK}
	case protocol.ServerHandshake:
		t.logger.Debug().Msg("late server handshake ignored")
	case protocol.ServerVibrate:
		if t.handlers.OnVibrate != nil {
			t.handlers.OnVibrate()
		}
	case protocol.ServerCommand:
		if t.handlers.OnCommand != nil {
			t.handlers.OnCommand(p)
		}
	case protocol.ServerSetConfig:
		if t.handlers.OnSetConfig != nil {
			t.handlers.OnSetConfig(p.Config)
		}
	}
	if reply == nil {
		return
	}
	if _, err := t.Send(reply); err != nil {
		t.logger.Warn().Err(err).Msg("reply failed")
	}
}

// StreamRotation sends one RotationData packet per tick at rateHz, sampling
// src, until ctx is cancelled or a send fails.
func (t *Tracker) StreamRotation(ctx context.Context, src motion.Source, rateHz float64) error {
	if rateHz <= 0 {
		return ErrInvalidRate
	}
	interval := time.Duration(float64(time.Second) / rateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			q := src.Next(now.Sub(last))
			last = now
			_, err := t.Send(protocol.DeviceRotationData{
				SensorID: t.cfg.SensorID,
				DataType: protocol.RotationDataNormal,
				Rotation: q,
			})
			if err != nil {
				return err
			}
		}
	}
}

func (t *Tracker) readBufferSize() int {
	if t.cfg.Limits.MaxDatagramBytes > 0 {
		return t.cfg.Limits.MaxDatagramBytes + 1
	}
	return 64 * 1024
}

func (t *Tracker) pollInterval() time.Duration {
	if t.cfg.ReadTimeout > 0 {
		return t.cfg.ReadTimeout
	}
	return time.Second
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
