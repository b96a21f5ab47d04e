package session

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/slimectl/internal/motion"
	"github.com/danmuck/slimectl/internal/protocol"
	"github.com/danmuck/slimectl/internal/testutil/testlog"
	"github.com/danmuck/slimectl/internal/testutil/udptest"
	"github.com/stretchr/testify/require"
)

const ioWait = 2 * time.Second

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestNextBackoffDelayJitterWithoutRNGIsHalved(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 2, Jitter: true}
	if got := NextBackoffDelay(cfg, 2, nil); got != time.Second {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(BackoffConfig{}, 3, nil); got != 0 {
		t.Fatalf("zero config got=%v", got)
	}
}

func testConfig(addr string) Config {
	cfg := DefaultConfig()
	cfg.ServerAddress = addr
	cfg.ReadTimeout = 50 * time.Millisecond
	cfg.HeartbeatTimeout = 0
	cfg.HandshakeAttempts = 3
	cfg.SensorID = 2
	cfg.Identity = Identity{Board: 4, IMU: 5, MCU: 3, BuildNumber: 17, Version: "0.4.0"}
	cfg.Backoff = BackoffConfig{InitialDelay: 10 * time.Millisecond, Multiplier: 1}
	return cfg
}

func dialTracker(t *testing.T, cfg Config, handlers Handlers) *Tracker {
	t.Helper()
	tr, err := Dial(context.Background(), cfg, handlers)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

// handshake completes the handshake against srv and returns the tracker's
// address as seen by the server.
func handshake(t *testing.T, srv *udptest.Server, tr *Tracker) *net.UDPAddr {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- tr.Handshake(context.Background()) }()

	env, from, err := srv.ReadDevice(ioWait)
	require.NoError(t, err)
	hs, ok := env.Payload.(protocol.DeviceHandshake)
	require.True(t, ok, "expected handshake, got %T", env.Payload)
	require.Equal(t, uint32(4), hs.Board)
	require.Equal(t, uint32(17), hs.BuildNumber)
	require.Equal(t, "0.4.0", string(hs.Version))
	require.Equal(t, uint64(1), env.PacketNumber)

	require.NoError(t, srv.Send(from, protocol.ServerHandshake{}))
	require.NoError(t, <-done)
	return from
}

func TestTrackerHandshakeAndReplies(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)

	commands := make(chan protocol.ServerCommand, 1)
	configs := make(chan protocol.DeviceConfig, 1)
	vibrations := make(chan struct{}, 1)
	tr := dialTracker(t, testConfig(srv.Addr()), Handlers{
		OnCommand:   func(c protocol.ServerCommand) { commands <- c },
		OnSetConfig: func(c protocol.DeviceConfig) { configs <- c },
		OnVibrate:   func() { vibrations <- struct{}{} },
	})
	from := handshake(t, srv, tr)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- tr.Run(ctx) }()

	require.NoError(t, srv.Send(from, protocol.ServerHeartbeat{}))
	env, _, err := srv.ReadDevice(ioWait)
	require.NoError(t, err)
	require.IsType(t, protocol.DeviceHeartbeat{}, env.Payload)
	require.Equal(t, uint64(2), env.PacketNumber)

	require.NoError(t, srv.Send(from, protocol.ServerPingPong{Data: []byte("abc")}))
	env, _, err = srv.ReadDevice(ioWait)
	require.NoError(t, err)
	require.Equal(t, protocol.DevicePingPong{Data: []byte("abc")}, env.Payload)

	require.NoError(t, srv.Send(from, protocol.ServerSensorInfo{}))
	env, _, err = srv.ReadDevice(ioWait)
	require.NoError(t, err)
	require.Equal(t, protocol.DeviceSensorInfo{SensorID: 2, Status: protocol.SensorStatusOK}, env.Payload)

	require.NoError(t, srv.Send(from, protocol.ServerCommand{Command: protocol.CommandBlink, Data: []byte{1}}))
	select {
	case c := <-commands:
		require.Equal(t, protocol.CommandBlink, c.Command)
		require.Equal(t, []byte{1}, c.Data)
	case <-time.After(ioWait):
		t.Fatalf("command handler not called")
	}

	cfg := protocol.DeviceConfig{DeviceID: 7, DeviceMode: 1}
	cfg.Calibration.GyroBias = [3]float32{1, 2, 3}
	require.NoError(t, srv.Send(from, protocol.ServerSetConfig{Config: cfg}))
	select {
	case got := <-configs:
		require.Equal(t, cfg, got)
	case <-time.After(ioWait):
		t.Fatalf("set config handler not called")
	}

	require.NoError(t, srv.Send(from, protocol.ServerVibrate{}))
	select {
	case <-vibrations:
	case <-time.After(ioWait):
		t.Fatalf("vibrate handler not called")
	}
	require.False(t, tr.LastSeen().IsZero())

	cancel()
	select {
	case err := <-runErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(ioWait):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestTrackerDropsMalformedPackets(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	tr := dialTracker(t, testConfig(srv.Addr()), Handlers{})
	from := handshake(t, srv, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Run(ctx) }()

	// discriminant 99 does not exist, then a short header
	require.NoError(t, srv.SendRaw(from, []byte{0, 0, 0, 99, 0, 0, 0, 0, 0, 0, 0, 1}))
	require.NoError(t, srv.SendRaw(from, []byte{0, 0, 0}))
	require.NoError(t, srv.Send(from, protocol.ServerHeartbeat{}))

	env, _, err := srv.ReadDevice(ioWait)
	require.NoError(t, err)
	require.IsType(t, protocol.DeviceHeartbeat{}, env.Payload)
}

func TestTrackerHandshakeRetriesThenFails(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	cfg := testConfig(srv.Addr())
	cfg.HandshakeAttempts = 2
	tr := dialTracker(t, cfg, Handlers{})

	err := tr.Handshake(context.Background())
	require.ErrorIs(t, err, ErrHandshakeFailed)

	for i := 1; i <= 2; i++ {
		env, _, err := srv.ReadDevice(ioWait)
		require.NoError(t, err)
		require.IsType(t, protocol.DeviceHandshake{}, env.Payload)
		require.Equal(t, uint64(i), env.PacketNumber)
	}
}

func TestTrackerHandshakeHonoursContext(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	cfg := testConfig(srv.Addr())
	cfg.HandshakeAttempts = 100
	cfg.Backoff = BackoffConfig{InitialDelay: time.Second}
	tr := dialTracker(t, cfg, Handlers{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := tr.Handshake(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTrackerRunServerTimeout(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	cfg := testConfig(srv.Addr())
	cfg.ReadTimeout = 20 * time.Millisecond
	cfg.HeartbeatTimeout = 100 * time.Millisecond
	tr := dialTracker(t, cfg, Handlers{})

	err := tr.Run(context.Background())
	require.True(t, errors.Is(err, ErrServerTimeout), "got %v", err)
}

func TestTrackerSendNumbersAndLimits(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	cfg := testConfig(srv.Addr())
	cfg.Limits.MaxDatagramBytes = 64
	tr := dialTracker(t, cfg, Handlers{})

	for want := uint64(1); want <= 3; want++ {
		n, err := tr.Send(protocol.DeviceGyroscope{})
		require.NoError(t, err)
		require.Equal(t, want, n)
		env, _, err := srv.ReadDevice(ioWait)
		require.NoError(t, err)
		require.Equal(t, want, env.PacketNumber)
	}

	_, err := tr.Send(protocol.DevicePingPong{Data: make([]byte, 100)})
	require.Error(t, err)

	_, err = tr.Send(protocol.DeviceHandshake{Version: make([]byte, 256)})
	require.ErrorIs(t, err, protocol.ErrLengthPrefixOverflow)
}

func TestDialRejectsLongVersion(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig("127.0.0.1:6969")
	cfg.Identity.Version = string(make([]byte, 256))
	_, err := Dial(context.Background(), cfg, Handlers{})
	require.Error(t, err)
}

func TestTrackerStreamRotation(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	tr := dialTracker(t, testConfig(srv.Addr()), Handlers{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := protocol.Quaternion{X: 0, Y: 0, Z: 0.6, W: 0.8}
	streamErr := make(chan error, 1)
	go func() { streamErr <- tr.StreamRotation(ctx, motion.Static{Orientation: q}, 200) }()

	for range 3 {
		env, _, err := srv.ReadDevice(ioWait)
		require.NoError(t, err)
		require.Equal(t, protocol.DeviceRotationData{
			SensorID: 2,
			DataType: protocol.RotationDataNormal,
			Rotation: q,
		}, env.Payload)
	}
	cancel()
	require.ErrorIs(t, <-streamErr, context.Canceled)

	require.ErrorIs(t, tr.StreamRotation(context.Background(), motion.Static{}, 0), ErrInvalidRate)
}

func TestTrackerDropsOversizeDatagrams(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	tr := dialTracker(t, testConfig(srv.Addr()), Handlers{})
	from := handshake(t, srv, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Run(ctx) }()

	// 12 header bytes + 1600 exceeds the 1500 byte default limit.
	require.NoError(t, srv.Send(from, protocol.ServerPingPong{Data: make([]byte, 1600)}))
	require.NoError(t, srv.Send(from, protocol.ServerHeartbeat{}))
	env, _, err := srv.ReadDevice(ioWait)
	require.NoError(t, err)
	require.IsType(t, protocol.DeviceHeartbeat{}, env.Payload)

	// A datagram of exactly the limit is still accepted and echoed whole.
	full := make([]byte, 1500-12)
	full[len(full)-1] = 0xAB
	require.NoError(t, srv.Send(from, protocol.ServerPingPong{Data: full}))
	env, _, err = srv.ReadDevice(ioWait)
	require.NoError(t, err)
	require.Equal(t, protocol.DevicePingPong{Data: full}, env.Payload)
}

func TestTrackerRunTimesOutDuringMalformedStream(t *testing.T) {
	testlog.Start(t)
	srv := udptest.NewServer(t)
	cfg := testConfig(srv.Addr())
	cfg.ReadTimeout = 20 * time.Millisecond
	cfg.HeartbeatTimeout = 100 * time.Millisecond
	tr := dialTracker(t, cfg, Handlers{})
	to, ok := tr.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		junk := []byte{0, 0, 0, 99, 0, 0, 0, 0, 0, 0, 0, 1}
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = srv.SendRaw(to, junk)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	start := time.Now()
	err := tr.Run(ctx)
	require.ErrorIs(t, err, ErrServerTimeout)
	require.Less(t, time.Since(start), time.Second)
}
