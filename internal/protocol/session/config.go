package session

import (
	"time"

	"github.com/danmuck/slimectl/internal/protocol/frame"
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Identity is what the tracker announces in its handshake.
type Identity struct {
	Board       uint32
	IMU         uint32
	MCU         uint32
	BuildNumber uint32
	Version     string
}

// Config defines tracker transport and session defaults.
type Config struct {
	ServerAddress     string
	LocalAddress      string
	ReadTimeout       time.Duration
	HeartbeatTimeout  time.Duration
	HandshakeAttempts int
	SensorID          uint8
	Identity          Identity
	Backoff           BackoffConfig
	Limits            frame.Limits
}

// DefaultConfig targets a server on the local machine at the port SlimeVR
// servers listen on.
func DefaultConfig() Config {
	return Config{
		ServerAddress:     "127.0.0.1:6969",
		ReadTimeout:       500 * time.Millisecond,
		HeartbeatTimeout:  5 * time.Second,
		HandshakeAttempts: 10,
		Identity: Identity{
			Board:       0,
			IMU:         0,
			MCU:         0,
			BuildNumber: 1,
			Version:     "slimectl",
		},
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
		Limits: frame.DefaultLimits(),
	}
}
