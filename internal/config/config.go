package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/slimectl/internal/logging"
	"github.com/danmuck/slimectl/internal/protocol/frame"
	"github.com/danmuck/slimectl/internal/protocol/session"
)

// Config is the resolved tracker configuration.
type Config struct {
	Session        session.Config
	RotationRateHz float64
	Spin           SpinConfig
	Log            LogConfig
}

type SpinConfig struct {
	Axis      [3]float64
	DegPerSec float64
}

type LogConfig struct {
	Level   string
	File    string
	NoColor bool
}

type fileConfig struct {
	ServerAddress     string       `toml:"server_address"`
	LocalAddress      string       `toml:"local_address"`
	ReadTimeout       string       `toml:"read_timeout"`
	HeartbeatTimeout  string       `toml:"heartbeat_timeout"`
	HandshakeAttempts int          `toml:"handshake_attempts"`
	SensorID          int          `toml:"sensor_id"`
	RotationRateHz    float64      `toml:"rotation_rate_hz"`
	MaxDatagramBytes  int          `toml:"max_datagram_bytes"`
	Identity          fileIdentity `toml:"identity"`
	Spin              fileSpin     `toml:"spin"`
	Backoff           fileBackoff  `toml:"backoff"`
	Log               fileLog      `toml:"log"`
}

type fileIdentity struct {
	Board       uint32 `toml:"board"`
	IMU         uint32 `toml:"imu"`
	MCU         uint32 `toml:"mcu"`
	BuildNumber uint32 `toml:"build_number"`
	Version     string `toml:"version"`
}

type fileSpin struct {
	Axis      []float64 `toml:"axis"`
	DegPerSec float64   `toml:"deg_per_sec"`
}

type fileBackoff struct {
	Initial    string  `toml:"initial"`
	Multiplier float64 `toml:"multiplier"`
	Max        string  `toml:"max"`
	Jitter     bool    `toml:"jitter"`
}

type fileLog struct {
	Level   string `toml:"level"`
	File    string `toml:"file"`
	NoColor bool   `toml:"no_color"`
}

func Default() Config {
	return Config{
		Session:        session.DefaultConfig(),
		RotationRateHz: 100,
		Spin: SpinConfig{
			Axis:      [3]float64{0, 1, 0},
			DegPerSec: 45,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load overlays the keys defined in the TOML file at path onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load tracker config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load tracker config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("server_address") {
		cfg.Session.ServerAddress = strings.TrimSpace(raw.ServerAddress)
	}
	if meta.IsDefined("local_address") {
		cfg.Session.LocalAddress = strings.TrimSpace(raw.LocalAddress)
	}
	if meta.IsDefined("read_timeout") {
		if cfg.Session.ReadTimeout, err = parseDuration("read_timeout", raw.ReadTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("heartbeat_timeout") {
		if cfg.Session.HeartbeatTimeout, err = parseDuration("heartbeat_timeout", raw.HeartbeatTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("handshake_attempts") {
		cfg.Session.HandshakeAttempts = raw.HandshakeAttempts
	}
	if meta.IsDefined("sensor_id") {
		if raw.SensorID < 0 || raw.SensorID > 255 {
			return Config{}, fmt.Errorf("sensor_id out of range: %d", raw.SensorID)
		}
		cfg.Session.SensorID = uint8(raw.SensorID)
	}
	if meta.IsDefined("rotation_rate_hz") {
		cfg.RotationRateHz = raw.RotationRateHz
	}
	if meta.IsDefined("max_datagram_bytes") {
		cfg.Session.Limits.MaxDatagramBytes = raw.MaxDatagramBytes
	}

	applyIdentity(&cfg.Session.Identity, meta, raw.Identity)
	if err := applySpin(&cfg.Spin, meta, raw.Spin); err != nil {
		return Config{}, err
	}
	if err := applyBackoff(&cfg.Session.Backoff, meta, raw.Backoff); err != nil {
		return Config{}, err
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyIdentity(id *session.Identity, meta toml.MetaData, raw fileIdentity) {
	if meta.IsDefined("identity", "board") {
		id.Board = raw.Board
	}
	if meta.IsDefined("identity", "imu") {
		id.IMU = raw.IMU
	}
	if meta.IsDefined("identity", "mcu") {
		id.MCU = raw.MCU
	}
	if meta.IsDefined("identity", "build_number") {
		id.BuildNumber = raw.BuildNumber
	}
	if meta.IsDefined("identity", "version") {
		id.Version = raw.Version
	}
}

func applySpin(spin *SpinConfig, meta toml.MetaData, raw fileSpin) error {
	if meta.IsDefined("spin", "axis") {
		if len(raw.Axis) != 3 {
			return fmt.Errorf("spin.axis needs 3 components, got %d", len(raw.Axis))
		}
		copy(spin.Axis[:], raw.Axis)
	}
	if meta.IsDefined("spin", "deg_per_sec") {
		spin.DegPerSec = raw.DegPerSec
	}
	return nil
}

func applyBackoff(b *session.BackoffConfig, meta toml.MetaData, raw fileBackoff) error {
	var err error
	if meta.IsDefined("backoff", "initial") {
		if b.InitialDelay, err = parseDuration("backoff.initial", raw.Initial); err != nil {
			return err
		}
	}
	if meta.IsDefined("backoff", "multiplier") {
		b.Multiplier = raw.Multiplier
	}
	if meta.IsDefined("backoff", "max") {
		if b.MaxDelay, err = parseDuration("backoff.max", raw.Max); err != nil {
			return err
		}
	}
	if meta.IsDefined("backoff", "jitter") {
		b.Jitter = raw.Jitter
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func Validate(cfg Config) error {
	var errs []error
	if cfg.Session.ServerAddress == "" {
		errs = append(errs, errors.New("server_address is required"))
	}
	if len(cfg.Session.Identity.Version) > 255 {
		errs = append(errs, fmt.Errorf("identity.version is %d bytes, max 255", len(cfg.Session.Identity.Version)))
	}
	if cfg.RotationRateHz <= 0 {
		errs = append(errs, fmt.Errorf("rotation_rate_hz must be positive, got %v", cfg.RotationRateHz))
	}
	if cfg.Session.HandshakeAttempts < 1 {
		errs = append(errs, fmt.Errorf("handshake_attempts must be at least 1, got %d", cfg.Session.HandshakeAttempts))
	}
	if cfg.Session.Limits.MaxDatagramBytes < frame.HeaderLen {
		errs = append(errs, fmt.Errorf("max_datagram_bytes must be at least %d, got %d", frame.HeaderLen, cfg.Session.Limits.MaxDatagramBytes))
	}
	if cfg.Session.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read_timeout must be positive, got %v", cfg.Session.ReadTimeout))
	}
	if cfg.Log.Level != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			errs = append(errs, fmt.Errorf("log.level %q is not a known level", cfg.Log.Level))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid tracker config: %w", errors.Join(errs...))
	}
	return nil
}
