package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/danmuck/slimectl/internal/config"
	"github.com/danmuck/slimectl/internal/logging"
	"github.com/danmuck/slimectl/internal/motion"
	"github.com/danmuck/slimectl/internal/protocol"
	"github.com/danmuck/slimectl/internal/protocol/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulated tracker against a server",
		Long: `Handshake with a SlimeVR server, then stream a spinning orientation
while answering heartbeats, pings and sensor info requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if server != "" {
				cfg.Session.ServerAddress = server
			}
			logging.ConfigureRuntime(cfg.LoggingOverrides())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTracker(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "", "server address, overrides server_address")
	return cmd
}

// trackerState answers SendConfig commands with the last config the server
// set.
type trackerState struct {
	mu      sync.Mutex
	tracker *session.Tracker
	current protocol.DeviceConfig
}

func (s *trackerState) handlers() session.Handlers {
	return session.Handlers{
		OnVibrate: func() {
			log.Info().Msg("vibrate requested")
		},
		OnCommand: func(c protocol.ServerCommand) {
			switch c.Command {
			case protocol.CommandSendConfig:
				s.mu.Lock()
				report := protocol.DeviceConfigReport{Config: s.current}
				s.mu.Unlock()
				if _, err := s.tracker.Send(report); err != nil {
					log.Warn().Err(err).Msg("config report failed")
				}
			case protocol.CommandCalibrate:
				log.Info().Msg("calibration requested")
			case protocol.CommandBlink:
				log.Info().Msg("blink requested")
			default:
				log.Debug().Uint8("command", c.Command).Int("data_len", len(c.Data)).Msg("unhandled command")
			}
		},
		OnSetConfig: func(cfg protocol.DeviceConfig) {
			s.mu.Lock()
			s.current = cfg
			s.mu.Unlock()
			log.Info().Uint32("device_id", cfg.DeviceID).Uint32("device_mode", cfg.DeviceMode).Msg("config updated")
		},
	}
}

func runTracker(ctx context.Context, cfg config.Config) error {
	state := &trackerState{}
	tr, err := session.Dial(ctx, cfg.Session, state.handlers())
	if err != nil {
		return err
	}
	defer tr.Close()
	state.tracker = tr

	if err := tr.Handshake(ctx); err != nil {
		return err
	}

	spin := motion.NewSpin(cfg.Spin.Axis[0], cfg.Spin.Axis[1], cfg.Spin.Axis[2], cfg.Spin.DegPerSec)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tr.Run(gctx) })
	g.Go(func() error { return tr.StreamRotation(gctx, spin, cfg.RotationRateHz) })

	err = g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		log.Info().Str("session", tr.ID()).Msg("tracker stopped")
		return nil
	}
	return err
}
