package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/slimectl/internal/capture"
	"github.com/spf13/cobra"
)

type replayLine struct {
	capture.Record
	Direction    string `json:"direction"`
	PacketNumber uint64 `json:"packet_number,omitempty"`
	Payload      any    `json:"payload,omitempty"`
	Error        string `json:"error,omitempty"`
}

type replaySummary struct {
	Records   int `json:"records"`
	Malformed int `json:"malformed"`
}

func newReplayCmd() *cobra.Command {
	var (
		port  uint16
		limit int
	)
	cmd := &cobra.Command{
		Use:   "replay <file.pcap>",
		Short: "Decode tracker traffic from a pcap capture",
		Long: `Decode every UDP datagram to or from the server port in a pcap file
and print one JSON object per datagram.

Examples:
  slimectl replay session.pcap
  slimectl replay --port 6970 --limit 100 session.pcap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			summary, err := runReplay(cmd.OutOrStdout(), f, port, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d records, %d malformed\n", summary.Records, summary.Malformed)
			return nil
		},
	}
	cmd.Flags().Uint16VarP(&port, "port", "p", capture.DefaultPort, "server UDP port")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many records (0 for all)")
	return cmd
}

func runReplay(w io.Writer, r io.Reader, port uint16, limit int) (replaySummary, error) {
	var summary replaySummary
	err := capture.Replay(r, port, func(rec capture.Record) error {
		summary.Records++
		line := replayLine{Record: rec, Direction: rec.Direction.String()}
		if rec.Err != nil {
			summary.Malformed++
			line.Error = rec.Err.Error()
		} else {
			line.PacketNumber = rec.Envelope.PacketNumber
			line.Payload = payloadView(rec.Envelope.Payload)
		}
		if err := writeJSON(w, line); err != nil {
			return err
		}
		if limit > 0 && summary.Records >= limit {
			return capture.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, capture.ErrStop) {
		return summary, fmt.Errorf("replay: %w", err)
	}
	return summary, nil
}
