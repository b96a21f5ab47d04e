package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/slimectl/internal/protocol"
	"github.com/spf13/cobra"
)

type decodedPacket struct {
	Direction    string `json:"direction"`
	Kind         string `json:"kind"`
	Discriminant uint32 `json:"discriminant"`
	PacketNumber uint64 `json:"packet_number"`
	Payload      any    `json:"payload"`
}

func newDecodeCmd() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode one datagram given as hex",
		Long: `Decode one datagram and print it as JSON.

Examples:
  slimectl decode --direction device 000000000000000000000001
  slimectl decode -d server "00 00 00 01 00 00 00 00 00 00 00 07"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}
			b, err := parseHex(strings.Join(args, ""))
			if err != nil {
				return err
			}
			return runDecode(cmd.OutOrStdout(), dir, b)
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "device", "packet origin: device|server")
	return cmd
}

func runDecode(w io.Writer, dir protocol.Direction, b []byte) error {
	env, err := protocol.Decode(dir, b)
	if err != nil {
		return fmt.Errorf("decode %s packet: %w", dir, err)
	}
	return writeJSON(w, describe(dir, env))
}

func describe(dir protocol.Direction, env protocol.Envelope[protocol.Packet]) decodedPacket {
	disc := env.Payload.Discriminant()
	return decodedPacket{
		Direction:    dir.String(),
		Kind:         protocol.KindName(dir, disc),
		Discriminant: disc,
		PacketNumber: env.PacketNumber,
		Payload:      payloadView(env.Payload),
	}
}

// hexBytes renders byte fields as hex, matching what decode and encode take
// on the command line.
type hexBytes []byte

func (h hexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// payloadView swaps the []byte fields of p for readable forms: the handshake
// version as text, everything else as hex.
func payloadView(p protocol.Packet) any {
	switch v := p.(type) {
	case protocol.DeviceHandshake:
		return struct {
			protocol.DeviceHandshake
			Version string `json:"version"`
		}{v, string(v.Version)}
	case protocol.DevicePingPong:
		return struct {
			Data hexBytes `json:"data"`
		}{v.Data}
	case protocol.ServerPingPong:
		return struct {
			Data hexBytes `json:"data"`
		}{v.Data}
	case protocol.ServerCommand:
		return struct {
			protocol.ServerCommand
			Data hexBytes `json:"data"`
		}{v, v.Data}
	default:
		return p
	}
}

func parseDirection(raw string) (protocol.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "device", "tracker":
		return protocol.DeviceOrigin, nil
	case "server":
		return protocol.ServerOrigin, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want device or server)", raw)
	}
}

// parseHex accepts hex with optional spaces, colons and a 0x prefix.
func parseHex(raw string) ([]byte, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	raw = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(raw)
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return b, nil
}
