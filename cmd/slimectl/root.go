package main

import (
	"encoding/json"
	"io"

	"github.com/danmuck/slimectl/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "slimectl",
		Short: "SlimeVR tracker protocol tool",
		Long: `slimectl speaks the SlimeVR tracker UDP protocol.

It can run a simulated tracker against a server, decode and encode single
datagrams, and replay pcap captures of tracker traffic.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"tracker config file (TOML); defaults are used when empty")

	cmd.AddCommand(
		newRunCmd(opts),
		newDecodeCmd(),
		newEncodeCmd(),
		newReplayCmd(),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	if o.configFile == "" {
		return config.Default(), nil
	}
	return config.Load(o.configFile)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
