package main

import (
	"fmt"
	"os"

	"screenlink/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "screenlink",
		Short: "Remote screen viewing and input control over UDP and TCP",
		Long: `screenlink streams the screen of a controlled host as chunked JPEG frames
over UDP and applies mouse and keyboard commands received over a TCP control
connection. The viewer is the counterpart: it receives the stream, shows it in
a browser and sends the browser's input back to the host.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file")

	rootCmd.AddCommand(newHostCommand())
	rootCmd.AddCommand(newViewerCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options holds flag values; only flags set on the command line override
// the file and environment.
type options struct {
	host        string
	controlPort int
	streamPort  int
	codec       string
	sensitivity float64
	stats       bool
}

func (o *options) register(cmd *cobra.Command) {
	def := config.Default()
	f := cmd.Flags()
	f.StringVar(&o.host, "host", def.Host, "counterpart address")
	f.IntVar(&o.controlPort, "control-port", def.ControlPort, "TCP control port")
	f.IntVar(&o.streamPort, "stream-port", def.StreamPort, "UDP stream port")
	f.StringVar(&o.codec, "codec", def.Codec, "command codec: text or binary")
	f.Float64Var(&o.sensitivity, "sensitivity", def.Sensitivity, "pointer move sensitivity, same on host and viewer")
	f.BoolVar(&o.stats, "stats", def.Stats, "log periodic statistics")
}

func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Host = o.host
	}
	if f.Changed("control-port") {
		cfg.ControlPort = o.controlPort
	}
	if f.Changed("stream-port") {
		cfg.StreamPort = o.streamPort
	}
	if f.Changed("codec") {
		cfg.Codec = o.codec
	}
	if f.Changed("sensitivity") {
		cfg.Sensitivity = o.sensitivity
	}
	if f.Changed("stats") {
		cfg.Stats = o.stats
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
