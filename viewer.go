package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"screenlink/internal/clients"
	"screenlink/internal/config"
	"screenlink/internal/server"
	"screenlink/internal/stats"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newViewerCommand() *cobra.Command {
	var opts options
	var (
		listen    string
		maxFrames int
	)

	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "Receive a host's stream and serve it to browsers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("max-frames") {
				cfg.MaxFrames = maxFrames
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runViewer(ctx, cfg)
		},
	}

	def := config.Default()
	opts.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", def.Listen, "HTTP address for browsers")
	cmd.Flags().IntVar(&maxFrames, "max-frames", def.MaxFrames, "incomplete frames kept for reassembly")
	return cmd
}

// runViewer binds the control and stream ports on cfg.Host, which is empty
// (all interfaces) unless set.
func runViewer(ctx context.Context, cfg config.Config) error {
	srv := server.New(server.Config{
		Listen:      cfg.Listen,
		ControlAddr: cfg.ControlAddr(),
		StreamAddr:  cfg.StreamAddr(),
		Codec:       cfg.Codec,
		MaxFrames:   cfg.MaxFrames,
		Sensitivity: cfg.Sensitivity,
	}, clients.NewManager())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if cfg.Stats {
		r := stats.NewReporter("viewer", cfg.StatsInterval, srv.Counters)
		g.Go(func() error { return r.Run(gctx) })
	}
	err := g.Wait()
	log.Println("[viewer] shutting down")
	return err
}
