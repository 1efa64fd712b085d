package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"screenlink/internal/capture"
	"screenlink/internal/config"
	"screenlink/internal/control"
	"screenlink/internal/input"
	"screenlink/internal/stats"
	"screenlink/internal/stream"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newHostCommand() *cobra.Command {
	var opts options
	var (
		interval  time.Duration
		chunkSize int
		quality   int
		display   int
		scale     float64
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Stream this screen and accept input from a viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)
			f := cmd.Flags()
			if f.Changed("interval") {
				cfg.Interval = interval
			}
			if f.Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if f.Changed("quality") {
				cfg.Quality = quality
			}
			if f.Changed("display") {
				cfg.Display = display
			}
			if f.Changed("scale") {
				cfg.Scale = scale
			}
			if err := cfg.ValidateHost(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runHost(ctx, cfg)
		},
	}

	def := config.Default()
	opts.register(cmd)
	f := cmd.Flags()
	f.DurationVar(&interval, "interval", def.Interval, "delay between frame captures")
	f.IntVar(&chunkSize, "chunk-size", def.ChunkSize, "maximum image bytes per datagram")
	f.IntVar(&quality, "quality", def.Quality, "JPEG quality 1-100")
	f.IntVar(&display, "display", def.Display, "display index to capture")
	f.Float64Var(&scale, "scale", def.Scale, "downscale factor in (0,1]")
	return cmd
}

func runHost(ctx context.Context, cfg config.Config) error {
	robot, err := input.NewRobot()
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	geom, err := robot.Geometry()
	if err != nil {
		return fmt.Errorf("screen geometry: %w", err)
	}
	log.Printf("[host] screen %dx%d", geom.Width, geom.Height)

	conn, err := control.Dial(ctx, cfg.ControlAddr(), cfg.DialTimeout)
	if err != nil {
		return err
	}
	if err := control.Announce(conn, geom); err != nil {
		conn.Close()
		return fmt.Errorf("announce screen: %w", err)
	}
	out, err := net.Dial("udp", cfg.StreamAddr())
	if err != nil {
		conn.Close()
		return fmt.Errorf("open stream socket: %w", err)
	}
	defer out.Close()

	streamLoop := stream.NewLoop(
		stream.Config{Interval: cfg.Interval, ChunkSize: cfg.ChunkSize},
		capture.Screen{Display: cfg.Display},
		capture.JPEGEncoder{Quality: cfg.Quality, Scale: cfg.Scale},
		out,
	)
	controlLoop, err := control.NewLoop(conn, cfg.Codec, &control.Dispatcher{
		Injector:    robot,
		Geometry:    geom,
		Sensitivity: cfg.Sensitivity,
	})
	if err != nil {
		conn.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return streamLoop.Run(gctx) })
	g.Go(func() error { return controlLoop.Run(gctx) })
	if cfg.Stats {
		r := stats.NewReporter("host", cfg.StatsInterval,
			func() map[string]int64 {
				c := streamLoop.Counters()
				return map[string]int64{
					"frames":  c.Frames,
					"skipped": c.Skipped,
					"chunks":  c.Chunks,
					"failed":  c.Failed,
					"bytes":   c.Bytes,
				}
			},
			func() map[string]int64 {
				c := controlLoop.Counters()
				return map[string]int64{
					"applied":   c.Applied,
					"rejected":  c.Failed,
					"malformed": c.Malformed,
				}
			},
		)
		g.Go(func() error { return r.Run(gctx) })
	}

	err = g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		log.Println("[host] shutting down")
		return nil
	}
	return err
}
