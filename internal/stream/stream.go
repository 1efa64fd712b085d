package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"time"

	"screenlink/internal/fragment"
	t "screenlink/internal/types"
)

const DefaultInterval = 100 * time.Millisecond

type Config struct {
	Interval  time.Duration
	ChunkSize int
}

// Counters are running totals kept by a Loop.
type Counters struct {
	Frames  int64
	Skipped int64
	Chunks  int64
	Failed  int64
	Bytes   int64
}

// Loop captures, encodes and sends one frame per interval. It has no
// flow control: the fixed sleep is the only throttle.
type Loop struct {
	cfg    Config
	source t.FrameSource
	enc    t.ImageEncoder
	out    io.Writer
	now    func() time.Time

	frames  atomic.Int64
	skipped atomic.Int64
	chunks  atomic.Int64
	failed  atomic.Int64
	bytes   atomic.Int64
}

// NewLoop sends datagrams to out, normally a connected UDP socket.
func NewLoop(cfg Config, source t.FrameSource, enc t.ImageEncoder, out io.Writer) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = fragment.DefaultChunkSize
	}
	return &Loop{cfg: cfg, source: source, enc: enc, out: out, now: time.Now}
}

// Run streams until ctx is cancelled and then returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	log.Printf("[stream] streaming every %s in %d byte chunks", l.cfg.Interval, l.cfg.ChunkSize)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := l.step(); err != nil {
			l.skipped.Add(1)
			log.Println("[stream] frame skipped:", err)
		}
		timer.Reset(l.cfg.Interval)
	}
}

func (l *Loop) step() error {
	img, err := l.source.Capture()
	if err != nil {
		return err
	}
	payload, err := l.enc.Encode(img)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return errors.New("empty payload")
	}

	id := fragment.FrameID(l.now())
	res, err := fragment.Send(l.out, id, payload, l.cfg.ChunkSize)
	if err != nil {
		return err
	}
	l.frames.Add(1)
	l.chunks.Add(int64(res.Chunks))
	l.failed.Add(int64(res.Failed))
	l.bytes.Add(int64(res.Bytes))
	return nil
}

func (l *Loop) Counters() Counters {
	return Counters{
		Frames:  l.frames.Load(),
		Skipped: l.skipped.Load(),
		Chunks:  l.chunks.Load(),
		Failed:  l.failed.Load(),
		Bytes:   l.bytes.Load(),
	}
}
