package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"

	"screenlink/internal/command"
)

// ErrClosed is returned by Run when the peer closes the control connection.
var ErrClosed = errors.New("control connection closed by peer")

// Dial opens the outbound control connection. Failure here is fatal to the
// host: nothing can be controlled without it.
func Dial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial control %s: %w", addr, err)
	}
	log.Printf("[control] connected to %s", addr)
	return conn, nil
}

// Counters are totals kept by a Loop.
type Counters struct {
	Applied   int64
	Failed    int64
	Malformed int64
}

// Loop reads commands from one connection and applies them in order.
type Loop struct {
	conn io.ReadCloser
	dec  command.Decoder
	disp *Dispatcher

	applied   atomic.Int64
	failed    atomic.Int64
	malformed atomic.Int64
}

func NewLoop(conn io.ReadCloser, codec string, disp *Dispatcher) (*Loop, error) {
	dec, err := command.NewDecoder(codec, conn)
	if err != nil {
		return nil, err
	}
	return &Loop{conn: conn, dec: dec, disp: disp}, nil
}

// Run blocks until the connection ends or ctx is cancelled, which closes
// the connection to unblock the read.
func (l *Loop) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()
	defer l.conn.Close()

	for {
		c, err := l.dec.Decode()
		if err != nil {
			var perr *command.ProtocolError
			switch {
			case errors.As(err, &perr):
				l.malformed.Add(1)
				log.Printf("[control] %v", err)
				continue
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, io.EOF):
				return ErrClosed
			}
			return fmt.Errorf("read command: %w", err)
		}

		if err := l.disp.Apply(c); err != nil {
			l.failed.Add(1)
			log.Printf("[control] apply %v", err)
			continue
		}
		l.applied.Add(1)
	}
}

func (l *Loop) Counters() Counters {
	return Counters{
		Applied:   l.applied.Load(),
		Failed:    l.failed.Load(),
		Malformed: l.malformed.Load(),
	}
}
