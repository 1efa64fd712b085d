package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"screenlink/internal/command"
	"screenlink/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInjector struct {
	mu      sync.Mutex
	x, y    int
	actions []string
	denyKey int
}

func (f *fakeInjector) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, fmt.Sprintf(format, args...))
	return nil
}

func (f *fakeInjector) PressButton(code int) error   { return f.record("press %d", code) }
func (f *fakeInjector) ReleaseButton(code int) error { return f.record("release %d", code) }
func (f *fakeInjector) ReleaseKey(code int) error    { return f.record("keyup %d", code) }

func (f *fakeInjector) PressKey(code int) error {
	if code == f.denyKey {
		return errors.New("permission denied")
	}
	return f.record("keydown %d", code)
}

func (f *fakeInjector) MoveTo(x, y int) error {
	f.mu.Lock()
	f.x, f.y = x, y
	f.mu.Unlock()
	return f.record("move %d,%d", x, y)
}

func (f *fakeInjector) Position() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.x, f.y
}

func (f *fakeInjector) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

var screen = types.Geometry{Width: 1920, Height: 1080}

func TestMapRelativeFormula(t *testing.T) {
	// 0.5*1920*5 - 4*1000 = 800, 0.5*1080*5 - 4*500 = 700
	x, y := MapRelative(0.5, 0.5, screen, 5, 1000, 500)
	assert.Equal(t, 800, x)
	assert.Equal(t, 700, y)

	// S=1 is a plain absolute mapping
	x, y = MapRelative(0.25, 0.75, screen, 1, 1234, 321)
	assert.Equal(t, 480, x)
	assert.Equal(t, 810, y)
}

func TestMapRelativeTruncates(t *testing.T) {
	x, y := MapRelative(0.0001, 0.0001, types.Geometry{Width: 100, Height: 100}, 5, 0, 0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	x, _ = MapRelative(0.1999, 0, types.Geometry{Width: 100, Height: 100}, 1, 0, 0)
	assert.Equal(t, 19, x)
}

func TestMapRelativeClamps(t *testing.T) {
	x, y := MapRelative(1, 1, screen, 5, 0, 0)
	assert.Equal(t, screen.Width-1, x)
	assert.Equal(t, screen.Height-1, y)

	x, y = MapRelative(0, 0, screen, 5, 1000, 1000)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestMapRelativeHugeDeltas(t *testing.T) {
	x, y := MapRelative(1e300, 1e300, screen, 5, 0, 0)
	assert.Equal(t, screen.Width-1, x)
	assert.Equal(t, screen.Height-1, y)

	x, y = MapRelative(-1e300, -1e300, screen, 5, 0, 0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestLoopHugeMoveClampsToFarCorner(t *testing.T) {
	inj := &fakeInjector{}
	d := &Dispatcher{Injector: inj, Geometry: screen, Sensitivity: 5}
	l, err := NewLoop(io.NopCloser(strings.NewReader("-5 1e300 1e300")), command.CodecText, d)
	require.NoError(t, err)

	assert.ErrorIs(t, l.Run(context.Background()), ErrClosed)
	assert.Equal(t, []string{"move 1919,1079"}, inj.Actions())
}

func TestMapRelativeDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		dx, dy := float64(i)/100, 1-float64(i)/100
		x1, y1 := MapRelative(dx, dy, screen, 5, i*7, i*3)
		x2, y2 := MapRelative(dx, dy, screen, 5, i*7, i*3)
		assert.Equal(t, x1, x2)
		assert.Equal(t, y1, y2)
	}
}

func TestDispatcherReadsPositionAtDispatch(t *testing.T) {
	inj := &fakeInjector{x: 100, y: 100}
	d := &Dispatcher{Injector: inj, Geometry: screen}

	require.NoError(t, d.Apply(command.MoveBy(0.1, 0.1)))
	// 0.1*1920*5 - 4*100 = 560, 0.1*1080*5 - 4*100 = 140
	require.NoError(t, d.Apply(command.MoveBy(0.1, 0.1)))
	// 960 - 4*560 < 0, 540 - 4*140 < 0
	assert.Equal(t, []string{"move 560,140", "move 0,0"}, inj.Actions())
}

func TestDispatcherWrapsInjectorError(t *testing.T) {
	d := &Dispatcher{Injector: &fakeInjector{denyKey: 65}, Geometry: screen}
	err := d.Apply(command.KeyDown(65))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key-press(65)")

	assert.ErrorIs(t, d.Apply(command.Command{Kind: 3}), command.ErrUnknownKind)
}

func TestLoopAppliesInOrder(t *testing.T) {
	inj := &fakeInjector{}
	d := &Dispatcher{Injector: inj, Geometry: screen, Sensitivity: 5}
	in := io.NopCloser(strings.NewReader("-1 1 -3 65 -9 -5 0.5 0.5 -4 65 -3 abc -2 1"))
	l, err := NewLoop(in, command.CodecText, d)
	require.NoError(t, err)

	err = l.Run(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, []string{
		"press 1",
		"keydown 65",
		"move 1919,1079",
		"keyup 65",
		"release 1",
	}, inj.Actions())
	assert.Equal(t, Counters{Applied: 5, Malformed: 1}, l.Counters())
}

func TestLoopContinuesAfterInjectorFailure(t *testing.T) {
	inj := &fakeInjector{denyKey: 17}
	d := &Dispatcher{Injector: inj, Geometry: screen}
	in := io.NopCloser(strings.NewReader("-3 17 -3 65"))
	l, err := NewLoop(in, command.CodecText, d)
	require.NoError(t, err)

	assert.ErrorIs(t, l.Run(context.Background()), ErrClosed)
	assert.Equal(t, []string{"keydown 65"}, inj.Actions())
	assert.Equal(t, int64(1), l.Counters().Failed)
}

func TestLoopBinaryOverPipe(t *testing.T) {
	host, peer := net.Pipe()
	inj := &fakeInjector{}
	l, err := NewLoop(host, command.CodecBinary, &Dispatcher{Injector: inj, Geometry: screen})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	enc := command.NewBinaryEncoder(peer)
	require.NoError(t, enc.Encode(command.Press(1024)))
	require.NoError(t, enc.Encode(command.Release(1024)))
	require.NoError(t, peer.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, []string{"press 1024", "release 1024"}, inj.Actions())
}

func TestLoopStopsOnCancel(t *testing.T) {
	host, peer := net.Pipe()
	defer peer.Close()
	l, err := NewLoop(host, command.CodecText, &Dispatcher{Injector: &fakeInjector{}, Geometry: screen})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = Dial(context.Background(), addr, time.Second)
	assert.Error(t, err)
}

func TestAnnounceRoundTrip(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Announce(&b, screen))
	assert.Equal(t, "screen 1920 1080\n", b.String())

	g, err := ParseAnnouncement(strings.TrimSuffix(b.String(), "\n"))
	require.NoError(t, err)
	assert.Equal(t, screen, g)

	for _, line := range []string{"", "hello", "screen 0 1080", "screen 1920", "screen 1920 1080 extra", "screen -5 5"} {
		_, err := ParseAnnouncement(line)
		assert.ErrorIs(t, err, ErrBadAnnouncement, line)
	}
}
