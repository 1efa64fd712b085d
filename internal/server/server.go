package server

import (
	"bufio"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"screenlink/internal/clients"
	"screenlink/internal/command"
	"screenlink/internal/control"
	"screenlink/internal/fragment"
	t "screenlink/internal/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

//go:embed index.html
var embeddedFiles embed.FS

var (
	// ErrNoHost is returned when a command arrives before the host connected.
	ErrNoHost = errors.New("no host connected")
	// ErrNoGeometry is returned for pointer moves before the host announced
	// its screen size.
	ErrNoGeometry = errors.New("host screen size unknown")
)

type Config struct {
	Listen      string // HTTP address for the browser page
	ControlAddr string // TCP address the host dials
	StreamAddr  string // UDP address the host streams to
	Codec       string
	MaxFrames   int
	// Sensitivity must match the host's. Zero means the default.
	Sensitivity float64
}

// Server is the counterpart of a controlled host: it receives the frame
// stream, hands frames to browsers and forwards their input to the host.
type Server struct {
	cfg   Config
	mgr   *clients.Manager
	reasm *fragment.Reassembler

	mu   sync.Mutex
	host net.Conn
	enc  command.Encoder
	ptr  pointer

	packets    atomic.Int64
	badPackets atomic.Int64
	frames     atomic.Int64
	commands   atomic.Int64
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func New(cfg Config, mgr *clients.Manager) *Server {
	return &Server{
		cfg:   cfg,
		mgr:   mgr,
		reasm: fragment.NewReassembler(cfg.MaxFrames),
	}
}

// Run listens on all three endpoints until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ControlAddr)
	if err != nil {
		return err
	}
	pc, err := net.ListenPacket("udp", s.cfg.StreamAddr)
	if err != nil {
		ln.Close()
		return err
	}
	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.ServeControl(ctx, ln) })
	g.Go(func() error { return s.ServeStream(ctx, pc) })
	g.Go(func() error {
		log.Println("[viewer] http server started on", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", serveIndex)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", s.HandleWS)
	return mux
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	b, err := embeddedFiles.ReadFile("index.html")
	if err != nil {
		http.Error(w, "index missing", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(b)
}

// HandleWS registers a browser: it receives frames and sends input events.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[viewer] upgrade error:", err)
		return
	}
	ws.SetReadLimit(64 << 10)

	if old := s.mgr.Add(clientID, ws); old != nil {
		old.Close()
	}
	log.Printf("[viewer] browser connected client=%s", clientID)
	go s.handleInput(clientID, ws)
}

func (s *Server) handleInput(clientID string, ws *websocket.Conn) {
	defer func() {
		s.mgr.Remove(clientID, ws)
		ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			log.Printf("[viewer] browser %s closed: %v", clientID, err)
			return
		}
		var ev t.BrowserEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			log.Println("[viewer] json error:", err)
			continue
		}
		cmd, ok := Translate(ev)
		if !ok {
			continue
		}
		if cmd.Kind == command.Move {
			err = s.PointTo(cmd.DX, cmd.DY)
		} else {
			err = s.Forward(cmd)
		}
		if err != nil && !errors.Is(err, ErrNoHost) && !errors.Is(err, ErrNoGeometry) {
			log.Printf("[viewer] forward %v: %v", cmd, err)
		}
	}
}

// Forward writes cmd to the connected host.
func (s *Server) Forward(cmd command.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		return ErrNoHost
	}
	return s.encodeLocked(cmd)
}

func (s *Server) encodeLocked(cmd command.Command) error {
	if err := s.enc.Encode(cmd); err != nil {
		return err
	}
	s.commands.Add(1)
	return nil
}

// ServeControl accepts host connections. A newer host replaces the current
// one.
func (s *Server) ServeControl(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	log.Printf("[viewer] waiting for host on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.dropHost(nil)
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("[viewer] accept error: %v", err)
			continue
		}
		enc, err := command.NewEncoder(s.cfg.Codec, conn)
		if err != nil {
			conn.Close()
			return err
		}
		log.Printf("[viewer] host connected from %s", conn.RemoteAddr())

		s.mu.Lock()
		if s.host != nil {
			s.host.Close()
		}
		s.host, s.enc = conn, enc
		s.ptr = pointer{}
		s.mu.Unlock()
		// A new host starts its own frame id sequence.
		s.reasm.Reset()

		go s.watchHost(conn)
	}
}

// watchHost reads the host's screen announcement and then waits for the
// host to hang up. Other lines are ignored.
func (s *Server) watchHost(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		g, err := control.ParseAnnouncement(sc.Text())
		if err != nil {
			log.Printf("[viewer] host %s: %v", conn.RemoteAddr(), err)
			continue
		}
		s.mu.Lock()
		if s.host == conn {
			log.Printf("[viewer] host screen %dx%d", g.Width, g.Height)
			s.ptr = pointer{geom: g}
		}
		s.mu.Unlock()
	}
	log.Printf("[viewer] host %s disconnected", conn.RemoteAddr())
	s.dropHost(conn)
}

func (s *Server) dropHost(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host == nil || (conn != nil && s.host != conn) {
		return
	}
	s.host.Close()
	s.host, s.enc = nil, nil
	s.ptr = pointer{}
}

// ServeStream reads chunk datagrams, reassembles frames and pushes every
// completed frame to the browsers.
func (s *Server) ServeStream(ctx context.Context, pc net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() { pc.Close() })
	defer stop()
	log.Printf("[viewer] receiving stream on %s", pc.LocalAddr())

	buf := make([]byte, 65536)
	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("[viewer] udp read error: %v", err)
			continue
		}
		s.packets.Add(1)

		c, err := fragment.ParseChunk(buf[:n])
		if err != nil {
			s.badPackets.Add(1)
			continue
		}
		payload, done := s.reasm.Add(c)
		if !done {
			continue
		}
		s.frames.Add(1)

		msg, _ := json.Marshal(t.ScreenUpdate{
			FrameID: c.FrameID,
			Image:   base64.StdEncoding.EncodeToString(payload),
		})
		s.mgr.Broadcast(msg)
	}
}

// Counters returns running totals for the stats reporter.
func (s *Server) Counters() map[string]int64 {
	rs := s.reasm.Stats()
	return map[string]int64{
		"packets":     s.packets.Load(),
		"bad_packets": s.badPackets.Load(),
		"frames":      s.frames.Load(),
		"evicted":     int64(rs.Evicted),
		"stale":       int64(rs.Stale),
		"commands":    s.commands.Load(),
		"browsers":    int64(s.mgr.Len()),
	}
}
