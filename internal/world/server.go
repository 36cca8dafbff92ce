package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/catalog"
	"github.com/frostvale/frostvale/internal/config"
	"github.com/frostvale/frostvale/internal/store"
)

// The public contracts the server and its sessions fulfil.
var (
	_ frostvale.World = (*Server)(nil)
	_ frostvale.Conn  = (*User)(nil)
)

const (
	readBufferSize = 2048

	// readIdleTimeout disconnects sessions that stop sending entirely.
	// The client heartbeat keeps healthy sessions well inside it.
	readIdleTimeout = 10 * time.Minute
)

// Server runs one world: a TCP listener speaking the delimiter-framed
// protocol directly and, when configured, a WebSocket listener carrying the
// same frames in text messages.
type Server struct {
	name    string
	cfg     *config.Config
	wcfg    config.World
	log     *slog.Logger
	handler *Handler

	// nil when rate limiting is disabled.
	connects *limiterPool

	upgrader websocket.Upgrader

	mu      sync.Mutex
	running bool
	ln      net.Listener
	httpSrv *http.Server
}

// NewServer builds the world server. A nil catalog selects the built-in
// content set. Plugins register against Handler() before Start.
func NewServer(cfg *config.Config, name string, st store.Store, cat *catalog.Catalog, log *slog.Logger) (*Server, error) {
	wcfg, ok := cfg.Worlds[name]
	if !ok {
		return nil, fmt.Errorf("world: %q not present in configuration", name)
	}
	if cat == nil {
		cat = catalog.Default()
	}

	s := &Server{
		name:    name,
		cfg:     cfg,
		wcfg:    wcfg,
		log:     log,
		handler: NewHandler(cfg, name, st, cat, log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: readBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if cfg.RateLimit.Enabled {
		s.connects = newLimiterPool(cfg.RateLimit.AddressConnectsPerSecond)
	}
	return s, nil
}

// Handler exposes the dispatch core for plugin registration.
func (s *Server) Handler() *Handler {
	return s.handler
}

// Start binds the listeners and begins accepting connections. It returns
// once the TCP listener is bound; accept loops run until Stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New(frostvale.ErrWorldAlreadyRunning)
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.wcfg.Port))
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("world %s: bind: %w", s.name, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go s.acceptLoop(ln)
	go s.sweepLoop()

	if s.wcfg.WSPort > 0 {
		mux := http.NewServeMux()
		mux.HandleFunc("/world", s.handleWebSocket)

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", s.wcfg.WSPort),
			Handler: mux,
		}
		s.mu.Lock()
		s.httpSrv = httpSrv
		s.mu.Unlock()

		errChan := make(chan error, 1)
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Catch immediate bind failures without blocking Start.
		select {
		case err := <-errChan:
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.Stop(stopCtx)
			return fmt.Errorf("world %s: websocket bind: %w", s.name, err)
		case <-time.After(100 * time.Millisecond):
		}
	}

	s.log.Info("world started",
		slog.String("world", s.name),
		slog.Int("port", s.wcfg.Port),
		slog.Int("ws_port", s.wcfg.WSPort),
		slog.Int("max_users", s.wcfg.MaxUsers))
	return nil
}

// Stop closes the listeners and tears down every session.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	ln := s.ln
	httpSrv := s.httpSrv
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	s.handler.CloseAll()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			return err
		}
	}

	s.log.Info("world stopped", slog.String("world", s.name))
	return nil
}

// Population returns the logged-in user count.
func (s *Server) Population() int {
	return s.handler.Population()
}

// Addr returns the bound TCP address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if running {
				s.log.Warn("accept failed", slog.String("error", err.Error()))
				continue
			}
			return
		}
		go s.serveTCP(conn)
	}
}

func (s *Server) serveTCP(nc net.Conn) {
	addr := hostOf(nc.RemoteAddr().String())
	if !s.allowConnect(addr) {
		nc.Close()
		return
	}

	c := newTCPConn(nc)
	u := s.handler.NewSession(c)
	defer s.handler.Close(u)

	buf := make([]byte, readBufferSize)
	for {
		nc.SetReadDeadline(time.Now().Add(readIdleTimeout))
		n, err := nc.Read(buf)
		if err != nil {
			return
		}
		s.handler.HandleChunk(u, addr, buf[:n])
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	addr := hostOf(r.RemoteAddr)
	if !s.allowConnect(addr) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	wc, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newWSConn(wc)
	u := s.handler.NewSession(c)
	defer s.handler.Close(u)

	for {
		wc.SetReadDeadline(time.Now().Add(readIdleTimeout))
		_, data, err := wc.ReadMessage()
		if err != nil {
			return
		}
		s.handler.HandleChunk(u, addr, data)
	}
}

// allowConnect applies the per-address connection budget.
func (s *Server) allowConnect(addr string) bool {
	if s.connects == nil {
		return true
	}
	if !s.connects.Allow(addr) {
		s.log.Warn("connection budget exceeded", slog.String("addr", addr))
		return false
	}
	return true
}

// sweepLoop periodically drops idle rate-limit buckets.
func (s *Server) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			return
		}
		if s.connects != nil {
			s.connects.Sweep()
		}
		if s.handler.addressEvents != nil {
			s.handler.addressEvents.Sweep()
		}
		if s.handler.userEvents != nil {
			s.handler.userEvents.Sweep()
		}
	}
}

// hostOf strips the port from an IP:port form, falling back to the whole
// string for addresses without one.
func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
