package e2e_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/frostvale/frostvale/internal/config"
	"github.com/frostvale/frostvale/internal/store"
	"github.com/frostvale/frostvale/world"
)

// startWorld boots a server on an ephemeral port backed by the in-memory
// store and returns a client dialer.
func startWorld(t *testing.T) (*world.Server, store.Store) {
	t.Helper()

	cfg := world.DefaultConfig()
	cfg.Worlds["blizzard"] = config.World{Port: 0, MaxUsers: 50}
	st := world.NewMemoryStore()

	srv, err := world.New(cfg, "blizzard", st, nil, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Stop(stopCtx)
	})
	return srv, st
}

// client is a minimal test client speaking the delimiter-framed protocol.
type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, srv *world.Server) *client {
	t.Helper()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

// send writes one delimited frame.
func (c *client) send(frame string) {
	c.t.Helper()
	if _, err := c.conn.Write(append([]byte(frame), 0)); err != nil {
		c.t.Fatalf("write failed: %v", err)
	}
}

// recv reads the next delimited frame.
func (c *client) recv() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	frame, err := c.r.ReadString(0)
	if err != nil {
		c.t.Fatalf("read failed: %v", err)
	}
	return strings.TrimSuffix(frame, "\x00")
}

// recvUntil reads frames until one matches the prefix.
func (c *client) recvUntil(prefix string) string {
	c.t.Helper()
	for i := 0; i < 20; i++ {
		frame := c.recv()
		if strings.HasPrefix(frame, prefix) {
			return frame
		}
	}
	c.t.Fatalf("no frame with prefix %q", prefix)
	return ""
}
