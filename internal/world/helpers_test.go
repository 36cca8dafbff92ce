package world

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/frostvale/frostvale/internal/catalog"
	"github.com/frostvale/frostvale/internal/config"
	"github.com/frostvale/frostvale/internal/store"
)

// recordingConn captures written frames for assertions.
type recordingConn struct {
	mu     sync.Mutex
	frames []string
	closed bool
}

func (c *recordingConn) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, frame := range bytes.Split(p, []byte{0}) {
		if len(frame) > 0 {
			c.frames = append(c.frames, string(frame))
		}
	}
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) RemoteAddr() string { return "203.0.113.9:4000" }

func (c *recordingConn) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *recordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func (c *recordingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	return cfg
}

func testHandler(t *testing.T) (*Handler, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	h := NewHandler(testConfig(), "blizzard", st, catalog.Default(), discardLogger())
	return h, st
}

// testUser builds a logged-in user attached to a recording connection. A
// matching account record is seeded so store-backed flows find their row;
// the session keeps the requested ID even if the store assigns another.
func testUser(t *testing.T, h *Handler, id int, name string) (*User, *recordingConn) {
	t.Helper()
	rec := &store.UserRecord{Username: name, Password: "pw", Coins: 1000}
	err := h.Store.CreateUser(context.Background(), rec)
	if err != nil && !errors.Is(err, store.ErrExists) {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	rec.ID = id

	conn := &recordingConn{}
	u := h.NewSession(conn)
	u.Load(rec)
	u.AttachCollections(h, nil, nil, nil, nil, nil)
	if err := h.AddUser(u); err != nil {
		t.Fatalf("AddUser(%s) failed: %v", name, err)
	}
	return u, conn
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustRoom fetches a catalog room or fails the test.
func mustRoom(t *testing.T, h *Handler, id int) *Room {
	t.Helper()
	r, ok := h.Room(id)
	if !ok {
		t.Fatalf("room %d missing from catalog", id)
	}
	return r
}
