package world

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frostvale/frostvale"
)

const writeTimeout = 10 * time.Second

// ErrConnClosed reports a write against a torn-down transport.
var ErrConnClosed = errors.New(frostvale.ErrConnectionClosed)

// Conn is the transport beneath a user session. Both the raw TCP listener
// and the WebSocket adapter produce one; everything above treats them the
// same delimiter-framed stream.
type Conn interface {
	Write(p []byte) error
	Close() error
	RemoteAddr() string
}

type tcpConn struct {
	mu     sync.Mutex
	c      net.Conn
	closed bool
}

func newTCPConn(c net.Conn) *tcpConn {
	return &tcpConn{c: c}
}

func (t *tcpConn) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrConnClosed
	}
	t.c.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := t.c.Write(p)
	return err
}

func (t *tcpConn) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.c.Close()
}

func (t *tcpConn) RemoteAddr() string {
	return t.c.RemoteAddr().String()
}

// wsConn carries the same frame stream inside WebSocket text messages.
type wsConn struct {
	mu     sync.Mutex
	c      *websocket.Conn
	closed bool
}

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{c: c}
}

func (w *wsConn) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrConnClosed
	}
	w.c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.c.WriteMessage(websocket.TextMessage, p)
}

func (w *wsConn) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	w.c.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	return w.c.Close()
}

func (w *wsConn) RemoteAddr() string {
	return w.c.RemoteAddr().String()
}
