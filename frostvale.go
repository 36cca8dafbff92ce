package frostvale

import "context"

// World is a running virtual-world server: one listen port, one shared room
// set, one population cap.
//
// Example usage:
//
//	srv, err := world.New(cfg, "blizzard", store, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
type World interface {
	// Start begins listening for connections. It returns once the listener
	// is bound; the accept loop runs until Stop is called or the context is
	// cancelled.
	//
	// Returns an error if the world is already running or the port cannot
	// be bound.
	Start(ctx context.Context) error

	// Stop gracefully shuts the world down: the listener is closed and every
	// connected client is torn down in the fixed teardown order (room, then
	// grouping constructs, then population counters).
	Stop(ctx context.Context) error

	// Population returns the number of logged-in users.
	Population() int
}

// Conn is one live client session. At most one primary room, one table and
// one waddle membership at a time.
type Conn interface {
	// ID returns the user identifier, or 0 before login completes.
	ID() int

	// Username returns the login name, or "" before login completes.
	Username() string

	// RemoteAddr returns the client's network address as "IP:port".
	RemoteAddr() string

	// Send encodes a tagged command and writes it to the client. Values may
	// be ints, strings, or fmt.Stringer implementations contributing their
	// own field-joined form.
	Send(args ...any)

	// SendError surfaces a validation failure to the client as a compact
	// numeric error code.
	SendError(code int)

	// Close tears the session down. Safe to call more than once.
	Close()
}
