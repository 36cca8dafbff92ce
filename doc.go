// Package frostvale provides a virtual-world server for persistent game
// clients speaking a delimiter-framed, dual-syntax wire protocol.
//
// Clients hold a single long-lived stream (raw TCP or WebSocket) and exchange
// NUL-terminated frames. Two message shapes share the stream: XML markup
// messages beginning with '<' (the policy handshake and the generic "msg"
// envelope) and compact tagged messages beginning with '%', shaped
// %xt%<namespace>%<action>%<arg0>%<arg1>...%.
//
// # Architecture
//
// Incoming bytes flow through four layers. The framer splits raw chunks into
// complete frames, buffering any trailing partial frame until more data
// arrives. The parser decodes each frame into a command: an action identifier
// plus typed arguments. The dispatcher routes the command to handlers
// registered under that action, first in the world-wide registry and then in
// the connection's own registry (which supports fire-once handlers). Handlers
// mutate room and presence state and send responses; every handler invocation
// is isolated, so a malformed or buggy command never takes down the
// connection or the process.
//
// Rooms are shared containers of connections with broadcast semantics.
// Player-owned rooms occupy a reserved identifier range and are garbage
// collected when their last member leaves. Tables and waddles are secondary
// grouping constructs layered on rooms for cooperative mini-games.
//
// # Quick Start
//
//	import "github.com/frostvale/frostvale/world"
//
//	cfg := world.DefaultConfig()
//	srv, err := world.New(cfg, "blizzard", world.NewMemoryStore(), nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Stop(context.Background())
//
// Behavior plugins (navigation, minigames, buddy lists, pets, player rooms)
// are registered against the dispatcher at startup; see
// internal/world/plugins for the built-in set.
//
// # Rate Policy
//
// Three configurable token-bucket caps protect the server: new connections
// per source address, events per source address, and events per connection.
// Exceeding a cap drops the offending input or closes the connection; it is
// never fatal to the process.
package frostvale
