// Package plugins contains the command handlers. Each plugin owns one
// feature area and registers its actions against the world-scoped registry
// at startup; connection-scoped fire-once handlers are installed through
// the login hooks.
package plugins

import (
	"context"
	"time"

	"github.com/frostvale/frostvale/internal/world"
)

const storeTimeout = 5 * time.Second

// Register installs every plugin on the world's dispatch core. Call once,
// before the server starts accepting connections.
func Register(h *world.Handler) {
	newHandshake(h)
	newNavigation(h)
	newMinigame(h)
	newInventory(h)
	newBuddy(h)
	newIgnore(h)
	newPet(h)
	newPlayerRoom(h)
	newTable(h)
	newWaddle(h)
}

// storeCtx bounds one store round-trip made from a command handler.
func storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}
