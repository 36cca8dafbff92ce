package plugins

import (
	"log/slog"

	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/world"
)

// ignore handles the ignore list. Ignored users' chat and private messages
// are filtered at delivery time by the senders' plugins.
type ignore struct {
	h *world.Handler
}

func newIgnore(h *world.Handler) {
	p := &ignore{h: h}
	h.Events.On("an", p.add)
	h.Events.On("rn", p.remove)

	h.OnLogin(func(u *world.User) {
		u.Events.Once("gn", p.getList)
	})
}

func (p *ignore) getList(u *world.User, args protocol.Args) {
	u.Send("gn", u.Ignores)
}

func (p *ignore) add(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	targetID, ok := args.Int(0)
	if !ok || targetID == u.ID() || u.Ignores.Includes(targetID) {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	if err := p.h.Store.CreateIgnore(ctx, u.ID(), targetID); err != nil {
		p.h.Log().Error("ignore create failed", slog.String("error", err.Error()))
		return
	}
	u.Ignores.Add(targetID)
	u.Send("an", targetID)
}

func (p *ignore) remove(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	targetID, ok := args.Int(0)
	if !ok || !u.Ignores.Includes(targetID) {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	if err := p.h.Store.DeleteIgnore(ctx, u.ID(), targetID); err != nil {
		p.h.Log().Error("ignore delete failed", slog.String("error", err.Error()))
		return
	}
	u.Ignores.Remove(targetID)
	u.Send("rn", targetID)
}
