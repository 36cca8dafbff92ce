package plugins

import (
	"log/slog"
	"sort"

	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/world"
)

// buddy handles the buddy list: the fire-once list request installed at
// login, requests, accepts, declines, removals, messages, the online sweep
// and the locator.
type buddy struct {
	h *world.Handler
}

func newBuddy(h *world.Handler) {
	p := &buddy{h: h}
	h.Events.On("bq", p.request)
	h.Events.On("ba", p.accept)
	h.Events.On("bd", p.decline)
	h.Events.On("rb", p.remove)
	h.Events.On("bm", p.message)
	h.Events.On("bf", p.find)
	h.Events.On("go", p.online)

	// The list is served at most once per connection; repeats are no-ops.
	h.OnLogin(func(u *world.User) {
		u.Events.Once("bl", p.getList)
	})
}

func (p *buddy) getList(u *world.User, args protocol.Args) {
	u.Send("bl", u.Buddies)
}

// request forwards a buddy request to its online target. Offline targets
// drop the request silently; requests are session state, not persisted.
func (p *buddy) request(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	targetID, ok := args.Int(0)
	if !ok || targetID == u.ID() {
		return
	}
	if u.Buddies.Includes(targetID) || u.Buddies.IsFull() {
		return
	}

	target, ok := p.h.UserByID(targetID)
	if !ok {
		return
	}
	if target.Ignores.Includes(u.ID()) || target.Buddies.IsFull() {
		return
	}

	target.Buddies.AddRequest(u.ID(), u.Username())
	target.Send("bq", u.ID(), u.Username())
}

// accept consumes a pending request and persists the buddy link in both
// directions before either list is touched.
func (p *buddy) accept(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	requesterID, ok := args.Int(0)
	if !ok {
		return
	}
	name, pending := u.Buddies.TakeRequest(requesterID)
	if !pending {
		return
	}
	if u.Buddies.IsFull() {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	if err := p.h.Store.CreateBuddy(ctx, u.ID(), requesterID); err != nil {
		p.h.Log().Error("buddy create failed", slog.String("error", err.Error()))
		return
	}
	if err := p.h.Store.CreateBuddy(ctx, requesterID, u.ID()); err != nil {
		p.h.Log().Error("buddy create failed", slog.String("error", err.Error()))
		return
	}

	u.Buddies.Add(requesterID, name)
	if requester, ok := p.h.UserByID(requesterID); ok {
		requester.Buddies.Add(u.ID(), u.Username())
		requester.Send("ba", u.ID(), u.Username())
	}
	u.Send("ba", requesterID, name)
}

// decline consumes a pending request and tells the requester, if they are
// still online. Nothing was persisted, so nothing is rolled back.
func (p *buddy) decline(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	requesterID, ok := args.Int(0)
	if !ok {
		return
	}
	if _, pending := u.Buddies.TakeRequest(requesterID); !pending {
		return
	}
	if requester, online := p.h.UserByID(requesterID); online {
		requester.Send("bd", u.ID(), u.Username())
	}
}

// online reports which buddies are currently connected to this world.
func (p *buddy) online(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	ids := u.Buddies.Keys()
	sort.Ints(ids)

	reply := make([]any, 0, len(ids)+1)
	reply = append(reply, "go")
	for _, id := range ids {
		if _, connected := p.h.UserByID(id); connected {
			reply = append(reply, id)
		}
	}
	u.Send(reply...)
}

func (p *buddy) remove(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	buddyID, ok := args.Int(0)
	if !ok || !u.Buddies.Includes(buddyID) {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	if err := p.h.Store.DeleteBuddy(ctx, u.ID(), buddyID); err != nil {
		p.h.Log().Error("buddy delete failed", slog.String("error", err.Error()))
		return
	}
	if err := p.h.Store.DeleteBuddy(ctx, buddyID, u.ID()); err != nil {
		p.h.Log().Error("buddy delete failed", slog.String("error", err.Error()))
		return
	}

	u.Buddies.Remove(buddyID)
	if other, ok := p.h.UserByID(buddyID); ok {
		other.Buddies.Remove(u.ID())
		other.Send("rb", u.ID())
	}
	u.Send("rb", buddyID)
}

// message relays a private message to an online buddy.
func (p *buddy) message(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	buddyID, ok := args.Int(0)
	msg, okMsg := args.String(1)
	if !ok || !okMsg || msg == "" {
		return
	}
	if !u.Buddies.Includes(buddyID) {
		return
	}

	target, online := p.h.UserByID(buddyID)
	if !online || target.Ignores.Includes(u.ID()) {
		return
	}
	target.Send("bm", u.ID(), msg)
}

// find reports which room an online buddy is in.
func (p *buddy) find(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	buddyID, ok := args.Int(0)
	if !ok || !u.Buddies.Includes(buddyID) {
		return
	}
	target, online := p.h.UserByID(buddyID)
	if !online {
		return
	}
	room := target.Room()
	if room == nil {
		return
	}
	u.Send("bf", buddyID, room.ID)
}
