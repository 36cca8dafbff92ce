package plugins

import (
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/world"
)

// waddle handles the fixed-seat game queues. A waddle that fills moves its
// whole group into the linked game room.
type waddle struct {
	h *world.Handler
}

func newWaddle(h *world.Handler) {
	p := &waddle{h: h}
	h.Events.On("gw", p.getWaddles)
	h.Events.On("jw", p.join)
	h.Events.On("lw", p.leave)
}

func (p *waddle) getWaddles(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	room := u.Room()
	if room == nil {
		return
	}

	reply := []any{"gw"}
	for _, def := range p.h.Catalog.Waddles {
		if def.RoomID != room.ID {
			continue
		}
		if w, ok := room.Waddle(def.ID); ok {
			reply = append(reply, w)
		}
	}
	u.Send(reply...)
}

func (p *waddle) join(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	waddleID, ok := args.Int(0)
	if !ok {
		return
	}
	room := u.Room()
	if room == nil {
		return
	}
	w, ok := room.Waddle(waddleID)
	if !ok {
		return
	}

	// Join announces the seat itself; a full or double join is silent.
	w.Join(u)
}

func (p *waddle) leave(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	u.LeaveWaddle()
	u.Send("lw")
}
