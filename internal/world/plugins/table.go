package plugins

import (
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/world"
)

// table handles the two-player game tables hosted inside rooms.
type table struct {
	h *world.Handler
}

func newTable(h *world.Handler) {
	p := &table{h: h}
	h.Events.On("gt", p.getTables)
	h.Events.On("jt", p.join)
	h.Events.On("lt", p.leave)
}

func (p *table) getTables(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	room := u.Room()
	if room == nil {
		return
	}

	reply := []any{"gt"}
	for _, id := range tableIDs(p.h, room) {
		if t, ok := room.Table(id); ok {
			reply = append(reply, t)
		}
	}
	u.Send(reply...)
}

func (p *table) join(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	tableID, ok := args.Int(0)
	if !ok {
		return
	}
	room := u.Room()
	if room == nil {
		return
	}
	t, ok := room.Table(tableID)
	if !ok {
		return
	}

	// A full table or a double join is silent; the client spectates.
	seat, err := t.Join(u)
	if err != nil {
		return
	}
	u.Send("jt", tableID, seat)
}

func (p *table) leave(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	u.LeaveTable()
	u.Send("lt")
}

// tableIDs returns the catalog-defined table IDs for one room, in catalog
// order.
func tableIDs(h *world.Handler, room *world.Room) []int {
	ids := make([]int, 0, 4)
	for _, def := range h.Catalog.Tables {
		if def.RoomID == room.ID {
			ids = append(ids, def.ID)
		}
	}
	return ids
}
