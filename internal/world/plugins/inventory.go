package plugins

import (
	"log/slog"

	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/store"
	"github.com/frostvale/frostvale/internal/world"
)

// inventory handles item purchases and the clothing update family. Each
// update action maps to one slot of the avatar.
type inventory struct {
	h *world.Handler
}

func newInventory(h *world.Handler) {
	p := &inventory{h: h}
	h.Events.On("ai", p.addItem)
	h.Events.On("gi", p.getInventory)

	slots := map[string]func(id int) store.UserUpdate{
		"upc": func(id int) store.UserUpdate { return store.UserUpdate{Color: &id} },
		"uph": func(id int) store.UserUpdate { return store.UserUpdate{Head: &id} },
		"upf": func(id int) store.UserUpdate { return store.UserUpdate{Face: &id} },
		"upn": func(id int) store.UserUpdate { return store.UserUpdate{Neck: &id} },
		"upb": func(id int) store.UserUpdate { return store.UserUpdate{Body: &id} },
		"upa": func(id int) store.UserUpdate { return store.UserUpdate{Hand: &id} },
		"upe": func(id int) store.UserUpdate { return store.UserUpdate{Feet: &id} },
		"upl": func(id int) store.UserUpdate { return store.UserUpdate{Flag: &id} },
		"upp": func(id int) store.UserUpdate { return store.UserUpdate{Photo: &id} },
	}
	for action, build := range slots {
		action, build := action, build
		h.Events.On(action, func(u *world.User, args protocol.Args) {
			p.updateSlot(u, args, action, build)
		})
	}
}

func (p *inventory) addItem(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	itemID, ok := args.Int(0)
	if !ok {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()
	u.Inventory.Add(ctx, itemID)
}

func (p *inventory) getInventory(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	u.Send("gi", u.Inventory)
}

// updateSlot equips an owned item into one avatar slot. ID zero clears the
// slot; colors skip the ownership check since starter colors are free.
func (p *inventory) updateSlot(u *world.User, args protocol.Args, action string, build func(int) store.UserUpdate) {
	if !u.Authed() {
		return
	}
	itemID, ok := args.Int(0)
	if !ok || itemID < 0 {
		return
	}
	if itemID != 0 && action != "upc" && !u.Inventory.Includes(itemID) {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	upd := build(itemID)
	if err := p.h.Store.UpdateUser(ctx, u.ID(), upd); err != nil {
		p.h.Log().Error("clothing update failed",
			slog.Int("user", u.ID()),
			slog.String("action", action),
			slog.String("error", err.Error()))
		return
	}
	u.ApplyUpdate(upd)
	u.SendRoom(action, u.ID(), itemID)
}
