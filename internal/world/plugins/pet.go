package plugins

import (
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/world"
)

// pet handles adoption and pet care. Care actions mutate the pet, persist
// its stats and broadcast the result to the owner's room.
type pet struct {
	h *world.Handler
}

func newPet(h *world.Handler) {
	p := &pet{h: h}
	h.Events.On("getPets", p.getPets)
	h.Events.On("checkName", p.checkName)
	h.Events.On("namePet", p.adopt)
	h.Events.On("sendRest", p.care((*world.Pet).Rest, "pr"))
	h.Events.On("sendPlay", p.care((*world.Pet).Play, "pp"))
	h.Events.On("sendFeed", p.care((*world.Pet).Feed, "pf"))
	h.Events.On("sendTreat", p.care((*world.Pet).Treat, "pt"))
	h.Events.On("sendMovePet", p.movePet)
	h.Events.On("sendPetFrame", p.petFrame)
}

func (p *pet) getPets(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	reply := []any{"pg"}
	for _, pt := range u.Pets.Pets() {
		reply = append(reply, pt)
	}
	u.Send(reply...)
}

// checkName pre-validates an adoption name so the client can show the
// verdict before committing coins.
func (p *pet) checkName(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	name, ok := args.String(0)
	if !ok {
		return
	}
	u.Send("checkName", name, u.Pets.NameOK(name))
}

// adopt runs the purchase flow: %xt%s%namePet%3%Fluffy% adopts type 3
// named Fluffy.
func (p *pet) adopt(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	typeID, ok := args.Int(0)
	name, okName := args.String(1)
	if !ok || !okName {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()
	u.Pets.Adopt(ctx, typeID, name)
}

// care builds a handler for one stat-changing pet action.
func (p *pet) care(action func(*world.Pet), reply string) func(*world.User, protocol.Args) {
	return func(u *world.User, args protocol.Args) {
		if !u.Authed() {
			return
		}
		petID, ok := args.Int(0)
		if !ok {
			return
		}
		pt, owned := u.Pets.Get(petID)
		if !owned {
			return
		}

		action(pt)

		ctx, cancel := storeCtx()
		u.Pets.SaveStats(ctx, pt)
		cancel()

		health, hunger, rest := pt.Stats()
		u.SendRoom(reply, u.ID(), petID, health, hunger, rest)
	}
}

func (p *pet) movePet(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	petID, ok := args.Int(0)
	x, okX := args.Int(1)
	y, okY := args.Int(2)
	if !ok || !okX || !okY {
		return
	}
	pt, owned := u.Pets.Get(petID)
	if !owned {
		return
	}
	pt.Move(x, y)
	u.SendRoom("pm", u.ID(), petID, x, y)
}

func (p *pet) petFrame(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	petID, ok := args.Int(0)
	frame, okF := args.Int(1)
	if !ok || !okF {
		return
	}
	if _, owned := u.Pets.Get(petID); !owned {
		return
	}
	u.SendRoom("pa", u.ID(), petID, frame)
}
