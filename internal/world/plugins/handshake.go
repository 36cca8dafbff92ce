package plugins

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/store"
	"github.com/frostvale/frostvale/internal/world"
)

const (
	apiOKResponse = `<msg t="sys"><body action="apiOK" r="0"></body></msg>`
	apiKOResponse = `<msg t="sys"><body action="apiKO" r="0"></body></msg>`
)

// handshake drives the markup phase of a connection: version check, random
// key exchange and login. Everything after login speaks tagged frames.
type handshake struct {
	h *world.Handler
}

func newHandshake(h *world.Handler) {
	p := &handshake{h: h}
	h.Events.On("verChk", p.verChk)
	h.Events.On("rndK", p.randomKey)
	h.Events.On("login", p.login)
}

func (p *handshake) verChk(u *world.User, args protocol.Args) {
	body := markupBody(args)
	if body == nil {
		return
	}
	ver := body.Find("ver")
	if ver == nil {
		return
	}

	if p.h.Config.VersionAllowed(ver.Get("v")) {
		u.SendXML(apiOKResponse)
	} else {
		u.SendXML(apiKOResponse)
	}
}

func (p *handshake) randomKey(u *world.User, args protocol.Args) {
	key := uuid.NewString()
	u.SendXML(`<msg t="sys"><body action="rndK" r="-1"><k>` + key + `</k></body></msg>`)
}

func (p *handshake) login(u *world.User, args protocol.Args) {
	if u.Authed() {
		return
	}
	body := markupBody(args)
	if body == nil {
		return
	}
	nick := body.Find("nick")
	pword := body.Find("pword")
	if nick == nil || pword == nil {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	rec, err := p.h.Store.FindUser(ctx, nick.Text)
	if errors.Is(err, store.ErrNotFound) {
		u.SendError(frostvale.ErrorLoginFailed)
		return
	}
	if err != nil {
		p.h.Log().Error("login lookup failed", slog.String("error", err.Error()))
		return
	}
	if rec.Password != pword.Text || rec.PermaBan {
		u.SendError(frostvale.ErrorLoginFailed)
		return
	}

	items, err := p.h.Store.UserInventory(ctx, rec.ID)
	if err != nil {
		p.h.Log().Error("inventory load failed", slog.String("error", err.Error()))
		return
	}
	buddies, err := p.h.Store.UserBuddies(ctx, rec.ID)
	if err != nil {
		p.h.Log().Error("buddy load failed", slog.String("error", err.Error()))
		return
	}
	ignores, err := p.h.Store.UserIgnores(ctx, rec.ID)
	if err != nil {
		p.h.Log().Error("ignore load failed", slog.String("error", err.Error()))
		return
	}
	furniture, err := p.h.Store.UserFurnitureInventory(ctx, rec.ID)
	if err != nil {
		p.h.Log().Error("furniture load failed", slog.String("error", err.Error()))
		return
	}
	pets, err := p.h.Store.UserPets(ctx, rec.ID)
	if err != nil {
		p.h.Log().Error("pet load failed", slog.String("error", err.Error()))
		return
	}

	// The session may have died during the store round-trips.
	if u.Closed() {
		return
	}

	u.Load(rec)
	u.AttachCollections(p.h, items, buddies, ignores, furniture, pets)

	if err := p.h.AddUser(u); err != nil {
		u.SendError(frostvale.ErrorWorldFull)
		return
	}

	u.Pets.StartDecay()
	p.h.NotifyLogin(u)
	u.Send("l", u.ID())

	p.h.Log().Info("user logged in",
		slog.Int("user", u.ID()),
		slog.String("username", u.Username()))

	// Let online buddies know.
	for _, id := range u.Buddies.Keys() {
		if buddy, ok := p.h.UserByID(id); ok {
			buddy.Send("bon", u.ID())
		}
	}
}

// markupBody extracts the body element a markup dispatch carries.
func markupBody(args protocol.Args) *protocol.Element {
	if len(args) == 0 {
		return nil
	}
	el, ok := args[0].(*protocol.Element)
	if !ok {
		return nil
	}
	return el
}
