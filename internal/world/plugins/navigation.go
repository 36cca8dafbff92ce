package plugins

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/world"
)

// navigation handles room movement and the in-room presence actions:
// positions, frames, snowballs, chat and the heartbeat.
type navigation struct {
	h *world.Handler
}

func newNavigation(h *world.Handler) {
	p := &navigation{h: h}
	h.Events.On("js", p.joinServer)
	h.Events.On("jr", p.joinRoom)
	h.Events.On("sp", p.sendPosition)
	h.Events.On("sf", p.sendFrame)
	h.Events.On("sb", p.sendSnowball)
	h.Events.On("sm", p.sendMessage)
	h.Events.On("se", p.sendEmote)
	h.Events.On("h", p.heartbeat)
}

// joinServer completes the post-login handshake and drops the user into a
// spawn room.
func (p *navigation) joinServer(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	u.Send("js")

	spawns := p.h.SpawnRooms()
	if len(spawns) == 0 {
		return
	}
	room := spawns[rand.Intn(len(spawns))]
	if err := u.JoinRoom(room, spawnX(), spawnY()); err != nil {
		u.SendError(frostvale.ErrorRoomFull)
	}
}

func (p *navigation) joinRoom(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	id, ok := args.Int(0)
	if !ok {
		return
	}
	x, _ := args.Int(1)
	y, _ := args.Int(2)

	if id >= world.PlayerRoomOffset {
		p.joinPlayerRoom(u, id-world.PlayerRoomOffset, x, y)
		return
	}

	room, ok := p.h.Room(id)
	if !ok {
		return
	}
	if err := u.JoinRoom(room, x, y); err != nil {
		if errors.Is(err, world.ErrRoomFull) {
			u.SendError(frostvale.ErrorRoomFull)
		}
	}
}

// joinPlayerRoom resolves a player-room wire ID to its owner and joins.
// The room must be listed open unless the visitor owns it.
func (p *navigation) joinPlayerRoom(u *world.User, ownerID, x, y int) {
	if ownerID != u.ID() && !p.h.PlayerRooms.IsOpen(ownerID) {
		return
	}

	ownerName := ""
	if owner, ok := p.h.UserByID(ownerID); ok {
		ownerName = owner.Username()
	} else if ownerID == u.ID() {
		ownerName = u.Username()
	} else {
		ctx, cancel := storeCtx()
		rec, err := p.h.Store.FindUserByID(ctx, ownerID)
		cancel()
		if err != nil {
			return
		}
		ownerName = rec.Username
	}

	ctx, cancel := storeCtx()
	defer cancel()
	pr, err := p.h.PlayerRooms.Get(ctx, ownerID, ownerName)
	if err != nil {
		p.h.Log().Error("player room load failed",
			slog.Int("owner", ownerID),
			slog.String("error", err.Error()))
		return
	}
	if err := p.h.PlayerRooms.Join(u, pr, x, y); err != nil {
		u.SendError(frostvale.ErrorRoomFull)
	}
}

func (p *navigation) sendPosition(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	x, okX := args.Int(0)
	y, okY := args.Int(1)
	if !okX || !okY {
		return
	}
	u.SetPosition(x, y)
	u.SendRoom("sp", u.ID(), x, y)
}

func (p *navigation) sendFrame(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	frame, ok := args.Int(0)
	if !ok {
		return
	}
	u.SetFrame(frame)
	u.SendRoom("sf", u.ID(), frame)
}

func (p *navigation) sendSnowball(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	x, okX := args.Int(0)
	y, okY := args.Int(1)
	if !okX || !okY {
		return
	}
	u.SendRoom("sb", u.ID(), x, y)
}

// sendMessage relays chat to the room, skipping members who ignore the
// sender.
func (p *navigation) sendMessage(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	msg, ok := args.String(0)
	if !ok || msg == "" {
		return
	}

	room := u.Room()
	if room == nil {
		return
	}
	for _, member := range room.Users() {
		if member.Ignores != nil && member.Ignores.Includes(u.ID()) {
			continue
		}
		member.Send("sm", u.ID(), msg)
	}
}

func (p *navigation) sendEmote(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	emote, ok := args.Int(0)
	if !ok {
		return
	}
	u.SendRoom("se", u.ID(), emote)
}

func (p *navigation) heartbeat(u *world.User, args protocol.Args) {
	u.Send("h")
}

func spawnX() int { return 200 + rand.Intn(400) }
func spawnY() int { return 300 + rand.Intn(200) }
