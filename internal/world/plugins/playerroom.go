package plugins

import (
	"log/slog"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/store"
	"github.com/frostvale/frostvale/internal/world"
)

// maxPlacedFurniture caps how many items one room arrangement may hold.
const maxPlacedFurniture = 99

// playerRoom handles player-owned rooms: visiting, the open-room listing,
// decor purchases and furniture arrangement.
type playerRoom struct {
	h *world.Handler
}

func newPlayerRoom(h *world.Handler) {
	p := &playerRoom{h: h}
	h.Events.On("gm", p.getRoom)
	h.Events.On("jp", p.join)
	h.Events.On("or", p.open)
	h.Events.On("cr", p.close)
	h.Events.On("gr", p.getOpenRooms)
	h.Events.On("ur", p.updateRoomType)
	h.Events.On("um", p.updateMusic)
	h.Events.On("uf", p.updateFloor)
	h.Events.On("af", p.addFurniture)
	h.Events.On("gf", p.getFurniture)
	h.Events.On("au", p.arrangeFurniture)
}

// ownRoom loads the caller's player room, creating the default on first
// visit.
func (p *playerRoom) ownRoom(u *world.User) *world.PlayerRoom {
	ctx, cancel := storeCtx()
	defer cancel()

	pr, err := p.h.PlayerRooms.Get(ctx, u.ID(), u.Username())
	if err != nil {
		p.h.Log().Error("player room load failed",
			slog.Int("owner", u.ID()),
			slog.String("error", err.Error()))
		return nil
	}
	return pr
}

func (p *playerRoom) getRoom(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	ownerID, ok := args.Int(0)
	if !ok {
		ownerID = u.ID()
	}

	var pr *world.PlayerRoom
	if ownerID == u.ID() {
		pr = p.ownRoom(u)
	} else {
		pr, _ = p.h.PlayerRooms.Active(ownerID)
	}
	if pr == nil {
		return
	}

	roomType, music, floor := pr.Decor()
	u.Send("gm", ownerID, roomType, music, floor, pr.FurnitureString())
}

func (p *playerRoom) join(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	id, ok := args.Int(0)
	if !ok {
		return
	}
	if id >= world.PlayerRoomOffset {
		id -= world.PlayerRoomOffset
	}
	x, _ := args.Int(1)
	y, _ := args.Int(2)

	if id == u.ID() {
		pr := p.ownRoom(u)
		if pr == nil {
			return
		}
		if err := p.h.PlayerRooms.Join(u, pr, x, y); err != nil {
			u.SendError(frostvale.ErrorRoomFull)
		}
		return
	}

	if !p.h.PlayerRooms.IsOpen(id) {
		return
	}
	owner, online := p.h.UserByID(id)
	if !online {
		return
	}
	ctx, cancel := storeCtx()
	pr, err := p.h.PlayerRooms.Get(ctx, id, owner.Username())
	cancel()
	if err != nil {
		return
	}
	if err := p.h.PlayerRooms.Join(u, pr, x, y); err != nil {
		u.SendError(frostvale.ErrorRoomFull)
	}
}

func (p *playerRoom) open(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	p.h.PlayerRooms.Open(u.ID(), u.Username())
	u.Send("or")
}

func (p *playerRoom) close(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	p.h.PlayerRooms.Close(u.ID())
	u.Send("cr")
}

func (p *playerRoom) getOpenRooms(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	reply := append([]any{"gr"}, p.h.PlayerRooms.OpenRooms()...)
	u.Send(reply...)
}

// updateRoomType purchases and applies a room upgrade. Re-applying the
// current type is free.
func (p *playerRoom) updateRoomType(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	typeID, ok := args.Int(0)
	if !ok || !p.h.Catalog.PlayerRoomOK(typeID) {
		u.SendError(frostvale.ErrorItemNotFound)
		return
	}
	pr := p.ownRoom(u)
	if pr == nil {
		return
	}

	current, music, floor := pr.Decor()
	cost := 0
	if typeID != current {
		cost = p.h.Catalog.PlayerRooms[typeID].Cost
	}
	if u.Coins() < cost {
		u.SendError(frostvale.ErrorInsufficientCoins)
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	if cost > 0 {
		balance := u.Coins() - cost
		if err := p.h.Store.UpdateUser(ctx, u.ID(), store.UserUpdate{Coins: &balance}); err != nil {
			p.h.Log().Error("coin charge failed", slog.String("error", err.Error()))
			return
		}
		u.AddCoins(-cost)
	}
	if err := p.h.PlayerRooms.SaveDecor(ctx, pr, typeID, music, floor); err != nil {
		p.h.Log().Error("player room save failed", slog.String("error", err.Error()))
		return
	}
	u.Send("ur", typeID, u.Coins())
}

func (p *playerRoom) updateMusic(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	musicID, ok := args.Int(0)
	if !ok || musicID < 0 {
		return
	}
	pr := p.ownRoom(u)
	if pr == nil {
		return
	}
	roomType, _, floor := pr.Decor()

	ctx, cancel := storeCtx()
	defer cancel()
	if err := p.h.PlayerRooms.SaveDecor(ctx, pr, roomType, musicID, floor); err != nil {
		p.h.Log().Error("player room save failed", slog.String("error", err.Error()))
		return
	}
	u.Send("um", musicID)
}

func (p *playerRoom) updateFloor(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	floorID, ok := args.Int(0)
	if !ok || floorID < 0 {
		return
	}
	pr := p.ownRoom(u)
	if pr == nil {
		return
	}
	roomType, music, _ := pr.Decor()

	ctx, cancel := storeCtx()
	defer cancel()
	if err := p.h.PlayerRooms.SaveDecor(ctx, pr, roomType, music, floorID); err != nil {
		p.h.Log().Error("player room save failed", slog.String("error", err.Error()))
		return
	}
	u.Send("uf", floorID)
}

func (p *playerRoom) addFurniture(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	furnitureID, ok := args.Int(0)
	if !ok {
		return
	}
	ctx, cancel := storeCtx()
	defer cancel()
	u.Furniture.Add(ctx, furnitureID)
}

func (p *playerRoom) getFurniture(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	u.Send("gf", u.Furniture)
}

// arrangeFurniture replaces the caller's furniture layout. Arguments come
// in groups of five: id, x, y, rotation, frame. The whole arrangement is
// validated against the owned quantities before anything persists.
func (p *playerRoom) arrangeFurniture(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	if len(args)%5 != 0 || len(args)/5 > maxPlacedFurniture {
		return
	}

	placed := make([]store.FurnitureRecord, 0, len(args)/5)
	used := make(map[int]int)
	for i := 0; i+4 < len(args); i += 5 {
		id, ok := args.Int(i)
		x, okX := args.Int(i + 1)
		y, okY := args.Int(i + 2)
		rot, okR := args.Int(i + 3)
		frame, okF := args.Int(i + 4)
		if !ok || !okX || !okY || !okR || !okF {
			return
		}
		used[id]++
		if used[id] > u.Furniture.Quantity(id) {
			return
		}
		placed = append(placed, store.FurnitureRecord{
			UserID:      u.ID(),
			FurnitureID: id,
			X:           x,
			Y:           y,
			Rotation:    rot,
			Frame:       frame,
		})
	}

	pr := p.ownRoom(u)
	if pr == nil {
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()
	if err := p.h.PlayerRooms.SaveFurniture(ctx, pr, placed); err != nil {
		p.h.Log().Error("furniture save failed", slog.String("error", err.Error()))
		return
	}
	u.Send("au", len(placed))
}
