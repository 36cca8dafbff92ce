package world

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/frostvale/frostvale/internal/store"
)

// PlayerRoomOffset maps an owner's user ID to their room's wire ID, keeping
// player rooms clear of the static room ID space.
const PlayerRoomOffset = 1000

// PlayerRoom is a user-owned room layered on the shared Room machinery. Its
// decor lives in the store and is cached here while the room is active.
type PlayerRoom struct {
	Room
	OwnerID   int
	OwnerName string

	dmu        sync.Mutex
	roomTypeID int
	musicID    int
	floorID    int
	furniture  []store.FurnitureRecord
}

// Decor returns the room type, music and floor selections.
func (p *PlayerRoom) Decor() (roomType, music, floor int) {
	p.dmu.Lock()
	defer p.dmu.Unlock()
	return p.roomTypeID, p.musicID, p.floorID
}

func (p *PlayerRoom) setDecor(roomType, music, floor int) {
	p.dmu.Lock()
	defer p.dmu.Unlock()
	p.roomTypeID = roomType
	p.musicID = music
	p.floorID = floor
}

// Furniture returns a snapshot of the placed furniture.
func (p *PlayerRoom) Furniture() []store.FurnitureRecord {
	p.dmu.Lock()
	defer p.dmu.Unlock()
	placed := make([]store.FurnitureRecord, len(p.furniture))
	copy(placed, p.furniture)
	return placed
}

func (p *PlayerRoom) setFurniture(placed []store.FurnitureRecord) {
	p.dmu.Lock()
	defer p.dmu.Unlock()
	p.furniture = placed
}

// FurnitureString renders every placed item as id|x|y|rotation|frame,
// comma-joined, the form carried by the furniture packets.
func (p *PlayerRoom) FurnitureString() string {
	p.dmu.Lock()
	defer p.dmu.Unlock()

	parts := make([]string, len(p.furniture))
	for i, f := range p.furniture {
		fields := []int{f.FurnitureID, f.X, f.Y, f.Rotation, f.Frame}
		strs := make([]string, len(fields))
		for j, n := range fields {
			strs[j] = strconv.Itoa(n)
		}
		parts[i] = strings.Join(strs, "|")
	}
	return strings.Join(parts, ",")
}

// PlayerRooms tracks the active (occupied) player rooms and the subset their
// owners have listed as open to visitors.
type PlayerRooms struct {
	st  store.Store
	log *slog.Logger

	mu     sync.Mutex
	active map[int]*PlayerRoom // keyed by owner ID
	open   map[int]string      // owner ID -> owner username
}

func NewPlayerRooms(st store.Store, log *slog.Logger) *PlayerRooms {
	return &PlayerRooms{
		st:     st,
		log:    log,
		active: make(map[int]*PlayerRoom),
		open:   make(map[int]string),
	}
}

// Get returns the active player room for an owner, loading its persisted
// state when no one is currently inside. The room registers an empty hook
// that drops it from the active set once the last visitor leaves.
func (p *PlayerRooms) Get(ctx context.Context, ownerID int, ownerName string) (*PlayerRoom, error) {
	p.mu.Lock()
	if pr, ok := p.active[ownerID]; ok {
		p.mu.Unlock()
		return pr, nil
	}
	p.mu.Unlock()

	rec, err := p.st.PlayerRoom(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		rec = &store.PlayerRoomRecord{UserID: ownerID, RoomTypeID: 1}
	} else if err != nil {
		return nil, err
	}
	placed, err := p.st.PlayerRoomFurniture(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	pr := &PlayerRoom{
		Room: Room{
			ID:       ownerID + PlayerRoomOffset,
			Name:     "igloo",
			MaxUsers: defaultRoomCapacity,
		},
		OwnerID:   ownerID,
		OwnerName: ownerName,
	}
	pr.setDecor(rec.RoomTypeID, rec.MusicID, rec.FloorID)
	pr.setFurniture(placed)
	pr.onEmpty = func() { p.evict(ownerID) }

	p.mu.Lock()
	defer p.mu.Unlock()
	// A concurrent loader may have won; keep the first one in.
	if existing, ok := p.active[ownerID]; ok {
		return existing, nil
	}
	p.active[ownerID] = pr
	return pr, nil
}

// Active returns the loaded player room for an owner without touching the
// store.
func (p *PlayerRooms) Active(ownerID int) (*PlayerRoom, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.active[ownerID]
	return pr, ok
}

// Join moves u into pr. Visitors get the player-room packet ahead of the
// standard join sequence so the client loads the right scene; the placed
// furniture rides along when the room has any.
func (p *PlayerRooms) Join(u *User, pr *PlayerRoom, x, y int) error {
	roomType, music, floor := pr.Decor()
	if placed := pr.FurnitureString(); placed != "" {
		u.Send("jp", pr.Room.ID, roomType, music, floor, placed)
	} else {
		u.Send("jp", pr.Room.ID, roomType, music, floor)
	}
	return u.JoinRoom(&pr.Room, x, y)
}

// SaveDecor persists the owner's decor selections, then mirrors them into
// the active room.
func (p *PlayerRooms) SaveDecor(ctx context.Context, pr *PlayerRoom, roomType, music, floor int) error {
	rec := &store.PlayerRoomRecord{
		UserID:     pr.OwnerID,
		RoomTypeID: roomType,
		MusicID:    music,
		FloorID:    floor,
	}
	if err := p.st.SavePlayerRoom(ctx, rec); err != nil {
		return err
	}
	pr.setDecor(roomType, music, floor)
	return nil
}

// SaveFurniture persists a full furniture arrangement, then mirrors it into
// the active room.
func (p *PlayerRooms) SaveFurniture(ctx context.Context, pr *PlayerRoom, placed []store.FurnitureRecord) error {
	if err := p.st.ReplacePlayerRoomFurniture(ctx, pr.OwnerID, placed); err != nil {
		return err
	}
	pr.setFurniture(placed)
	return nil
}

// IsOpen reports whether the owner's room is listed open.
func (p *PlayerRooms) IsOpen(ownerID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.open[ownerID]
	return ok
}

// Open lists the owner's room so it shows up for other players.
func (p *PlayerRooms) Open(ownerID int, ownerName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open[ownerID] = ownerName
}

// Close delists the owner's room.
func (p *PlayerRooms) Close(ownerID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.open, ownerID)
}

// OpenRooms returns one id|owner field per listed room, owner-ID ordered.
func (p *PlayerRooms) OpenRooms() []any {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]int, 0, len(p.open))
	for id := range p.open {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = strconv.Itoa(id+PlayerRoomOffset) + "|" + p.open[id]
	}
	return out
}

func (p *PlayerRooms) evict(ownerID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, ownerID)
}
