package world

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/catalog"
)

var ErrWaddleFull = errors.New("world: waddle is full")

// Waddle is a fixed-seat game queue hosted in a room. When the last seat
// fills, every member is moved into the linked game room and the seats
// reset for the next group.
type Waddle struct {
	ID    int
	Seats int
	room  *Room
	game  *Room

	mu    sync.Mutex
	users []*User
}

func newWaddle(def catalog.WaddleDef, room, game *Room) *Waddle {
	return &Waddle{
		ID:    def.ID,
		Seats: def.Seats,
		room:  room,
		game:  game,
		users: make([]*User, def.Seats),
	}
}

// Join seats u at the lowest free seat. Filling the last seat starts the
// game: the packet goes out, the seats clear and the whole group moves to
// the game room.
func (w *Waddle) Join(u *User) (int, error) {
	if u.Table() != nil || u.Waddle() != nil {
		return 0, ErrAlreadyGrouped
	}

	w.mu.Lock()
	seat := -1
	for i, s := range w.users {
		if s == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		w.mu.Unlock()
		return 0, ErrWaddleFull
	}
	w.users[seat] = u
	full := true
	for _, s := range w.users {
		if s == nil {
			full = false
			break
		}
	}
	var group []*User
	if full {
		group = make([]*User, len(w.users))
		copy(group, w.users)
		for i := range w.users {
			w.users[i] = nil
		}
	}
	w.mu.Unlock()

	u.setWaddle(w)
	u.Send("jw", seat)
	w.room.Send("uw", w.ID, seat, u.Username())

	if full {
		w.start(group)
	}
	return seat, nil
}

// Leave frees the seat held by u and announces the vacancy.
func (w *Waddle) Leave(u *User) {
	w.mu.Lock()
	seat := -1
	for i, s := range w.users {
		if s == u {
			w.users[i] = nil
			seat = i
			break
		}
	}
	w.mu.Unlock()

	if seat < 0 {
		return
	}
	u.setWaddle(nil)
	w.room.Send("uw", w.ID, seat, "")
}

func (w *Waddle) start(group []*User) {
	names := make([]string, len(group))
	for i, m := range group {
		names[i] = m.Username()
	}
	roster := strings.Join(names, "|")

	for _, m := range group {
		m.setWaddle(nil)
	}
	// Announce the now-empty seats to the host room before the group moves.
	for seat := range group {
		w.room.Send("uw", w.ID, seat, "")
	}
	for _, m := range group {
		m.Send("sw", w.game.ID, roster)
		if err := m.JoinRoom(w.game, 0, 0); err != nil {
			m.SendError(frostvale.ErrorRoomFull)
		}
	}
}

// String renders the waddle form used by the get-waddles reply: id, seat
// count, then one field per seat holding the occupant name or nothing.
func (w *Waddle) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	parts := make([]string, 0, len(w.users)+2)
	parts = append(parts, strconv.Itoa(w.ID), strconv.Itoa(w.Seats))
	for _, s := range w.users {
		if s == nil {
			parts = append(parts, "")
		} else {
			parts = append(parts, s.Username())
		}
	}
	return strings.Join(parts, ",")
}
