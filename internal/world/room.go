package world

import (
	"errors"
	"sync"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/catalog"
)

const defaultRoomCapacity = 80

var (
	ErrRoomFull  = errors.New("world: room is full")
	ErrWorldFull = errors.New(frostvale.ErrWorldAtCapacity)
)

// Room is a shared space users move between. Game rooms skip roster
// bookkeeping on the wire: the joiner gets a bare game-join packet and
// membership changes are not broadcast.
type Room struct {
	ID       int
	Name     string
	Member   bool
	Game     bool
	Spawn    bool
	MaxUsers int

	mu      sync.Mutex
	users   []*User
	tables  map[int]*Table
	waddles map[int]*Waddle

	// onEmpty fires after the last user leaves. Player rooms use it to
	// drop themselves from the active set.
	onEmpty func()
}

// NewRoom builds a room from its catalog definition.
func NewRoom(def catalog.RoomDef) *Room {
	max := def.MaxUsers
	if max <= 0 {
		max = defaultRoomCapacity
	}
	return &Room{
		ID:       def.ID,
		Name:     def.Name,
		Member:   def.Member,
		Game:     def.Game,
		Spawn:    def.Spawn,
		MaxUsers: max,
		tables:   make(map[int]*Table),
		waddles:  make(map[int]*Waddle),
	}
}

// Add admits u, sends the join packet and announces the arrival. Capacity is
// checked and the member list extended under one lock acquisition, so two
// racing joins for the last slot resolve to exactly one admission.
func (r *Room) Add(u *User) error {
	r.mu.Lock()
	if len(r.users) >= r.MaxUsers {
		r.mu.Unlock()
		return ErrRoomFull
	}
	r.users = append(r.users, u)
	u.setRoom(r)
	members := make([]*User, len(r.users))
	copy(members, r.users)
	r.mu.Unlock()

	if r.Game {
		u.Send("jg", r.ID)
		return nil
	}

	roster := make([]any, 0, len(members)+2)
	roster = append(roster, "jr", r.ID)
	for _, m := range members {
		roster = append(roster, m)
	}
	u.Send(roster...)
	sendTo(members, "ap", u)
	return nil
}

// Remove takes u out of the room and announces the departure to whoever is
// left. Removing a non-member is a no-op.
func (r *Room) Remove(u *User) {
	r.mu.Lock()
	removed := false
	for i, m := range r.users {
		if m == u {
			r.users = append(r.users[:i], r.users[i+1:]...)
			removed = true
			break
		}
	}
	remaining := make([]*User, len(r.users))
	copy(remaining, r.users)
	empty := len(r.users) == 0
	onEmpty := r.onEmpty
	r.mu.Unlock()

	if !removed {
		return
	}
	u.setRoom(nil)

	if !r.Game {
		sendTo(remaining, "rp", u.ID())
	}
	if empty && onEmpty != nil {
		onEmpty()
	}
}

// Send broadcasts a tagged frame to the members present when the call
// starts. Users joining mid-broadcast are not included.
func (r *Room) Send(args ...any) {
	sendTo(r.Users(), args...)
}

// Users returns a snapshot of the member list.
func (r *Room) Users() []*User {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make([]*User, len(r.users))
	copy(members, r.users)
	return members
}

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *Room) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users) >= r.MaxUsers
}

// Table returns the table with the given id hosted in this room.
func (r *Room) Table(id int) (*Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	return t, ok
}

// Waddle returns the waddle with the given id hosted in this room.
func (r *Room) Waddle(id int) (*Waddle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.waddles[id]
	return w, ok
}

func (r *Room) addTable(t *Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.ID] = t
}

func (r *Room) addWaddle(w *Waddle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waddles[w.ID] = w
}

func sendTo(users []*User, args ...any) {
	for _, u := range users {
		u.Send(args...)
	}
}
