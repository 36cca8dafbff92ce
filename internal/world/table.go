package world

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/frostvale/frostvale/internal/catalog"
)

var (
	ErrTableFull      = errors.New("world: table is full")
	ErrAlreadyGrouped = errors.New("world: user already in a group")
)

// tableSeats maps a table type to its player count. Everything past the
// seated players watches.
var tableSeats = map[string]int{
	"four":     2,
	"mancala":  2,
	"treasure": 2,
}

// Table is a two-player game board hosted inside a room. Seats fill in
// order; further joiners are turned away and spectate client-side.
type Table struct {
	ID   int
	Type string
	room *Room

	mu    sync.Mutex
	seats []*User
}

func newTable(def catalog.TableDef, room *Room) *Table {
	n, ok := tableSeats[def.Type]
	if !ok {
		n = 2
	}
	return &Table{
		ID:    def.ID,
		Type:  def.Type,
		room:  room,
		seats: make([]*User, n),
	}
}

// Join seats u at the lowest free seat and returns its 1-based number.
func (t *Table) Join(u *User) (int, error) {
	if u.Table() != nil || u.Waddle() != nil {
		return 0, ErrAlreadyGrouped
	}

	t.mu.Lock()
	seat := -1
	for i, s := range t.seats {
		if s == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		t.mu.Unlock()
		return 0, ErrTableFull
	}
	t.seats[seat] = u
	t.mu.Unlock()

	u.setTable(t)
	t.room.Send("ut", t.ID, t.occupied())
	return seat + 1, nil
}

// Leave frees the seat held by u. Leaving a table u is not at is a no-op.
func (t *Table) Leave(u *User) {
	t.mu.Lock()
	found := false
	for i, s := range t.seats {
		if s == u {
			t.seats[i] = nil
			found = true
			break
		}
	}
	t.mu.Unlock()

	if !found {
		return
	}
	u.setTable(nil)
	t.room.Send("ut", t.ID, t.occupied())
}

func (t *Table) occupied() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.seats {
		if s != nil {
			n++
		}
	}
	return n
}

// String renders the table roster form used by the get-tables reply:
// the table id followed by the seated usernames.
func (t *Table) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := []string{strconv.Itoa(t.ID)}
	for _, s := range t.seats {
		if s != nil {
			parts = append(parts, s.Username())
		}
	}
	return strings.Join(parts, "|")
}
