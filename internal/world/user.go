package world

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/frostvale/frostvale/internal/events"
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/store"
)

// User is one live session. Before login only the connection, the rate-limit
// key and the connection-scoped event registry exist; Load fills in identity
// once credentials check out.
type User struct {
	conn Conn
	h    *Handler
	log  *slog.Logger

	// RateLimitKey identifies this session in the per-user event limiter.
	// It is a random key, not the account ID, so pre-login traffic is
	// limited too.
	RateLimitKey string

	// Events holds handlers scoped to this connection. The registry is
	// cleared on disconnect.
	Events *events.Registry[*User]

	splitter protocol.Splitter

	mu       sync.Mutex
	authed   bool
	closed   bool
	id       int
	username string
	coins    int
	color    int
	head     int
	face     int
	neck     int
	body     int
	hand     int
	feet     int
	photo    int
	flag     int
	rank     bool
	x        int
	y        int
	frame    int
	room     *Room
	table    *Table
	waddle   *Waddle

	Buddies   *BuddyList
	Ignores   *IgnoreList
	Inventory *Inventory
	Furniture *FurnitureInventory
	Pets      *PetList
}

func newUser(conn Conn, log *slog.Logger) *User {
	key := uuid.NewString()
	return &User{
		conn:         conn,
		log:          log.With(slog.String("session", key[:8])),
		RateLimitKey: key,
		Events:       events.NewRegistry[*User](log),
		frame:        1,
	}
}

// Load adopts a persisted account record as this session's identity.
func (u *User) Load(rec *store.UserRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.authed = true
	u.id = rec.ID
	u.username = rec.Username
	u.coins = rec.Coins
	u.color = rec.Color
	u.head = rec.Head
	u.face = rec.Face
	u.neck = rec.Neck
	u.body = rec.Body
	u.hand = rec.Hand
	u.feet = rec.Feet
	u.photo = rec.Photo
	u.flag = rec.Flag
	u.rank = rec.Rank
}

// AttachCollections builds the per-user collections from their persisted
// contents. Called once, right after Load.
func (u *User) AttachCollections(h *Handler, items []int, buddies map[int]string, ignores []int, furniture map[int]int, pets []store.PetRecord) {
	u.Buddies = newBuddyList(buddies)
	u.Ignores = newIgnoreList(ignores)
	u.Inventory = newInventory(u, h.Store, h.Catalog, h.log, items)
	u.Furniture = newFurnitureInventory(u, h.Store, h.Catalog, h.log, furniture)
	u.Pets = newPetList(u, h.Store, h.Catalog, h.log, pets)
}

func (u *User) ID() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.id
}

func (u *User) Username() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.username
}

// Ranked reports whether the account carries the staff rank.
func (u *User) Ranked() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rank
}

// Authed reports whether login completed on this session.
func (u *User) Authed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.authed
}

func (u *User) Coins() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.coins
}

// SetCoins replaces the balance with a value the store already confirmed.
func (u *User) SetCoins(coins int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.coins = coins
	if u.coins < 0 {
		u.coins = 0
	}
}

// AddCoins applies a balance delta that the store already confirmed.
func (u *User) AddCoins(delta int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.coins += delta
	if u.coins < 0 {
		u.coins = 0
	}
}

// ApplyUpdate mirrors a confirmed partial account update into the session.
func (u *User) ApplyUpdate(upd store.UserUpdate) {
	u.mu.Lock()
	defer u.mu.Unlock()

	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.coins, upd.Coins)
	set(&u.color, upd.Color)
	set(&u.head, upd.Head)
	set(&u.face, upd.Face)
	set(&u.neck, upd.Neck)
	set(&u.body, upd.Body)
	set(&u.hand, upd.Hand)
	set(&u.feet, upd.Feet)
	set(&u.photo, upd.Photo)
	set(&u.flag, upd.Flag)
}

// SetPosition moves the player and resets the animation frame.
func (u *User) SetPosition(x, y int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.x = x
	u.y = y
	u.frame = 1
}

func (u *User) SetFrame(frame int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.frame = frame
}

func (u *User) Position() (x, y int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.x, u.y
}

func (u *User) Room() *Room {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.room
}

func (u *User) setRoom(r *Room) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.room = r
}

func (u *User) Table() *Table {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.table
}

func (u *User) setTable(t *Table) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.table = t
}

func (u *User) Waddle() *Waddle {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.waddle
}

func (u *User) setWaddle(w *Waddle) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.waddle = w
}

// markClosed flips the session into its terminal state exactly once.
func (u *User) markClosed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return false
	}
	u.closed = true
	return true
}

func (u *User) Closed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.closed
}

// JoinRoom moves the user into r at the given coordinates. A full target
// rejects the join before the current room is touched; otherwise the leave
// completes before the join begins, so the user is never in two rooms at
// once. Add re-checks capacity under the room lock for the racing case.
func (u *User) JoinRoom(r *Room, x, y int) error {
	if r.IsFull() {
		return ErrRoomFull
	}
	u.LeaveRoom()
	u.SetPosition(x, y)
	return r.Add(u)
}

// LeaveRoom is idempotent; a user without a room is a no-op.
func (u *User) LeaveRoom() {
	if r := u.Room(); r != nil {
		r.Remove(u)
	}
}

func (u *User) LeaveTable() {
	if t := u.Table(); t != nil {
		t.Leave(u)
	}
}

func (u *User) LeaveWaddle() {
	if w := u.Waddle(); w != nil {
		w.Leave(u)
	}
}

// RemoteAddr returns the client's network address.
func (u *User) RemoteAddr() string {
	return u.conn.RemoteAddr()
}

// Close tears the session down through the owning handler. Safe to call
// more than once.
func (u *User) Close() {
	if u.h != nil {
		u.h.Close(u)
		return
	}
	u.closeConn()
}

// Send encodes args as a tagged frame and writes it to the connection.
func (u *User) Send(args ...any) {
	u.write(protocol.MakeXT(args...))
}

// SendXML writes a raw markup frame.
func (u *User) SendXML(markup string) {
	u.write(markup)
}

// SendError delivers a code on the dedicated error action.
func (u *User) SendError(code int) {
	u.Send("e", code)
}

// SendRoom broadcasts to the user's current room, including the user.
func (u *User) SendRoom(args ...any) {
	if r := u.Room(); r != nil {
		r.Send(args...)
	}
}

func (u *User) write(frame string) {
	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, protocol.Delimiter)
	if err := u.conn.Write(buf); err != nil {
		u.log.Debug("write failed", slog.String("error", err.Error()))
	}
}

func (u *User) closeConn() {
	u.conn.Close()
}

// String renders the roster form carried in join and add-player packets.
func (u *User) String() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	rank := 0
	if u.rank {
		rank = 1
	}
	fields := []int{
		u.id, 0, u.color, u.head, u.face, u.neck, u.body, u.hand,
		u.feet, u.flag, u.photo, u.x, u.y, u.frame, 1, rank,
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strconv.Itoa(f)
	}
	parts[1] = u.username
	return strings.Join(parts, "|")
}
