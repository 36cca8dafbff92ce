package world

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/catalog"
	"github.com/frostvale/frostvale/internal/config"
	"github.com/frostvale/frostvale/internal/events"
	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/store"
)

// crossDomainPolicy answers the legacy client's pre-handshake policy probe.
const crossDomainPolicy = `<cross-domain-policy><allow-access-from domain="*" to-ports="*" /></cross-domain-policy>`

const storeTimeout = 5 * time.Second

// Handler is the per-world dispatch core: it frames inbound chunks, applies
// the event rate policy, decodes each frame and emits it first on the
// world-scoped registry and then on the connection-scoped one.
type Handler struct {
	Name    string
	Events  *events.Registry[*User]
	Store   store.Store
	Catalog *catalog.Catalog
	Config  *config.Config

	PlayerRooms *PlayerRooms

	log      *slog.Logger
	maxUsers int
	rooms    map[int]*Room

	// nil when rate limiting is disabled.
	addressEvents *limiterPool
	userEvents    *limiterPool

	mu       sync.Mutex
	users    map[int]*User
	sessions map[*User]bool

	loginHooks []func(*User)
}

// NewHandler wires a world's dispatch core. Rooms, tables and waddles are
// built from the catalog up front; plugin registration happens afterwards
// through the Events registry.
func NewHandler(cfg *config.Config, name string, st store.Store, cat *catalog.Catalog, log *slog.Logger) *Handler {
	h := &Handler{
		Name:        name,
		Events:      events.NewRegistry[*User](log),
		Store:       st,
		Catalog:     cat,
		Config:      cfg,
		PlayerRooms: NewPlayerRooms(st, log),
		log:         log.With(slog.String("world", name)),
		maxUsers:    cfg.Worlds[name].MaxUsers,
		users:       make(map[int]*User),
		sessions:    make(map[*User]bool),
		rooms:       make(map[int]*Room),
	}

	if cfg.RateLimit.Enabled {
		h.addressEvents = newLimiterPool(cfg.RateLimit.AddressEventsPerSecond)
		h.userEvents = newLimiterPool(cfg.RateLimit.UserEventsPerSecond)
	}

	for _, def := range cat.Rooms {
		h.rooms[def.ID] = NewRoom(def)
	}
	for _, def := range cat.Tables {
		room, ok := h.rooms[def.RoomID]
		if !ok {
			continue
		}
		room.addTable(newTable(def, room))
	}
	for _, def := range cat.Waddles {
		room, ok := h.rooms[def.RoomID]
		game, gok := h.rooms[def.GameID]
		if !ok || !gok {
			continue
		}
		room.addWaddle(newWaddle(def, room, game))
	}

	return h
}

// Log returns the world-scoped logger for plugin use.
func (h *Handler) Log() *slog.Logger {
	return h.log
}

// Room returns a static room by ID.
func (h *Handler) Room(id int) (*Room, bool) {
	r, ok := h.rooms[id]
	return r, ok
}

// SpawnRooms returns the rooms flagged as spawn points, ID ordered.
func (h *Handler) SpawnRooms() []*Room {
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		if r.Spawn {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NewSession wraps a fresh transport connection in a pre-login user.
func (h *Handler) NewSession(conn Conn) *User {
	u := newUser(conn, h.log)
	u.h = h

	h.mu.Lock()
	h.sessions[u] = true
	h.mu.Unlock()

	h.log.Debug("session opened", slog.String("addr", conn.RemoteAddr()))
	return u
}

// AddUser admits a logged-in user to the world, enforcing the population
// cap and evicting any stale session for the same account.
func (h *Handler) AddUser(u *User) error {
	h.mu.Lock()
	if len(h.users) >= h.maxUsers {
		h.mu.Unlock()
		return ErrWorldFull
	}
	old := h.users[u.ID()]
	h.users[u.ID()] = u
	count := len(h.users)
	h.mu.Unlock()

	if old != nil && old != u {
		h.log.Info("replacing stale session", slog.Int("user", u.ID()))
		old.SendError(frostvale.ErrorConnectionLost)
		h.Close(old)
	}
	h.publishPopulation(count)
	return nil
}

// UserByID returns the logged-in user with the given account ID.
func (h *Handler) UserByID(id int) (*User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.users[id]
	return u, ok
}

// UserByName returns the logged-in user with the given username.
func (h *Handler) UserByName(name string) (*User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, u := range h.users {
		if u.Username() == name {
			return u, true
		}
	}
	return nil, false
}

// Users returns a snapshot of the logged-in users.
func (h *Handler) Users() []*User {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*User, 0, len(h.users))
	for _, u := range h.users {
		out = append(out, u)
	}
	return out
}

// Population returns the logged-in user count.
func (h *Handler) Population() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users)
}

// OnLogin registers a hook run after a user completes login. Plugins use it
// to install connection-scoped handlers. Not safe to call once the server
// is accepting connections.
func (h *Handler) OnLogin(fn func(*User)) {
	h.loginHooks = append(h.loginHooks, fn)
}

// NotifyLogin fires the registered login hooks for u.
func (h *Handler) NotifyLogin(u *User) {
	for _, fn := range h.loginHooks {
		fn(u)
	}
}

// HandleChunk feeds one raw transport read through the frame splitter and
// dispatches every complete frame. Frames over the per-session event budget
// are counted and dropped without teardown.
func (h *Handler) HandleChunk(u *User, addr string, chunk []byte) {
	for _, frame := range u.splitter.Split(chunk) {
		if !h.allowEvent(u, addr) {
			h.log.Warn("event budget exceeded",
				slog.String("addr", addr),
				slog.Int("user", u.ID()))
			continue
		}

		switch {
		case protocol.IsMarkup(frame):
			h.handleMarkup(u, frame)
		case protocol.IsTagged(frame):
			h.handleTagged(u, frame)
		default:
			h.log.Debug("unknown frame prefix", slog.String("frame", frame))
		}
	}
}

func (h *Handler) allowEvent(u *User, addr string) bool {
	if h.addressEvents != nil && !h.addressEvents.Allow(addr) {
		return false
	}
	if h.userEvents != nil && !h.userEvents.Allow(u.RateLimitKey) {
		return false
	}
	return true
}

// handleMarkup decodes an XML frame. Malformed markup is logged and the
// frame dropped; the session keeps going.
func (h *Handler) handleMarkup(u *User, frame string) {
	el, err := protocol.ParseMarkup(frame)
	if err != nil {
		h.log.Warn("malformed markup frame", slog.String("error", err.Error()))
		return
	}

	if el.Tag == "policy-file-request" {
		u.SendXML(crossDomainPolicy)
		return
	}

	// Only the msg envelope carries dispatchable bodies.
	if el.Tag != "msg" {
		h.log.Debug("unhandled markup root", slog.String("tag", el.Tag))
		return
	}

	body := el.Find("body")
	if body == nil {
		h.log.Debug("markup frame without body", slog.String("tag", el.Tag))
		return
	}
	action := body.Get("action")
	if action == "" {
		return
	}

	args := protocol.Args{body}
	h.Events.Emit(action, u, args)
	u.Events.Emit(action, u, args)
}

// handleTagged decodes a tagged frame and emits it on both scopes. World
// handlers run before connection handlers for the same action.
func (h *Handler) handleTagged(u *User, frame string) {
	xt, err := protocol.ParseXT(frame)
	if err != nil {
		h.log.Warn("malformed tagged frame", slog.String("error", err.Error()))
		return
	}

	h.log.Debug("dispatch",
		slog.String("action", xt.Action),
		slog.Int("user", u.ID()))

	h.Events.Emit(xt.Action, u, xt.Args)
	u.Events.Emit(xt.Action, u, xt.Args)
}

// Close tears a session down in the fixed order: primary room, table,
// waddle, owned player room, timers, registries, bookkeeping, transport.
// Safe to call more than once; only the first call does the work.
func (h *Handler) Close(u *User) {
	if !u.markClosed() {
		return
	}

	u.LeaveRoom()
	u.LeaveTable()
	u.LeaveWaddle()

	if u.Authed() {
		h.PlayerRooms.Close(u.ID())
	}
	if u.Pets != nil {
		u.Pets.StopDecay()
	}
	u.Events.Clear()

	h.mu.Lock()
	delete(h.sessions, u)
	if u.Authed() && h.users[u.ID()] == u {
		delete(h.users, u.ID())
	}
	count := len(h.users)
	h.mu.Unlock()

	if h.userEvents != nil {
		h.userEvents.Forget(u.RateLimitKey)
	}
	if u.Authed() {
		h.publishPopulation(count)
		h.log.Info("user disconnected",
			slog.Int("user", u.ID()),
			slog.String("username", u.Username()))
	}

	u.closeConn()
}

// CloseAll tears down every open session, for server shutdown.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	open := make([]*User, 0, len(h.sessions))
	for u := range h.sessions {
		open = append(open, u)
	}
	h.mu.Unlock()

	for _, u := range open {
		h.Close(u)
	}
}

// publishPopulation pushes the live user count to the store so the server
// picker can display it. Failures are logged and ignored.
func (h *Handler) publishPopulation(count int) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := h.Store.SetPopulation(ctx, h.Name, count); err != nil {
		h.log.Warn("population publish failed", slog.String("error", err.Error()))
	}
}
