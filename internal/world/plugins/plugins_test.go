package plugins

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostvale/frostvale/internal/catalog"
	"github.com/frostvale/frostvale/internal/config"
	"github.com/frostvale/frostvale/internal/store"
	"github.com/frostvale/frostvale/internal/world"
)

const testAddr = "203.0.113.9"

type fakeConn struct {
	mu     sync.Mutex
	frames []string
	closed bool
}

func (c *fakeConn) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, frame := range bytes.Split(p, []byte{0}) {
		if len(frame) > 0 {
			c.frames = append(c.frames, string(frame))
		}
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() string { return testAddr + ":4000" }

func (c *fakeConn) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func (c *fakeConn) has(prefix string) bool {
	for _, f := range c.Frames() {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

func testWorld(t *testing.T) (*world.Handler, *store.Memory) {
	t.Helper()

	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	st := store.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := world.NewHandler(cfg, "blizzard", st, catalog.Default(), log)
	Register(h)
	return h, st
}

func createAccount(t *testing.T, st *store.Memory, name, password string, coins int) *store.UserRecord {
	t.Helper()
	rec := &store.UserRecord{Username: name, Password: password, Coins: coins}
	require.NoError(t, st.CreateUser(context.Background(), rec))
	return rec
}

// send pushes one delimited frame through the dispatch pipeline.
func send(h *world.Handler, u *world.User, frame string) {
	h.HandleChunk(u, testAddr, append([]byte(frame), 0))
}

// loginUser drives the markup login exchange for an existing account.
func loginUser(t *testing.T, h *world.Handler, name, password string) (*world.User, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	u := h.NewSession(conn)
	send(h, u, `<msg t="sys"><body action="login"><nick>`+name+`</nick><pword>`+password+`</pword></body></msg>`)
	return u, conn
}

// TestHandshakeVersionCheck verifies allowed versions get apiOK and the
// rest apiKO.
func TestHandshakeVersionCheck(t *testing.T) {
	t.Parallel()

	h, _ := testWorld(t)
	conn := &fakeConn{}
	u := h.NewSession(conn)

	send(h, u, `<msg t="sys"><body action="verChk"><ver v="153" /></body></msg>`)
	assert.Contains(t, conn.Frames(), apiOKResponse)

	conn.Reset()
	send(h, u, `<msg t="sys"><body action="verChk"><ver v="999" /></body></msg>`)
	assert.Contains(t, conn.Frames(), apiKOResponse)
}

// TestLogin verifies the happy path: the confirmation packet, world
// admission and the published population.
func TestLogin(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	rec := createAccount(t, st, "alice", "hunter2", 500)

	u, conn := loginUser(t, h, "alice", "hunter2")

	assert.True(t, u.Authed())
	assert.Equal(t, rec.ID, u.ID())
	assert.Equal(t, 500, u.Coins())
	assert.True(t, conn.has("%xt%l%"))
	assert.Equal(t, 1, h.Population())
	assert.Equal(t, 1, st.Population("blizzard"))
}

// TestLoginRejectsBadCredentials verifies unknown names and wrong
// passwords both fail with the login error code.
func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "hunter2", 0)

	tests := []struct {
		name     string
		nick     string
		password string
	}{
		{"unknown user", "nobody", "hunter2"},
		{"wrong password", "alice", "wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, conn := loginUser(t, h, tt.nick, tt.password)
			assert.False(t, u.Authed())
			assert.Contains(t, conn.Frames(), "%xt%e%101%")
		})
	}
}

// TestLoginRejectsBanned verifies banned accounts cannot log in.
func TestLoginRejectsBanned(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	rec := &store.UserRecord{Username: "mallory", Password: "pw", PermaBan: true}
	require.NoError(t, st.CreateUser(context.Background(), rec))

	u, conn := loginUser(t, h, "mallory", "pw")
	assert.False(t, u.Authed())
	assert.Contains(t, conn.Frames(), "%xt%e%101%")
}

// TestJoinServerSpawns verifies js lands the user in a spawn room.
func TestJoinServerSpawns(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "pw", 0)
	u, conn := loginUser(t, h, "alice", "pw")

	conn.Reset()
	send(h, u, "%xt%s%js%")

	room := u.Room()
	require.NotNil(t, room)
	assert.True(t, room.Spawn)
	assert.True(t, conn.has("%xt%jr%"))
}

// TestBuddyListServedOnce verifies the fire-once list handler: the first
// request answers, repeats are silent.
func TestBuddyListServedOnce(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "pw", 0)
	u, conn := loginUser(t, h, "alice", "pw")

	conn.Reset()
	send(h, u, "%xt%s%bl%")
	assert.True(t, conn.has("%xt%bl%"))

	conn.Reset()
	send(h, u, "%xt%s%bl%")
	assert.False(t, conn.has("%xt%bl%"), "second request must be silent")
}

// TestBuddyRequestAccept verifies the request/accept exchange persists the
// link both ways and updates both sessions.
func TestBuddyRequestAccept(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	a := createAccount(t, st, "alice", "pw", 0)
	b := createAccount(t, st, "bob", "pw", 0)

	alice, connA := loginUser(t, h, "alice", "pw")
	bob, connB := loginUser(t, h, "bob", "pw")

	send(h, alice, "%xt%s%bq%"+itoa(b.ID)+"%")
	assert.True(t, connB.has("%xt%bq%"+itoa(a.ID)+"%alice%"))

	connA.Reset()
	send(h, bob, "%xt%s%ba%"+itoa(a.ID)+"%")

	assert.True(t, alice.Buddies.Includes(b.ID))
	assert.True(t, bob.Buddies.Includes(a.ID))
	assert.True(t, connA.has("%xt%ba%"+itoa(b.ID)+"%bob%"))

	stored, err := st.UserBuddies(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", stored[b.ID])
}

// TestBuddyDecline verifies bd consumes the pending request and notifies
// the online requester without creating a link.
func TestBuddyDecline(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	a := createAccount(t, st, "alice", "pw", 0)
	b := createAccount(t, st, "bob", "pw", 0)

	alice, connA := loginUser(t, h, "alice", "pw")
	bob, _ := loginUser(t, h, "bob", "pw")

	send(h, alice, "%xt%s%bq%"+itoa(b.ID)+"%")

	connA.Reset()
	send(h, bob, "%xt%s%bd%"+itoa(a.ID)+"%")

	assert.True(t, connA.has("%xt%bd%"+itoa(b.ID)+"%bob%"))
	assert.False(t, alice.Buddies.Includes(b.ID))
	assert.False(t, bob.Buddies.Includes(a.ID))

	// A second decline has nothing to consume.
	connA.Reset()
	send(h, bob, "%xt%s%bd%"+itoa(a.ID)+"%")
	assert.False(t, connA.has("%xt%bd%"))
}

// TestBuddyOnlineList verifies go reports only the buddies currently
// connected.
func TestBuddyOnlineList(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	a := createAccount(t, st, "alice", "pw", 0)
	b := createAccount(t, st, "bob", "pw", 0)
	c := createAccount(t, st, "carol", "pw", 0)

	ctx := context.Background()
	require.NoError(t, st.CreateBuddy(ctx, a.ID, b.ID))
	require.NoError(t, st.CreateBuddy(ctx, a.ID, c.ID))

	alice, connA := loginUser(t, h, "alice", "pw")
	loginUser(t, h, "bob", "pw") // carol stays offline

	connA.Reset()
	send(h, alice, "%xt%s%go%")
	assert.Contains(t, connA.Frames(), "%xt%go%"+itoa(b.ID)+"%")
}

// TestIgnoreFiltersChat verifies room chat skips members ignoring the
// sender.
func TestIgnoreFiltersChat(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	a := createAccount(t, st, "alice", "pw", 0)
	createAccount(t, st, "bob", "pw", 0)

	alice, _ := loginUser(t, h, "alice", "pw")
	bob, connB := loginUser(t, h, "bob", "pw")

	town, ok := h.Room(100)
	require.True(t, ok)
	require.NoError(t, alice.JoinRoom(town, 0, 0))
	require.NoError(t, bob.JoinRoom(town, 0, 0))

	send(h, bob, "%xt%s%an%"+itoa(a.ID)+"%")
	require.True(t, bob.Ignores.Includes(a.ID))

	connB.Reset()
	send(h, alice, "%xt%s%sm%hello there%")
	assert.False(t, connB.has("%xt%sm%"), "ignored sender must be filtered")
}

// TestGameOverAwardsCoins verifies zo pays a tenth of the reported score
// inside a game room and clamps the balance to the coin ceiling.
func TestGameOverAwardsCoins(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	rec := createAccount(t, st, "alice", "pw", 100)
	u, conn := loginUser(t, h, "alice", "pw")

	town, ok := h.Room(100)
	require.True(t, ok)
	require.NoError(t, u.JoinRoom(town, 0, 0))

	send(h, u, "%xt%s%zo%50%")
	assert.Equal(t, 100, u.Coins(), "earnings outside game rooms are rejected")

	game, ok := h.Room(900)
	require.True(t, ok)
	require.NoError(t, u.JoinRoom(game, 0, 0))

	conn.Reset()
	send(h, u, "%xt%s%zo%450%")
	assert.Equal(t, 145, u.Coins())
	assert.True(t, conn.has("%xt%zo%"))

	stored, err := st.FindUserByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 145, stored.Coins)

	// The settled balance never exceeds the ceiling.
	send(h, u, "%xt%s%zo%999999999%")
	assert.Equal(t, 1000000, u.Coins())
}

// TestGameOverDefaultScoreGames verifies the sled rooms pay the score out
// directly instead of a tenth of it.
func TestGameOverDefaultScoreGames(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "pw", 100)
	u, _ := loginUser(t, h, "alice", "pw")

	sled, ok := h.Room(904)
	require.True(t, ok)
	require.NoError(t, u.JoinRoom(sled, 0, 0))

	send(h, u, "%xt%s%zo%20%")
	assert.Equal(t, 120, u.Coins())
}

// TestCoinBalanceReport verifies ac reports the balance, and only inside a
// game room.
func TestCoinBalanceReport(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "pw", 250)
	u, conn := loginUser(t, h, "alice", "pw")

	town, ok := h.Room(100)
	require.True(t, ok)
	require.NoError(t, u.JoinRoom(town, 0, 0))

	conn.Reset()
	send(h, u, "%xt%s%ac%")
	assert.False(t, conn.has("%xt%ac%"))

	game, ok := h.Room(900)
	require.True(t, ok)
	require.NoError(t, u.JoinRoom(game, 0, 0))

	conn.Reset()
	send(h, u, "%xt%s%ac%")
	assert.True(t, conn.has("%xt%ac%250%"))
}

// TestClothingUpdateBroadcasts verifies an equip persists, mutates the
// session and reaches the room.
func TestClothingUpdateBroadcasts(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	a := createAccount(t, st, "alice", "pw", 1000)
	createAccount(t, st, "bob", "pw", 0)

	alice, _ := loginUser(t, h, "alice", "pw")
	bob, connB := loginUser(t, h, "bob", "pw")

	town, ok := h.Room(100)
	require.True(t, ok)
	require.NoError(t, alice.JoinRoom(town, 0, 0))
	require.NoError(t, bob.JoinRoom(town, 0, 0))

	send(h, alice, "%xt%s%ai%413%")
	require.True(t, alice.Inventory.Includes(413))

	connB.Reset()
	send(h, alice, "%xt%s%uph%413%")
	assert.True(t, connB.has("%xt%uph%"+itoa(a.ID)+"%413%"))

	stored, err := st.FindUserByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 413, stored.Head)
}

// TestClothingUpdateRequiresOwnership verifies equipping an unowned item
// is ignored.
func TestClothingUpdateRequiresOwnership(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	a := createAccount(t, st, "alice", "pw", 0)
	u, _ := loginUser(t, h, "alice", "pw")

	send(h, u, "%xt%s%uph%413%")

	stored, err := st.FindUserByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Head)
}

// TestPetAdoptionOverWire verifies %xt%s%namePet%3%Fluffy% end to end.
func TestPetAdoptionOverWire(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "pw", 1000)
	u, conn := loginUser(t, h, "alice", "pw")

	conn.Reset()
	send(h, u, "%xt%s%namePet%3%Fluffy%")

	require.Equal(t, 1, u.Pets.Count())
	assert.Equal(t, "Fluffy", u.Pets.Pets()[0].Name)
	assert.Equal(t, 200, u.Coins())
	assert.True(t, conn.has("%xt%pn%"))
}

// TestPetRestOverWire verifies %xt%s%sendRest%<petID>% broadcasts the new
// stats to the owner's room.
func TestPetRestOverWire(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "pw", 1000)
	u, conn := loginUser(t, h, "alice", "pw")

	town, ok := h.Room(100)
	require.True(t, ok)
	require.NoError(t, u.JoinRoom(town, 0, 0))

	send(h, u, "%xt%s%namePet%0%Fluffy%")
	require.Equal(t, 1, u.Pets.Count())
	petID := u.Pets.Pets()[0].ID

	conn.Reset()
	send(h, u, "%xt%s%sendRest%"+itoa(petID)+"%")
	assert.True(t, conn.has("%xt%pr%"), "frames: %v", conn.Frames())
}

// TestPlayerRoomOverWire verifies open/list/join over the wire, including
// the reserved ID range.
func TestPlayerRoomOverWire(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	a := createAccount(t, st, "alice", "pw", 0)
	createAccount(t, st, "bob", "pw", 0)

	alice, _ := loginUser(t, h, "alice", "pw")
	bob, connB := loginUser(t, h, "bob", "pw")

	// Alice moves home and opens her room.
	send(h, alice, "%xt%s%jp%"+itoa(a.ID)+"%")
	require.NotNil(t, alice.Room())
	assert.Equal(t, a.ID+world.PlayerRoomOffset, alice.Room().ID)
	send(h, alice, "%xt%s%or%")

	connB.Reset()
	send(h, bob, "%xt%s%gr%")
	assert.True(t, connB.has("%xt%gr%"+itoa(a.ID+world.PlayerRoomOffset)+"|alice%"))

	send(h, bob, "%xt%s%jp%"+itoa(a.ID+world.PlayerRoomOffset)+"%")
	require.NotNil(t, bob.Room())
	assert.Equal(t, alice.Room(), bob.Room())
}

// TestWaddleOverWire verifies the lodge waddle flow through the wire
// protocol: join, fill, and the move into the game room.
func TestWaddleOverWire(t *testing.T) {
	t.Parallel()

	h, st := testWorld(t)
	createAccount(t, st, "alice", "pw", 0)
	createAccount(t, st, "bob", "pw", 0)

	alice, _ := loginUser(t, h, "alice", "pw")
	bob, connB := loginUser(t, h, "bob", "pw")

	lodge, ok := h.Room(230)
	require.True(t, ok)
	require.NoError(t, alice.JoinRoom(lodge, 0, 0))
	require.NoError(t, bob.JoinRoom(lodge, 0, 0))

	send(h, alice, "%xt%s%jw%102%")
	connB.Reset()
	send(h, bob, "%xt%s%jw%102%")

	game, ok := h.Room(906)
	require.True(t, ok)
	assert.Equal(t, game, alice.Room())
	assert.Equal(t, game, bob.Room())
	assert.True(t, connB.has("%xt%sw%906%"))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
