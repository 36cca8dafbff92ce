package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostvale/frostvale/internal/store"
)

// TestPlayerRoomLifecycle verifies load-on-demand, the wire ID offset, the
// join prefix packet and eviction when the last visitor leaves.
func TestPlayerRoomLifecycle(t *testing.T) {
	t.Parallel()

	h, _ := testHandler(t)
	ctx := context.Background()

	owner, _ := testUser(t, h, 5, "alice")

	pr, err := h.PlayerRooms.Get(ctx, owner.ID(), owner.Username())
	require.NoError(t, err)
	assert.Equal(t, 1005, pr.Room.ID)
	assert.Equal(t, 5, pr.OwnerID)

	// A second Get returns the same active room.
	again, err := h.PlayerRooms.Get(ctx, owner.ID(), owner.Username())
	require.NoError(t, err)
	assert.Same(t, pr, again)

	visitor, conn := testUser(t, h, 6, "bob")
	require.NoError(t, h.PlayerRooms.Join(visitor, pr, 10, 10))

	frames := conn.Frames()
	require.GreaterOrEqual(t, len(frames), 2)
	assert.Equal(t, "%xt%jp%1005%1%0%0%", frames[0], "scene packet precedes the join")
	assert.Contains(t, frames[1], "%xt%jr%1005%")

	_, active := h.PlayerRooms.Active(5)
	assert.True(t, active)

	// Last visitor out evicts the room.
	visitor.LeaveRoom()
	_, active = h.PlayerRooms.Active(5)
	assert.False(t, active)
}

// TestPlayerRoomDecorPersistence verifies decor saves survive eviction and
// reload.
func TestPlayerRoomDecorPersistence(t *testing.T) {
	t.Parallel()

	h, _ := testHandler(t)
	ctx := context.Background()

	pr, err := h.PlayerRooms.Get(ctx, 5, "alice")
	require.NoError(t, err)
	require.NoError(t, h.PlayerRooms.SaveDecor(ctx, pr, 2, 7, 3))

	placed := []store.FurnitureRecord{
		{UserID: 5, FurnitureID: 201, X: 10, Y: 20, Rotation: 1, Frame: 0},
		{UserID: 5, FurnitureID: 230, X: 30, Y: 40, Rotation: 2, Frame: 1},
	}
	require.NoError(t, h.PlayerRooms.SaveFurniture(ctx, pr, placed))
	assert.Equal(t, "201|10|20|1|0,230|30|40|2|1", pr.FurnitureString())

	// Reload from the store after eviction.
	h.PlayerRooms.evict(5)
	reloaded, err := h.PlayerRooms.Get(ctx, 5, "alice")
	require.NoError(t, err)
	require.NotSame(t, pr, reloaded)

	roomType, music, floor := reloaded.Decor()
	assert.Equal(t, 2, roomType)
	assert.Equal(t, 7, music)
	assert.Equal(t, 3, floor)
	assert.Equal(t, "201|10|20|1|0,230|30|40|2|1", reloaded.FurnitureString())
}

// TestPlayerRoomJoinCarriesFurniture verifies the scene packet includes the
// placed furniture when the room has any.
func TestPlayerRoomJoinCarriesFurniture(t *testing.T) {
	t.Parallel()

	h, _ := testHandler(t)
	ctx := context.Background()

	pr, err := h.PlayerRooms.Get(ctx, 5, "alice")
	require.NoError(t, err)
	placed := []store.FurnitureRecord{
		{UserID: 5, FurnitureID: 201, X: 10, Y: 20, Rotation: 1},
	}
	require.NoError(t, h.PlayerRooms.SaveFurniture(ctx, pr, placed))

	visitor, conn := testUser(t, h, 6, "bob")
	require.NoError(t, h.PlayerRooms.Join(visitor, pr, 0, 0))
	assert.Equal(t, "%xt%jp%1005%1%0%0%201|10|20|1|0%", conn.Frames()[0])
}

// TestOpenRoomListing verifies the open list add, remove and rendering.
func TestOpenRoomListing(t *testing.T) {
	t.Parallel()

	h, _ := testHandler(t)

	h.PlayerRooms.Open(5, "alice")
	h.PlayerRooms.Open(3, "bob")
	assert.True(t, h.PlayerRooms.IsOpen(5))

	assert.Equal(t, []any{"1003|bob", "1005|alice"}, h.PlayerRooms.OpenRooms())

	h.PlayerRooms.Close(5)
	assert.False(t, h.PlayerRooms.IsOpen(5))
	assert.Equal(t, []any{"1003|bob"}, h.PlayerRooms.OpenRooms())
}
