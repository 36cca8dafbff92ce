package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	rec := &UserRecord{Username: "Alice", Password: "secret", Coins: 500}
	require.NoError(t, m.CreateUser(ctx, rec))
	require.NotZero(t, rec.ID)

	// Lookup is case insensitive.
	found, err := m.FindUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)
	assert.Equal(t, 500, found.Coins)

	// Duplicate usernames are rejected.
	err = m.CreateUser(ctx, &UserRecord{Username: "ALICE"})
	assert.ErrorIs(t, err, ErrExists)

	// Partial update touches only the named fields.
	coins := 450
	require.NoError(t, m.UpdateUser(ctx, rec.ID, UserUpdate{Coins: &coins}))
	found, err = m.FindUserByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 450, found.Coins)
	assert.Equal(t, "secret", found.Password)

	_, err = m.FindUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFindReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	rec := &UserRecord{Username: "bob", Coins: 100}
	require.NoError(t, m.CreateUser(ctx, rec))

	found, err := m.FindUserByID(ctx, rec.ID)
	require.NoError(t, err)
	found.Coins = 9999

	again, err := m.FindUserByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, again.Coins, "mutating a returned record must not leak into the store")
}

func TestMemoryBuddiesAndIgnores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	alice := &UserRecord{Username: "alice"}
	bob := &UserRecord{Username: "bob"}
	require.NoError(t, m.CreateUser(ctx, alice))
	require.NoError(t, m.CreateUser(ctx, bob))

	require.NoError(t, m.CreateBuddy(ctx, alice.ID, bob.ID))
	buddies, err := m.UserBuddies(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{bob.ID: "bob"}, buddies)

	require.NoError(t, m.DeleteBuddy(ctx, alice.ID, bob.ID))
	buddies, err = m.UserBuddies(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, buddies)

	require.NoError(t, m.CreateIgnore(ctx, alice.ID, bob.ID))
	ignores, err := m.UserIgnores(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{bob.ID}, ignores)

	require.NoError(t, m.DeleteIgnore(ctx, alice.ID, bob.ID))
	ignores, err = m.UserIgnores(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ignores)
}

func TestMemoryPets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	pet := &PetRecord{UserID: 7, TypeID: 1, Name: "Fluffy", Health: 100, Hunger: 100, Rest: 100}
	require.NoError(t, m.CreatePet(ctx, pet))
	require.NotZero(t, pet.ID)
	require.False(t, pet.Adopted.IsZero())

	require.NoError(t, m.UpdatePetStats(ctx, pet.ID, 90, 80, 70))

	pets, err := m.UserPets(ctx, 7)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, 90, pets[0].Health)
	assert.Equal(t, 80, pets[0].Hunger)
	assert.Equal(t, 70, pets[0].Rest)

	assert.ErrorIs(t, m.UpdatePetStats(ctx, 999, 1, 1, 1), ErrNotFound)
}

func TestMemoryFurnitureAndPlayerRoom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateFurniture(ctx, 7, 201))
	require.NoError(t, m.CreateFurniture(ctx, 7, 201))
	require.NoError(t, m.CreateFurniture(ctx, 7, 202))

	inv, err := m.UserFurnitureInventory(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{201: 2, 202: 1}, inv)

	_, err = m.PlayerRoom(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SavePlayerRoom(ctx, &PlayerRoomRecord{UserID: 7, RoomTypeID: 3, MusicID: 2}))
	room, err := m.PlayerRoom(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, room.RoomTypeID)

	placed := []FurnitureRecord{{UserID: 7, FurnitureID: 201, X: 5, Y: 5, Rotation: 1}}
	require.NoError(t, m.ReplacePlayerRoomFurniture(ctx, 7, placed))
	got, err := m.PlayerRoomFurniture(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, placed, got)

	require.NoError(t, m.ReplacePlayerRoomFurniture(ctx, 7, nil))
	got, err = m.PlayerRoomFurniture(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryPopulation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SetPopulation(ctx, "blizzard", 42))
	assert.Equal(t, 42, m.Population("blizzard"))
	assert.Zero(t, m.Population("other"))
}
