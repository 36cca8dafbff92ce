// Package store defines the data-access collaborator boundary. The world
// core treats every store failure as non-fatal: the operation is logged and
// aborted with in-memory state unchanged, and the connection stays up.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports a missing record. Callers distinguish it from
// transient store failures, which abort the operation instead.
var ErrNotFound = errors.New("store: not found")

// ErrExists reports a uniqueness violation, e.g. a taken username.
var ErrExists = errors.New("store: already exists")

// UserRecord is the persisted shape of an account.
type UserRecord struct {
	ID       int
	Username string
	Password string
	Coins    int
	Color    int
	Head     int
	Face     int
	Neck     int
	Body     int
	Hand     int
	Feet     int
	Photo    int
	Flag     int
	Rank     bool
	PermaBan bool
	JoinTime time.Time
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Coins *int
	Color *int
	Head  *int
	Face  *int
	Neck  *int
	Body  *int
	Hand  *int
	Feet  *int
	Photo *int
	Flag  *int
}

// PetRecord is one adopted pet.
type PetRecord struct {
	ID      int
	UserID  int
	TypeID  int
	Name    string
	Adopted time.Time
	Health  int
	Hunger  int
	Rest    int
}

// FurnitureRecord is one placed furniture item in a player room.
type FurnitureRecord struct {
	UserID      int
	FurnitureID int
	X           int
	Y           int
	Rotation    int
	Frame       int
}

// PlayerRoomRecord is the persisted state of a player-owned room.
type PlayerRoomRecord struct {
	UserID     int
	RoomTypeID int
	MusicID    int
	FloorID    int
}

// Store is the asynchronous data-access interface. Every method may fail
// with a transient store error; implementations must not partially apply a
// mutation before confirming it.
type Store interface {
	FindUser(ctx context.Context, username string) (*UserRecord, error)
	FindUserByID(ctx context.Context, id int) (*UserRecord, error)
	CreateUser(ctx context.Context, rec *UserRecord) error
	UpdateUser(ctx context.Context, id int, upd UserUpdate) error

	UserInventory(ctx context.Context, userID int) ([]int, error)
	CreateInventoryItem(ctx context.Context, userID, itemID int) error

	UserBuddies(ctx context.Context, userID int) (map[int]string, error)
	CreateBuddy(ctx context.Context, userID, buddyID int) error
	DeleteBuddy(ctx context.Context, userID, buddyID int) error

	UserIgnores(ctx context.Context, userID int) ([]int, error)
	CreateIgnore(ctx context.Context, userID, ignoreID int) error
	DeleteIgnore(ctx context.Context, userID, ignoreID int) error

	UserPets(ctx context.Context, userID int) ([]PetRecord, error)
	CreatePet(ctx context.Context, rec *PetRecord) error
	UpdatePetStats(ctx context.Context, petID, health, hunger, rest int) error

	UserFurnitureInventory(ctx context.Context, userID int) (map[int]int, error)
	CreateFurniture(ctx context.Context, userID, furnitureID int) error

	PlayerRoom(ctx context.Context, userID int) (*PlayerRoomRecord, error)
	SavePlayerRoom(ctx context.Context, rec *PlayerRoomRecord) error
	PlayerRoomFurniture(ctx context.Context, userID int) ([]FurnitureRecord, error)
	ReplacePlayerRoomFurniture(ctx context.Context, userID int, placed []FurnitureRecord) error

	// SetPopulation publishes the live user count for one world so the
	// server picker can show it.
	SetPopulation(ctx context.Context, world string, count int) error
}

func (u UserUpdate) apply(rec *UserRecord) {
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&rec.Coins, u.Coins)
	set(&rec.Color, u.Color)
	set(&rec.Head, u.Head)
	set(&rec.Face, u.Face)
	set(&rec.Neck, u.Neck)
	set(&rec.Body, u.Body)
	set(&rec.Hand, u.Hand)
	set(&rec.Feet, u.Feet)
	set(&rec.Photo, u.Photo)
	set(&rec.Flag, u.Flag)
}
