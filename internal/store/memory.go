package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Memory is the in-process Store used by default and by the test suite.
// All methods are safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	nextUserID int
	nextPetID  int

	users     map[int]*UserRecord
	userNames map[string]int

	inventory map[int][]int         // userID -> itemIDs
	buddies   map[int]map[int]bool  // userID -> buddyIDs
	ignores   map[int]map[int]bool  // userID -> ignoreIDs
	pets      map[int][]*PetRecord  // userID -> pets
	furniture map[int]map[int]int   // userID -> furnitureID -> quantity
	rooms     map[int]*PlayerRoomRecord
	placed    map[int][]FurnitureRecord

	population map[string]int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextUserID: 1,
		nextPetID:  1,
		users:      make(map[int]*UserRecord),
		userNames:  make(map[string]int),
		inventory:  make(map[int][]int),
		buddies:    make(map[int]map[int]bool),
		ignores:    make(map[int]map[int]bool),
		pets:       make(map[int][]*PetRecord),
		furniture:  make(map[int]map[int]int),
		rooms:      make(map[int]*PlayerRoomRecord),
		placed:     make(map[int][]FurnitureRecord),
		population: make(map[string]int),
	}
}

func (m *Memory) FindUser(_ context.Context, username string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.userNames[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	rec := *m.users[id]
	return &rec, nil
}

func (m *Memory) FindUserByID(_ context.Context, id int) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) CreateUser(_ context.Context, rec *UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(rec.Username)
	if _, exists := m.userNames[key]; exists {
		return ErrExists
	}

	rec.ID = m.nextUserID
	m.nextUserID++
	if rec.JoinTime.IsZero() {
		rec.JoinTime = time.Now()
	}

	cp := *rec
	m.users[rec.ID] = &cp
	m.userNames[key] = rec.ID
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, id int, upd UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	upd.apply(rec)
	return nil
}

func (m *Memory) UserInventory(_ context.Context, userID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.inventory[userID]...), nil
}

func (m *Memory) CreateInventoryItem(_ context.Context, userID, itemID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inventory[userID] = append(m.inventory[userID], itemID)
	return nil
}

func (m *Memory) UserBuddies(_ context.Context, userID int) (map[int]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int]string, len(m.buddies[userID]))
	for buddyID := range m.buddies[userID] {
		if rec, ok := m.users[buddyID]; ok {
			out[buddyID] = rec.Username
		}
	}
	return out, nil
}

func (m *Memory) CreateBuddy(_ context.Context, userID, buddyID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buddies[userID] == nil {
		m.buddies[userID] = make(map[int]bool)
	}
	m.buddies[userID][buddyID] = true
	return nil
}

func (m *Memory) DeleteBuddy(_ context.Context, userID, buddyID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buddies[userID], buddyID)
	return nil
}

func (m *Memory) UserIgnores(_ context.Context, userID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]int, 0, len(m.ignores[userID]))
	for id := range m.ignores[userID] {
		out = append(out, id)
	}
	return out, nil
}

func (m *Memory) CreateIgnore(_ context.Context, userID, ignoreID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ignores[userID] == nil {
		m.ignores[userID] = make(map[int]bool)
	}
	m.ignores[userID][ignoreID] = true
	return nil
}

func (m *Memory) DeleteIgnore(_ context.Context, userID, ignoreID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ignores[userID], ignoreID)
	return nil
}

func (m *Memory) UserPets(_ context.Context, userID int) ([]PetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PetRecord, 0, len(m.pets[userID]))
	for _, p := range m.pets[userID] {
		out = append(out, *p)
	}
	return out, nil
}

func (m *Memory) CreatePet(_ context.Context, rec *PetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextPetID
	m.nextPetID++
	if rec.Adopted.IsZero() {
		rec.Adopted = time.Now()
	}

	cp := *rec
	m.pets[rec.UserID] = append(m.pets[rec.UserID], &cp)
	return nil
}

func (m *Memory) UpdatePetStats(_ context.Context, petID, health, hunger, rest int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pets := range m.pets {
		for _, p := range pets {
			if p.ID == petID {
				p.Health, p.Hunger, p.Rest = health, hunger, rest
				return nil
			}
		}
	}
	return ErrNotFound
}

func (m *Memory) UserFurnitureInventory(_ context.Context, userID int) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int]int, len(m.furniture[userID]))
	for id, qty := range m.furniture[userID] {
		out[id] = qty
	}
	return out, nil
}

func (m *Memory) CreateFurniture(_ context.Context, userID, furnitureID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.furniture[userID] == nil {
		m.furniture[userID] = make(map[int]int)
	}
	m.furniture[userID][furnitureID]++
	return nil
}

func (m *Memory) PlayerRoom(_ context.Context, userID int) (*PlayerRoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.rooms[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) SavePlayerRoom(_ context.Context, rec *PlayerRoomRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rec
	m.rooms[rec.UserID] = &cp
	return nil
}

func (m *Memory) PlayerRoomFurniture(_ context.Context, userID int) ([]FurnitureRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FurnitureRecord(nil), m.placed[userID]...), nil
}

func (m *Memory) ReplacePlayerRoomFurniture(_ context.Context, userID int, placed []FurnitureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed[userID] = append([]FurnitureRecord(nil), placed...)
	return nil
}

func (m *Memory) SetPopulation(_ context.Context, world string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.population[world] = count
	return nil
}

// Population returns the last published count for a world.
func (m *Memory) Population(world string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.population[world]
}
