package world

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/catalog"
	"github.com/frostvale/frostvale/internal/store"
)

const maxBuddies = 100

// BuddyList tracks a user's confirmed buddies plus pending requests from
// other players. Requests are session-scoped; confirmed buddies persist.
type BuddyList struct {
	mu       sync.Mutex
	buddies  map[int]string
	requests map[int]string
}

func newBuddyList(buddies map[int]string) *BuddyList {
	if buddies == nil {
		buddies = make(map[int]string)
	}
	return &BuddyList{
		buddies:  buddies,
		requests: make(map[int]string),
	}
}

func (b *BuddyList) Includes(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.buddies[id]
	return ok
}

func (b *BuddyList) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buddies)
}

func (b *BuddyList) IsFull() bool {
	return b.Count() >= maxBuddies
}

func (b *BuddyList) Add(id int, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buddies[id] = name
}

func (b *BuddyList) Remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buddies, id)
}

// Keys returns the buddy IDs, for online-status sweeps.
func (b *BuddyList) Keys() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(b.buddies))
	for id := range b.buddies {
		ids = append(ids, id)
	}
	return ids
}

func (b *BuddyList) AddRequest(id int, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests[id] = name
}

// TakeRequest consumes a pending request, returning the requester's name.
func (b *BuddyList) TakeRequest(id int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	name, ok := b.requests[id]
	if ok {
		delete(b.requests, id)
	}
	return name, ok
}

// String renders the list reply form: id|name fields joined by %.
func (b *BuddyList) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int, 0, len(b.buddies))
	for id := range b.buddies {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id) + "|" + b.buddies[id]
	}
	return strings.Join(parts, "%")
}

// IgnoreList tracks the users whose messages this user does not receive.
type IgnoreList struct {
	mu  sync.Mutex
	ids map[int]bool
}

func newIgnoreList(ids []int) *IgnoreList {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return &IgnoreList{ids: m}
}

func (l *IgnoreList) Includes(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ids[id]
}

func (l *IgnoreList) Add(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[id] = true
}

func (l *IgnoreList) Remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ids, id)
}

func (l *IgnoreList) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]int, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "%")
}

// Inventory holds the user's owned items and runs the item purchase flow.
type Inventory struct {
	user *User
	st   store.Store
	cat  *catalog.Catalog
	log  *slog.Logger

	mu    sync.Mutex
	items map[int]bool
}

func newInventory(user *User, st store.Store, cat *catalog.Catalog, log *slog.Logger, owned []int) *Inventory {
	items := make(map[int]bool, len(owned))
	for _, id := range owned {
		items[id] = true
	}
	return &Inventory{user: user, st: st, cat: cat, log: log, items: items}
}

func (i *Inventory) Includes(id int) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.items[id]
}

func (i *Inventory) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}

// Add runs the full purchase flow for one catalog item: existence and
// whitelist check, duplicate check, balance check, then persist before any
// in-memory mutation. The reply or error packet is sent here.
func (i *Inventory) Add(ctx context.Context, itemID int) {
	if !i.cat.ItemOK(itemID) {
		i.user.SendError(frostvale.ErrorItemNotFound)
		return
	}
	if i.Includes(itemID) {
		i.user.SendError(frostvale.ErrorItemOwned)
		return
	}
	item := i.cat.Items[itemID]
	if i.user.Coins() < item.Cost {
		i.user.SendError(frostvale.ErrorInsufficientCoins)
		return
	}

	if err := i.st.CreateInventoryItem(ctx, i.user.ID(), itemID); err != nil {
		i.log.Error("inventory create failed",
			slog.Int("user", i.user.ID()),
			slog.Int("item", itemID),
			slog.String("error", err.Error()))
		return
	}
	if err := i.chargeCoins(ctx, item.Cost); err != nil {
		i.log.Error("coin charge failed",
			slog.Int("user", i.user.ID()),
			slog.String("error", err.Error()))
		return
	}

	i.mu.Lock()
	i.items[itemID] = true
	i.mu.Unlock()

	i.user.Send("ai", itemID, i.user.Coins())
}

func (i *Inventory) chargeCoins(ctx context.Context, cost int) error {
	balance := i.user.Coins() - cost
	if err := i.st.UpdateUser(ctx, i.user.ID(), store.UserUpdate{Coins: &balance}); err != nil {
		return err
	}
	i.user.AddCoins(-cost)
	return nil
}

// String renders the owned item IDs joined by %.
func (i *Inventory) String() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	ids := make([]int, 0, len(i.items))
	for id := range i.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for j, id := range ids {
		parts[j] = strconv.Itoa(id)
	}
	return strings.Join(parts, "%")
}

// FurnitureInventory holds furniture quantities and runs furniture
// purchases. Unlike items, the same furniture can be bought repeatedly.
type FurnitureInventory struct {
	user *User
	st   store.Store
	cat  *catalog.Catalog
	log  *slog.Logger

	mu         sync.Mutex
	quantities map[int]int
}

func newFurnitureInventory(user *User, st store.Store, cat *catalog.Catalog, log *slog.Logger, owned map[int]int) *FurnitureInventory {
	if owned == nil {
		owned = make(map[int]int)
	}
	return &FurnitureInventory{user: user, st: st, cat: cat, log: log, quantities: owned}
}

func (f *FurnitureInventory) Quantity(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quantities[id]
}

// Add purchases one unit of a furniture item.
func (f *FurnitureInventory) Add(ctx context.Context, furnitureID int) {
	if !f.cat.FurnitureOK(furnitureID) {
		f.user.SendError(frostvale.ErrorItemNotFound)
		return
	}
	def := f.cat.Furniture[furnitureID]
	if f.user.Coins() < def.Cost {
		f.user.SendError(frostvale.ErrorInsufficientCoins)
		return
	}

	if err := f.st.CreateFurniture(ctx, f.user.ID(), furnitureID); err != nil {
		f.log.Error("furniture create failed",
			slog.Int("user", f.user.ID()),
			slog.Int("furniture", furnitureID),
			slog.String("error", err.Error()))
		return
	}
	balance := f.user.Coins() - def.Cost
	if err := f.st.UpdateUser(ctx, f.user.ID(), store.UserUpdate{Coins: &balance}); err != nil {
		f.log.Error("coin charge failed",
			slog.Int("user", f.user.ID()),
			slog.String("error", err.Error()))
		return
	}
	f.user.AddCoins(-def.Cost)

	f.mu.Lock()
	f.quantities[furnitureID]++
	f.mu.Unlock()

	f.user.Send("af", furnitureID, f.user.Coins())
}

// String renders id|quantity fields joined by %.
func (f *FurnitureInventory) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, 0, len(f.quantities))
	for id := range f.quantities {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id) + "|" + strconv.Itoa(f.quantities[id])
	}
	return strings.Join(parts, "%")
}
