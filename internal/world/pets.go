package world

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/frostvale/frostvale"
	"github.com/frostvale/frostvale/internal/catalog"
	"github.com/frostvale/frostvale/internal/store"
)

const (
	maxPets = 8

	// petDecayInterval is how often every pet loses one point of each
	// stat. The next tick is scheduled only after the previous sweep
	// finishes, so a slow store never stacks sweeps.
	petDecayInterval = 10 * time.Minute

	petDecayStep = 1
)

// Pet names are letters and spaces only, 3 to 12 characters, starting with
// a letter.
var petNameForm = regexp.MustCompile(`^[A-Za-z][A-Za-z ]{2,11}$`)

// Pet is one adopted pet. Stats are mutated from both command handlers and
// the decay sweep, so they sit behind the pet's own lock.
type Pet struct {
	ID      int
	TypeID  int
	Name    string
	Adopted time.Time

	maxHealth int
	maxHunger int
	maxRest   int

	mu     sync.Mutex
	health int
	hunger int
	rest   int
	x      int
	y      int
}

func newPet(rec store.PetRecord, typ catalog.PetType) *Pet {
	return &Pet{
		ID:        rec.ID,
		TypeID:    rec.TypeID,
		Name:      rec.Name,
		Adopted:   rec.Adopted,
		maxHealth: typ.MaxHealth,
		maxHunger: typ.MaxHunger,
		maxRest:   typ.MaxRest,
		health:    rec.Health,
		hunger:    rec.Hunger,
		rest:      rec.Rest,
	}
}

// Stats returns the current health, hunger and rest.
func (p *Pet) Stats() (health, hunger, rest int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.health, p.hunger, p.rest
}

// Feed restores hunger and a little health.
func (p *Pet) Feed() {
	p.adjust(5, 20, 0)
}

// Treat restores a little hunger.
func (p *Pet) Treat() {
	p.adjust(0, 10, 0)
}

// Play restores health at the cost of rest.
func (p *Pet) Play() {
	p.adjust(15, -5, -10)
}

// Rest restores rest.
func (p *Pet) Rest() {
	p.adjust(0, 0, 25)
}

// Decay applies one tick of stat loss.
func (p *Pet) Decay() {
	p.adjust(-petDecayStep, -petDecayStep, -petDecayStep)
}

func (p *Pet) adjust(dh, dhu, dr int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health = clamp(p.health+dh, 0, p.maxHealth)
	p.hunger = clamp(p.hunger+dhu, 0, p.maxHunger)
	p.rest = clamp(p.rest+dr, 0, p.maxRest)
}

// Move records the pet's position inside the owner's room.
func (p *Pet) Move(x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.x = x
	p.y = y
}

// String renders the pet roster form carried by the pet packets.
func (p *Pet) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	fields := []int{
		p.ID, p.TypeID, 0, p.health, p.hunger, p.rest, p.x, p.y,
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strconv.Itoa(f)
	}
	parts[2] = p.Name
	return strings.Join(parts, "|")
}

// PetList holds a user's pets and owns their decay timer. The timer starts
// at login and stops at teardown; each sweep reschedules itself only after
// the previous one completes.
type PetList struct {
	user *User
	st   store.Store
	cat  *catalog.Catalog
	log  *slog.Logger

	mu   sync.Mutex
	pets map[int]*Pet

	stopOnce sync.Once
	stop     chan struct{}
}

func newPetList(user *User, st store.Store, cat *catalog.Catalog, log *slog.Logger, recs []store.PetRecord) *PetList {
	pets := make(map[int]*Pet, len(recs))
	for _, rec := range recs {
		typ, ok := cat.Pets[rec.TypeID]
		if !ok {
			continue
		}
		pets[rec.ID] = newPet(rec, typ)
	}
	return &PetList{
		user: user,
		st:   st,
		cat:  cat,
		log:  log,
		pets: pets,
		stop: make(chan struct{}),
	}
}

func (l *PetList) Get(id int) (*Pet, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pets[id]
	return p, ok
}

func (l *PetList) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pets)
}

// Pets returns the pets ordered by ID.
func (l *PetList) Pets() []*Pet {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Pet, 0, len(l.pets))
	for _, p := range l.pets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NameOK validates an adoption name.
func (l *PetList) NameOK(name string) bool {
	return petNameForm.MatchString(name)
}

// nameInUse reports whether the user already has a pet by this name,
// case-insensitively.
func (l *PetList) nameInUse(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.pets {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Adopt runs the adoption flow: type and whitelist check, pet cap, name
// checks, balance check, persist, then add in memory and confirm.
func (l *PetList) Adopt(ctx context.Context, typeID int, name string) {
	if !l.cat.PetOK(typeID) {
		l.user.SendError(frostvale.ErrorItemNotFound)
		return
	}
	if l.Count() >= maxPets {
		l.user.SendError(frostvale.ErrorMaxPets)
		return
	}
	if !l.NameOK(name) {
		l.user.SendError(frostvale.ErrorInvalidName)
		return
	}
	if l.nameInUse(name) {
		l.user.SendError(frostvale.ErrorNameTaken)
		return
	}
	typ := l.cat.Pets[typeID]
	if l.user.Coins() < typ.Cost {
		l.user.SendError(frostvale.ErrorInsufficientCoins)
		return
	}

	rec := &store.PetRecord{
		UserID:  l.user.ID(),
		TypeID:  typeID,
		Name:    name,
		Adopted: time.Now(),
		Health:  typ.MaxHealth,
		Hunger:  typ.MaxHunger,
		Rest:    typ.MaxRest,
	}
	if err := l.st.CreatePet(ctx, rec); err != nil {
		l.log.Error("pet create failed",
			slog.Int("user", l.user.ID()),
			slog.String("error", err.Error()))
		return
	}
	balance := l.user.Coins() - typ.Cost
	if err := l.st.UpdateUser(ctx, l.user.ID(), store.UserUpdate{Coins: &balance}); err != nil {
		l.log.Error("coin charge failed",
			slog.Int("user", l.user.ID()),
			slog.String("error", err.Error()))
		return
	}
	l.user.AddCoins(-typ.Cost)

	pet := newPet(*rec, typ)
	l.mu.Lock()
	l.pets[pet.ID] = pet
	l.mu.Unlock()

	l.user.Send("pn", pet, l.user.Coins())
}

// StartDecay launches the decay goroutine.
func (l *PetList) StartDecay() {
	go l.decayLoop(petDecayInterval)
}

// StopDecay ends the decay goroutine. Safe to call more than once.
func (l *PetList) StopDecay() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *PetList) decayLoop(interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-timer.C:
			l.decayAll()
			timer.Reset(interval)
		}
	}
}

func (l *PetList) decayAll() {
	for _, pet := range l.Pets() {
		pet.Decay()
		health, hunger, rest := pet.Stats()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := l.st.UpdatePetStats(ctx, pet.ID, health, hunger, rest)
		cancel()
		if err != nil {
			l.log.Warn("pet stat save failed",
				slog.Int("pet", pet.ID),
				slog.String("error", err.Error()))
		}

		l.user.Send("ps", pet.ID, health, hunger, rest)
	}
}

// SaveStats persists a pet's current stats after a care action.
func (l *PetList) SaveStats(ctx context.Context, pet *Pet) {
	health, hunger, rest := pet.Stats()
	if err := l.st.UpdatePetStats(ctx, pet.ID, health, hunger, rest); err != nil {
		l.log.Warn("pet stat save failed",
			slog.Int("pet", pet.ID),
			slog.String("error", err.Error()))
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
