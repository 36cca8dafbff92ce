package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis instance. Records live in hashes and
// sets keyed per user, and the world population counter is a shared hash so
// every world process can publish into it.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to addr ("host:port") and verifies the connection.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// Close releases the client's connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func userKey(id int) string          { return fmt.Sprintf("user:%d", id) }
func userNameKey(name string) string { return "user:name:" + strings.ToLower(name) }
func inventoryKey(id int) string     { return fmt.Sprintf("inventory:%d", id) }
func buddiesKey(id int) string       { return fmt.Sprintf("buddies:%d", id) }
func ignoresKey(id int) string       { return fmt.Sprintf("ignores:%d", id) }
func petsKey(id int) string          { return fmt.Sprintf("pets:%d", id) }
func petOwnerKey(petID int) string   { return fmt.Sprintf("pet:owner:%d", petID) }
func furnitureKey(id int) string     { return fmt.Sprintf("furniture:%d", id) }
func playerRoomKey(id int) string    { return fmt.Sprintf("playerroom:%d", id) }
func placedKey(id int) string        { return fmt.Sprintf("playerroom:furniture:%d", id) }

const populationKey = "world:population"

func (r *Redis) FindUser(ctx context.Context, username string) (*UserRecord, error) {
	idStr, err := r.rdb.Get(ctx, userNameKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find user: %w", err)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, fmt.Errorf("store: corrupt user id %q: %w", idStr, err)
	}
	return r.FindUserByID(ctx, id)
}

func (r *Redis) FindUserByID(ctx context.Context, id int) (*UserRecord, error) {
	data, err := r.rdb.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find user by id: %w", err)
	}

	var rec UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode user %d: %w", id, err)
	}
	return &rec, nil
}

func (r *Redis) CreateUser(ctx context.Context, rec *UserRecord) error {
	id, err := r.rdb.Incr(ctx, "seq:user").Result()
	if err != nil {
		return fmt.Errorf("store: allocate user id: %w", err)
	}
	rec.ID = int(id)
	if rec.JoinTime.IsZero() {
		rec.JoinTime = time.Now()
	}

	ok, err := r.rdb.SetNX(ctx, userNameKey(rec.Username), rec.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("store: reserve username: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return r.saveUser(ctx, rec)
}

func (r *Redis) UpdateUser(ctx context.Context, id int, upd UserUpdate) error {
	rec, err := r.FindUserByID(ctx, id)
	if err != nil {
		return err
	}
	upd.apply(rec)
	return r.saveUser(ctx, rec)
}

func (r *Redis) saveUser(ctx context.Context, rec *UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode user: %w", err)
	}
	if err := r.rdb.Set(ctx, userKey(rec.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("store: save user: %w", err)
	}
	return nil
}

func (r *Redis) UserInventory(ctx context.Context, userID int) ([]int, error) {
	return r.intMembers(ctx, inventoryKey(userID))
}

func (r *Redis) CreateInventoryItem(ctx context.Context, userID, itemID int) error {
	return r.rdb.SAdd(ctx, inventoryKey(userID), itemID).Err()
}

func (r *Redis) UserBuddies(ctx context.Context, userID int) (map[int]string, error) {
	ids, err := r.intMembers(ctx, buddiesKey(userID))
	if err != nil {
		return nil, err
	}

	out := make(map[int]string, len(ids))
	for _, id := range ids {
		rec, err := r.FindUserByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = rec.Username
	}
	return out, nil
}

func (r *Redis) CreateBuddy(ctx context.Context, userID, buddyID int) error {
	return r.rdb.SAdd(ctx, buddiesKey(userID), buddyID).Err()
}

func (r *Redis) DeleteBuddy(ctx context.Context, userID, buddyID int) error {
	return r.rdb.SRem(ctx, buddiesKey(userID), buddyID).Err()
}

func (r *Redis) UserIgnores(ctx context.Context, userID int) ([]int, error) {
	return r.intMembers(ctx, ignoresKey(userID))
}

func (r *Redis) CreateIgnore(ctx context.Context, userID, ignoreID int) error {
	return r.rdb.SAdd(ctx, ignoresKey(userID), ignoreID).Err()
}

func (r *Redis) DeleteIgnore(ctx context.Context, userID, ignoreID int) error {
	return r.rdb.SRem(ctx, ignoresKey(userID), ignoreID).Err()
}

func (r *Redis) UserPets(ctx context.Context, userID int) ([]PetRecord, error) {
	fields, err := r.rdb.HGetAll(ctx, petsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: user pets: %w", err)
	}

	out := make([]PetRecord, 0, len(fields))
	for _, raw := range fields {
		var rec PetRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("store: decode pet: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Redis) CreatePet(ctx context.Context, rec *PetRecord) error {
	id, err := r.rdb.Incr(ctx, "seq:pet").Result()
	if err != nil {
		return fmt.Errorf("store: allocate pet id: %w", err)
	}
	rec.ID = int(id)
	if rec.Adopted.IsZero() {
		rec.Adopted = time.Now()
	}

	if err := r.rdb.Set(ctx, petOwnerKey(rec.ID), rec.UserID, 0).Err(); err != nil {
		return fmt.Errorf("store: pet owner index: %w", err)
	}
	return r.savePet(ctx, rec)
}

func (r *Redis) UpdatePetStats(ctx context.Context, petID, health, hunger, rest int) error {
	ownerStr, err := r.rdb.Get(ctx, petOwnerKey(petID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: pet owner: %w", err)
	}

	owner, _ := strconv.Atoi(ownerStr)
	pets, err := r.UserPets(ctx, owner)
	if err != nil {
		return err
	}

	for i := range pets {
		if pets[i].ID == petID {
			pets[i].Health, pets[i].Hunger, pets[i].Rest = health, hunger, rest
			return r.savePet(ctx, &pets[i])
		}
	}
	return ErrNotFound
}

func (r *Redis) savePet(ctx context.Context, rec *PetRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode pet: %w", err)
	}
	field := strconv.Itoa(rec.ID)
	if err := r.rdb.HSet(ctx, petsKey(rec.UserID), field, data).Err(); err != nil {
		return fmt.Errorf("store: save pet: %w", err)
	}
	return nil
}

func (r *Redis) UserFurnitureInventory(ctx context.Context, userID int) (map[int]int, error) {
	fields, err := r.rdb.HGetAll(ctx, furnitureKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: furniture inventory: %w", err)
	}

	out := make(map[int]int, len(fields))
	for k, v := range fields {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[id] = qty
	}
	return out, nil
}

func (r *Redis) CreateFurniture(ctx context.Context, userID, furnitureID int) error {
	return r.rdb.HIncrBy(ctx, furnitureKey(userID), strconv.Itoa(furnitureID), 1).Err()
}

func (r *Redis) PlayerRoom(ctx context.Context, userID int) (*PlayerRoomRecord, error) {
	data, err := r.rdb.Get(ctx, playerRoomKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: player room: %w", err)
	}

	var rec PlayerRoomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode player room: %w", err)
	}
	return &rec, nil
}

func (r *Redis) SavePlayerRoom(ctx context.Context, rec *PlayerRoomRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode player room: %w", err)
	}
	return r.rdb.Set(ctx, playerRoomKey(rec.UserID), data, 0).Err()
}

func (r *Redis) PlayerRoomFurniture(ctx context.Context, userID int) ([]FurnitureRecord, error) {
	data, err := r.rdb.Get(ctx, placedKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: placed furniture: %w", err)
	}

	var out []FurnitureRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("store: decode placed furniture: %w", err)
	}
	return out, nil
}

func (r *Redis) ReplacePlayerRoomFurniture(ctx context.Context, userID int, placed []FurnitureRecord) error {
	data, err := json.Marshal(placed)
	if err != nil {
		return fmt.Errorf("store: encode placed furniture: %w", err)
	}
	return r.rdb.Set(ctx, placedKey(userID), data, 0).Err()
}

func (r *Redis) SetPopulation(ctx context.Context, world string, count int) error {
	return r.rdb.HSet(ctx, populationKey, world, count).Err()
}

func (r *Redis) intMembers(ctx context.Context, key string) ([]int, error) {
	members, err := r.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("store: members of %s: %w", key, err)
	}

	out := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
