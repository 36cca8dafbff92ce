// Package catalog holds the static game-content definitions: read-only
// lookup tables for items, pets, rooms, furniture and player-room upgrades,
// each keyed by identifier and optionally filtered by a whitelist.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Item is a wearable or collectible catalog entry.
type Item struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Type   int    `json:"type"`
	Cost   int    `json:"cost"`
	Member bool   `json:"member"`
}

// PetType defines an adoptable species and its stat ceilings.
type PetType struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Cost      int    `json:"cost"`
	MaxHealth int    `json:"maxHealth"`
	MaxHunger int    `json:"maxHunger"`
	MaxRest   int    `json:"maxRest"`
}

// RoomDef describes one world room.
type RoomDef struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Member   bool   `json:"member"`
	MaxUsers int    `json:"maxUsers"`
	Game     bool   `json:"game"`
	Spawn    bool   `json:"spawn"`
}

// TableDef attaches a game table to a room.
type TableDef struct {
	ID     int    `json:"id"`
	RoomID int    `json:"roomId"`
	Type   string `json:"type"`
}

// WaddleDef attaches a waddle (cooperative game queue) to a room, pointing
// at the game room its members move into when every seat fills.
type WaddleDef struct {
	ID     int `json:"id"`
	RoomID int `json:"roomId"`
	Seats  int `json:"seats"`
	GameID int `json:"gameId"`
}

// PlayerRoomType is a purchasable player-room upgrade.
type PlayerRoomType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

// FurnitureDef is a purchasable furniture item.
type FurnitureDef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

// Whitelist restricts which catalog entries are purchasable when enabled.
type Whitelist struct {
	Enabled     bool  `json:"enabled"`
	Items       []int `json:"items"`
	Pets        []int `json:"pets"`
	Furniture   []int `json:"furniture"`
	PlayerRooms []int `json:"playerRooms"`
}

// Catalog is the full static content set for one world.
type Catalog struct {
	Items       map[int]Item           `json:"items"`
	Pets        map[int]PetType        `json:"pets"`
	Rooms       []RoomDef              `json:"rooms"`
	Tables      []TableDef             `json:"tables"`
	Waddles     []WaddleDef            `json:"waddles"`
	Furniture   map[int]FurnitureDef   `json:"furniture"`
	PlayerRooms map[int]PlayerRoomType `json:"playerRooms"`
	Whitelist   Whitelist              `json:"whitelist"`
}

// Load reads a catalog JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return &c, nil
}

// ItemOK reports whether the item exists and passes the whitelist.
func (c *Catalog) ItemOK(id int) bool {
	if _, ok := c.Items[id]; !ok {
		return false
	}
	return c.allowed(id, c.Whitelist.Items)
}

// PetOK reports whether the pet type exists and passes the whitelist.
func (c *Catalog) PetOK(id int) bool {
	if _, ok := c.Pets[id]; !ok {
		return false
	}
	return c.allowed(id, c.Whitelist.Pets)
}

// FurnitureOK reports whether the furniture exists and passes the whitelist.
func (c *Catalog) FurnitureOK(id int) bool {
	if _, ok := c.Furniture[id]; !ok {
		return false
	}
	return c.allowed(id, c.Whitelist.Furniture)
}

// PlayerRoomOK reports whether the upgrade exists and passes the whitelist.
func (c *Catalog) PlayerRoomOK(id int) bool {
	if _, ok := c.PlayerRooms[id]; !ok {
		return false
	}
	return c.allowed(id, c.Whitelist.PlayerRooms)
}

func (c *Catalog) allowed(id int, list []int) bool {
	if !c.Whitelist.Enabled {
		return true
	}
	for _, allowed := range list {
		if allowed == id {
			return true
		}
	}
	return false
}
