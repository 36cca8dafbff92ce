package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultCatalogShape sanity checks the built-in content set
func TestDefaultCatalogShape(t *testing.T) {
	t.Parallel()

	c := Default()

	if len(c.Rooms) == 0 {
		t.Fatal("default catalog has no rooms")
	}

	spawns := 0
	roomIDs := make(map[int]bool)
	for _, r := range c.Rooms {
		roomIDs[r.ID] = true
		if r.Spawn {
			spawns++
		}
	}
	if spawns == 0 {
		t.Error("default catalog has no spawn rooms")
	}

	// Every table and waddle must reference rooms that exist.
	for _, tb := range c.Tables {
		if !roomIDs[tb.RoomID] {
			t.Errorf("table %d references missing room %d", tb.ID, tb.RoomID)
		}
	}
	for _, w := range c.Waddles {
		if !roomIDs[w.RoomID] {
			t.Errorf("waddle %d references missing room %d", w.ID, w.RoomID)
		}
		if !roomIDs[w.GameID] {
			t.Errorf("waddle %d references missing game room %d", w.ID, w.GameID)
		}
	}
}

// TestWhitelist tests whitelist filtering across the lookup helpers
func TestWhitelist(t *testing.T) {
	t.Parallel()

	c := Default()

	if !c.ItemOK(413) {
		t.Error("item 413 should pass with whitelist disabled")
	}
	if c.ItemOK(99999) {
		t.Error("unknown item should never pass")
	}

	c.Whitelist = Whitelist{Enabled: true, Items: []int{413}, Pets: []int{1}}

	if !c.ItemOK(413) {
		t.Error("whitelisted item should pass")
	}
	if c.ItemOK(412) {
		t.Error("non-whitelisted item should be rejected")
	}
	if !c.PetOK(1) {
		t.Error("whitelisted pet should pass")
	}
	if c.PetOK(2) {
		t.Error("non-whitelisted pet should be rejected")
	}
	if c.FurnitureOK(201) {
		t.Error("furniture not on an enabled whitelist should be rejected")
	}
}

// TestLoad tests catalog JSON loading
func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `{
		"items": {"1": {"id": 1, "name": "Blue", "cost": 0}},
		"rooms": [{"id": 100, "name": "town", "maxUsers": 80, "spawn": true}],
		"whitelist": {"enabled": false}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !c.ItemOK(1) {
		t.Error("loaded item 1 should resolve")
	}
	if len(c.Rooms) != 1 || c.Rooms[0].ID != 100 {
		t.Errorf("rooms = %+v", c.Rooms)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}
