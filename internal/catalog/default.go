package catalog

// Default returns the built-in content set: the base room map, the classic
// mini-game rooms, the lounge tables and the sled-run waddles. Deployments
// with full content drop a catalog JSON next to the config instead.
func Default() *Catalog {
	return &Catalog{
		Items: map[int]Item{
			1:   {ID: 1, Name: "Blue", Type: 1, Cost: 0},
			2:   {ID: 2, Name: "Green", Type: 1, Cost: 0},
			413: {ID: 413, Name: "Jester Hat", Type: 2, Cost: 400},
			412: {ID: 412, Name: "Tour Guide Hat", Type: 2, Cost: 200},
			221: {ID: 221, Name: "Black Sunglasses", Type: 3, Cost: 150},
			174: {ID: 174, Name: "Red Scarf", Type: 4, Cost: 150},
			241: {ID: 241, Name: "Hockey Jersey", Type: 5, Cost: 300, Member: true},
			339: {ID: 339, Name: "Acoustic Guitar", Type: 6, Cost: 500},
			365: {ID: 365, Name: "Hiking Boots", Type: 7, Cost: 200},
		},
		Pets: map[int]PetType{
			0: {ID: 0, Name: "Blue", Cost: 800, MaxHealth: 100, MaxHunger: 100, MaxRest: 100},
			1: {ID: 1, Name: "Pink", Cost: 800, MaxHealth: 100, MaxHunger: 100, MaxRest: 100},
			2: {ID: 2, Name: "Black", Cost: 800, MaxHealth: 100, MaxHunger: 100, MaxRest: 100},
			3: {ID: 3, Name: "Green", Cost: 800, MaxHealth: 100, MaxHunger: 100, MaxRest: 100},
		},
		Rooms: []RoomDef{
			{ID: 100, Name: "town", MaxUsers: 80, Spawn: true},
			{ID: 110, Name: "coffee", MaxUsers: 40, Spawn: true},
			{ID: 111, Name: "book", MaxUsers: 40},
			{ID: 120, Name: "dance", MaxUsers: 60, Spawn: true},
			{ID: 121, Name: "lounge", MaxUsers: 40},
			{ID: 130, Name: "shop", MaxUsers: 40},
			{ID: 200, Name: "village", MaxUsers: 80, Spawn: true},
			{ID: 220, Name: "mtn", MaxUsers: 80},
			{ID: 230, Name: "lodge", MaxUsers: 40},
			{ID: 300, Name: "plaza", MaxUsers: 80, Spawn: true},
			{ID: 310, Name: "pet", MaxUsers: 40},
			{ID: 400, Name: "beach", MaxUsers: 80},
			{ID: 800, Name: "dock", MaxUsers: 80, Spawn: true},
			{ID: 900, Name: "astro", Game: true},
			{ID: 901, Name: "beans", Game: true},
			{ID: 904, Name: "sled4", Game: true},
			{ID: 905, Name: "sled3", Game: true},
			{ID: 906, Name: "sled2", Game: true},
			{ID: 912, Name: "biscuit", Game: true},
		},
		Tables: []TableDef{
			{ID: 205, RoomID: 121, Type: "four"},
			{ID: 206, RoomID: 121, Type: "four"},
			{ID: 207, RoomID: 111, Type: "mancala"},
		},
		Waddles: []WaddleDef{
			{ID: 100, RoomID: 230, Seats: 4, GameID: 904},
			{ID: 101, RoomID: 230, Seats: 3, GameID: 905},
			{ID: 102, RoomID: 230, Seats: 2, GameID: 906},
			{ID: 103, RoomID: 230, Seats: 2, GameID: 906},
		},
		Furniture: map[int]FurnitureDef{
			201: {ID: 201, Name: "Wood Chair", Cost: 100},
			202: {ID: 202, Name: "Wood Table", Cost: 150},
			210: {ID: 210, Name: "Fireplace", Cost: 800},
			230: {ID: 230, Name: "Lamp", Cost: 250},
		},
		PlayerRooms: map[int]PlayerRoomType{
			1: {ID: 1, Name: "Basic", Cost: 0},
			2: {ID: 2, Name: "Candy", Cost: 1500},
			3: {ID: 3, Name: "Deluxe Stone", Cost: 5000},
		},
	}
}
