package services

// Rules are the tunable game constants.
type Rules struct {
	InitialMonsters int
	InitialFood     int
	MonsterFloor    int
	FoodFloor       int

	MaxHunger     int
	HungerDecay   int
	MonsterHunger int // hunger restored by a catch
	FoodHunger    int // hunger restored by eating

	ChatLimit     int // characters kept from a chat line
	InventoryView int // most recent items surfaced per player

	// MaxSpawnAttempts bounds the rejection sampling in FindWalkableSpawn.
	MaxSpawnAttempts int

	DefaultNickname string
}

// DefaultRules returns the reference game constants.
func DefaultRules() Rules {
	return Rules{
		InitialMonsters:  5,
		InitialFood:      10,
		MonsterFloor:     5,
		FoodFloor:        10,
		MaxHunger:        100,
		HungerDecay:      1,
		MonsterHunger:    20,
		FoodHunger:       30,
		ChatLimit:        200,
		InventoryView:    10,
		MaxSpawnAttempts: 10000,
		DefaultNickname:  "Anonymous",
	}
}
