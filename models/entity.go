package models

import "time"

// Position is an integer grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Player is a connected participant. ID is the connection identity.
type Player struct {
	ID        string   `json:"id"`
	Nickname  string   `json:"nickname"`
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Hunger    int      `json:"hunger"`
	Score     int      `json:"score"`
	Inventory []string `json:"inventory"`
	Alive     bool     `json:"alive"`

	// Server-side bookkeeping, never sent to clients.
	FoodEaten int       `json:"-"`
	JoinedAt  time.Time `json:"-"`
}

// Position returns the player's coordinate.
func (p *Player) Position() Position {
	return Position{X: p.X, Y: p.Y}
}

// Monster wanders the map until a player catches it.
type Monster struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`

	seq uint64
}

// Food sits still until a player collects it.
type Food struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`

	seq uint64
}

// NewMonster creates a monster. seq orders monsters by spawn time.
func NewMonster(id string, seq uint64, pos Position) *Monster {
	return &Monster{ID: id, X: pos.X, Y: pos.Y, seq: seq}
}

// NewFood creates a food item. seq orders food by spawn time.
func NewFood(id string, seq uint64, pos Position) *Food {
	return &Food{ID: id, X: pos.X, Y: pos.Y, seq: seq}
}

// Position returns the monster's coordinate.
func (m *Monster) Position() Position {
	return Position{X: m.X, Y: m.Y}
}

// Position returns the food's coordinate.
func (f *Food) Position() Position {
	return Position{X: f.X, Y: f.Y}
}

// Seq returns the spawn order of the monster.
func (m *Monster) Seq() uint64 { return m.seq }

// Seq returns the spawn order of the food.
func (f *Food) Seq() uint64 { return f.seq }
