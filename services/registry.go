package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"tileworld/server/messages"
	"tileworld/server/models"
)

// ErrNoWalkableTile is returned when the spawn search gives up.
var ErrNoWalkableTile = errors.New("no walkable tile available")

// EntityRegistry owns the players, monsters and food of one world.
// It is not safe for concurrent use; the Engine serialises access.
type EntityRegistry struct {
	world *models.TileMap
	rules Rules
	rng   *rand.Rand

	players  map[string]*models.Player
	monsters map[string]*models.Monster
	foods    map[string]*models.Food

	nextMonsterID uint64
	nextFoodID    uint64
}

// NewEntityRegistry creates an empty registry over world.
func NewEntityRegistry(world *models.TileMap, rules Rules, rng *rand.Rand) *EntityRegistry {
	return &EntityRegistry{
		world:    world,
		rules:    rules,
		rng:      rng,
		players:  make(map[string]*models.Player),
		monsters: make(map[string]*models.Monster),
		foods:    make(map[string]*models.Food),
	}
}

// Populate spawns the initial monsters and food.
func (r *EntityRegistry) Populate() error {
	for i := 0; i < r.rules.InitialMonsters; i++ {
		if _, err := r.SpawnMonster(); err != nil {
			return fmt.Errorf("initial monsters: %w", err)
		}
	}
	for i := 0; i < r.rules.InitialFood; i++ {
		if _, err := r.SpawnFood(); err != nil {
			return fmt.Errorf("initial food: %w", err)
		}
	}
	return nil
}

// World returns the tile map.
func (r *EntityRegistry) World() *models.TileMap {
	return r.world
}

// FindWalkableSpawn samples uniformly random cells until one is grass.
// The search is capped at Rules.MaxSpawnAttempts draws.
func (r *EntityRegistry) FindWalkableSpawn() (models.Position, error) {
	for i := 0; i < r.rules.MaxSpawnAttempts; i++ {
		x := r.rng.Intn(r.world.Width)
		y := r.rng.Intn(r.world.Height)
		if r.world.Walkable(x, y) {
			return models.Position{X: x, Y: y}, nil
		}
	}
	return models.Position{}, ErrNoWalkableTile
}

// SpawnMonster places a new monster on a random grass tile.
func (r *EntityRegistry) SpawnMonster() (*models.Monster, error) {
	pos, err := r.FindWalkableSpawn()
	if err != nil {
		return nil, err
	}
	seq := r.nextMonsterID
	r.nextMonsterID++
	m := models.NewMonster(fmt.Sprintf("m%d", seq), seq, pos)
	r.monsters[m.ID] = m
	return m, nil
}

// SpawnFood places a new food item on a random grass tile.
func (r *EntityRegistry) SpawnFood() (*models.Food, error) {
	pos, err := r.FindWalkableSpawn()
	if err != nil {
		return nil, err
	}
	seq := r.nextFoodID
	r.nextFoodID++
	f := models.NewFood(fmt.Sprintf("f%d", seq), seq, pos)
	r.foods[f.ID] = f
	return f, nil
}

// AddPlayer creates a fresh player at a random grass tile, replacing any
// existing entry under the same id.
func (r *EntityRegistry) AddPlayer(id, nickname string, now time.Time) (*models.Player, error) {
	pos, err := r.FindWalkableSpawn()
	if err != nil {
		return nil, err
	}
	p := &models.Player{
		ID:        id,
		Nickname:  nickname,
		X:         pos.X,
		Y:         pos.Y,
		Hunger:    r.rules.MaxHunger,
		Score:     0,
		Inventory: []string{},
		Alive:     true,
		JoinedAt:  now,
	}
	r.players[id] = p
	return p, nil
}

// Player looks up a live player entry.
func (r *EntityRegistry) Player(id string) (*models.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// RemovePlayer deletes the player and returns the removed entry.
func (r *EntityRegistry) RemovePlayer(id string) (*models.Player, bool) {
	p, ok := r.players[id]
	if ok {
		delete(r.players, id)
	}
	return p, ok
}

// MonsterAt returns the earliest-spawned monster on pos, or nil.
func (r *EntityRegistry) MonsterAt(pos models.Position) *models.Monster {
	var found *models.Monster
	for _, m := range r.monsters {
		if m.X == pos.X && m.Y == pos.Y && (found == nil || m.Seq() < found.Seq()) {
			found = m
		}
	}
	return found
}

// FoodAt returns the earliest-spawned food on pos, or nil.
func (r *EntityRegistry) FoodAt(pos models.Position) *models.Food {
	var found *models.Food
	for _, f := range r.foods {
		if f.X == pos.X && f.Y == pos.Y && (found == nil || f.Seq() < found.Seq()) {
			found = f
		}
	}
	return found
}

// RemoveMonster deletes a monster by id.
func (r *EntityRegistry) RemoveMonster(id string) {
	delete(r.monsters, id)
}

// RemoveFood deletes a food item by id.
func (r *EntityRegistry) RemoveFood(id string) {
	delete(r.foods, id)
}

// PlayerCount returns the number of joined players.
func (r *EntityRegistry) PlayerCount() int { return len(r.players) }

// MonsterCount returns the number of live monsters.
func (r *EntityRegistry) MonsterCount() int { return len(r.monsters) }

// FoodCount returns the number of food items on the map.
func (r *EntityRegistry) FoodCount() int { return len(r.foods) }

// monstersInOrder returns monsters sorted by spawn order so random draws
// are applied deterministically for a given seed.
func (r *EntityRegistry) monstersInOrder() []*models.Monster {
	out := make([]*models.Monster, 0, len(r.monsters))
	for _, m := range r.monsters {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq() < out[j].Seq() })
	return out
}

// Snapshot copies every entity into a wire-ready state message. Player
// inventories are cut to the most recent Rules.InventoryView entries.
func (r *EntityRegistry) Snapshot() messages.StateMessage {
	state := messages.StateMessage{
		Players:  make(map[string]*models.Player, len(r.players)),
		Monsters: make(map[string]*models.Monster, len(r.monsters)),
		Foods:    make(map[string]*models.Food, len(r.foods)),
	}
	for id, p := range r.players {
		cp := *p
		cp.Inventory = recentItems(p.Inventory, r.rules.InventoryView)
		state.Players[id] = &cp
	}
	for id, m := range r.monsters {
		cp := *m
		state.Monsters[id] = &cp
	}
	for id, f := range r.foods {
		cp := *f
		state.Foods[id] = &cp
	}
	return state
}

func recentItems(items []string, limit int) []string {
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return append([]string{}, items...)
}
