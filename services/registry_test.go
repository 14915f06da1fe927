package services

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"tileworld/server/models"
)

func TestFindWalkableSpawnOnlyReturnsGrass(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	world := models.GenerateMap(30, 30, rng)
	r := NewEntityRegistry(world, DefaultRules(), rng)

	for i := 0; i < 1000; i++ {
		pos, err := r.FindWalkableSpawn()
		if err != nil {
			t.Fatalf("FindWalkableSpawn: %v", err)
		}
		if !world.Walkable(pos.X, pos.Y) {
			t.Fatalf("spawn (%d,%d) is not walkable", pos.X, pos.Y)
		}
	}
}

func TestFindWalkableSpawnGivesUpOnBlockedMap(t *testing.T) {
	world := grassMap(t, 3, 3, map[models.Position]models.TileType{})
	for y := range world.Tiles {
		for x := range world.Tiles[y] {
			world.Tiles[y][x] = models.TileWater
		}
	}
	rules := DefaultRules()
	rules.MaxSpawnAttempts = 50
	r := NewEntityRegistry(world, rules, rand.New(rand.NewSource(1)))

	if _, err := r.FindWalkableSpawn(); !errors.Is(err, ErrNoWalkableTile) {
		t.Fatalf("err = %v, want ErrNoWalkableTile", err)
	}
	if _, err := NewEngine(world, newRecorder(), Options{Rules: &rules}); !errors.Is(err, ErrNoWalkableTile) {
		t.Fatalf("NewEngine err = %v, want ErrNoWalkableTile", err)
	}
}

func TestFindWalkableSpawnSingleGrassTile(t *testing.T) {
	world := grassMap(t, 4, 4, nil)
	for y := range world.Tiles {
		for x := range world.Tiles[y] {
			world.Tiles[y][x] = models.TileTree
		}
	}
	world.Tiles[2][1] = models.TileGrass
	r := NewEntityRegistry(world, DefaultRules(), rand.New(rand.NewSource(9)))

	pos, err := r.FindWalkableSpawn()
	if err != nil {
		t.Fatalf("FindWalkableSpawn: %v", err)
	}
	if pos != (models.Position{X: 1, Y: 2}) {
		t.Errorf("spawn = %+v, want (1,2)", pos)
	}
}

func TestPopulateAndMonotonicIDs(t *testing.T) {
	e, _ := newTestEngine(t, grassMap(t, 10, 10, nil), DefaultRules())
	r := e.Registry()

	if r.MonsterCount() != 5 || r.FoodCount() != 10 {
		t.Fatalf("initial population = %d monsters / %d food, want 5 / 10", r.MonsterCount(), r.FoodCount())
	}
	for _, id := range []string{"m0", "m4"} {
		if _, ok := r.monsters[id]; !ok {
			t.Errorf("missing monster %s", id)
		}
	}
	for _, id := range []string{"f0", "f9"} {
		if _, ok := r.foods[id]; !ok {
			t.Errorf("missing food %s", id)
		}
	}

	m, err := r.SpawnMonster()
	if err != nil {
		t.Fatalf("SpawnMonster: %v", err)
	}
	if m.ID != "m5" {
		t.Errorf("next monster id = %s, want m5", m.ID)
	}
	r.RemoveMonster("m5")
	m, _ = r.SpawnMonster()
	if m.ID != "m6" {
		t.Errorf("ids must not be reused, got %s", m.ID)
	}
}

func TestMonsterAtPrefersEarliestSpawn(t *testing.T) {
	e, _ := newTestEngine(t, grassMap(t, 5, 5, nil), bareRules())
	pos := models.Position{X: 1, Y: 1}
	placeMonster(e, "late", 9, pos)
	placeMonster(e, "early", 2, pos)
	placeMonster(e, "elsewhere", 1, models.Position{X: 3, Y: 3})

	if got := e.Registry().MonsterAt(pos); got == nil || got.ID != "early" {
		t.Errorf("MonsterAt = %+v, want early", got)
	}
	if got := e.Registry().MonsterAt(models.Position{X: 0, Y: 0}); got != nil {
		t.Errorf("MonsterAt empty tile = %+v, want nil", got)
	}
}

func TestSnapshotCopiesAndTrimsInventory(t *testing.T) {
	e, _ := newTestEngine(t, grassMap(t, 5, 5, nil), bareRules())
	p := joinAt(t, e, "p1", models.Position{X: 0, Y: 0})
	for i := 0; i < 12; i++ {
		item := ItemMonster
		if i%2 == 1 {
			item = ItemFood
		}
		p.Inventory = append(p.Inventory, item)
	}
	p.Inventory[len(p.Inventory)-1] = "Last"

	snap := e.Registry().Snapshot()
	got := snap.Players["p1"]
	if len(got.Inventory) != 10 {
		t.Fatalf("snapshot inventory has %d items, want 10", len(got.Inventory))
	}
	if got.Inventory[9] != "Last" {
		t.Errorf("snapshot must keep the most recent items, last = %q", got.Inventory[9])
	}
	if len(p.Inventory) != 12 {
		t.Errorf("registry inventory trimmed to %d, want 12", len(p.Inventory))
	}

	got.X = 4
	got.Inventory[0] = "Changed"
	if p.X != 0 || p.Inventory[2] == "Changed" {
		t.Error("snapshot must not alias registry state")
	}
}

func TestAddPlayerDefaults(t *testing.T) {
	r := NewEntityRegistry(grassMap(t, 3, 3, nil), DefaultRules(), rand.New(rand.NewSource(1)))
	joined := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p, err := r.AddPlayer("p1", "ana", joined)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if p.Hunger != 100 || p.Score != 0 || !p.Alive || len(p.Inventory) != 0 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if !p.JoinedAt.Equal(joined) {
		t.Errorf("JoinedAt = %v, want %v", p.JoinedAt, joined)
	}
	if _, ok := r.RemovePlayer("p1"); !ok {
		t.Error("RemovePlayer should report the removed player")
	}
	if _, ok := r.RemovePlayer("p1"); ok {
		t.Error("second RemovePlayer should report nothing removed")
	}
}
