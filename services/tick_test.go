package services

import (
	"math/rand"
	"testing"
	"time"

	"tileworld/server/models"
)

func TestTickFaintsStarvingPlayer(t *testing.T) {
	e, rec := newTestEngine(t, grassMap(t, 5, 5, nil), bareRules())
	p := joinAt(t, e, "p1", models.Position{X: 2, Y: 2})
	p.Hunger = 3

	e.Tick()
	e.Tick()
	if !p.Alive || p.Hunger != 1 {
		t.Fatalf("after two ticks: alive=%v hunger=%d", p.Alive, p.Hunger)
	}
	if len(rec.notices("p1")) != 0 {
		t.Fatal("no notice expected before fainting")
	}

	e.Tick()
	if p.Alive || p.Hunger != 0 {
		t.Fatalf("after third tick: alive=%v hunger=%d, want fainted at 0", p.Alive, p.Hunger)
	}
	if notices := rec.notices("p1"); len(notices) != 1 || notices[0] != NoticeFainted {
		t.Fatalf("notices = %v", notices)
	}

	// Fainted players are skipped by later ticks.
	e.Tick()
	if p.Hunger != 0 || len(rec.notices("p1")) != 1 {
		t.Errorf("fainted player decayed again: hunger=%d notices=%v", p.Hunger, rec.notices("p1"))
	}

	placeMonster(e, "m", 0, models.Position{X: 2, Y: 2})
	placeFood(e, "f", 0, models.Position{X: 2, Y: 2})
	rec.reset()
	e.Apply(MoveCommand{PlayerID: "p1", Direction: DirLeft})
	e.Apply(CatchCommand{PlayerID: "p1"})
	e.Apply(CollectFoodCommand{PlayerID: "p1"})
	if p.X != 2 || p.Y != 2 || p.Score != 0 || p.Hunger != 0 || len(p.Inventory) != 0 {
		t.Errorf("fainted player acted: %+v", p)
	}
	if len(rec.all) != 0 || len(rec.private) != 0 {
		t.Error("fainted player's actions must not send anything")
	}
}

func TestTickClampsOvershoot(t *testing.T) {
	rules := bareRules()
	rules.HungerDecay = 5
	e, _ := newTestEngine(t, grassMap(t, 3, 3, nil), rules)
	p := joinAt(t, e, "p1", models.Position{X: 0, Y: 0})
	p.Hunger = 2

	e.Tick()
	if p.Hunger != 0 || p.Alive {
		t.Errorf("hunger=%d alive=%v, want 0/false", p.Hunger, p.Alive)
	}
}

func TestTickDecaysHungerByOne(t *testing.T) {
	e, _ := newTestEngine(t, grassMap(t, 3, 3, nil), bareRules())
	p := joinAt(t, e, "p1", models.Position{X: 0, Y: 0})
	e.Tick()
	if p.Hunger != 99 {
		t.Errorf("hunger = %d, want 99", p.Hunger)
	}
}

func TestBoxedInMonsterStays(t *testing.T) {
	world := grassMap(t, 5, 5, map[models.Position]models.TileType{
		{X: 1, Y: 2}: models.TileWater,
		{X: 3, Y: 2}: models.TileWater,
		{X: 2, Y: 1}: models.TileTree,
		{X: 2, Y: 3}: models.TileTree,
	})
	e, _ := newTestEngine(t, world, bareRules())
	placeMonster(e, "m", 0, models.Position{X: 2, Y: 2})

	for i := 0; i < 100; i++ {
		e.Tick()
		m := e.registry.monsters["m"]
		if m.X != 2 || m.Y != 2 {
			t.Fatalf("tick %d: boxed-in monster moved to (%d,%d)", i, m.X, m.Y)
		}
	}
}

func TestMonsterMovesAtMostOneStep(t *testing.T) {
	e, _ := newTestEngine(t, grassMap(t, 3, 3, nil), bareRules())
	placeMonster(e, "m", 0, models.Position{X: 0, Y: 0})

	moved := false
	for i := 0; i < 200; i++ {
		m := e.registry.monsters["m"]
		before := m.Position()
		e.Tick()
		after := m.Position()
		dist := abs(after.X-before.X) + abs(after.Y-before.Y)
		if dist > 1 {
			t.Fatalf("monster jumped from %+v to %+v", before, after)
		}
		if !e.Registry().World().InBounds(after.X, after.Y) {
			t.Fatalf("monster left the map: %+v", after)
		}
		if dist == 1 {
			moved = true
		}
	}
	if !moved {
		t.Error("monster never moved in 200 ticks")
	}
}

func TestPopulationTopUpOnePerTick(t *testing.T) {
	rules := bareRules()
	rules.MonsterFloor = 5
	rules.FoodFloor = 10
	e, _ := newTestEngine(t, grassMap(t, 10, 10, nil), rules)
	r := e.Registry()

	for tick := 1; tick <= 12; tick++ {
		e.Tick()
		wantMonsters := min(tick, 5)
		wantFood := min(tick, 10)
		if r.MonsterCount() != wantMonsters || r.FoodCount() != wantFood {
			t.Fatalf("tick %d: %d monsters / %d food, want %d / %d",
				tick, r.MonsterCount(), r.FoodCount(), wantMonsters, wantFood)
		}
	}
}

func TestTickAlwaysBroadcasts(t *testing.T) {
	e, rec := newTestEngine(t, grassMap(t, 2, 2, nil), bareRules())
	for i := 0; i < 3; i++ {
		e.Tick()
	}
	if n := len(rec.states()); n != 3 {
		t.Errorf("got %d state broadcasts from 3 idle ticks, want 3", n)
	}
	if e.scheduler.Ticks() != 3 {
		t.Errorf("Ticks() = %d", e.scheduler.Ticks())
	}
}

// Random command streams interleaved with ticks never break the
// position, hunger or population invariants.
func TestInvariantsUnderRandomPlay(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	world := models.GenerateMap(30, 30, rng)
	rules := DefaultRules()
	rules.HungerDecay = 7
	e, err := NewEngine(world, newRecorder(), Options{Rand: rng, Rules: &rules, TickInterval: time.Hour})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		if err := e.Apply(JoinCommand{PlayerID: id, Nickname: id}); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	dirs := []Direction{DirLeft, DirRight, DirUp, DirDown}

	for step := 0; step < 3000; step++ {
		id := ids[rng.Intn(len(ids))]
		var cmd Command
		switch rng.Intn(6) {
		case 0:
			cmd = MoveCommand{PlayerID: id, Direction: dirs[rng.Intn(len(dirs))]}
		case 1:
			cmd = CatchCommand{PlayerID: id}
		case 2:
			cmd = CollectFoodCommand{PlayerID: id}
		case 3:
			cmd = RespawnCommand{PlayerID: id}
		case 4:
			cmd = MoveCommand{PlayerID: id, Direction: dirs[rng.Intn(len(dirs))]}
		case 5:
			e.Tick()
			if e.registry.MonsterCount() < rules.MonsterFloor-1 || e.registry.FoodCount() < rules.FoodFloor-1 {
				t.Fatalf("population fell too far: %d monsters / %d food",
					e.registry.MonsterCount(), e.registry.FoodCount())
			}
		}
		if cmd != nil {
			if err := e.Apply(cmd); err != nil {
				t.Fatalf("%T: %v", cmd, err)
			}
			if _, ok := cmd.(CatchCommand); ok && e.registry.MonsterCount() < rules.MonsterFloor {
				t.Fatalf("monsters below floor after catch: %d", e.registry.MonsterCount())
			}
		}
		checkInvariants(t, e.registry)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
