package services

import (
	"github.com/sirupsen/logrus"

	"tileworld/server/logger"
	"tileworld/server/models"
)

// monsterSteps are the five equally likely monster moves, including staying put.
var monsterSteps = [5]models.Position{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: 0, Y: 0},
}

// TickScheduler runs one simulation step per timer tick.
type TickScheduler struct {
	registry *EntityRegistry
	out      *StateBroadcaster
	rules    Rules
	ticks    uint64
}

// NewTickScheduler wires a scheduler to its registry and broadcaster.
func NewTickScheduler(registry *EntityRegistry, out *StateBroadcaster, rules Rules) *TickScheduler {
	return &TickScheduler{registry: registry, out: out, rules: rules}
}

// Ticks returns how many steps have run.
func (t *TickScheduler) Ticks() uint64 {
	return t.ticks
}

// Step moves monsters, decays hunger, tops up populations and broadcasts.
func (t *TickScheduler) Step() {
	t.ticks++
	t.moveMonsters()
	t.decayHunger()
	t.maintainPopulation()
	t.out.BroadcastState()
}

// moveMonsters draws one step per monster; a blocked step means the
// monster stays where it is this tick.
func (t *TickScheduler) moveMonsters() {
	world := t.registry.World()
	for _, m := range t.registry.monstersInOrder() {
		step := monsterSteps[t.registry.rng.Intn(len(monsterSteps))]
		nx, ny := m.X+step.X, m.Y+step.Y
		if world.Walkable(nx, ny) {
			m.X, m.Y = nx, ny
		}
	}
}

func (t *TickScheduler) decayHunger() {
	for id, p := range t.registry.players {
		if !p.Alive {
			continue
		}
		p.Hunger -= t.rules.HungerDecay
		if p.Hunger <= 0 {
			p.Hunger = 0
			p.Alive = false
			logger.Log.WithFields(logrus.Fields{
				"player_id": id,
				"tick":      t.ticks,
			}).Info("Player fainted")
			t.out.SendPrivate(id, NoticeFainted)
		}
	}
}

// maintainPopulation spawns at most one monster and one food per tick.
func (t *TickScheduler) maintainPopulation() {
	if t.registry.MonsterCount() < t.rules.MonsterFloor {
		if _, err := t.registry.SpawnMonster(); err != nil {
			logger.Log.WithError(err).Warn("Failed to top up monsters")
		}
	}
	if t.registry.FoodCount() < t.rules.FoodFloor {
		if _, err := t.registry.SpawnFood(); err != nil {
			logger.Log.WithError(err).Warn("Failed to top up food")
		}
	}
}
