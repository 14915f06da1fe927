package services

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tileworld/server/logger"
	"tileworld/server/models"
)

// Private notices sent to the acting player.
const (
	NoticeCaught    = "You caught a monster!"
	NoticeAte       = "You ate some food!"
	NoticeRespawned = "You respawned!"
	NoticeFainted   = "You fainted from hunger! Press R to respawn."
)

// Inventory labels.
const (
	ItemMonster = "Monster"
	ItemFood    = "Food"
)

// Direction is a unit move on the grid.
type Direction string

// Accepted move directions.
const (
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirUp    Direction = "up"
	DirDown  Direction = "down"
)

// ParseDirection validates a raw direction string.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(s); d {
	case DirLeft, DirRight, DirUp, DirDown:
		return d, true
	}
	return "", false
}

func (d Direction) delta() (dx, dy int) {
	switch d {
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	}
	return 0, 0
}

// CommandProcessor applies player actions to the registry. Rejected
// actions are silent: no state change and nothing sent.
type CommandProcessor struct {
	registry *EntityRegistry
	out      *StateBroadcaster
	rules    Rules
	now      func() time.Time
}

// NewCommandProcessor wires a processor to its registry and broadcaster.
func NewCommandProcessor(registry *EntityRegistry, out *StateBroadcaster, rules Rules, now func() time.Time) *CommandProcessor {
	if now == nil {
		now = time.Now
	}
	return &CommandProcessor{registry: registry, out: out, rules: rules, now: now}
}

// Join creates the player, sends it the init payload and broadcasts.
func (c *CommandProcessor) Join(playerID, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = c.rules.DefaultNickname
	}

	p, err := c.registry.AddPlayer(playerID, nickname, c.now())
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"player_id": p.ID,
		"nickname":  p.Nickname,
		"x":         p.X,
		"y":         p.Y,
	}).Info("Player joined")

	c.out.SendInit(playerID)
	c.out.BroadcastState()
	return nil
}

// Move shifts an alive player one tile if the target is grass.
func (c *CommandProcessor) Move(playerID string, dir Direction) {
	p, ok := c.registry.Player(playerID)
	if !ok || !p.Alive {
		return
	}
	dx, dy := dir.delta()
	nx, ny := p.X+dx, p.Y+dy
	if !c.registry.World().Walkable(nx, ny) {
		logger.Log.WithFields(logrus.Fields{
			"player_id": playerID,
			"direction": dir,
		}).Debug("Move blocked")
		return
	}
	p.X, p.Y = nx, ny
	c.out.BroadcastState()
}

// Catch captures a monster sharing the player's tile.
func (c *CommandProcessor) Catch(playerID string) {
	p, ok := c.registry.Player(playerID)
	if !ok || !p.Alive {
		return
	}
	m := c.registry.MonsterAt(p.Position())
	if m == nil {
		return
	}

	p.Score++
	p.Hunger = min(c.rules.MaxHunger, p.Hunger+c.rules.MonsterHunger)
	p.Inventory = append(p.Inventory, ItemMonster)
	c.registry.RemoveMonster(m.ID)
	if _, err := c.registry.SpawnMonster(); err != nil {
		logger.Log.WithError(err).Warn("Failed to spawn replacement monster")
	}

	logger.Log.WithFields(logrus.Fields{
		"player_id":  playerID,
		"monster_id": m.ID,
		"score":      p.Score,
	}).Debug("Monster caught")

	c.out.BroadcastState()
	c.out.SendPrivate(playerID, NoticeCaught)
}

// CollectFood eats a food item sharing the player's tile.
func (c *CommandProcessor) CollectFood(playerID string) {
	p, ok := c.registry.Player(playerID)
	if !ok || !p.Alive {
		return
	}
	f := c.registry.FoodAt(p.Position())
	if f == nil {
		return
	}

	p.Hunger = min(c.rules.MaxHunger, p.Hunger+c.rules.FoodHunger)
	p.Inventory = append(p.Inventory, ItemFood)
	p.FoodEaten++
	c.registry.RemoveFood(f.ID)
	if _, err := c.registry.SpawnFood(); err != nil {
		logger.Log.WithError(err).Warn("Failed to spawn replacement food")
	}

	c.out.BroadcastState()
	c.out.SendPrivate(playerID, NoticeAte)
}

// Chat relays a line to everyone. Fainted players may still chat.
func (c *CommandProcessor) Chat(playerID, text string) {
	p, ok := c.registry.Player(playerID)
	if !ok {
		return
	}
	c.out.BroadcastMessage(p.Nickname, truncate(text, c.rules.ChatLimit))
}

// Respawn revives a fainted player at a fresh tile.
func (c *CommandProcessor) Respawn(playerID string) error {
	p, ok := c.registry.Player(playerID)
	if !ok || p.Alive {
		return nil
	}
	pos, err := c.registry.FindWalkableSpawn()
	if err != nil {
		return err
	}
	p.X, p.Y = pos.X, pos.Y
	p.Hunger = c.rules.MaxHunger
	p.Alive = true

	c.out.SendPrivate(playerID, NoticeRespawned)
	c.out.BroadcastState()
	return nil
}

// Disconnect removes the player and returns the removed entry, if any.
func (c *CommandProcessor) Disconnect(playerID string) (*models.Player, bool) {
	p, ok := c.registry.RemovePlayer(playerID)
	if ok {
		logger.Log.WithFields(logrus.Fields{
			"player_id": playerID,
			"nickname":  p.Nickname,
			"score":     p.Score,
		}).Info("Player left")
	}
	c.out.BroadcastState()
	return p, ok
}

// truncate keeps at most limit characters (runes) of s.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
