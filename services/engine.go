package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"tileworld/server/logger"
	"tileworld/server/models"
)

var (
	// ErrUnknownCommand is returned by Apply for a command outside the known set.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrEngineStopped is returned by Submit after Run has exited.
	ErrEngineStopped = errors.New("engine stopped")
)

const commandQueueSize = 256

// Command is one player action. The set of implementations is closed.
type Command interface {
	Player() string
	command()
}

// JoinCommand adds a player under the connection's id.
type JoinCommand struct {
	PlayerID string
	Nickname string
}

// MoveCommand steps a player one tile.
type MoveCommand struct {
	PlayerID  string
	Direction Direction
}

// CatchCommand captures a monster on the player's tile.
type CatchCommand struct{ PlayerID string }

// CollectFoodCommand eats food on the player's tile.
type CollectFoodCommand struct{ PlayerID string }

// ChatCommand relays a chat line.
type ChatCommand struct {
	PlayerID string
	Text     string
}

// RespawnCommand revives a fainted player.
type RespawnCommand struct{ PlayerID string }

// DisconnectCommand removes the player when its connection closes.
type DisconnectCommand struct{ PlayerID string }

func (c JoinCommand) Player() string        { return c.PlayerID }
func (c MoveCommand) Player() string        { return c.PlayerID }
func (c CatchCommand) Player() string       { return c.PlayerID }
func (c CollectFoodCommand) Player() string { return c.PlayerID }
func (c ChatCommand) Player() string        { return c.PlayerID }
func (c RespawnCommand) Player() string     { return c.PlayerID }
func (c DisconnectCommand) Player() string  { return c.PlayerID }

func (JoinCommand) command()        {}
func (MoveCommand) command()        {}
func (CatchCommand) command()       {}
func (CollectFoodCommand) command() {}
func (ChatCommand) command()        {}
func (RespawnCommand) command()     {}
func (DisconnectCommand) command()  {}

// Options tune an Engine. Zero values fall back to defaults.
type Options struct {
	TickInterval time.Duration
	Rules        *Rules
	Rand         *rand.Rand
	Now          func() time.Time
	// Archiver receives a record for every departing player. Optional.
	Archiver *Archiver
}

// Engine is the single writer of game state. Commands and ticks are
// applied one at a time, in arrival order, on the Run goroutine.
type Engine struct {
	registry  *EntityRegistry
	commands  *CommandProcessor
	scheduler *TickScheduler
	archiver  *Archiver
	now       func() time.Time
	interval  time.Duration

	queue chan Command
	done  chan struct{}
}

// NewEngine builds the registry over world, spawns the initial
// population and wires the processors to out.
func NewEngine(world *models.TileMap, out Broadcaster, opts Options) (*Engine, error) {
	rules := DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	registry := NewEntityRegistry(world, rules, rng)
	if err := registry.Populate(); err != nil {
		return nil, fmt.Errorf("populate world: %w", err)
	}
	broadcaster := NewStateBroadcaster(registry, out)

	return &Engine{
		registry:  registry,
		commands:  NewCommandProcessor(registry, broadcaster, rules, now),
		scheduler: NewTickScheduler(registry, broadcaster, rules),
		archiver:  opts.Archiver,
		now:       now,
		interval:  interval,
		queue:     make(chan Command, commandQueueSize),
		done:      make(chan struct{}),
	}, nil
}

// Registry exposes the registry for inspection. Only touch it from the
// Run goroutine or while Run is not running.
func (e *Engine) Registry() *EntityRegistry {
	return e.registry
}

// Run processes commands and ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(e.done)

	logger.Log.WithFields(logrus.Fields{
		"width":    e.registry.World().Width,
		"height":   e.registry.World().Height,
		"interval": e.interval,
	}).Info("Engine loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Engine loop stopped")
			return
		case cmd := <-e.queue:
			if err := e.Apply(cmd); err != nil {
				logger.Log.WithError(err).WithField("player_id", cmd.Player()).Warn("Command failed")
			}
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Done is closed once Run has returned and no further commands apply.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Submit queues a command for the Run goroutine.
func (e *Engine) Submit(ctx context.Context, cmd Command) error {
	select {
	case e.queue <- cmd:
		return nil
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply executes one command synchronously.
func (e *Engine) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case JoinCommand:
		return e.commands.Join(c.PlayerID, c.Nickname)
	case MoveCommand:
		e.commands.Move(c.PlayerID, c.Direction)
	case CatchCommand:
		e.commands.Catch(c.PlayerID)
	case CollectFoodCommand:
		e.commands.CollectFood(c.PlayerID)
	case ChatCommand:
		e.commands.Chat(c.PlayerID, c.Text)
	case RespawnCommand:
		return e.commands.Respawn(c.PlayerID)
	case DisconnectCommand:
		if p, ok := e.commands.Disconnect(c.PlayerID); ok && e.archiver != nil {
			e.archiver.Record(sessionRecord(p, e.now()))
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	return nil
}

// Tick runs one simulation step synchronously.
func (e *Engine) Tick() {
	e.scheduler.Step()
}
