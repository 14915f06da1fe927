package services

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"tileworld/server/messages"
	"tileworld/server/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// recorder captures everything the engine sends.
type recorder struct {
	mu      sync.Mutex
	all     []messages.BaseMessage
	private map[string][]messages.BaseMessage
	notify  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		private: make(map[string][]messages.BaseMessage),
		notify:  make(chan struct{}, 1024),
	}
}

func (r *recorder) BroadcastToAll(msg messages.BaseMessage) {
	r.mu.Lock()
	r.all = append(r.all, msg)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recorder) SendTo(id string, msg messages.BaseMessage) {
	r.mu.Lock()
	r.private[id] = append(r.private[id], msg)
	r.mu.Unlock()
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = nil
	r.private = make(map[string][]messages.BaseMessage)
}

func (r *recorder) states() []messages.StateMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messages.StateMessage
	for _, m := range r.all {
		if m.Type == messages.MessageTypeState {
			out = append(out, m.Payload.(messages.StateMessage))
		}
	}
	return out
}

func (r *recorder) lastState(t *testing.T) messages.StateMessage {
	t.Helper()
	states := r.states()
	if len(states) == 0 {
		t.Fatal("no state broadcast recorded")
	}
	return states[len(states)-1]
}

func (r *recorder) chats() []messages.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messages.ChatMessage
	for _, m := range r.all {
		if m.Type == messages.MessageTypeMessage {
			out = append(out, m.Payload.(messages.ChatMessage))
		}
	}
	return out
}

func (r *recorder) notices(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.private[id] {
		if m.Type == messages.MessageTypeMessage {
			out = append(out, m.Payload.(messages.ChatMessage).Text)
		}
	}
	return out
}

func (r *recorder) privateOfType(id string, typ messages.MessageType) []messages.BaseMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messages.BaseMessage
	for _, m := range r.private[id] {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// grassMap builds a w×h grass map with the given cells overridden.
func grassMap(t *testing.T, w, h int, cells map[models.Position]models.TileType) *models.TileMap {
	t.Helper()
	rows := make([][]models.TileType, h)
	for y := range rows {
		rows[y] = make([]models.TileType, w)
	}
	for pos, tile := range cells {
		rows[pos.Y][pos.X] = tile
	}
	m, err := models.MapFromRows(rows)
	if err != nil {
		t.Fatalf("MapFromRows: %v", err)
	}
	return m
}

// bareRules disables initial spawns and top-ups so tests control every entity.
func bareRules() Rules {
	r := DefaultRules()
	r.InitialMonsters = 0
	r.InitialFood = 0
	r.MonsterFloor = 0
	r.FoodFloor = 0
	return r
}

func newTestEngine(t *testing.T, world *models.TileMap, rules Rules) (*Engine, *recorder) {
	t.Helper()
	rec := newRecorder()
	e, err := NewEngine(world, rec, Options{
		TickInterval: time.Hour,
		Rules:        &rules,
		Rand:         rand.New(rand.NewSource(1)),
		Now:          func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, rec
}

// joinAt joins a player and pins it to pos.
func joinAt(t *testing.T, e *Engine, id string, pos models.Position) *models.Player {
	t.Helper()
	if err := e.Apply(JoinCommand{PlayerID: id, Nickname: id}); err != nil {
		t.Fatalf("join %s: %v", id, err)
	}
	p, ok := e.Registry().Player(id)
	if !ok {
		t.Fatalf("player %s missing after join", id)
	}
	p.X, p.Y = pos.X, pos.Y
	return p
}

func placeMonster(e *Engine, id string, seq uint64, pos models.Position) {
	e.registry.monsters[id] = models.NewMonster(id, seq, pos)
}

func placeFood(e *Engine, id string, seq uint64, pos models.Position) {
	e.registry.foods[id] = models.NewFood(id, seq, pos)
}

// checkInvariants asserts the position and hunger invariants for every entity.
func checkInvariants(t *testing.T, r *EntityRegistry) {
	t.Helper()
	world := r.World()
	for id, p := range r.players {
		if p.Hunger < 0 || p.Hunger > r.rules.MaxHunger {
			t.Fatalf("player %s hunger %d out of range", id, p.Hunger)
		}
		if p.Alive && !world.Walkable(p.X, p.Y) {
			t.Fatalf("alive player %s on unwalkable (%d,%d)", id, p.X, p.Y)
		}
	}
	for id, m := range r.monsters {
		if !world.Walkable(m.X, m.Y) {
			t.Fatalf("monster %s on unwalkable (%d,%d)", id, m.X, m.Y)
		}
	}
	for id, f := range r.foods {
		if !world.Walkable(f.X, f.Y) {
			t.Fatalf("food %s on unwalkable (%d,%d)", id, f.X, f.Y)
		}
	}
}
