package services

import (
	"tileworld/server/messages"
)

// Broadcaster delivers envelopes to connected clients. Delivery is
// fire-and-forget; implementations must not block the caller.
type Broadcaster interface {
	BroadcastToAll(msg messages.BaseMessage)
	SendTo(clientID string, msg messages.BaseMessage)
}

// StateBroadcaster serialises the registry and pushes it out.
type StateBroadcaster struct {
	registry *EntityRegistry
	out      Broadcaster
}

// NewStateBroadcaster binds a registry to an outbound channel.
func NewStateBroadcaster(registry *EntityRegistry, out Broadcaster) *StateBroadcaster {
	return &StateBroadcaster{registry: registry, out: out}
}

// BroadcastState sends the full snapshot to every client.
func (b *StateBroadcaster) BroadcastState() {
	b.out.BroadcastToAll(messages.NewState(b.registry.Snapshot()))
}

// BroadcastMessage sends a chat line to every client.
func (b *StateBroadcaster) BroadcastMessage(from, text string) {
	b.out.BroadcastToAll(messages.NewMessage(from, text))
}

// SendPrivate sends a system notice to one client.
func (b *StateBroadcaster) SendPrivate(playerID, text string) {
	b.out.SendTo(playerID, messages.NewSystemMessage(text))
}

// SendInit sends the joining client the map and the current snapshot.
func (b *StateBroadcaster) SendInit(playerID string) {
	world := b.registry.World()
	state := b.registry.Snapshot()
	b.out.SendTo(playerID, messages.BaseMessage{
		Type: messages.MessageTypeInit,
		Payload: messages.InitMessage{
			Map:      world.Tiles,
			Width:    world.Width,
			Height:   world.Height,
			PlayerID: playerID,
			Players:  state.Players,
			Monsters: state.Monsters,
			Foods:    state.Foods,
		},
	})
}
