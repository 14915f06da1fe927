package messages

import "tileworld/server/models"

// MessageType names an event on the wire.
type MessageType string

// Client → server events.
const (
	MessageTypeJoin        MessageType = "join"
	MessageTypeMove        MessageType = "move"
	MessageTypeCatch       MessageType = "catch"
	MessageTypeCollectFood MessageType = "collectFood"
	MessageTypeChat        MessageType = "chat"
	MessageTypeRespawn     MessageType = "respawn"
)

// Server → client events.
const (
	MessageTypeInit    MessageType = "init"
	MessageTypeState   MessageType = "state"
	MessageTypeMessage MessageType = "message"
)

// SystemSender is the "from" field of private server notices.
const SystemSender = "System"

// BaseMessage is the envelope for every event in both directions.
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// JoinMessage is the join request payload.
type JoinMessage struct {
	Nickname string `json:"nickname"`
}

// StateMessage is a full snapshot of every entity, keyed by id.
type StateMessage struct {
	Players  map[string]*models.Player  `json:"players"`
	Monsters map[string]*models.Monster `json:"monsters"`
	Foods    map[string]*models.Food    `json:"foods"`
}

// InitMessage is sent once to a joining client.
type InitMessage struct {
	Map      [][]models.TileType        `json:"map"`
	Width    int                        `json:"width"`
	Height   int                        `json:"height"`
	PlayerID string                     `json:"playerId"`
	Players  map[string]*models.Player  `json:"players"`
	Monsters map[string]*models.Monster `json:"monsters"`
	Foods    map[string]*models.Food    `json:"foods"`
}

// ChatMessage is a chat line or a system notice.
type ChatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// NewState wraps a snapshot in an envelope.
func NewState(s StateMessage) BaseMessage {
	return BaseMessage{Type: MessageTypeState, Payload: s}
}

// NewMessage wraps a chat line or notice in an envelope.
func NewMessage(from, text string) BaseMessage {
	return BaseMessage{Type: MessageTypeMessage, Payload: ChatMessage{From: from, Text: text}}
}

// NewSystemMessage builds a private notice from the server.
func NewSystemMessage(text string) BaseMessage {
	return NewMessage(SystemSender, text)
}
