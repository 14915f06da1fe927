package handlers

import (
	"sync"

	"tileworld/server/logger"
	"tileworld/server/messages"
)

// Sender is the outbound side of one client connection.
type Sender interface {
	SendMessage(msg messages.BaseMessage) error
}

// ClientManager tracks connected clients by connection id.
type ClientManager struct {
	clients map[string]Sender
	mutex   sync.RWMutex
}

// NewClientManager creates an empty client manager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]Sender),
	}
}

// AddClient registers a client.
func (cm *ClientManager) AddClient(clientID string, client Sender) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[clientID] = client
}

// RemoveClient forgets a client.
func (cm *ClientManager) RemoveClient(clientID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	delete(cm.clients, clientID)
}

// ClientCount returns the number of connected clients.
func (cm *ClientManager) ClientCount() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// BroadcastToAll sends a message to every connected client.
func (cm *ClientManager) BroadcastToAll(msg messages.BaseMessage) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for id, client := range cm.clients {
		if err := client.SendMessage(msg); err != nil {
			logger.Log.WithError(err).WithField("client_id", id).Debug("Error broadcasting to client")
		}
	}
}

// SendTo sends a message to one client, if it is still connected.
func (cm *ClientManager) SendTo(clientID string, msg messages.BaseMessage) {
	cm.mutex.RLock()
	client, ok := cm.clients[clientID]
	cm.mutex.RUnlock()
	if !ok {
		return
	}
	if err := client.SendMessage(msg); err != nil {
		logger.Log.WithError(err).WithField("client_id", clientID).Debug("Error sending to client")
	}
}
