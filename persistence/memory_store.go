package persistence

import (
	"sync"

	"tileworld/server/models"
)

// MemoryStore keeps sessions in process memory. It writes no files.
type MemoryStore struct {
	mutex    sync.RWMutex
	sessions []models.SessionRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSession appends a record.
func (ms *MemoryStore) SaveSession(rec *models.SessionRecord) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	ms.sessions = append(ms.sessions, *rec)
	return nil
}

// LoadSessionsByNickname returns the nickname's sessions, oldest first.
func (ms *MemoryStore) LoadSessionsByNickname(nickname string) ([]models.SessionRecord, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	out := []models.SessionRecord{}
	for _, rec := range ms.sessions {
		if rec.Nickname == nickname {
			out = append(out, rec)
		}
	}
	return byLeftAt(out), nil
}

// TopSessions returns the highest scoring sessions.
func (ms *MemoryStore) TopSessions(limit int) ([]models.SessionRecord, error) {
	ms.mutex.RLock()
	out := append([]models.SessionRecord{}, ms.sessions...)
	ms.mutex.RUnlock()
	return rankSessions(out, limit), nil
}

// Close is a no-op.
func (ms *MemoryStore) Close() error {
	return nil
}
