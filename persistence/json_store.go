package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"tileworld/server/models"
)

// JSONStore archives sessions in a local JSON file.
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	writeMu  sync.Mutex
	data     *JSONData
}

// JSONData is the on-disk layout of the store.
type JSONData struct {
	Sessions map[string]models.SessionRecord `json:"sessions"`
}

// NewJSONStore opens filePath, creating it when missing.
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &JSONData{
			Sessions: make(map[string]models.SessionRecord),
		},
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %w", err)
		}
	} else {
		if err := store.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create JSON store file: %w", err)
		}
	}

	return store, nil
}

func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Sessions == nil {
		js.data.Sessions = make(map[string]models.SessionRecord)
	}
	return nil
}

// saveToFile writes through a temp file so a crash never leaves a
// truncated store behind.
func (js *JSONStore) saveToFile() error {
	js.writeMu.Lock()
	defer js.writeMu.Unlock()

	js.mutex.RLock()
	data, err := json.MarshalIndent(js.data, "", "  ")
	js.mutex.RUnlock()
	if err != nil {
		return err
	}

	tmp := js.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, js.filePath)
}

// SaveSession stores a record and flushes the file.
func (js *JSONStore) SaveSession(rec *models.SessionRecord) error {
	js.mutex.Lock()
	js.data.Sessions[rec.ID] = *rec
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadSessionsByNickname returns the nickname's sessions, oldest first.
func (js *JSONStore) LoadSessionsByNickname(nickname string) ([]models.SessionRecord, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	out := []models.SessionRecord{}
	for _, rec := range js.data.Sessions {
		if rec.Nickname == nickname {
			out = append(out, rec)
		}
	}
	return byLeftAt(out), nil
}

// TopSessions returns the highest scoring sessions.
func (js *JSONStore) TopSessions(limit int) ([]models.SessionRecord, error) {
	js.mutex.RLock()
	out := make([]models.SessionRecord, 0, len(js.data.Sessions))
	for _, rec := range js.data.Sessions {
		out = append(out, rec)
	}
	js.mutex.RUnlock()
	return rankSessions(out, limit), nil
}

// Close is a no-op; every save is already flushed.
func (js *JSONStore) Close() error {
	return nil
}
