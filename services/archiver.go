package services

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"tileworld/server/logger"
	"tileworld/server/models"
	"tileworld/server/persistence"
)

// Archiver writes finished sessions to storage off the game loop.
type Archiver struct {
	store   persistence.Storage
	records chan models.SessionRecord

	mu      sync.Mutex
	stopped bool
}

// NewArchiver creates an archiver with a queue of the given size.
func NewArchiver(store persistence.Storage, buffer int) *Archiver {
	return &Archiver{
		store:   store,
		records: make(chan models.SessionRecord, buffer),
	}
}

// Record queues a session without blocking. It reports false when the
// record was dropped because the queue is full or Run has stopped.
func (a *Archiver) Record(rec models.SessionRecord) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		logger.Log.WithField("player_id", rec.PlayerID).Warn("Session archiver stopped, dropping record")
		return false
	}
	select {
	case a.records <- rec:
		return true
	default:
		logger.Log.WithField("player_id", rec.PlayerID).Warn("Session archive queue full, dropping record")
		return false
	}
}

// Run saves queued records until ctx is done, then flushes what is left.
// Records arriving after that are refused, so cancel ctx only once the
// engine feeding the archiver has stopped.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case rec := <-a.records:
			a.save(rec)
		case <-ctx.Done():
			a.mu.Lock()
			a.stopped = true
			a.mu.Unlock()
			for {
				select {
				case rec := <-a.records:
					a.save(rec)
				default:
					return
				}
			}
		}
	}
}

func (a *Archiver) save(rec models.SessionRecord) {
	if err := a.store.SaveSession(&rec); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"session_id": rec.ID,
			"player_id":  rec.PlayerID,
		}).Error("Failed to archive session")
	}
}

// sessionRecord summarises a departing player.
func sessionRecord(p *models.Player, leftAt time.Time) models.SessionRecord {
	return models.SessionRecord{
		ID:        ulid.Make().String(),
		PlayerID:  p.ID,
		Nickname:  p.Nickname,
		Score:     p.Score,
		FoodEaten: p.FoodEaten,
		JoinedAt:  p.JoinedAt,
		LeftAt:    leftAt,
	}
}
