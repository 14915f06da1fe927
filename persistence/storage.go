package persistence

import (
	"sort"

	"tileworld/server/models"
)

// Storage archives finished play sessions. Nothing stored here is read
// back into a running world.
type Storage interface {
	SaveSession(rec *models.SessionRecord) error
	LoadSessionsByNickname(nickname string) ([]models.SessionRecord, error)
	TopSessions(limit int) ([]models.SessionRecord, error)
	Close() error
}

// rankSessions orders records by score, most recent first on ties, and
// keeps at most limit of them.
func rankSessions(recs []models.SessionRecord, limit int) []models.SessionRecord {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].LeftAt.After(recs[j].LeftAt)
	})
	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// byLeftAt orders records oldest first.
func byLeftAt(recs []models.SessionRecord) []models.SessionRecord {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].LeftAt.Before(recs[j].LeftAt)
	})
	return recs
}
