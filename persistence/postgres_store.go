package persistence

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"tileworld/server/logger"
	"tileworld/server/models"
)

// PostgresStore archives sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects and makes sure the schema exists.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (dm *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		nickname TEXT NOT NULL,
		score INTEGER NOT NULL,
		food_eaten INTEGER NOT NULL,
		joined_at TIMESTAMP WITH TIME ZONE NOT NULL,
		left_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS sessions_nickname_idx ON sessions (nickname);
	CREATE INDEX IF NOT EXISTS sessions_score_idx ON sessions (score DESC, left_at DESC);
	`

	_, err := dm.db.Exec(schema)
	return err
}

// SaveSession inserts a record, overwriting one with the same id.
func (dm *PostgresStore) SaveSession(rec *models.SessionRecord) error {
	query := `
	INSERT INTO sessions (id, player_id, nickname, score, food_eaten, joined_at, left_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id)
	DO UPDATE SET
		score = $4, food_eaten = $5, left_at = $7
	`

	_, err := dm.db.Exec(query,
		rec.ID, rec.PlayerID, rec.Nickname, rec.Score, rec.FoodEaten,
		rec.JoinedAt, rec.LeftAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSessionsByNickname returns the nickname's sessions, oldest first.
func (dm *PostgresStore) LoadSessionsByNickname(nickname string) ([]models.SessionRecord, error) {
	query := `SELECT id, player_id, nickname, score, food_eaten, joined_at, left_at
	FROM sessions WHERE nickname = $1 ORDER BY left_at ASC`
	return dm.query(query, nickname)
}

// TopSessions returns the highest scoring sessions.
func (dm *PostgresStore) TopSessions(limit int) ([]models.SessionRecord, error) {
	query := `SELECT id, player_id, nickname, score, food_eaten, joined_at, left_at
	FROM sessions ORDER BY score DESC, left_at DESC LIMIT $1`
	return dm.query(query, limit)
}

func (dm *PostgresStore) query(query string, args ...interface{}) ([]models.SessionRecord, error) {
	rows, err := dm.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	out := []models.SessionRecord{}
	for rows.Next() {
		var rec models.SessionRecord
		if err := rows.Scan(
			&rec.ID, &rec.PlayerID, &rec.Nickname, &rec.Score, &rec.FoodEaten,
			&rec.JoinedAt, &rec.LeftAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (dm *PostgresStore) Close() error {
	logger.Log.Info("Closing database connection...")
	return dm.db.Close()
}
