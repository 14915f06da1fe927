package models

import "time"

// SessionRecord summarises one player's visit, written when they leave.
type SessionRecord struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Nickname  string    `json:"nickname"`
	Score     int       `json:"score"`
	FoodEaten int       `json:"food_eaten"`
	JoinedAt  time.Time `json:"joined_at"`
	LeftAt    time.Time `json:"left_at"`
}
