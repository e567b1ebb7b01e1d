// models/models.go
package models

import (
	"time"
)

// PlayerResult is one player's final line in a finished game.
type PlayerResult struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}

// GameRecord captures a finished game for persistence.
type GameRecord struct {
	RoomID    string         `json:"room_id"`
	RoomName  string         `json:"room_name"`
	Rounds    int            `json:"rounds"`
	Results   []PlayerResult `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
}

// PlayerCareer aggregates a display name's history across games.
type PlayerCareer struct {
	Name        string    `json:"name"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	TotalScore  int       `json:"total_score"`
	BestScore   int       `json:"best_score"`
	UpdatedAt   time.Time `json:"updated_at"`
}
