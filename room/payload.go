package room

import "time"

// PlayerView is the wire representation of a seat.
type PlayerView struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	IsCreator bool   `json:"isCreator"`
	Connected bool   `json:"connected"`
	Submitted bool   `json:"submitted"`
}

// StatePayload is the roomState notification body.
type StatePayload struct {
	RoomID        string       `json:"roomId"`
	Name          string       `json:"name"`
	Players       []PlayerView `json:"players"`
	IsPlaying     bool         `json:"isPlaying"`
	Phase         string       `json:"phase"`
	CurrentRound  int          `json:"currentRound"`
	MaxRounds     int          `json:"maxRounds"`
	CurrentLetter string       `json:"currentLetter"`
	TimeRemaining int          `json:"timeRemaining"`
	Categories    []string     `json:"categories"`
	ServerTime    int64        `json:"serverTime"`
	TimerEndsAt   int64        `json:"timerEndsAt,omitempty"`
}

// Summary is one row of the room directory listing. CurrentPlayers counts
// connected players only.
type Summary struct {
	RoomID         string    `json:"roomId"`
	Name           string    `json:"name"`
	CurrentPlayers int       `json:"currentPlayers"`
	MaxPlayers     int       `json:"maxPlayers"`
	IsPrivate      bool      `json:"isPrivate"`
	CreatedAt      time.Time `json:"createdAt"`
}
