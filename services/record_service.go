// services/record_service.go
package services

import (
	"time"

	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/models"
	"github.com/wfunc/basta/persistence"
	"github.com/wfunc/basta/scoring"
)

// RecordService persists finished games and serves career lookups. With
// a nil database every call is a no-op; the game loop never depends on
// storage being up.
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// SaveFinishedGame writes the game record and bumps every player's
// career. standings must already be sorted descending.
func (s *RecordService) SaveFinishedGame(roomID, roomName string, rounds int, standings []scoring.Standing) {
	if s.db == nil || len(standings) == 0 {
		return
	}

	record := &models.GameRecord{
		RoomID:    roomID,
		RoomName:  roomName,
		Rounds:    rounds,
		CreatedAt: time.Now(),
	}
	for i, standing := range standings {
		record.Results = append(record.Results, models.PlayerResult{
			Name:     standing.Name,
			Score:    standing.Score,
			Position: i + 1,
		})
	}

	if err := s.db.SaveGameRecord(record); err != nil {
		logger.Log.Warnf("could not save game record for room %s: %v", roomID, err)
		return
	}

	topScore := standings[0].Score
	for _, standing := range standings {
		won := standing.Score == topScore
		if err := s.db.UpdatePlayerCareer(standing.Name, standing.Score, won); err != nil {
			logger.Log.Warnf("could not update career for %s: %v", standing.Name, err)
		}
	}
}

// GetPlayerCareer looks up a display name's aggregate history.
func (s *RecordService) GetPlayerCareer(name string) (*models.PlayerCareer, error) {
	if s.db == nil {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.GetPlayerCareer(name)
}
