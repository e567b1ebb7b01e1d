// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord is the stored form of a finished game. Results are kept
// as a JSONB blob since they are only read back whole.
type GormGameRecord struct {
	gorm.Model
	RoomID   string `gorm:"index;not null"`
	RoomName string `gorm:"not null"`
	Rounds   int    `gorm:"default:0"`
	Results  []byte `gorm:"type:jsonb;not null"`
}

// GormPlayerCareer is the per-name career aggregate.
type GormPlayerCareer struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null"`
	GamesPlayed int    `gorm:"default:0"`
	GamesWon    int    `gorm:"default:0"`
	TotalScore  int    `gorm:"default:0"`
	BestScore   int    `gorm:"default:0"`
}
