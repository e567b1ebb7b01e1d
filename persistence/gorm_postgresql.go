// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/basta/models"
)

// GormPostgreSQL is the GORM-backed Database implementation.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormGameRecord{}, &models.GormPlayerCareer{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	results, err := json.Marshal(record.Results)
	if err != nil {
		return err
	}
	row := models.GormGameRecord{
		RoomID:   record.RoomID,
		RoomName: record.RoomName,
		Rounds:   record.Rounds,
		Results:  results,
	}
	return p.db.Create(&row).Error
}

func (p *GormPostgreSQL) UpdatePlayerCareer(name string, score int, won bool) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var career models.GormPlayerCareer
		err := tx.Where("name = ?", name).First(&career).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			career = models.GormPlayerCareer{Name: name}
		} else if err != nil {
			return err
		}

		career.GamesPlayed++
		career.TotalScore += score
		if won {
			career.GamesWon++
		}
		if score > career.BestScore {
			career.BestScore = score
		}
		return tx.Save(&career).Error
	})
}

func (p *GormPostgreSQL) GetPlayerCareer(name string) (*models.PlayerCareer, error) {
	var career models.GormPlayerCareer
	err := p.db.Where("name = ?", name).First(&career).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.PlayerCareer{
		Name:        career.Name,
		GamesPlayed: career.GamesPlayed,
		GamesWon:    career.GamesWon,
		TotalScore:  career.TotalScore,
		BestScore:   career.BestScore,
		UpdatedAt:   career.UpdatedAt,
	}, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
