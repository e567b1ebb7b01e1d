// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/wfunc/basta/models"
)

// PostgreSQL is the plain database/sql Database implementation, for
// deployments that prefer raw SQL over GORM.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            room_name VARCHAR(255) NOT NULL,
            rounds INT NOT NULL,
            results JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS player_careers (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) UNIQUE NOT NULL,
            games_played INT NOT NULL DEFAULT 0,
            games_won INT NOT NULL DEFAULT 0,
            total_score INT NOT NULL DEFAULT 0,
            best_score INT NOT NULL DEFAULT 0,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	return err
}

func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	results, err := json.Marshal(record.Results)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(`
        INSERT INTO game_records (room_id, room_name, rounds, results)
        VALUES ($1, $2, $3, $4)
    `, record.RoomID, record.RoomName, record.Rounds, results)
	return err
}

func (p *PostgreSQL) UpdatePlayerCareer(name string, score int, won bool) error {
	wonInc := 0
	if won {
		wonInc = 1
	}
	_, err := p.db.Exec(`
        INSERT INTO player_careers (name, games_played, games_won, total_score, best_score, updated_at)
        VALUES ($1, 1, $2, $3, $3, CURRENT_TIMESTAMP)
        ON CONFLICT (name) DO UPDATE SET
            games_played = player_careers.games_played + 1,
            games_won = player_careers.games_won + $2,
            total_score = player_careers.total_score + $3,
            best_score = GREATEST(player_careers.best_score, $3),
            updated_at = CURRENT_TIMESTAMP
    `, name, wonInc, score)
	return err
}

func (p *PostgreSQL) GetPlayerCareer(name string) (*models.PlayerCareer, error) {
	var career models.PlayerCareer
	err := p.db.QueryRow(`
        SELECT name, games_played, games_won, total_score, best_score, updated_at
        FROM player_careers WHERE name = $1
    `, name).Scan(&career.Name, &career.GamesPlayed, &career.GamesWon,
		&career.TotalScore, &career.BestScore, &career.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &career, nil
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
