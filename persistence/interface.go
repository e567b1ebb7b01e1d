// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/basta/models"
)

// Database stores finished games and per-player career aggregates. The
// engine runs fine without one; persistence is best-effort.
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	UpdatePlayerCareer(name string, score int, won bool) error
	GetPlayerCareer(name string) (*models.PlayerCareer, error)
	Close() error
}

var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
