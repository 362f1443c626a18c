package redis

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/rentals/internal/domain"
)

const (
	// SavedChannel carries one SaveEvent per committed save.
	SavedChannel = "rentals:saved"
	// LastSaveKey holds the most recent SaveEvent.
	LastSaveKey = "rentals:last_save"
)

// SaveEvent describes a committed save of the data directory.
type SaveEvent struct {
	ID      uuid.UUID           `json:"id"`
	SavedAt time.Time           `json:"saved_at"`
	DataDir string              `json:"data_dir"`
	Counts  map[domain.Kind]int `json:"counts"`
	Orphans int                 `json:"orphans"`
}

func NewSaveEvent(dataDir string, counts map[domain.Kind]int, orphans int, at time.Time) SaveEvent {
	return SaveEvent{
		ID:      uuid.New(),
		SavedAt: at.UTC(),
		DataDir: dataDir,
		Counts:  counts,
		Orphans: orphans,
	}
}
