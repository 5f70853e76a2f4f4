package activity

import (
	"context"

	domain "glp/internal/domain/activity"
)

// Store persists activity log entries.
type Store interface {
	// Save persists an entry.
	// PRE: entry has an ID and message
	// POST: Entry is persisted
	Save(ctx context.Context, entry domain.Entry) error

	// ListRecent returns the newest entries.
	// PRE: limit > 0
	// POST: Returns entries ordered by time desc
	ListRecent(ctx context.Context, limit int) ([]Row, error)
}

// Row is an entry joined with the actor's username (empty for system entries).
type Row struct {
	domain.Entry
	Username string
}
