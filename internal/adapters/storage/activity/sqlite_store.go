package activity

import (
	"context"
	"database/sql"

	"glp/internal/adapters/storage"
	domain "glp/internal/domain/activity"
)

// SQLiteStore implements the activity Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new activity log store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an activity entry.
// PRE: entry has an ID and message
// POST: Entry is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, user_id, message, ip_address, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, storage.NullString(e.UserID), e.Message, e.IPAddress, storage.FormatTime(e.CreatedAt))
	return err
}

// ListRecent returns the newest entries.
// PRE: limit > 0
// POST: Returns entries ordered by time desc
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT l.id, l.user_id, l.message, l.ip_address, l.created_at, COALESCE(u.username, '')
		FROM activity_log l LEFT JOIN users u ON u.id = l.user_id
		ORDER BY l.created_at DESC, l.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var userID, created sql.NullString
		if err := rows.Scan(&r.ID, &userID, &r.Message, &r.IPAddress, &created, &r.Username); err != nil {
			return nil, err
		}
		r.UserID = userID.String
		r.CreatedAt = storage.ParseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
