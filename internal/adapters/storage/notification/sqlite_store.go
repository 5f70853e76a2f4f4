package notification

import (
	"context"
	"database/sql"

	"glp/internal/adapters/storage"
	domain "glp/internal/domain/notification"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new notification store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts a notification.
// PRE: n has been validated
// POST: Row inserted
func (s *SQLiteStore) Save(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO notifications
		(id, user_id, title, message, type, link, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, n.Link, storage.BoolInt(n.IsRead), storage.FormatTime(n.CreatedAt))
	return err
}

func buildWhere(f ListFilter) (string, []any) {
	where := "user_id = ?"
	args := []any{f.UserID}
	if f.UnreadOnly {
		where += " AND is_read = 0"
	}
	return where, args
}

// List returns the user's notifications, newest first.
// PRE: f.UserID is non-empty; Limit 0 means no limit
// POST: Returns at most Limit rows
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Notification, error) {
	where, args := buildWhere(f)
	query := "SELECT id, user_id, title, message, type, link, is_read, created_at FROM notifications WHERE " +
		where + " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var read int
		var created sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Link, &read, &created); err != nil {
			return nil, err
		}
		n.IsRead = read == 1
		n.CreatedAt = storage.ParseTime(created)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Count returns the number of the user's notifications matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications WHERE "+where, args...).Scan(&n)
	return n, err
}

// MarkRead marks one of the user's notifications read.
// PRE: id and userID are non-empty
// POST: Returns false when no unread notification of that user matched
func (s *SQLiteStore) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ? AND is_read = 0", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkAllRead marks every unread notification of the user read and returns how many changed.
func (s *SQLiteStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
