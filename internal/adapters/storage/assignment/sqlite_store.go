package assignment

import (
	"context"
	"database/sql"
	"strings"

	"glp/internal/adapters/storage"
	domain "glp/internal/domain/assignment"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new assignment store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an Assignment (insert or update).
// PRE: a.ID, AssignedBy and AssignedTo are non-empty
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, a domain.Assignment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments
		(id, project_id, assigned_by, assigned_to, title, description, status, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id, assigned_to=excluded.assigned_to, title=excluded.title,
			description=excluded.description, status=excluded.status, due_date=excluded.due_date`,
		a.ID, storage.NullString(a.ProjectID), a.AssignedBy, a.AssignedTo, a.Title, a.Description,
		a.Status, storage.FormatDate(a.DueDate), storage.FormatTime(a.CreatedAt))
	return err
}

// List returns assignments ordered by due date, undated last.
// PRE: none; Limit 0 means no limit
// POST: Returns the matching rows
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Row, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "a.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, "a.assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	query := `SELECT a.id, a.project_id, a.assigned_by, a.assigned_to, a.title, a.description, a.status, a.due_date, a.created_at,
		COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(p.title, '')
		FROM assignments a
		LEFT JOIN users u ON u.id = a.assigned_to
		LEFT JOIN projects p ON p.id = a.project_id
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY a.due_date IS NULL, a.due_date, a.created_at`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var projectID, due, created sql.NullString
		if err := rows.Scan(&r.ID, &projectID, &r.AssignedBy, &r.AssignedTo, &r.Title, &r.Description,
			&r.Status, &due, &created, &r.AssigneeName, &r.ProjectTitle); err != nil {
			return nil, err
		}
		r.ProjectID = projectID.String
		r.DueDate = storage.ParseDate(due)
		r.CreatedAt = storage.ParseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
