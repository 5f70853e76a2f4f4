package project

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"glp/internal/adapters/storage"
	domain "glp/internal/domain/project"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new project store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const columns = "p.id, p.title, p.description, p.status, p.priority, p.start_date, p.end_date, p.created_by, p.created_at, p.updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner, extra ...any) (domain.Project, error) {
	var p domain.Project
	var start, end, createdAt, updatedAt sql.NullString
	dest := append([]any{&p.ID, &p.Title, &p.Description, &p.Status, &p.Priority,
		&start, &end, &p.CreatedBy, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Project{}, err
	}
	p.StartDate = storage.ParseDate(start)
	p.EndDate = storage.ParseDate(end)
	p.CreatedAt = storage.ParseTime(createdAt)
	p.UpdatedAt = storage.ParseTime(updatedAt)
	return p, nil
}

// GetByID retrieves a Project by its ID.
// PRE: id is non-empty
// POST: Returns the project or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM projects p WHERE p.id = ?", id))
	if err == sql.ErrNoRows {
		return domain.Project{}, fmt.Errorf("project not found: %w", err)
	}
	return p, err
}

// Create inserts a new project together with its leader row in one transaction.
// PRE: p has been validated, leader.ProjectID == p.ID
// POST: Both rows exist, or neither does
func (s *SQLiteStore) Create(ctx context.Context, p domain.Project, leader domain.Participant) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects
			(id, title, description, status, priority, start_date, end_date, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Description, p.Status, p.Priority,
			storage.FormatDate(p.StartDate), storage.FormatDate(p.EndDate),
			p.CreatedBy, storage.FormatTime(p.CreatedAt), storage.FormatTime(p.UpdatedAt)); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_participants
			(project_id, user_id, role_in_project, joined_date) VALUES (?, ?, ?, ?)`,
			leader.ProjectID, leader.UserID, leader.RoleInProject, storage.FormatTime(leader.JoinedDate)); err != nil {
			return fmt.Errorf("insert leader: %w", err)
		}
		return nil
	})
}

// Save updates an existing project's mutable fields.
// PRE: p has been validated and exists
// POST: Row updated; created_by and created_at are never changed
func (s *SQLiteStore) Save(ctx context.Context, p domain.Project) error {
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET
		title = ?, description = ?, status = ?, priority = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Description, p.Status, p.Priority,
		storage.FormatDate(p.StartDate), storage.FormatDate(p.EndDate), storage.FormatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project not found: %w", sql.ErrNoRows)
	}
	return nil
}

func buildWhere(f ListFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.Search != "" {
		like := "%" + f.Search + "%"
		clauses = append(clauses, "(p.title LIKE ? OR p.description LIKE ?)")
		args = append(args, like, like)
	}
	if f.Status != "" {
		clauses = append(clauses, "p.status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		clauses = append(clauses, "p.priority = ?")
		args = append(args, f.Priority)
	}
	if f.MemberID != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM project_participants m WHERE m.project_id = p.id AND m.user_id = ?)")
		args = append(args, f.MemberID)
	}
	return strings.Join(clauses, " AND "), args
}

// List returns project summaries matching the filter, newest first.
// PRE: none; Limit 0 means no limit
// POST: Returns at most Limit rows
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Summary, error) {
	where, args := buildWhere(f)
	query := "SELECT " + columns + `,
		COALESCE(u.first_name || ' ' || u.last_name, ''),
		(SELECT COUNT(*) FROM project_participants pp WHERE pp.project_id = p.id)
		FROM projects p LEFT JOIN users u ON u.id = p.created_by
		WHERE ` + where + " ORDER BY p.created_at DESC, p.id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		p, err := scanProject(rows, &sum.CreatorName, &sum.ParticipantCount)
		if err != nil {
			return nil, err
		}
		sum.Project = p
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of projects matching the filter, ignoring Limit and Offset.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects p WHERE "+where, args...).Scan(&n)
	return n, err
}

// CountByStatus returns project counts keyed by status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM projects GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// GetParticipant retrieves one participation row.
// PRE: projectID and userID are non-empty
// POST: Returns the row or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetParticipant(ctx context.Context, projectID, userID string) (domain.Participant, error) {
	var p domain.Participant
	var joined sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT project_id, user_id, role_in_project, joined_date FROM project_participants WHERE project_id = ? AND user_id = ?",
		projectID, userID).Scan(&p.ProjectID, &p.UserID, &p.RoleInProject, &joined)
	if err == sql.ErrNoRows {
		return domain.Participant{}, fmt.Errorf("participant not found: %w", err)
	}
	p.JoinedDate = storage.ParseTime(joined)
	return p, err
}

// AddParticipant inserts a participation row.
// PRE: the (project, user) pair does not exist yet
// POST: Row inserted; a duplicate pair returns the constraint error
func (s *SQLiteStore) AddParticipant(ctx context.Context, p domain.Participant) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO project_participants (project_id, user_id, role_in_project, joined_date) VALUES (?, ?, ?, ?)",
		p.ProjectID, p.UserID, p.RoleInProject, storage.FormatTime(p.JoinedDate))
	return err
}

// RemoveParticipant deletes a participation row.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, projectID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM project_participants WHERE project_id = ? AND user_id = ?", projectID, userID)
	return err
}

// ListParticipants returns the project's participants, leaders first.
func (s *SQLiteStore) ListParticipants(ctx context.Context, projectID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pp.project_id, pp.user_id, pp.role_in_project, pp.joined_date,
		u.username, u.first_name, u.last_name, u.email
		FROM project_participants pp JOIN users u ON u.id = pp.user_id
		WHERE pp.project_id = ?
		ORDER BY CASE pp.role_in_project WHEN 'leader' THEN 0 WHEN 'member' THEN 1 ELSE 2 END, pp.joined_date`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		var joined sql.NullString
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.RoleInProject, &joined,
			&m.Username, &m.FirstName, &m.LastName, &m.Email); err != nil {
			return nil, err
		}
		m.JoinedDate = storage.ParseTime(joined)
		out = append(out, m)
	}
	return out, rows.Err()
}
