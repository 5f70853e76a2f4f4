package training

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"glp/internal/adapters/storage"
	domain "glp/internal/domain/training"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new training store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const columns = "t.id, t.title, t.description, t.session_date, t.duration_minutes, t.location, t.instructor_id, t.max_participants, t.status, t.created_by, t.created_at, t.updated_at"

// takenExpr counts rows occupying a seat.
const takenExpr = "(SELECT COUNT(*) FROM session_attendance a WHERE a.session_id = t.id AND a.status IN ('registered', 'attended'))"

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner, extra ...any) (domain.Session, error) {
	var s domain.Session
	var date, createdAt, updatedAt sql.NullString
	var maxP sql.NullInt64
	dest := append([]any{&s.ID, &s.Title, &s.Description, &date, &s.DurationMinutes, &s.Location,
		&s.InstructorID, &maxP, &s.Status, &s.CreatedBy, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Session{}, err
	}
	s.SessionDate = storage.ParseTime(date)
	s.MaxParticipants = int(maxP.Int64)
	s.CreatedAt = storage.ParseTime(createdAt)
	s.UpdatedAt = storage.ParseTime(updatedAt)
	return s, nil
}

// GetByID retrieves a Session by its ID.
// PRE: id is non-empty
// POST: Returns the session or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM training_sessions t WHERE t.id = ?", id))
	if err == sql.ErrNoRows {
		return domain.Session{}, fmt.Errorf("session not found: %w", err)
	}
	return sess, err
}

// Save persists a Session (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted; created_by and created_at are kept on update
func (s *SQLiteStore) Save(ctx context.Context, t domain.Session) error {
	var maxP any
	if t.MaxParticipants > 0 {
		maxP = t.MaxParticipants
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO training_sessions
		(id, title, description, session_date, duration_minutes, location, instructor_id, max_participants, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, description=excluded.description, session_date=excluded.session_date,
			duration_minutes=excluded.duration_minutes, location=excluded.location,
			instructor_id=excluded.instructor_id, max_participants=excluded.max_participants,
			status=excluded.status, updated_at=excluded.updated_at`,
		t.ID, t.Title, t.Description, storage.FormatTime(t.SessionDate), t.DurationMinutes, t.Location,
		t.InstructorID, maxP, t.Status, t.CreatedBy, storage.FormatTime(t.CreatedAt), storage.FormatTime(t.UpdatedAt))
	return err
}

func buildWhere(f ListFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.Search != "" {
		like := "%" + f.Search + "%"
		clauses = append(clauses, "(t.title LIKE ? OR t.location LIKE ?)")
		args = append(args, like, like)
	}
	if f.Status != "" {
		clauses = append(clauses, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.InstructorID != "" {
		clauses = append(clauses, "t.instructor_id = ?")
		args = append(args, f.InstructorID)
	}
	if f.AttendeeID != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM session_attendance m WHERE m.session_id = t.id AND m.user_id = ? AND m.status != 'cancelled')")
		args = append(args, f.AttendeeID)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "t.session_date >= ?")
		args = append(args, storage.FormatTime(f.From))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "t.session_date < ?")
		args = append(args, storage.FormatTime(f.To))
	}
	return strings.Join(clauses, " AND "), args
}

// List returns session summaries matching the filter ordered by date.
// PRE: none; Limit 0 means no limit
// POST: Returns at most Limit rows
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Summary, error) {
	where, args := buildWhere(f)
	order := "ASC"
	if f.Descending {
		order = "DESC"
	}
	query := "SELECT " + columns + `,
		COALESCE(u.first_name || ' ' || u.last_name, ''), ` + takenExpr + `
		FROM training_sessions t LEFT JOIN users u ON u.id = t.instructor_id
		WHERE ` + where + " ORDER BY t.session_date " + order + ", t.id"
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
		sess, err := scanSession(rows, &sum.InstructorName, &sum.Taken)
		if err != nil {
			return nil, err
		}
		sum.Session = sess
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of sessions matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM training_sessions t WHERE "+where, args...).Scan(&n)
	return n, err
}

// CountByStatus returns session counts keyed by status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM training_sessions GROUP BY status")
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

const attendanceColumns = "id, session_id, user_id, status, notes, registration_date, attendance_date"

func scanAttendance(row scanner, extra ...any) (domain.Attendance, error) {
	var a domain.Attendance
	var reg, att sql.NullString
	dest := append([]any{&a.ID, &a.SessionID, &a.UserID, &a.Status, &a.Notes, &reg, &att}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Attendance{}, err
	}
	a.RegistrationDate = storage.ParseTime(reg)
	a.AttendanceDate = storage.ParseTime(att)
	return a, nil
}

// GetAttendance retrieves the attendance row for a (session, user) pair.
// PRE: sessionID and userID are non-empty
// POST: Returns the row or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetAttendance(ctx context.Context, sessionID, userID string) (domain.Attendance, error) {
	a, err := scanAttendance(s.db.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM session_attendance WHERE session_id = ? AND user_id = ?", sessionID, userID))
	if err == sql.ErrNoRows {
		return domain.Attendance{}, fmt.Errorf("attendance not found: %w", err)
	}
	return a, err
}

// SaveAttendance upserts attendance rows keyed by (session, user) in one transaction.
// attendance_date is never cleared: a NULL incoming value keeps the stored one.
// PRE: rows carry IDs used only when inserting
// POST: One row per (session, user) reflects the given status and notes
func (s *SQLiteStore) SaveAttendance(ctx context.Context, rows []domain.Attendance) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, a := range rows {
			if _, err := tx.ExecContext(ctx, `INSERT INTO session_attendance (`+attendanceColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(session_id, user_id) DO UPDATE SET
					status=excluded.status, notes=excluded.notes,
					attendance_date=COALESCE(session_attendance.attendance_date, excluded.attendance_date)`,
				a.ID, a.SessionID, a.UserID, a.Status, a.Notes,
				storage.FormatTime(a.RegistrationDate), storage.FormatTime(a.AttendanceDate)); err != nil {
				return fmt.Errorf("upsert attendance for %s: %w", a.UserID, err)
			}
		}
		return nil
	})
}

// RegisterMany inserts registered rows, skipping users who already have a row.
// PRE: rows carry IDs
// POST: Returns how many rows were inserted; running it twice inserts nothing the second time
func (s *SQLiteStore) RegisterMany(ctx context.Context, rows []domain.Attendance) (int, error) {
	inserted := 0
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, a := range rows {
			res, err := tx.ExecContext(ctx, `INSERT INTO session_attendance (`+attendanceColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, NULL)
				ON CONFLICT(session_id, user_id) DO NOTHING`,
				a.ID, a.SessionID, a.UserID, a.Status, a.Notes, storage.FormatTime(a.RegistrationDate))
			if err != nil {
				return fmt.Errorf("register %s: %w", a.UserID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListAttendance returns the session's attendance rows ordered by name.
func (s *SQLiteStore) ListAttendance(ctx context.Context, sessionID string) ([]Attendee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.session_id, a.user_id, a.status, a.notes, a.registration_date, a.attendance_date,
		u.username, u.first_name, u.last_name, u.role
		FROM session_attendance a JOIN users u ON u.id = a.user_id
		WHERE a.session_id = ? ORDER BY u.first_name, u.last_name`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attendee
	for rows.Next() {
		var at Attendee
		a, err := scanAttendance(rows, &at.Username, &at.FirstName, &at.LastName, &at.Role)
		if err != nil {
			return nil, err
		}
		at.Attendance = a
		out = append(out, at)
	}
	return out, rows.Err()
}

// CountTaken returns the number of registered or attended rows for the session.
func (s *SQLiteStore) CountTaken(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_attendance WHERE session_id = ? AND status IN ('registered', 'attended')",
		sessionID).Scan(&n)
	return n, err
}
