package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"glp/internal/adapters/storage"
	domain "glp/internal/domain/user"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new user store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const columns = "id, username, email, first_name, last_name, role, is_active, bio, phone, password_hash, created_at, last_login_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	var active int
	var createdAt, lastLogin sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role,
		&active, &u.Bio, &u.Phone, &u.PasswordHash, &createdAt, &lastLogin)
	if err != nil {
		return domain.User{}, err
	}
	u.IsActive = active == 1
	u.CreatedAt = storage.ParseTime(createdAt)
	u.LastLoginAt = storage.ParseTime(lastLogin)
	return u, nil
}

// GetByID retrieves a User by its ID.
// PRE: id is non-empty
// POST: Returns the user or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM users WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return domain.User{}, fmt.Errorf("user not found: %w", err)
	}
	return u, err
}

// GetByLogin retrieves a User by username or email (case-insensitive).
// PRE: login is non-empty
// POST: Returns the user or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByLogin(ctx context.Context, login string) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+columns+" FROM users WHERE username = ? COLLATE NOCASE OR email = ? COLLATE NOCASE LIMIT 1",
		login, login))
	if err == sql.ErrNoRows {
		return domain.User{}, fmt.Errorf("user not found: %w", err)
	}
	return u, err
}

// Save persists a User (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username=excluded.username, email=excluded.email,
			first_name=excluded.first_name, last_name=excluded.last_name,
			role=excluded.role, is_active=excluded.is_active,
			bio=excluded.bio, phone=excluded.phone,
			password_hash=excluded.password_hash, last_login_at=excluded.last_login_at`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Role,
		storage.BoolInt(u.IsActive), u.Bio, u.Phone, u.PasswordHash,
		storage.FormatTime(u.CreatedAt), storage.FormatTime(u.LastLoginAt))
	return err
}

// TouchLastLogin stamps last_login_at.
// PRE: id is non-empty
// POST: last_login_at = at
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET last_login_at = ? WHERE id = ?", storage.FormatTime(at), id)
	return err
}

// UsernameTaken reports whether another user already has the username.
func (s *SQLiteStore) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	return s.exists(ctx, "username", username, excludeID)
}

// EmailTaken reports whether another user already has the email.
func (s *SQLiteStore) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	return s.exists(ctx, "email", email, excludeID)
}

func (s *SQLiteStore) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+column+" = ? COLLATE NOCASE AND id != ?",
		value, excludeID).Scan(&n)
	return n > 0, err
}

func buildWhere(f ListFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.Search != "" {
		like := "%" + f.Search + "%"
		clauses = append(clauses, "(username LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if f.Role != "" {
		clauses = append(clauses, "role = ?")
		args = append(args, f.Role)
	}
	if len(f.Roles) > 0 {
		clauses = append(clauses, "role IN ("+strings.TrimSuffix(strings.Repeat("?,", len(f.Roles)), ",")+")")
		for _, r := range f.Roles {
			args = append(args, r)
		}
	}
	if f.Active != nil {
		clauses = append(clauses, "is_active = ?")
		args = append(args, storage.BoolInt(*f.Active))
	}
	return strings.Join(clauses, " AND "), args
}

// List returns users matching the filter ordered by name.
// PRE: none; Limit 0 means no limit
// POST: Returns at most Limit users
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.User, error) {
	where, args := buildWhere(f)
	query := "SELECT " + columns + " FROM users WHERE " + where + " ORDER BY first_name, last_name, username"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of users matching the filter, ignoring Limit and Offset.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&n)
	return n, err
}

// CountByRole returns active user counts keyed by role.
func (s *SQLiteStore) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM users WHERE is_active = 1 GROUP BY role")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}

// CountAll returns the total number of users, active or not.
func (s *SQLiteStore) CountAll(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
