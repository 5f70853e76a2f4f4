package survey

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"glp/internal/adapters/storage"
	domain "glp/internal/domain/survey"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new survey store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const columns = "s.id, s.title, s.description, s.start_date, s.end_date, s.is_active, s.is_anonymous, s.created_by, s.created_at, s.updated_at"

// respondentExpr counts submissions.
const respondentExpr = "COUNT(DISTINCT r.submission_id)"

type scanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row scanner, extra ...any) (domain.Survey, error) {
	var s domain.Survey
	var active, anon int
	var start, end, createdAt, updatedAt sql.NullString
	dest := append([]any{&s.ID, &s.Title, &s.Description, &start, &end, &active, &anon,
		&s.CreatedBy, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Survey{}, err
	}
	s.IsActive = active == 1
	s.IsAnonymous = anon == 1
	s.StartDate = storage.ParseDate(start)
	s.EndDate = storage.ParseDate(end)
	s.CreatedAt = storage.ParseTime(createdAt)
	s.UpdatedAt = storage.ParseTime(updatedAt)
	return s, nil
}

// GetByID retrieves a Survey with its questions in order.
// PRE: id is non-empty
// POST: Returns the survey or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Survey, error) {
	sv, err := scanSurvey(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM surveys s WHERE s.id = ?", id))
	if err == sql.ErrNoRows {
		return domain.Survey{}, fmt.Errorf("survey not found: %w", err)
	}
	if err != nil {
		return domain.Survey{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, survey_id, question_text, question_type, options, is_required, order_index
		FROM survey_questions WHERE survey_id = ? ORDER BY order_index`, id)
	if err != nil {
		return domain.Survey{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var q domain.Question
		var opts string
		var required int
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Text, &q.Type, &opts, &required, &q.OrderIndex); err != nil {
			return domain.Survey{}, err
		}
		q.IsRequired = required == 1
		if opts != "" {
			if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
				return domain.Survey{}, fmt.Errorf("decode options of question %s: %w", q.ID, err)
			}
		}
		sv.Questions = append(sv.Questions, q)
	}
	return sv, rows.Err()
}

// Save upserts the survey and replaces its question set in one transaction.
// Responses to replaced questions are removed with them.
// PRE: sv has been validated, every question has an ID
// POST: Survey and exactly sv.Questions are stored, or nothing changed
func (s *SQLiteStore) Save(ctx context.Context, sv domain.Survey) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO surveys
			(id, title, description, start_date, end_date, is_active, is_anonymous, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title=excluded.title, description=excluded.description,
				start_date=excluded.start_date, end_date=excluded.end_date,
				is_active=excluded.is_active, is_anonymous=excluded.is_anonymous,
				updated_at=excluded.updated_at`,
			sv.ID, sv.Title, sv.Description, storage.FormatDate(sv.StartDate), storage.FormatDate(sv.EndDate),
			storage.BoolInt(sv.IsActive), storage.BoolInt(sv.IsAnonymous), sv.CreatedBy,
			storage.FormatTime(sv.CreatedAt), storage.FormatTime(sv.UpdatedAt)); err != nil {
			return fmt.Errorf("upsert survey: %w", err)
		}
		// Explicit delete so replacement holds even where foreign keys are not enforced.
		if _, err := tx.ExecContext(ctx, `DELETE FROM survey_responses WHERE question_id IN
			(SELECT id FROM survey_questions WHERE survey_id = ?)`, sv.ID); err != nil {
			return fmt.Errorf("delete responses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM survey_questions WHERE survey_id = ?", sv.ID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		for i, q := range sv.Questions {
			opts := q.Options
			if opts == nil {
				opts = []string{}
			}
			b, err := json.Marshal(opts)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO survey_questions
				(id, survey_id, question_text, question_type, options, is_required, order_index)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				q.ID, sv.ID, q.Text, q.Type, string(b), storage.BoolInt(q.IsRequired), i); err != nil {
				return fmt.Errorf("insert question %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func buildWhere(f ListFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.Search != "" {
		like := "%" + f.Search + "%"
		clauses = append(clauses, "(s.title LIKE ? OR s.description LIKE ?)")
		args = append(args, like, like)
	}
	if f.Active != nil {
		clauses = append(clauses, "s.is_active = ?")
		args = append(args, storage.BoolInt(*f.Active))
	}
	if f.CreatedBy != "" {
		clauses = append(clauses, "s.created_by = ?")
		args = append(args, f.CreatedBy)
	}
	return strings.Join(clauses, " AND "), args
}

// List returns survey summaries matching the filter, newest first.
// PRE: none; Limit 0 means no limit
// POST: Returns at most Limit rows
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Summary, error) {
	where, args := buildWhere(f)
	query := "SELECT " + columns + `,
		COALESCE(u.first_name || ' ' || u.last_name, ''),
		(SELECT COUNT(*) FROM survey_questions q WHERE q.survey_id = s.id),
		(SELECT ` + respondentExpr + ` FROM survey_responses r WHERE r.survey_id = s.id)
		FROM surveys s LEFT JOIN users u ON u.id = s.created_by
		WHERE ` + where + " ORDER BY s.created_at DESC, s.id"
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
		sv, err := scanSurvey(rows, &sum.CreatorName, &sum.QuestionCount, &sum.RespondentCount)
		if err != nil {
			return nil, err
		}
		sum.Survey = sv
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of surveys matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM surveys s WHERE "+where, args...).Scan(&n)
	return n, err
}

// HasResponded reports whether the user has stored responses for the survey.
func (s *SQLiteStore) HasResponded(ctx context.Context, surveyID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM survey_responses WHERE survey_id = ? AND user_id = ?", surveyID, userID).Scan(&n)
	return n > 0, err
}

// RespondedSurveyIDs returns the IDs of surveys the user has responded to.
func (s *SQLiteStore) RespondedSurveyIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT survey_id FROM survey_responses WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// SaveResponses inserts a submission's rows in one transaction.
// PRE: rows belong to one submission and carry IDs; rows without a SubmissionID take the first row's ID
// POST: All rows are stored, or none; a named submission for a survey the user already answered
// returns domain.ErrAlreadySubmitted
func (s *SQLiteStore) SaveResponses(ctx context.Context, rows []domain.Response) error {
	if len(rows) == 0 {
		return nil
	}
	submission := rows[0].SubmissionID
	if submission == "" {
		submission = rows[0].ID
	}
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if userID := rows[0].UserID; userID != "" {
			var n int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM survey_responses WHERE survey_id = ? AND user_id = ?",
				rows[0].SurveyID, userID).Scan(&n); err != nil {
				return fmt.Errorf("check prior submission: %w", err)
			}
			if n > 0 {
				return domain.ErrAlreadySubmitted
			}
		}
		for _, r := range rows {
			var value any
			if r.Value != 0 {
				value = r.Value
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO survey_responses
				(id, survey_id, question_id, user_id, submission_id, response_text, response_value, submitted_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.SurveyID, r.QuestionID, storage.NullString(r.UserID), submission, r.Text, value,
				storage.FormatTime(r.SubmittedAt)); err != nil {
				return fmt.Errorf("insert response for question %s: %w", r.QuestionID, err)
			}
		}
		return nil
	})
}

// ListResponses returns all response rows of a survey, newest first.
func (s *SQLiteStore) ListResponses(ctx context.Context, surveyID string) ([]domain.Response, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, survey_id, question_id, user_id, submission_id, response_text, response_value, submitted_at
		FROM survey_responses WHERE survey_id = ? ORDER BY submitted_at DESC, id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Response
	for rows.Next() {
		var r domain.Response
		var userID, submitted sql.NullString
		var value sql.NullInt64
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.QuestionID, &userID, &r.SubmissionID, &r.Text, &value, &submitted); err != nil {
			return nil, err
		}
		r.UserID = userID.String
		r.Value = int(value.Int64)
		r.SubmittedAt = storage.ParseTime(submitted)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRespondents returns the number of distinct submissions.
func (s *SQLiteStore) CountRespondents(ctx context.Context, surveyID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT "+respondentExpr+" FROM survey_responses r WHERE r.survey_id = ?", surveyID).Scan(&n)
	return n, err
}
