// Package store persists the question pool and the append-only submission
// trail in Postgres, and fronts the full-dataset feed with a Redis cache.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/contextisneeded/questiond/internal/questions"
	"github.com/contextisneeded/questiond/internal/ratelimit"
)

type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// QuestionRecord is a persisted question with its creation time, which also
// serves as the keyset cursor for the admin listing.
type QuestionRecord struct {
	ID        string
	Question  questions.Question
	CreatedAt time.Time
}

// Question operations

func (s *Store) AddQuestion(ctx context.Context, q questions.Question) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO questions (id, title, url, site, created_at) VALUES ($1,$2,$3,$4,NOW())`,
		id, q.Title, q.URL, q.Site)
	return id, err
}

func (s *Store) ListQuestions(ctx context.Context) ([]questions.Question, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT title, url, site FROM questions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []questions.Question
	for rows.Next() {
		var q questions.Question
		if err := rows.Scan(&q.Title, &q.URL, &q.Site); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RandomQuestion loads the pool and picks one entry with the injected index
// provider. Returns nil when the pool is empty.
func (s *Store) RandomQuestion(ctx context.Context, pick func(n int) int) (*questions.Question, error) {
	pool, err := s.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}
	q := pool[pick(len(pool))]
	return &q, nil
}

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

// ListQuestionsPage returns up to limit questions ordered newest first. A
// zero before time starts at the top; otherwise the page continues strictly
// before that cursor.
func (s *Store) ListQuestionsPage(ctx context.Context, limit int, before time.Time) ([]QuestionRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if before.IsZero() {
		rows, err = s.DB.QueryContext(ctx,
			`SELECT id, title, url, site, created_at FROM questions ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		rows, err = s.DB.QueryContext(ctx,
			`SELECT id, title, url, site, created_at FROM questions WHERE created_at < $2 ORDER BY created_at DESC LIMIT $1`,
			limit, before)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QuestionRecord
	for rows.Next() {
		var rec QuestionRecord
		if err := rows.Scan(&rec.ID, &rec.Question.Title, &rec.Question.URL, &rec.Question.Site, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Submission operations. These implement ratelimit.History.

func (s *Store) AppendSubmission(ctx context.Context, rec ratelimit.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var ua *string
	if rec.UserAgent != "" {
		ua = &rec.UserAgent
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO submissions (id, client_id, submitted_at, question_title, success, user_agent) VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.ClientID, rec.SubmittedAt, rec.QuestionTitle, rec.Success, ua)
	return err
}

func (s *Store) CountSubmissionsSince(ctx context.Context, clientID string, since time.Time) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE client_id=$1 AND submitted_at >= $2`,
		clientID, since).Scan(&n)
	return n, err
}

func (s *Store) OldestSubmissionSince(ctx context.Context, clientID string, since time.Time) (ratelimit.Record, bool, error) {
	return s.boundarySubmission(ctx, clientID, since, "ASC")
}

func (s *Store) LatestSubmissionSince(ctx context.Context, clientID string, since time.Time) (ratelimit.Record, bool, error) {
	return s.boundarySubmission(ctx, clientID, since, "DESC")
}

func (s *Store) boundarySubmission(ctx context.Context, clientID string, since time.Time, order string) (ratelimit.Record, bool, error) {
	query := `SELECT id, client_id, submitted_at, question_title, success, user_agent FROM submissions WHERE client_id=$1 AND submitted_at >= $2 ORDER BY submitted_at ` + order + ` LIMIT 1`
	rec, err := scanSubmission(s.DB.QueryRowContext(ctx, query, clientID, since))
	if errors.Is(err, sql.ErrNoRows) {
		return ratelimit.Record{}, false, nil
	}
	if err != nil {
		return ratelimit.Record{}, false, err
	}
	return rec, true, nil
}

// ListRecentSubmissions returns the newest entries of the submission trail
// for the admin listing.
func (s *Store) ListRecentSubmissions(ctx context.Context, limit int) ([]ratelimit.Record, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, client_id, submitted_at, question_title, success, user_agent FROM submissions ORDER BY submitted_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ratelimit.Record
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (ratelimit.Record, error) {
	var rec ratelimit.Record
	var ua sql.NullString
	if err := row.Scan(&rec.ID, &rec.ClientID, &rec.SubmittedAt, &rec.QuestionTitle, &rec.Success, &ua); err != nil {
		return ratelimit.Record{}, err
	}
	rec.UserAgent = ua.String
	return rec, nil
}
