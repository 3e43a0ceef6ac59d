package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/contextisneeded/questiond/internal/questions"
	"github.com/contextisneeded/questiond/internal/ratelimit"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestAddQuestion(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO questions (id, title, url, site, created_at) VALUES ($1,$2,$3,$4,NOW())`)).
		WithArgs(sqlmock.AnyArg(), "Q", "https://x", "S").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := st.AddQuestion(context.Background(), questions.Question{Title: "Q", URL: "https://x", Site: "S"})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListQuestions(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"title", "url", "site"}).
		AddRow("A", "http://a", "S1").
		AddRow("B", "http://b", "S2")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT title, url, site FROM questions`)).WillReturnRows(rows)

	got, err := st.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(got) != 2 || got[1].Site != "S2" {
		t.Fatalf("unexpected questions: %+v", got)
	}
}

func TestRandomQuestionEmptyPool(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT title, url, site FROM questions`)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "url", "site"}))

	q, err := st.RandomQuestion(context.Background(), func(n int) int { return 0 })
	if err != nil {
		t.Fatalf("RandomQuestion: %v", err)
	}
	if q != nil {
		t.Fatalf("expected nil on empty pool, got %+v", q)
	}
}

func TestAppendSubmission(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Unix(1700000000, 0)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO submissions (id, client_id, submitted_at, question_title, success, user_agent) VALUES ($1,$2,$3,$4,$5,$6)`)).
		WithArgs("rec-1", "client_x", now, "Why", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.AppendSubmission(context.Background(), ratelimit.Record{
		ID:            "rec-1",
		ClientID:      "client_x",
		SubmittedAt:   now,
		QuestionTitle: "Why",
		Success:       true,
		UserAgent:     "Mozilla/5.0",
	})
	if err != nil {
		t.Fatalf("AppendSubmission: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCountSubmissionsSince(t *testing.T) {
	st, mock := newMockStore(t)
	since := time.Unix(1700000000, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM submissions WHERE client_id=$1 AND submitted_at >= $2`)).
		WithArgs("client_x", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := st.CountSubmissionsSince(context.Background(), "client_x", since)
	if err != nil {
		t.Fatalf("CountSubmissionsSince: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestLatestSubmissionSince(t *testing.T) {
	st, mock := newMockStore(t)
	since := time.Unix(1700000000, 0)
	ts := since.Add(30 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY submitted_at DESC LIMIT 1`)).
		WithArgs("client_x", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "submitted_at", "question_title", "success", "user_agent"}).
			AddRow("rec-1", "client_x", ts, "Why", true, nil))

	rec, ok, err := st.LatestSubmissionSince(context.Background(), "client_x", since)
	if err != nil {
		t.Fatalf("LatestSubmissionSince: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}
	if !rec.SubmittedAt.Equal(ts) || rec.UserAgent != "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestOldestSubmissionSinceNoRows(t *testing.T) {
	st, mock := newMockStore(t)
	since := time.Unix(1700000000, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY submitted_at ASC LIMIT 1`)).
		WithArgs("client_x", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "submitted_at", "question_title", "success", "user_agent"}))

	_, ok, err := st.OldestSubmissionSince(context.Background(), "client_x", since)
	if err != nil {
		t.Fatalf("OldestSubmissionSince: %v", err)
	}
	if ok {
		t.Fatal("expected no record")
	}
}

func TestListRecentSubmissions(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Unix(1700000000, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY submitted_at DESC LIMIT $1`)).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "submitted_at", "question_title", "success", "user_agent"}).
			AddRow("rec-2", "client_x", now, "B", false, "UA").
			AddRow("rec-1", "client_x", now.Add(-time.Minute), "A", true, nil))

	got, err := st.ListRecentSubmissions(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListRecentSubmissions: %v", err)
	}
	if len(got) != 2 || got[0].ID != "rec-2" || got[0].Success {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[0].UserAgent != "UA" || got[1].UserAgent != "" {
		t.Fatalf("user agent scan mismatch: %+v", got)
	}
}
