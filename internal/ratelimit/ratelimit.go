package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Config holds the rate-limit policy. It is injected at construction instead
// of living in a package global so tests can override the thresholds.
type Config struct {
	MaxPerHour int
	MaxPerDay  int
	Cooldown   time.Duration
}

// DefaultConfig is the production policy.
func DefaultConfig() Config {
	return Config{MaxPerHour: 3, MaxPerDay: 10, Cooldown: 5 * time.Minute}
}

// Record is one entry in the append-only submission trail. One record is
// written per attempt, successful or not, and never mutated afterwards.
type Record struct {
	ID            string
	ClientID      string
	SubmittedAt   time.Time
	QuestionTitle string
	Success       bool
	UserAgent     string
}

// History is the capability set the evaluator needs from the submission
// store: counting within a range, ordered access to the boundary records of a
// range, and appending.
type History interface {
	CountSubmissionsSince(ctx context.Context, clientID string, since time.Time) (int, error)
	OldestSubmissionSince(ctx context.Context, clientID string, since time.Time) (Record, bool, error)
	LatestSubmissionSince(ctx context.Context, clientID string, since time.Time) (Record, bool, error)
	AppendSubmission(ctx context.Context, rec Record) error
}

// Decision is the structured outcome of a rate-limit check. A denial is a
// normal result, not an error.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	Reason            string `json:"reason,omitempty"`
	RetryAfterMinutes int    `json:"retry_after_minutes,omitempty"`
}

// Evaluator decides allow/deny against three independent windows. The
// check-then-record sequence is not atomic: concurrent submissions from one
// identity may exceed the caps by a small margin, which the advisory design
// tolerates.
type Evaluator struct {
	cfg     Config
	history History
	now     func() time.Time
	logger  *log.Logger
}

func NewEvaluator(cfg Config, history History, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.New(log.Writer(), "[RATELIMIT] ", log.LstdFlags)
	}
	return &Evaluator{cfg: cfg, history: history, now: time.Now, logger: logger}
}

// Check evaluates the hourly cap, then the daily cap, then the cooldown; the
// first failing window wins. Any history read error fails open: availability
// is preferred over strict enforcement because the limiter is advisory.
func (e *Evaluator) Check(ctx context.Context, clientID string) Decision {
	now := e.now()
	hourStart := now.Add(-time.Hour)
	dayStart := now.Add(-24 * time.Hour)

	hourly, err := e.history.CountSubmissionsSince(ctx, clientID, hourStart)
	if err != nil {
		return e.failOpen(err)
	}
	if hourly >= e.cfg.MaxPerHour {
		oldest, ok, err := e.history.OldestSubmissionSince(ctx, clientID, hourStart)
		if err != nil {
			return e.failOpen(err)
		}
		retry := 1
		if ok {
			retry = minutesUntil(now, oldest.SubmittedAt.Add(time.Hour))
		}
		return Decision{
			Allowed:           false,
			Reason:            fmt.Sprintf("Hourly limit reached (%d submissions per hour).", e.cfg.MaxPerHour),
			RetryAfterMinutes: retry,
		}
	}

	daily, err := e.history.CountSubmissionsSince(ctx, clientID, dayStart)
	if err != nil {
		return e.failOpen(err)
	}
	if daily >= e.cfg.MaxPerDay {
		oldest, ok, err := e.history.OldestSubmissionSince(ctx, clientID, dayStart)
		if err != nil {
			return e.failOpen(err)
		}
		retry := 1
		if ok {
			retry = minutesUntil(now, oldest.SubmittedAt.Add(24*time.Hour))
		}
		return Decision{
			Allowed:           false,
			Reason:            fmt.Sprintf("Daily limit reached (%d submissions per day).", e.cfg.MaxPerDay),
			RetryAfterMinutes: retry,
		}
	}

	latest, ok, err := e.history.LatestSubmissionSince(ctx, clientID, hourStart)
	if err != nil {
		return e.failOpen(err)
	}
	if ok {
		cooldownEnd := latest.SubmittedAt.Add(e.cfg.Cooldown)
		if now.Before(cooldownEnd) {
			return Decision{
				Allowed:           false,
				Reason:            fmt.Sprintf("Please wait %d minutes between submissions.", int(e.cfg.Cooldown.Minutes())),
				RetryAfterMinutes: minutesUntil(now, cooldownEnd),
			}
		}
	}

	return Decision{Allowed: true}
}

// Record appends one entry to the submission trail. The ledger is
// best-effort: append failures are logged and swallowed so a broken store
// never blocks a submission the check already allowed.
func (e *Evaluator) Record(ctx context.Context, rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = e.now()
	}
	rec.QuestionTitle = prefix(rec.QuestionTitle, 100)
	rec.UserAgent = prefix(rec.UserAgent, 200)
	if err := e.history.AppendSubmission(ctx, rec); err != nil {
		e.logger.Printf("failed to record submission attempt for %s: %v", rec.ClientID, err)
	}
}

func (e *Evaluator) failOpen(err error) Decision {
	e.logger.Printf("history read failed, allowing submission: %v", err)
	return Decision{Allowed: true}
}

func minutesUntil(now, deadline time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

func prefix(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
