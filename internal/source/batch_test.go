package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contextisneeded/questiond/internal/questions"
)

func TestFetchBatchDedupAndErrorCount(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context) (*questions.Question, error) {
		i := atomic.AddInt32(&calls, 1) - 1
		switch i {
		case 1, 3:
			return nil, errors.New("flaky")
		case 0, 2:
			return &questions.Question{Title: "Q", URL: "u", Site: "s"}, nil
		default:
			return &questions.Question{Title: "R", URL: "v", Site: "s"}, nil
		}
	}

	res := fetchBatch(context.Background(), 5, time.Second, fetch)
	if res.Errors != 2 {
		t.Errorf("errors = %d, want 2", res.Errors)
	}
	if len(res.Questions) != 2 {
		t.Fatalf("questions = %d, want 2 distinct: %+v", len(res.Questions), res.Questions)
	}
	seen := map[string]bool{}
	for _, q := range res.Questions {
		if seen[q.Key()] {
			t.Fatalf("duplicate survived dedup: %+v", q)
		}
		seen[q.Key()] = true
	}
}

func TestFetchBatchNilResultCountsAsError(t *testing.T) {
	fetch := func(ctx context.Context) (*questions.Question, error) { return nil, nil }
	res := fetchBatch(context.Background(), 4, time.Second, fetch)
	if res.Errors != 4 || len(res.Questions) != 0 {
		t.Fatalf("got %d questions, %d errors; want 0 and 4", len(res.Questions), res.Errors)
	}
}

func TestFetchBatchNeverFailsOnTimeout(t *testing.T) {
	fetch := func(ctx context.Context) (*questions.Question, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	start := time.Now()
	res := fetchBatch(context.Background(), 3, 50*time.Millisecond, fetch)
	if time.Since(start) > time.Second {
		t.Fatal("batch did not respect the shared deadline")
	}
	if res.Errors != 3 || len(res.Questions) != 0 {
		t.Fatalf("got %d questions, %d errors; want 0 and 3", len(res.Questions), res.Errors)
	}
}

func TestFetchBatchZeroDesired(t *testing.T) {
	fetch := func(ctx context.Context) (*questions.Question, error) {
		t.Fatal("fetch should not be called")
		return nil, nil
	}
	res := fetchBatch(context.Background(), 0, time.Second, fetch)
	if res.Errors != 0 || len(res.Questions) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
