package source

import (
	"context"
	"sync"
	"time"

	"github.com/contextisneeded/questiond/internal/questions"
)

// BatchResult is the outcome of a fan-out fetch. Errors counts the calls
// that failed or returned no usable record; it masks fetch-layer flakiness
// instead of surfacing it.
type BatchResult struct {
	Questions []questions.Question
	Errors    int
}

type fetchFunc func(ctx context.Context) (*questions.Question, error)

// FetchBatch issues desired concurrent single-record fetches sharing one
// deadline. Individual failures, including deadline-induced cancellations,
// are counted and never propagated: the worst case is an empty result with
// Errors == desired. Duplicates collapse on the title|url key,
// first-seen-wins.
func (c *Client) FetchBatch(ctx context.Context, desired int, timeout time.Duration) BatchResult {
	return fetchBatch(ctx, desired, timeout, c.FetchOneRandom)
}

func fetchBatch(ctx context.Context, desired int, timeout time.Duration, fetch fetchFunc) BatchResult {
	if desired <= 0 {
		return BatchResult{}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Each goroutine owns one slot, so no locking is needed to merge.
	results := make([]*questions.Question, desired)
	var wg sync.WaitGroup
	for i := 0; i < desired; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			q, err := fetch(ctx)
			if err != nil {
				return
			}
			results[slot] = q
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, desired)
	var out BatchResult
	for _, q := range results {
		if q == nil {
			out.Errors++
			continue
		}
		key := q.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Questions = append(out.Questions, *q)
	}
	return out
}
