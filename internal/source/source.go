package source

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/contextisneeded/questiond/internal/questions"
)

// Mode selects the primary question feed.
type Mode string

const (
	// ModeAPI draws batches from the single-random-question endpoint.
	ModeAPI Mode = "api"
	// ModeCSV loads the full delimited dataset once and serves from memory.
	ModeCSV Mode = "csv"
	// ModeStore serves the question pool persisted in our own store.
	ModeStore Mode = "store"
)

// State is the facade lifecycle: Idle until the first request, Loading while
// sources are tried, then Ready or Degraded.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	}
	return "unknown"
}

// ErrNoQuestions marks a degraded pool with no specific upstream failure.
var ErrNoQuestions = errors.New("no questions available from any source")

// Fallback is served when every configured source comes back empty or
// erroring. The pool is never empty because of it.
var Fallback = []questions.Question{
	{
		Title: "How can I tell the difference between a rabbit and a cat?",
		URL:   "http://cooking.stackexchange.com/questions/56418/how-can-i-tell-the-difference-between-a-rabbit-and-a-cat",
		Site:  "Cooking",
	},
	{
		Title: "Why does my code work on Tuesdays but not on Wednesdays?",
		URL:   "https://stackoverflow.com/questions/example",
		Site:  "Stack Overflow",
	},
	{
		Title: "Is it normal for my houseplant to start speaking French?",
		URL:   "https://gardening.stackexchange.com/questions/example",
		Site:  "Gardening",
	},
}

// BatchFetcher is the fan-out feed; *Client implements it.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, desired int, timeout time.Duration) BatchResult
}

// DatasetLoader yields the whole question pool in one call: the CSV feed,
// the persisted store, or a cache in front of either.
type DatasetLoader interface {
	Load(ctx context.Context) ([]questions.Question, error)
}

// DatasetFunc adapts a plain function to DatasetLoader.
type DatasetFunc func(ctx context.Context) ([]questions.Question, error)

func (f DatasetFunc) Load(ctx context.Context) ([]questions.Question, error) { return f(ctx) }

// Options wires a Source. Pick is the injected random-index provider; tests
// supply a deterministic one.
type Options struct {
	Mode         Mode
	BatchSize    int
	BatchTimeout time.Duration
	Batch        BatchFetcher
	Dataset      DatasetLoader
	Pick         func(n int) int
	Logger       *log.Logger
	// OnLoad observes the settled status after every load attempt; metrics
	// hang off it.
	OnLoad func(Status)
}

// Status is reported alongside every question so the caller can render a
// degraded banner or an absorbed-error count without a second call.
type Status struct {
	State       State
	Err         error
	BatchErrors int
	PoolSize    int
}

// Source is the orchestrator the presentation layer calls. It tries feeds in
// priority order (batch API, then full dataset, then the built-in fallback),
// keeps the resulting pool in memory, and hands out one question per call.
type Source struct {
	mu   sync.Mutex
	opts Options

	state       State
	pool        []questions.Question
	loadErr     error
	batchErrors int
}

func New(opts Options) *Source {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 12
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 8 * time.Second
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[SOURCE] ", log.LstdFlags)
	}
	return &Source{opts: opts}
}

// Next returns one question. The first call (and, in API mode, any call that
// finds the pool drained) loads from the configured feeds; every underlying
// fetch carries its own deadline and the fallback path is synchronous, so
// Next never blocks indefinitely and never comes back empty-handed.
func (s *Source) Next(ctx context.Context) (questions.Question, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle || len(s.pool) == 0 {
		s.load(ctx)
	}

	var q questions.Question
	if s.opts.Mode == ModeAPI && s.state == StateReady {
		// Batch results are one-shot random draws; serve them in order and
		// refill on exhaustion.
		q = s.pool[0]
		s.pool = s.pool[1:]
	} else {
		q = s.pool[s.opts.Pick(len(s.pool))]
	}
	return q, s.statusLocked()
}

// Status reports the facade state without serving a question.
func (s *Source) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Count loads the pool if needed and reports its current size.
func (s *Source) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		s.load(ctx)
	}
	return len(s.pool)
}

func (s *Source) statusLocked() Status {
	st := Status{State: s.state, BatchErrors: s.batchErrors, PoolSize: len(s.pool)}
	if s.state == StateDegraded {
		st.Err = s.loadErr
	}
	return st
}

// load tries each feed in priority order and settles on Ready with the first
// non-empty pool, or Degraded with the fallback list when everything came
// back empty or erroring. Feed errors are remembered for display, never
// returned.
func (s *Source) load(ctx context.Context) {
	s.state = StateLoading
	s.loadErr = nil
	s.batchErrors = 0
	if s.opts.OnLoad != nil {
		defer func() { s.opts.OnLoad(s.statusLocked()) }()
	}

	if s.opts.Mode == ModeAPI && s.opts.Batch != nil {
		res := s.opts.Batch.FetchBatch(ctx, s.opts.BatchSize, s.opts.BatchTimeout)
		s.batchErrors = res.Errors
		if res.Errors > 0 {
			s.opts.Logger.Printf("batch fetch absorbed %d errors", res.Errors)
		}
		if len(res.Questions) > 0 {
			s.pool = res.Questions
			s.state = StateReady
			return
		}
	}

	if s.opts.Dataset != nil {
		qs, err := s.opts.Dataset.Load(ctx)
		if err != nil {
			s.loadErr = err
			s.opts.Logger.Printf("dataset load failed: %v", err)
		} else if len(qs) > 0 {
			s.pool = qs
			s.state = StateReady
			return
		}
	}

	s.pool = append([]questions.Question(nil), Fallback...)
	s.state = StateDegraded
	if s.loadErr == nil {
		s.loadErr = ErrNoQuestions
	}
	s.opts.Logger.Printf("serving fallback questions: %v", s.loadErr)
}
