// Package source fetches questions from the remote dataset feeds and decides
// which feed serves a visitor request.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/contextisneeded/questiond/internal/questions"
)

// TransportError reports a failed fetch or a non-2xx response from a remote
// feed. Callers above the facade only ever see it for full-dataset loads;
// batch fetches absorb it.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the question feeds over HTTP.
type Client struct {
	HTTP      *http.Client
	RandomURL string
}

func NewClient(randomURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		RandomURL: randomURL,
	}
}

// FetchAll downloads the full delimited dataset and runs it through the
// parser. An empty parse result is not an error; only transport failures are.
func (c *Client) FetchAll(ctx context.Context, url string) ([]questions.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: url, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return questions.Parse(string(body)), nil
}

// FetchOneRandom asks the single-record endpoint for one question. A non-2xx
// status is a transport error; a decoded body without string-typed title, url
// and site fields yields (nil, nil) so callers treat a malformed record and
// "no record available" identically.
func (c *Client) FetchOneRandom(ctx context.Context) (*questions.Question, error) {
	if c.RandomURL == "" {
		return nil, fmt.Errorf("random question endpoint not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RandomURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build random question request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.RandomURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: c.RandomURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: c.RandomURL, Err: err}
	}
	q, ok := decodeQuestion(body)
	if !ok {
		return nil, nil
	}
	return &q, nil
}
