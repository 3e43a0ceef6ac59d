package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/contextisneeded/questiond/internal/questions"
	"github.com/contextisneeded/questiond/internal/ratelimit"
)

// QuestionAdder persists an accepted submission.
type QuestionAdder interface {
	AddQuestion(ctx context.Context, q questions.Question) (string, error)
}

// SubmissionLister reads the trail back for the admin listing.
type SubmissionLister interface {
	ListRecentSubmissions(ctx context.Context, limit int) ([]ratelimit.Record, error)
}

// SubmissionsHandler runs the write pipeline: identity, rate limit,
// sanitation, persistence, audit record.
type SubmissionsHandler struct {
	Store   QuestionAdder
	Limiter *ratelimit.Evaluator
}

func (h *SubmissionsHandler) Register(api *echo.Group) {
	api.POST("/questions", h.submit)
	api.GET("/ratelimit", h.rateLimit)
}

type submitRequest struct {
	Question string `json:"question"`
	URL      string `json:"url"`
	// Email is validated by the presentation layer and handled by its own
	// collaborator; it is never sanitized or persisted here.
	Email string `json:"email"`
	Site  string `json:"site"`
}

func (h *SubmissionsHandler) submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	clientID := ratelimit.IdentityFromRequest(c.Request())
	ua := c.Request().UserAgent()

	decision := h.Limiter.Check(ctx, clientID)
	if !decision.Allowed {
		submissionsTotal.WithLabelValues("rate_limited").Inc()
		return c.JSON(http.StatusTooManyRequests, decision)
	}

	q := questions.Sanitize(questions.Question{Title: req.Question, URL: req.URL, Site: req.Site})
	if fields := validateQuestion(q); len(fields) > 0 {
		h.Limiter.Record(ctx, ratelimit.Record{ClientID: clientID, QuestionTitle: req.Question, Success: false, UserAgent: ua})
		submissionsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": fields,
		})
	}

	id, err := h.Store.AddQuestion(ctx, q)
	if err != nil {
		h.Limiter.Record(ctx, ratelimit.Record{ClientID: clientID, QuestionTitle: q.Title, Success: false, UserAgent: ua})
		submissionsTotal.WithLabelValues("failed").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save question")
	}

	h.Limiter.Record(ctx, ratelimit.Record{ClientID: clientID, QuestionTitle: q.Title, Success: true, UserAgent: ua})
	submissionsTotal.WithLabelValues("accepted").Inc()
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h *SubmissionsHandler) rateLimit(c echo.Context) error {
	d := h.Limiter.Check(c.Request().Context(), ratelimit.IdentityFromRequest(c.Request()))
	return c.JSON(http.StatusOK, d)
}

func validateQuestion(q questions.Question) map[string]string {
	fields := map[string]string{}
	if q.Title == "" {
		fields["question"] = "Question is required"
	}
	if q.URL == "" {
		fields["url"] = "Please enter a valid URL"
	}
	if q.Site == "" {
		fields["site"] = "Site name is required"
	}
	return fields
}

// AdminHandler exposes the recent submission trail. Authentication sits in
// front of this route and is out of scope here.
type AdminHandler struct {
	Store SubmissionLister
}

func (h *AdminHandler) Register(api *echo.Group) {
	api.GET("/submissions", h.list)
}

type submissionView struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"client_id"`
	Timestamp     time.Time `json:"timestamp"`
	QuestionTitle string    `json:"question_title"`
	Success       bool      `json:"success"`
	UserAgent     string    `json:"user_agent,omitempty"`
}

func (h *AdminHandler) list(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 200")
		}
		limit = n
	}
	recs, err := h.Store.ListRecentSubmissions(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]submissionView, 0, len(recs))
	for _, r := range recs {
		out = append(out, submissionView{
			ID:            r.ID,
			ClientID:      r.ClientID,
			Timestamp:     r.SubmittedAt,
			QuestionTitle: r.QuestionTitle,
			Success:       r.Success,
			UserAgent:     r.UserAgent,
		})
	}
	return c.JSON(http.StatusOK, out)
}
