package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contextisneeded/questiond/internal/questions"
	"github.com/contextisneeded/questiond/internal/source"
)

// QuestionsHandler serves the read side: one random question per request,
// plus the pool size for display.
type QuestionsHandler struct {
	Source *source.Source
}

func (h *QuestionsHandler) Register(g *echo.Group) {
	g.GET("/random", h.random)
	g.GET("/count", h.count)
}

type randomQuestionResponse struct {
	Question questions.Question `json:"question"`
	State    string             `json:"state"`
	Degraded bool               `json:"degraded"`
	Error    string             `json:"error,omitempty"`
}

func (h *QuestionsHandler) random(c echo.Context) error {
	q, st := h.Source.Next(c.Request().Context())
	resp := randomQuestionResponse{
		Question: q,
		State:    st.State.String(),
		Degraded: st.State == source.StateDegraded,
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *QuestionsHandler) count(c echo.Context) error {
	n := h.Source.Count(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]int{"count": n})
}
