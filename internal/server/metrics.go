package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/contextisneeded/questiond/internal/source"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questiond_submissions_total",
		Help: "Submission attempts by outcome.",
	}, []string{"outcome"})

	sourceFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "questiond_source_fetch_errors_total",
		Help: "Single-record fetch failures absorbed by batch loads.",
	})

	sourceState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "questiond_source_state",
		Help: "Question source state (0 idle, 1 loading, 2 ready, 3 degraded).",
	})
)

func observeSourceLoad(st source.Status) {
	sourceState.Set(float64(st.State))
	if st.BatchErrors > 0 {
		sourceFetchErrors.Add(float64(st.BatchErrors))
	}
}
