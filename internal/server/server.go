// Package server wires the question source, submission pipeline and stores
// into the HTTP API.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/contextisneeded/questiond/config"
	"github.com/contextisneeded/questiond/internal/questions"
	"github.com/contextisneeded/questiond/internal/ratelimit"
	"github.com/contextisneeded/questiond/internal/source"
	"github.com/contextisneeded/questiond/internal/store"
)

func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Timezone"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Storage.Redis.Enabled() {
		rdb, err = store.Conn(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			return err
		}
	}

	src := buildSource(cfg, st, rdb)
	limiter := ratelimit.NewEvaluator(ratelimit.Config{
		MaxPerHour: cfg.RateLimit.MaxPerHour,
		MaxPerDay:  cfg.RateLimit.MaxPerDay,
		Cooldown:   time.Duration(cfg.RateLimit.CooldownMinutes) * time.Minute,
	}, st, nil)

	api := e.Group("/api")
	qh := &QuestionsHandler{Source: src}
	qh.Register(api.Group("/questions"))
	sh := &SubmissionsHandler{Store: st, Limiter: limiter}
	sh.Register(api)
	ah := &AdminHandler{Store: st}
	ah.Register(api)

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// buildSource assembles the facade for the configured dataset mode. The CSV
// feed, when present, sits behind the Redis cache; in api mode it doubles as
// the secondary source behind the batch endpoint.
func buildSource(cfg *appconfig.Config, st *store.Store, rdb *redis.Client) *source.Source {
	client := source.NewClient(cfg.Dataset.RandomAPIURL, cfg.Dataset.BatchTimeout)

	var dataset source.DatasetLoader
	switch cfg.Dataset.Mode {
	case "store":
		dataset = source.DatasetFunc(st.ListQuestions)
	default:
		if cfg.Dataset.CSVURL != "" {
			csvURL := cfg.Dataset.CSVURL
			dataset = store.NewDatasetCache(rdb, cfg.Dataset.CacheTTL, func(ctx context.Context) ([]questions.Question, error) {
				return client.FetchAll(ctx, csvURL)
			})
		}
	}

	opts := source.Options{
		Mode:         source.Mode(cfg.Dataset.Mode),
		BatchSize:    cfg.Dataset.BatchSize,
		BatchTimeout: cfg.Dataset.BatchTimeout,
		Dataset:      dataset,
		OnLoad:       observeSourceLoad,
	}
	if cfg.Dataset.Mode == "api" {
		opts.Batch = client
	}
	return source.New(opts)
}
