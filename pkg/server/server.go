// Package server exposes the tracker over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/contest"
	"github.com/variety-jones/cptracker/pkg/metrics"
	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/tracker"
)

// Service is the tracker surface used by the handlers.
type Service interface {
	Add(ctx context.Context, username string) (models.UserRecord, error)
	UpdateAll(ctx context.Context) (models.BatchResult, error)
	BulkImport(ctx context.Context, usernames []string) (models.BatchResult, error)
	ListRanked(ctx context.Context) ([]models.UserSummary, error)
	CheckSolved(ctx context.Context, title string) ([]models.SolvedStatus, error)
	Get(ctx context.Context, username string) (models.UserRecord, error)
	Delete(ctx context.Context, username string) error
}

var _ Service = (*tracker.Tracker)(nil)

// ContestService lists the contests of a platform.
type ContestService interface {
	All(ctx context.Context) ([]models.Contest, error)
	Upcoming(ctx context.Context) ([]models.Contest, error)
}

var _ ContestService = (*contest.Service)(nil)

// Options configures the HTTP server.
type Options struct {
	// CronSecret is the bearer token expected by the cron trigger.
	CronSecret string
	// RequireCronSecret rejects cron triggers without the right token.
	RequireCronSecret bool
	// Metrics, when set, records request metrics and serves /metrics.
	Metrics *metrics.Collector
	// Contests, when set, serves /api/codeforces/contest.
	Contests ContestService
}

// Server binds the tracker routes to an echo instance.
type Server struct {
	echo    *echo.Echo
	service Service
	opts    Options
	now     func() time.Time
}

// New builds the router.
func New(service Service, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, service: service, opts: opts, now: time.Now}

	e.Use(middleware.Recover())
	e.Use(requestLogger(opts.Metrics))

	e.GET("/healthz", s.health)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	api := e.Group("/api/tracker")
	api.POST("/add", s.addUser)
	api.GET("/update", s.updateAll)
	api.POST("/update", s.updateAll)
	api.POST("/bulk-import", s.bulkImport)
	api.GET("/check/:question", s.checkQuestion)
	api.GET("/users", s.listUsers)
	api.GET("/users/:username", s.getUser)
	api.DELETE("/users/:username", s.deleteUser)

	e.GET("/api/cron/update-rankings", s.cronUpdate)

	if opts.Contests != nil {
		cf := e.Group("/api/codeforces")
		cf.GET("/contest", s.listContests)
		cf.GET("/contest/upcoming", s.upcomingContests)
	}

	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	zap.S().Infof("HTTP server listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogger logs every request through zap and feeds the metrics
// collector.
func requestLogger(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			took := time.Since(start)
			status := c.Response().Status

			zap.S().Debugf("%s %s -> %d (%v)", c.Request().Method,
				c.Request().URL.Path, status, took)
			if collector != nil {
				collector.ObserveHTTP(c.Request().Method, c.Path(), status, took)
			}
			return nil
		}
	}
}
