// Package server exposes a computed schedule over a small read-only HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/taskplan/internal/scheduler"
	"github.com/me/taskplan/pkg/timeline"
)

// TaskView is the per-task accounting exposed by the API.
type TaskView struct {
	ID             int                 `json:"id"`
	Description    string              `json:"description"`
	Deadline       time.Time           `json:"deadline"`
	Priority       float32             `json:"priority"`
	Volume         float32             `json:"volume"`
	CommittedHours float32             `json:"committed_hours"`
	RemainingHours float32             `json:"remaining_hours"`
	Intervals      []timeline.Interval `json:"intervals"`
}

// Server serves the results of one finished scheduling run. State is
// assembled once at construction; handlers only read it.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	startTime time.Time

	report scheduler.Report
	tasks  []TaskView
	missed []scheduler.Missed
}

// New builds a Server from a finished driver.
func New(drv *scheduler.Driver, loc *time.Location, logger *slog.Logger) *Server {
	sched := drv.Schedule()

	tasks := make([]TaskView, len(sched.Tasks()))
	for id, t := range sched.Tasks() {
		tasks[id] = TaskView{
			ID:             id,
			Description:    t.Description,
			Deadline:       t.Deadline,
			Priority:       t.Priority,
			Volume:         t.Volume,
			CommittedHours: sched.CommittedHours(id),
			RemainingHours: sched.RemainingHours(id),
			Intervals:      sched.Committed(id),
		}
	}

	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
		report:    scheduler.BuildReport(sched, loc),
		tasks:     tasks,
		missed:    drv.MissedDeadlines(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(instrument(s.logger))

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, &APIError{Code: "not_found", Message: "no such route"})
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/schedule", s.handleSchedule)
		r.Get("/tasks", s.handleTasks)
		r.Get("/missed", s.handleMissed)
	})
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, s.report)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, s.tasks)
}

func (s *Server) handleMissed(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, s.missed)
}
