// Package server exposes design optimization as an HTTP job API:
// submit a design and a back-end, poll the job, cancel it, fetch the
// structured result.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fisopt/fisopt/internal/config"
	"github.com/fisopt/fisopt/internal/design"
	"github.com/fisopt/fisopt/internal/fisher"
	"github.com/fisopt/fisopt/internal/logging"
	"github.com/fisopt/fisopt/internal/optimization"
	"github.com/fisopt/fisopt/internal/optimization/dispatch"
	"github.com/fisopt/fisopt/internal/store"
)

// Logger is the logging interface used by the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Server manages optimization jobs.
type Server struct {
	cfg    *config.Config
	logger Logger
	store  *store.SQLiteStore // optional

	jobsMu sync.RWMutex
	jobs   map[string]*JobState
}

// NewServer creates a server. The store may be nil; results are then
// kept in memory only.
func NewServer(cfg *config.Config, logger Logger, st *store.SQLiteStore) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		store:  st,
		jobs:   make(map[string]*JobState),
	}
}

// RegisterRoutes mounts the job API.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/result/{id}", s.handleResult)
		r.Delete("/optimization/{id}", s.handleCancel)
	})
}

// OptimizeRequest is the job submission payload.
type OptimizeRequest struct {
	// Method is the back-end name: differential_evolution, brute or
	// basinhopping. The configured default applies when empty.
	Method string `json:"method"`

	// Penalty is the discretization penalty strategy name.
	Penalty string `json:"penalty"`

	// Model selects and parametrizes the built-in evaluator.
	Model ModelSpec `json:"model"`

	// Design is the parametrized design to optimize.
	Design *design.ParametrizedDesign `json:"design"`

	Options RequestOptions `json:"options"`
}

// ModelSpec selects one of the built-in observation models.
type ModelSpec struct {
	// Name: exponential_decay, growth_pool or flat.
	Name string `json:"name"`
	// Criterion: determinant (default) or trace.
	Criterion string `json:"criterion"`

	X0    float64 `json:"x0"`
	Rate  float64 `json:"rate"`
	NMax  float64 `json:"n_max"`
	Value float64 `json:"value"`
}

// RequestOptions are the pass-through search options.
type RequestOptions struct {
	MaxIterations  int     `json:"max_iterations"`
	PopulationSize int     `json:"population_size"`
	GridPoints     int     `json:"grid_points"`
	Workers        int     `json:"workers"`
	RandomSeed     int64   `json:"seed"`
	StepSize       float64 `json:"step_size"`
	Temperature    float64 `json:"temperature"`
	UseMayfly      bool    `json:"use_mayfly"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Design == nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("design is required"))
		return
	}
	if err := req.Design.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	evaluator, err := buildEvaluator(req.Model)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	method := req.Method
	if method == "" {
		method = s.cfg.Optimization.DefaultMethod
	}
	penaltyName := req.Penalty
	if penaltyName == "" {
		penaltyName = s.cfg.Optimization.DefaultPenalty
	}
	workers := req.Options.Workers
	if workers == 0 {
		workers = s.cfg.Optimization.Workers
	}

	opts := dispatch.Options{
		Evaluator:      evaluator,
		Penalty:        penaltyName,
		Workers:        workers,
		RandomSeed:     req.Options.RandomSeed,
		MaxIterations:  req.Options.MaxIterations,
		PopulationSize: req.Options.PopulationSize,
		UseMayfly:      req.Options.UseMayfly,
		GridPoints:     req.Options.GridPoints,
		StepSize:       req.Options.StepSize,
		Temperature:    req.Options.Temperature,
	}

	entry, err := backendFor(method)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &JobState{
		ID:        newJobID(),
		Method:    method,
		Status:    StatusPending,
		StartTime: time.Now(),
		cancel:    cancel,
	}

	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()

	jobsStarted.WithLabelValues(method).Inc()
	s.logger.Info("optimization job started", map[string]interface{}{
		"job_id": job.ID,
		"method": method,
	})

	go s.runJob(ctx, job, entry, req.Design, opts)

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":     job.ID,
		"status": job.Status,
	})
}

type backend func(ctx context.Context, d *design.ParametrizedDesign, opts dispatch.Options) (*optimization.Result, error)

func backendFor(method string) (backend, error) {
	switch method {
	case "differential_evolution":
		return dispatch.DifferentialEvolution, nil
	case "brute":
		return dispatch.Brute, nil
	case "basinhopping":
		return dispatch.BasinHopping, nil
	default:
		return nil, fmt.Errorf("unknown optimization method %q", method)
	}
}

func buildEvaluator(spec ModelSpec) (optimization.Evaluator, error) {
	criterion := fisher.Determinant
	switch spec.Criterion {
	case "", "determinant":
	case "trace":
		criterion = fisher.Trace
	default:
		return nil, fmt.Errorf("unknown criterion %q", spec.Criterion)
	}

	switch spec.Name {
	case "", "exponential_decay":
		x0, rate := spec.X0, spec.Rate
		if x0 == 0 {
			x0 = 1
		}
		if rate == 0 {
			rate = 1
		}
		return fisher.NewEvaluator(fisher.ExponentialDecay(x0, rate), criterion), nil
	case "growth_pool":
		n0, nMax := spec.X0, spec.NMax
		if n0 == 0 {
			n0 = 0.25
		}
		if nMax == 0 {
			nMax = 1
		}
		return fisher.NewEvaluator(fisher.GrowthPool(n0, nMax), criterion), nil
	case "flat":
		v := spec.Value
		if v == 0 {
			v = 1
		}
		return fisher.FlatEvaluator(v), nil
	default:
		return nil, fmt.Errorf("unknown model %q", spec.Name)
	}
}

func (s *Server) runJob(ctx context.Context, job *JobState, run backend, d *design.ParametrizedDesign, opts dispatch.Options) {
	s.setStatus(job.ID, StatusRunning)
	start := time.Now()

	result, err := run(ctx, d, opts)
	duration := time.Since(start)
	jobDuration.Observe(duration.Seconds())

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	now := time.Now()
	job.EndTime = &now

	switch {
	case ctx.Err() != nil:
		job.Status = StatusCancelled
		jobsCompleted.WithLabelValues(StatusCancelled).Inc()
	case err != nil:
		job.Status = StatusFailed
		job.Error = err.Error()
		jobsCompleted.WithLabelValues(StatusFailed).Inc()
		s.logger.Error("optimization job failed", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	default:
		job.Status = StatusCompleted
		job.Result = result
		jobsCompleted.WithLabelValues(StatusCompleted).Inc()
		s.logger.Info("optimization job completed", map[string]interface{}{
			"job_id":      job.ID,
			"criterion":   result.Criterion,
			"penalty":     result.Penalty.Penalty,
			"evaluations": result.Evaluations,
			"duration_ms": duration.Milliseconds(),
		})
		if s.store != nil {
			if err := s.store.SaveResult(context.Background(), job.ID, result); err != nil {
				s.logger.Warn("failed to persist result", map[string]interface{}{
					"job_id": job.ID,
					"error":  err.Error(),
				})
			}
		}
	}
}

func (s *Server) setStatus(id, status string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if job, ok := s.jobs[id]; ok && job.Status != StatusCancelled {
		job.Status = status
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	job, ok := s.jobs[id]
	s.jobsMu.RUnlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown job %q", id))
		return
	}

	resp := map[string]interface{}{
		"id":         job.ID,
		"method":     job.Method,
		"status":     job.Status,
		"start_time": job.StartTime,
	}
	if job.EndTime != nil {
		resp["end_time"] = *job.EndTime
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	job, ok := s.jobs[id]
	s.jobsMu.RUnlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown job %q", id))
		return
	}
	if job.Status != StatusCompleted || job.Result == nil {
		s.writeError(w, http.StatusConflict, fmt.Errorf("job %q is %s", id, job.Status))
		return
	}
	s.writeJSON(w, http.StatusOK, job.Result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.Lock()
	job, ok := s.jobs[id]
	if ok && (job.Status == StatusPending || job.Status == StatusRunning) {
		job.Status = StatusCancelled
		job.cancel()
	}
	s.jobsMu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown job %q", id))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": StatusCancelled,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}
