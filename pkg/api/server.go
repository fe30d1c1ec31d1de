package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/thealphakenya/Alphaai/pkg/chat"
	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/gateway/middleware"
	"github.com/thealphakenya/Alphaai/pkg/media"
	"github.com/thealphakenya/Alphaai/pkg/memory"
	"github.com/thealphakenya/Alphaai/pkg/observability/metrics"
	"github.com/thealphakenya/Alphaai/pkg/training"
	"github.com/thealphakenya/Alphaai/pkg/workspace"
)

// RunStore looks up persisted training runs. training.Repository
// implements it when Postgres is enabled.
type RunStore interface {
	Get(ctx context.Context, runID uuid.UUID) (models.TrainingRun, error)
	List(ctx context.Context, modelName string, limit int) ([]models.TrainingRun, error)
	Stats(ctx context.Context, modelName string) (training.Stats, error)
}

type Server struct {
	Training   *training.Coordinator
	Runs       RunStore
	Chat       *chat.Service
	Workspaces *workspace.Manager
	Media      *media.Registry
	Memory     *memory.Store

	StaticDir      string
	MaxRequestBody int64
	RateLimitRPS   int
	RateLimitBurst int

	now func() time.Time
}

// Router wires every route behind the shared middleware chain.
func (s *Server) Router() *mux.Router {
	if s.now == nil {
		s.now = time.Now
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(s.RateLimitRPS, s.RateLimitBurst))
	router.Use(middleware.BodyLimit(s.MaxRequestBody))

	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	api.HandleFunc("/training/start", s.handleStartTraining).Methods(http.MethodPost)
	api.HandleFunc("/training/progress", s.handleProgress).Methods(http.MethodGet)
	api.HandleFunc("/training/continuous", s.handleContinuousLearning).Methods(http.MethodPost)
	api.HandleFunc("/training/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/training/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	api.HandleFunc("/training/stats", s.handleStats).Methods(http.MethodGet)

	api.HandleFunc("/workspace/create", s.handleCreateWorkspace).Methods(http.MethodPost)
	api.HandleFunc("/workspace/update", s.handleUpdateWorkspace).Methods(http.MethodPost)
	api.HandleFunc("/workspace/switch", s.handleSwitchTemplate).Methods(http.MethodPost)
	api.HandleFunc("/workspace/detect-template", s.handleDetectTemplate).Methods(http.MethodPost)
	api.HandleFunc("/workspace/{id}", s.handleGetWorkspace).Methods(http.MethodGet)

	api.HandleFunc("/media/register", s.handleRegisterMedia).Methods(http.MethodPost)
	api.HandleFunc("/media/search", s.handleSearchMedia).Methods(http.MethodGet)
	api.HandleFunc("/media/{type}/{id}/player", s.handlePlayerConfig).Methods(http.MethodGet)

	api.HandleFunc("/memory/search", s.handleSearchMemory).Methods(http.MethodGet)

	if s.StaticDir != "" {
		router.PathPrefix("/").Handler(staticHandler(s.StaticDir)).Methods(http.MethodGet)
	}

	return router
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// writeStatus answers a command-style request. Outcomes are reported in the
// body with HTTP 200, which is what the bundled front end expects.
func writeStatus(w http.ResponseWriter, res models.StatusResponse) {
	writeJSON(w, http.StatusOK, res)
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	status := http.StatusBadRequest
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, models.Failure("Invalid request body"))
	return false
}
