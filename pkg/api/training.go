package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/training"
)

const (
	defaultModelName   = "default_model"
	defaultDatasetPath = "data/default"
)

type startTrainingResponse struct {
	models.StatusResponse
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleStartTraining(w http.ResponseWriter, r *http.Request) {
	var req models.TrainingRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ModelName == "" {
		req.ModelName = defaultModelName
	}
	if req.DatasetPath == "" {
		req.DatasetPath = defaultDatasetPath
	}
	if req.Params == nil {
		req.Params = map[string]interface{}{}
	}

	runID, err := s.Training.StartTraining(req.ModelName, req.DatasetPath, req.Params)
	if err != nil {
		writeStatus(w, trainingFailure(err))
		return
	}
	writeJSON(w, http.StatusOK, startTrainingResponse{
		StatusResponse: models.Success("Training started"),
		RunID:          runID,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Training.GetProgress())
}

func (s *Server) handleContinuousLearning(w http.ResponseWriter, r *http.Request) {
	var req models.ContinuousLearningRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ModelName == "" {
		req.ModelName = defaultModelName
	}

	if err := s.Training.StartContinuousLearning(req.ModelName); err != nil {
		writeStatus(w, trainingFailure(err))
		return
	}
	writeStatus(w, models.Success("Continuous learning started"))
}

// handleHistory lists the newest runs, oldest first. Without a limit the
// list stops at training.DefaultListLimit whether it comes from Postgres or
// from the in-memory history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	modelName := r.URL.Query().Get("model")
	limit := training.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, models.Failure("Invalid limit"))
			return
		}
		if parsed > 0 {
			limit = parsed
		}
	}

	var runs []models.TrainingRun
	if s.Runs != nil {
		var err error
		runs, err = s.Runs.List(r.Context(), modelName, limit)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to list training runs")
			writeJSON(w, http.StatusInternalServerError, models.Failure("Failed to list training runs"))
			return
		}
	} else {
		runs = filterRuns(s.Training.History(), modelName, limit)
	}

	if runs == nil {
		runs = []models.TrainingRun{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": models.StatusSuccess,
		"runs":   runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	runID, err := uuid.Parse(id)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.Failure("Invalid run id"))
		return
	}

	if s.Runs != nil {
		run, err := s.Runs.Get(r.Context(), runID)
		if errors.Is(err, training.ErrRunNotFound) {
			writeJSON(w, http.StatusNotFound, models.Failure("Training run not found"))
			return
		}
		if err != nil {
			logger.Log.WithError(err).WithField("run_id", id).Error("Failed to load training run")
			writeJSON(w, http.StatusInternalServerError, models.Failure("Failed to load training run"))
			return
		}
		writeJSON(w, http.StatusOK, run)
		return
	}

	for _, run := range s.Training.History() {
		if run.RunID == runID.String() {
			writeJSON(w, http.StatusOK, run)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, models.Failure("Training run not found"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	modelName := r.URL.Query().Get("model")
	if s.Runs == nil {
		writeJSON(w, http.StatusOK, training.Summarize(s.Training.History(), modelName))
		return
	}

	stats, err := s.Runs.Stats(r.Context(), modelName)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to collect training stats")
		writeJSON(w, http.StatusInternalServerError, models.Failure("Failed to collect training stats"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// filterRuns keeps runs of modelName (all when empty) and returns the
// newest limit of them, still oldest first.
func filterRuns(runs []models.TrainingRun, modelName string, limit int) []models.TrainingRun {
	out := make([]models.TrainingRun, 0, len(runs))
	for _, run := range runs {
		if modelName == "" || run.ModelName == modelName {
			out = append(out, run)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func trainingFailure(err error) models.StatusResponse {
	switch {
	case errors.Is(err, training.ErrTrainingInProgress):
		return models.Failure("Training already in progress")
	case errors.Is(err, training.ErrModelNotInUse):
		return models.Failure("Model must be in use to start continuous learning")
	case errors.Is(err, training.ErrClosed):
		return models.Failure("Training service is shutting down")
	default:
		logger.Log.WithError(err).Error("Training request failed")
		return models.Failure(err.Error())
	}
}
