package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/tvbatch/internal/batch"
	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/history"
	"github.com/wonny/tvbatch/internal/runconfig"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Runner starts batch runs in the background
type Runner interface {
	Start(ctx context.Context, cfg contracts.RunConfig) (string, error)
	Status() batch.Status
}

// RunHandler triggers batch runs and reports their state
// ⭐ SSOT: 배치 실행 API 핸들러는 이 구조체에서만
type RunHandler struct {
	runner   Runner
	provider runconfig.Provider
	history  history.Recorder
	baseCtx  context.Context
	logger   *logger.Logger
}

// NewRunHandler creates a new run handler. Runs are bound to baseCtx, not to
// the triggering request.
func NewRunHandler(baseCtx context.Context, runner Runner, provider runconfig.Provider, rec history.Recorder, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runner:   runner,
		provider: provider,
		history:  rec,
		baseCtx:  baseCtx,
		logger:   log,
	}
}

// StartResponse acknowledges a started run
type StartResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Start begins a batch run with the stored configuration. A JSON body, when
// present, replaces the stored configuration for this run only.
// POST /api/runs
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.provider.Get(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load run config")
		respondError(w, http.StatusInternalServerError, "Failed to load run config")
		return
	}

	var override contracts.RunConfig
	switch err := json.NewDecoder(r.Body).Decode(&override); {
	case errors.Is(err, io.EOF):
	case err != nil:
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	default:
		if err := runconfig.Validate(override); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		cfg = override
	}

	runID, err := h.runner.Start(h.baseCtx, cfg)
	if err != nil {
		if errors.Is(err, contracts.ErrRunInProgress) {
			respondError(w, http.StatusConflict, "A batch run is already in progress")
			return
		}
		h.logger.WithError(err).Error("Failed to start batch run")
		respondError(w, http.StatusInternalServerError, "Failed to start batch run")
		return
	}

	h.logger.WithField("run_id", runID).Info("Batch run triggered via API")
	respondJSON(w, http.StatusAccepted, StartResponse{RunID: runID, Status: "started"})
}

// Status returns the controller state and progress
// GET /api/runs/status
func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.runner.Status())
}

// Latest returns the most recent finished run summary
// GET /api/runs/latest
func (h *RunHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusNotFound, "No run history")
		return
	}

	summary, ok, err := h.history.Latest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest run")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "No run history")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
