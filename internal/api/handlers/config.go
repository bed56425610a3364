package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/runconfig"
	"github.com/wonny/tvbatch/pkg/logger"
)

// ConfigHandler serves the persisted run configuration
// ⭐ SSOT: 실행 설정 API 핸들러는 이 구조체에서만
type ConfigHandler struct {
	provider runconfig.Provider
	logger   *logger.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(provider runconfig.Provider, log *logger.Logger) *ConfigHandler {
	return &ConfigHandler{
		provider: provider,
		logger:   log,
	}
}

// Get returns the effective run configuration with defaults applied
// GET /api/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.provider.Get(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load run config")
		respondError(w, http.StatusInternalServerError, "Failed to load run config")
		return
	}

	respondJSON(w, http.StatusOK, cfg.Normalized())
}

// Put validates and stores a new run configuration
// PUT /api/config
func (h *ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var cfg contracts.RunConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := runconfig.Validate(cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.provider.Set(r.Context(), cfg); err != nil {
		h.logger.WithError(err).Error("Failed to save run config")
		respondError(w, http.StatusInternalServerError, "Failed to save run config")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"strategy":  cfg.StrategyName,
		"timeframe": cfg.Timeframe,
	}).Info("Run config updated")

	respondJSON(w, http.StatusOK, cfg.Normalized())
}
