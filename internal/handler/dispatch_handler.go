package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mailramp/mailramp-backend/internal/config"
	appErrors "github.com/mailramp/mailramp-backend/internal/errors"
	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/repository"
	"github.com/mailramp/mailramp-backend/internal/service"
)

// PassRunner triggers one dispatch pass on demand.
type PassRunner interface {
	RunDuePass(ctx context.Context, now time.Time) (service.PassResult, error)
}

// DispatchHandler exposes the dispatch loop over HTTP: manual pass trigger,
// loop status, and campaign inspection.
type DispatchHandler struct {
	Service      PassRunner
	CampaignRepo repository.CampaignRepositoryInterface
	Dispatch     config.DispatchConfig
	SMTP         config.SMTPConfig
	Log          *logger.Logger
}

// RunPass triggers a dispatch pass immediately instead of waiting for the
// next scheduled tick.
func (h *DispatchHandler) RunPass(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.RunDuePass(r.Context(), time.Now().UTC())
	if err != nil {
		h.Log.Error().Err(err).Msg("manual dispatch pass failed")
		writeError(w, http.StatusInternalServerError, "dispatch pass failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetCampaign returns one campaign with its current progress counters.
func (h *DispatchHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	campaign, err := h.CampaignRepo.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		h.Log.Error().Err(err).Str("campaign_id", id).Msg("failed to load campaign")
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// Status reports the dispatch loop's effective configuration.
func (h *DispatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"interval":         h.Dispatch.Interval.String(),
		"default_pause":    h.Dispatch.DefaultPause.String(),
		"jitter":           h.Dispatch.Jitter,
		"smtp_timeout":     h.SMTP.Timeout.String(),
		"smtp_max_retries": h.SMTP.MaxRetries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
