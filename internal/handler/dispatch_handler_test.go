package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailramp/mailramp-backend/internal/config"
	appErrors "github.com/mailramp/mailramp-backend/internal/errors"
	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/model"
	"github.com/mailramp/mailramp-backend/internal/repository"
	"github.com/mailramp/mailramp-backend/internal/service"
)

type stubRunner struct {
	result service.PassResult
	err    error
}

func (s *stubRunner) RunDuePass(ctx context.Context, now time.Time) (service.PassResult, error) {
	return s.result, s.err
}

type stubCampaignRepo struct {
	campaign *model.Campaign
	err      error
}

func (s *stubCampaignRepo) ListDueCampaigns(now time.Time) ([]*model.Campaign, error) {
	return nil, nil
}
func (s *stubCampaignRepo) GetByID(id string) (*model.Campaign, error) { return s.campaign, s.err }
func (s *stubCampaignRepo) UpdateStatus(id, status string) error       { return nil }
func (s *stubCampaignRepo) UpdateSentCount(id string, sent int) error  { return nil }
func (s *stubCampaignRepo) Finalize(id string, fin repository.CampaignFinal) error {
	return nil
}

func newHandler(runner *stubRunner, repo *stubCampaignRepo) *DispatchHandler {
	return &DispatchHandler{
		Service:      runner,
		CampaignRepo: repo,
		Dispatch: config.DispatchConfig{
			Interval:     time.Minute,
			DefaultPause: 5 * time.Minute,
			Jitter:       0.2,
		},
		SMTP: config.SMTPConfig{Timeout: 30 * time.Second, MaxRetries: 3},
		Log:  &logger.Logger{Logger: zerolog.Nop()},
	}
}

func TestRunPass(t *testing.T) {
	h := newHandler(&stubRunner{result: service.PassResult{Processed: 2, Sent: 5, Failed: 1}}, &stubCampaignRepo{})

	rec := httptest.NewRecorder()
	h.RunPass(rec, httptest.NewRequest(http.MethodPost, "/dispatch/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result service.PassResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 5, result.Sent)
	assert.Equal(t, 1, result.Failed)
}

func TestRunPassError(t *testing.T) {
	h := newHandler(&stubRunner{err: fmt.Errorf("db unreachable")}, &stubCampaignRepo{})

	rec := httptest.NewRecorder()
	h.RunPass(rec, httptest.NewRequest(http.MethodPost, "/dispatch/run", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// The failure detail stays in the logs, not the response.
	assert.NotContains(t, rec.Body.String(), "db unreachable")
}

func TestGetCampaign(t *testing.T) {
	repo := &stubCampaignRepo{campaign: &model.Campaign{ID: "c1", Name: "Launch", Status: model.StatusRunning}}
	h := newHandler(&stubRunner{}, repo)

	r := chi.NewRouter()
	r.Get("/campaigns/{id}", h.GetCampaign)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/c1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var campaign model.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaign))
	assert.Equal(t, "c1", campaign.ID)
	assert.Equal(t, model.StatusRunning, campaign.Status)
}

func TestGetCampaignNotFound(t *testing.T) {
	repo := &stubCampaignRepo{err: appErrors.NewCampaignNotFound("missing")}
	h := newHandler(&stubRunner{}, repo)

	r := chi.NewRouter()
	r.Get("/campaigns/{id}", h.GetCampaign)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatus(t *testing.T) {
	h := newHandler(&stubRunner{}, &stubCampaignRepo{})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/dispatch/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "1m0s", status["interval"])
	assert.Equal(t, "5m0s", status["default_pause"])
	assert.Equal(t, float64(3), status["smtp_max_retries"])
}
