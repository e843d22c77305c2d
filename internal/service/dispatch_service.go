// internal/service/dispatch_service.go
package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	appErrors "github.com/mailramp/mailramp-backend/internal/errors"
	"github.com/mailramp/mailramp-backend/internal/events"
	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/mailer"
	"github.com/mailramp/mailramp-backend/internal/model"
	"github.com/mailramp/mailramp-backend/internal/repository"
	"github.com/mailramp/mailramp-backend/internal/throttle"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// defaultPauseBetweenEmails applies when a campaign does not set its own
// per-send pause.
const defaultPauseBetweenEmails = 300 * time.Second

// Dispatcher sends one message for one recipient. Satisfied by
// mailer.Dispatcher; tests substitute a recorder.
type Dispatcher interface {
	Send(ctx context.Context, cfg *model.SenderConfig, to, subject, body string) mailer.Outcome
}

// PassResult summarizes one dispatch pass over the due campaigns.
type PassResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// DispatchService runs the campaign dispatch loop: finds due campaigns,
// walks each one's step/contact matrix sequentially, sends through the
// configured provider and records durable progress after every delivery.
type DispatchService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	SenderRepo   repository.SenderConfigRepositoryInterface
	ProgressRepo repository.ProgressRepositoryInterface
	Dispatcher   Dispatcher
	Limiter      *throttle.Limiter
	Events       events.Publisher
	Log          *logger.Logger

	// DefaultPause overrides the built-in 300s pause for campaigns that do
	// not set pause_between_emails. Zero keeps the built-in default.
	DefaultPause time.Duration
}

// RunDuePass processes every campaign due at now, one campaign at a time.
// A failure inside one campaign marks that campaign failed and moves on;
// only the listing query itself can fail the pass.
func (s *DispatchService) RunDuePass(ctx context.Context, now time.Time) (PassResult, error) {
	var result PassResult

	due, err := s.CampaignRepo.ListDueCampaigns(now)
	if err != nil {
		return result, fmt.Errorf("listing due campaigns: %w", err)
	}
	if len(due) == 0 {
		s.Log.Debug().Msg("no campaigns due")
		return result, nil
	}

	s.Log.Info().Int("due", len(due)).Msg("starting dispatch pass")

	for _, c := range due {
		if ctx.Err() != nil {
			s.Log.Info().Msg("dispatch pass interrupted")
			break
		}
		sent, failedN := s.processCampaign(ctx, c)
		result.Processed++
		result.Sent += sent
		result.Failed += failedN
	}

	s.Log.Info().
		Int("processed", result.Processed).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Msg("dispatch pass finished")
	return result, nil
}

// processCampaign runs one campaign to its terminal status. Panics are
// contained here so a single bad campaign cannot take down the pass.
func (s *DispatchService) processCampaign(ctx context.Context, c *model.Campaign) (sent, failedN int) {
	log := s.Log.WithCampaign(c.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("campaign processing panicked")
			s.markFailed(c, log)
		}
	}()

	log.Info().Str("name", c.Name).Str("status", c.Status).Msg("processing campaign")

	if c.EmailListID == "" || c.SenderID == "" {
		log.Warn().Msg("campaign missing email list or sender")
		s.markFailed(c, log)
		return 0, 0
	}

	if err := s.CampaignRepo.UpdateStatus(c.ID, model.StatusRunning); err != nil {
		log.Error().Err(err).Msg("failed to mark campaign running")
		s.markFailed(c, log)
		return 0, 0
	}

	sender, err := s.SenderRepo.GetByID(c.SenderID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load sender config")
		s.markFailed(c, log)
		return 0, 0
	}
	if sender == nil {
		log.Warn().Err(appErrors.NewSenderConfigNotFound(c.SenderID)).Msg("sender config not found")
		s.markFailed(c, log)
		return 0, 0
	}

	steps := ParseSteps(c.Content, c.SubjectLine, c.EmailContent)

	contacts, err := s.ContactRepo.ListActiveOptedIn(c.EmailListID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load contacts")
		s.markFailed(c, log)
		return 0, 0
	}
	if len(contacts) == 0 {
		log.Info().Msg("no sendable contacts, campaign complete")
		if err := s.CampaignRepo.UpdateStatus(c.ID, model.StatusCompleted); err != nil {
			log.Error().Err(err).Msg("failed to mark campaign completed")
		}
		return 0, 0
	}

	pause := defaultPauseBetweenEmails
	if s.DefaultPause > 0 {
		pause = s.DefaultPause
	}
	if c.PauseBetweenEmails > 0 {
		pause = time.Duration(c.PauseBetweenEmails) * time.Second
	}

	total := len(steps) * len(contacts)
	sentCount := c.SentCount
	failedCount := 0
	skip := c.SentCount
	interrupted := false

	log.Info().
		Int("steps", len(steps)).
		Int("contacts", len(contacts)).
		Int("resume_offset", skip).
		Msg("dispatching")

loop:
	for _, step := range steps {
		for _, contact := range contacts {
			if skip > 0 {
				skip--
				continue
			}
			if ctx.Err() != nil {
				interrupted = true
				break loop
			}

			if step.Invalid {
				failedCount++
				s.trackProgress(c.ID, contact.Email, step.Order, false, "invalid step content", log)
				continue
			}

			if !emailPattern.MatchString(contact.Email) {
				failedCount++
				log.Warn().Str("email", contact.Email).Msg("skipping contact with invalid email")
				s.trackProgress(c.ID, contact.Email, step.Order, false, "invalid email address", log)
				continue
			}

			fields := contact.Fields()
			subject := RenderTemplate(step.Subject, fields)
			body := RenderTemplate(step.Body, fields)

			outcome := s.Dispatcher.Send(ctx, sender, contact.Email, subject, body)
			if outcome.Success {
				sentCount++
				if err := s.CampaignRepo.UpdateSentCount(c.ID, sentCount); err != nil {
					log.Error().Err(err).Msg("failed to persist sent count")
				}
			} else {
				failedCount++
				log.Warn().
					Str("email", contact.Email).
					Int("step", step.Order).
					Str("error", outcome.Error).
					Msg("send failed")
			}
			s.trackProgress(c.ID, contact.Email, step.Order, outcome.Success, outcome.Error, log)
			s.publishOutcome(c.ID, contact.Email, step.Order, outcome)

			s.Limiter.Wait(ctx, pause)
		}
	}

	if interrupted {
		// The campaign stays running; the next pass resumes from the
		// persisted sent_count.
		log.Info().Int("sent", sentCount).Msg("campaign interrupted, will resume")
		return sentCount - c.SentCount, failedCount
	}

	s.finalize(c, sentCount, failedCount, total, len(steps), log)
	return sentCount - c.SentCount, failedCount
}

// finalize computes the terminal status from the delivered/total ratio and
// writes the closing checkpoint.
func (s *DispatchService) finalize(c *model.Campaign, sentCount, failedCount, total, totalSteps int, log *logger.Logger) {
	var status string
	switch {
	case sentCount >= total:
		status = model.StatusCompleted
	case sentCount > 0:
		status = model.StatusPartiallyCompleted
	default:
		status = model.StatusFailed
	}

	rate := 0
	if total > 0 {
		rate = int(math.Round(float64(sentCount) / float64(total) * 100))
	}

	now := time.Now().UTC()
	fin := repository.CampaignFinal{
		Status:         status,
		SentCount:      sentCount,
		FailedCount:    failedCount,
		CompletionRate: rate,
		TotalSteps:     totalSteps,
	}
	if status == model.StatusCompleted || status == model.StatusFailed {
		fin.CompletedAt.Time = now
		fin.CompletedAt.Valid = true
	}
	if sentCount > c.SentCount {
		fin.SentAt.Time = now
		fin.SentAt.Valid = true
	}

	if err := s.CampaignRepo.Finalize(c.ID, fin); err != nil {
		log.Error().Err(err).Msg("failed to finalize campaign")
		return
	}

	log.Info().
		Str("status", status).
		Int("sent", sentCount).
		Int("failed", failedCount).
		Int("completion_rate", rate).
		Msg("campaign finished")
}

// markFailed is the error boundary's terminal write: no sends happened on
// behalf of this invocation, so counters carry over unchanged.
func (s *DispatchService) markFailed(c *model.Campaign, log *logger.Logger) {
	fin := repository.CampaignFinal{
		Status:         model.StatusFailed,
		SentCount:      c.SentCount,
		FailedCount:    c.FailedCount,
		CompletionRate: c.CompletionRate,
		TotalSteps:     c.TotalSteps,
	}
	fin.CompletedAt.Time = time.Now().UTC()
	fin.CompletedAt.Valid = true
	if err := s.CampaignRepo.Finalize(c.ID, fin); err != nil {
		log.Error().Err(err).Msg("failed to mark campaign failed")
	}
}

func (s *DispatchService) trackProgress(campaignID, email string, stepOrder int, success bool, errMsg string, log *logger.Logger) {
	if s.ProgressRepo == nil {
		return
	}
	status := "sent"
	if !success {
		status = "failed"
	}
	entry := &model.ProgressEntry{
		CampaignID:   campaignID,
		ContactEmail: email,
		StepOrder:    stepOrder,
		Status:       status,
		ErrorMessage: errMsg,
		SentAt:       time.Now().UTC(),
	}
	if err := s.ProgressRepo.Insert(entry); err != nil {
		log.Warn().Err(err).Msg("failed to record progress entry")
	}
}

func (s *DispatchService) publishOutcome(campaignID, email string, stepOrder int, outcome mailer.Outcome) {
	if s.Events == nil {
		return
	}
	s.Events.PublishOutcome(events.OutcomeEvent{
		CampaignID: campaignID,
		StepOrder:  stepOrder,
		Recipient:  email,
		Success:    outcome.Success,
		Error:      outcome.Error,
	})
}
