package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/mailramp/mailramp-backend/internal/errors"
	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/model"
)

// CampaignFinal is the terminal checkpoint written once per campaign run.
// completed_at is written as NULL unless the run ended completed/failed;
// sent_at is only advanced when something went out this run.
type CampaignFinal struct {
	Status         string
	SentCount      int
	FailedCount    int
	CompletionRate int
	TotalSteps     int
	CompletedAt    sql.NullTime
	SentAt         sql.NullTime
}

type CampaignRepositoryInterface interface {
	ListDueCampaigns(now time.Time) ([]*model.Campaign, error)
	GetByID(id string) (*model.Campaign, error)
	UpdateStatus(id, status string) error
	UpdateSentCount(id string, sent int) error
	Finalize(id string, fin CampaignFinal) error
}

type CampaignRepository struct {
	DB  *sql.DB
	Log *logger.Logger
}

const campaignColumns = `id, name, status, email_list_id, sender_id, content,
        subject_line, email_content, scheduled_at, pause_between_emails,
        sent_count, failed_count, completion_rate, total_steps,
        completed_at, sent_at, created_at, updated_at`

// ListDueCampaigns returns campaigns whose status allows processing and whose
// scheduled time has passed. scheduled_at is stored as text (rows arrive from
// loosely-typed upstream tooling); malformed values are logged as data errors
// and the row is skipped, never fatal to the pass.
func (r *CampaignRepository) ListDueCampaigns(now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE status IN ($1, $2)
        ORDER BY scheduled_at ASC`

	rows, err := r.DB.Query(query, model.StatusScheduled, model.StatusRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now = now.UTC().Truncate(time.Second)

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, rawScheduled, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		scheduled, err := parseScheduledAt(rawScheduled)
		if err != nil {
			if r.Log != nil {
				r.Log.Warn().Err(appErrors.NewDataError("campaign", c.ID, err)).
					Msg("skipping campaign with malformed scheduled_at")
			}
			continue
		}
		c.ScheduledAt = scheduled
		if c.ScheduledAt.After(now) {
			continue
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, rawScheduled, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if scheduled, err := parseScheduledAt(rawScheduled); err == nil {
		c.ScheduledAt = scheduled
	}
	return c, nil
}

func (r *CampaignRepository) UpdateStatus(id, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

// UpdateSentCount persists the running counter after each successful send.
// GREATEST keeps sent_count monotonic non-decreasing across resumed runs.
func (r *CampaignRepository) UpdateSentCount(id string, sent int) error {
	query := `UPDATE campaigns
        SET sent_count=GREATEST(sent_count, $1), updated_at=NOW()
        WHERE id=$2`
	_, err := r.DB.Exec(query, sent, id)
	return err
}

func (r *CampaignRepository) Finalize(id string, fin CampaignFinal) error {
	query := `UPDATE campaigns
        SET status=$1,
            sent_count=GREATEST(sent_count, $2),
            failed_count=$3,
            completion_rate=$4,
            total_steps=$5,
            completed_at=$6,
            sent_at=COALESCE($7, sent_at),
            updated_at=NOW()
        WHERE id=$8`
	_, err := r.DB.Exec(query,
		fin.Status, fin.SentCount, fin.FailedCount, fin.CompletionRate,
		fin.TotalSteps, fin.CompletedAt, fin.SentAt, id,
	)
	return err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(s scanner) (*model.Campaign, string, error) {
	var (
		c                              model.Campaign
		content, subject, body        sql.NullString
		listID, senderID, scheduledAt sql.NullString
		completedAt, sentAt           sql.NullTime
		updatedAt                     sql.NullTime
	)
	err := s.Scan(
		&c.ID, &c.Name, &c.Status, &listID, &senderID, &content,
		&subject, &body, &scheduledAt, &c.PauseBetweenEmails,
		&c.SentCount, &c.FailedCount, &c.CompletionRate, &c.TotalSteps,
		&completedAt, &sentAt, &c.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, "", err
	}
	c.EmailListID = listID.String
	c.SenderID = senderID.String
	c.Content = content.String
	c.SubjectLine = subject.String
	c.EmailContent = body.String
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	if sentAt.Valid {
		c.SentAt = &sentAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, scheduledAt.String, nil
}

// parseScheduledAt decodes the stored timestamp once, at the boundary.
// Accepts RFC 3339 and the zone-less form older tooling wrote.
func parseScheduledAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("scheduled_at is empty")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable scheduled_at %q", raw)
	}
	return t.UTC().Truncate(time.Second), nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
