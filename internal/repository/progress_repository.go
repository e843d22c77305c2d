package repository

import (
	"database/sql"

	"github.com/mailramp/mailramp-backend/internal/model"
)

// ProgressRepositoryInterface records the per-recipient audit trail. Inserts
// are best-effort from the loop's perspective; a failed insert never fails
// the send it describes.
type ProgressRepositoryInterface interface {
	Insert(entry *model.ProgressEntry) error
}

type ProgressRepository struct {
	DB *sql.DB
}

func (r *ProgressRepository) Insert(entry *model.ProgressEntry) error {
	query := `
        INSERT INTO campaign_progress
            (campaign_id, contact_email, step_order, status, error_message, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.DB.Exec(query,
		entry.CampaignID, entry.ContactEmail, entry.StepOrder,
		entry.Status, entry.ErrorMessage, entry.SentAt,
	)
	return err
}

var _ ProgressRepositoryInterface = (*ProgressRepository)(nil)
