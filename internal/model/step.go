// internal/model/step.go
package model

import "time"

// Step is one subject/body template within a campaign's content. Steps are
// dispatched in ascending Order.
type Step struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Order   int    `json:"order"`

	// Invalid marks a content element that was not a subject/body mapping.
	// Invalid steps count every contact as failed at send time instead of
	// being rejected at parse time.
	Invalid bool `json:"-"`
}

// ProgressEntry is one row of the per-recipient audit trail.
type ProgressEntry struct {
	CampaignID   string    `db:"campaign_id" json:"campaign_id"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	StepOrder    int       `db:"step_order" json:"step_order"`
	Status       string    `db:"status" json:"status"` // sent, failed
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	SentAt       time.Time `db:"sent_at" json:"sent_at"`
}
