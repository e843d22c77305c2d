// internal/model/campaign.go
package model

import "time"

// Campaign lifecycle statuses. A campaign is due for dispatch while it is
// scheduled or running; the other three states are terminal.
const (
	StatusScheduled          = "scheduled"
	StatusRunning            = "running"
	StatusCompleted          = "completed"
	StatusPartiallyCompleted = "partially_completed"
	StatusFailed             = "failed"
)

type Campaign struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Status       string `db:"status" json:"status"`
	EmailListID  string `db:"email_list_id" json:"email_list_id"`
	SenderID     string `db:"sender_id" json:"sender_id"`
	Content      string `db:"content" json:"content,omitempty"`
	SubjectLine  string `db:"subject_line" json:"subject_line,omitempty"`
	EmailContent string `db:"email_content" json:"email_content,omitempty"`

	// ScheduledAt is decoded from the raw row at the repository boundary.
	// Rows with a malformed scheduled_at never reach the dispatch loop.
	ScheduledAt time.Time `json:"scheduled_at"`

	// PauseBetweenEmails is the per-campaign throttle in seconds between
	// consecutive sends. Zero means the default of 300.
	PauseBetweenEmails int `db:"pause_between_emails" json:"pause_between_emails"`

	SentCount      int        `db:"sent_count" json:"sent_count"`
	FailedCount    int        `db:"failed_count" json:"failed_count"`
	CompletionRate int        `db:"completion_rate" json:"completion_rate"`
	TotalSteps     int        `db:"total_steps" json:"total_steps"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
