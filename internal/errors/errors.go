// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrSenderConfigNotFound reports a campaign pointing at a missing sender.
type ErrSenderConfigNotFound struct {
	SenderID string
}

func (e *ErrSenderConfigNotFound) Error() string {
	return fmt.Sprintf("sender config %s not found", e.SenderID)
}

func NewSenderConfigNotFound(id string) error {
	return &ErrSenderConfigNotFound{SenderID: id}
}

// DataError wraps a malformed row discovered while decoding store records.
// Data errors skip the affected row; they are never fatal to a dispatch pass.
type DataError struct {
	Entity string
	ID     string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("malformed %s row %s: %v", e.Entity, e.ID, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

func NewDataError(entity, id string, err error) error {
	return &DataError{Entity: entity, ID: id, Err: err}
}
