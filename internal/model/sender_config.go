// internal/model/sender_config.go
package model

import "fmt"

// Provider identifies the transport a sender's mail goes out through.
type Provider string

const (
	ProviderGmailOAuth     Provider = "gmail_oauth"
	ProviderMicrosoftOAuth Provider = "microsoft_oauth"
	ProviderSMTP           Provider = "smtp"
)

// SenderConfig holds stored credentials for one outgoing identity. OAuth
// providers use UserEmail plus RefreshToken; SMTP uses the smtp_* fields.
type SenderConfig struct {
	ID           string   `db:"id" json:"id"`
	Provider     Provider `db:"provider" json:"provider"`
	UserEmail    string   `db:"user_email" json:"user_email"`
	FromName     string   `db:"from_name" json:"from_name,omitempty"`
	RefreshToken string   `db:"refresh_token" json:"-"`
	SMTPHost     string   `db:"smtp_host" json:"smtp_host,omitempty"`
	SMTPPort     int      `db:"smtp_port" json:"smtp_port,omitempty"`
	SMTPUsername string   `db:"smtp_username" json:"smtp_username,omitempty"`
	SMTPPassword string   `db:"smtp_password" json:"-"`
	UseTLS       bool     `db:"use_tls" json:"use_tls"`
	UseSSL       bool     `db:"use_ssl" json:"use_ssl"`
	IsActive     bool     `db:"is_active" json:"is_active"`
}

// From returns the RFC 5322 originator for this sender.
func (s *SenderConfig) From() string {
	if s.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.FromName, s.UserEmail)
	}
	return s.UserEmail
}
