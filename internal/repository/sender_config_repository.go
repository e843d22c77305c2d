package repository

import (
	"database/sql"

	"github.com/mailramp/mailramp-backend/internal/model"
)

type SenderConfigRepositoryInterface interface {
	GetByID(id string) (*model.SenderConfig, error)
}

type SenderConfigRepository struct {
	DB *sql.DB
}

// GetByID fetches a sender config by ID. Returns (nil, nil) when absent.
func (r *SenderConfigRepository) GetByID(id string) (*model.SenderConfig, error) {
	query := `
        SELECT id, provider, COALESCE(user_email, ''), COALESCE(from_name, ''),
               COALESCE(refresh_token, ''), COALESCE(smtp_host, ''),
               COALESCE(smtp_port, 0), COALESCE(smtp_username, ''),
               COALESCE(smtp_password, ''), COALESCE(use_tls, TRUE),
               COALESCE(use_ssl, FALSE), is_active
        FROM email_configs
        WHERE id = $1
    `
	var s model.SenderConfig
	err := r.DB.QueryRow(query, id).Scan(
		&s.ID, &s.Provider, &s.UserEmail, &s.FromName,
		&s.RefreshToken, &s.SMTPHost, &s.SMTPPort, &s.SMTPUsername,
		&s.SMTPPassword, &s.UseTLS, &s.UseSSL, &s.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

var _ SenderConfigRepositoryInterface = (*SenderConfigRepository)(nil)
