package mailer

import (
	"context"
	"net/http"
	"time"

	"github.com/mailramp/mailramp-backend/internal/config"
	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/model"
)

// Dispatcher selects the transport sender matching the sender config's
// provider. An unknown provider resolves to a failed Outcome without any
// network call.
type Dispatcher struct {
	Gmail     Sender
	Microsoft Sender
	SMTP      Sender
	Log       *logger.Logger
}

// NewDispatcher wires the three transports from process configuration.
func NewDispatcher(oauth config.OAuthConfig, smtpCfg config.SMTPConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		Gmail: &GmailSender{
			ClientID:     oauth.Google.ClientID,
			ClientSecret: oauth.Google.ClientSecret,
			Log:          log.WithComponent("gmail"),
		},
		Microsoft: &MicrosoftSender{
			ClientID:     oauth.Microsoft.ClientID,
			ClientSecret: oauth.Microsoft.ClientSecret,
			HTTPClient:   &http.Client{Timeout: 30 * time.Second},
			Log:          log.WithComponent("microsoft"),
		},
		SMTP: &SMTPSender{
			Timeout:    smtpCfg.Timeout,
			MaxRetries: smtpCfg.MaxRetries,
			Log:        log.WithComponent("smtp"),
		},
		Log: log,
	}
}

func (d *Dispatcher) Send(ctx context.Context, cfg *model.SenderConfig, to, subject, body string) Outcome {
	switch cfg.Provider {
	case model.ProviderGmailOAuth:
		return d.Gmail.Send(ctx, cfg, to, subject, body)
	case model.ProviderMicrosoftOAuth:
		return d.Microsoft.Send(ctx, cfg, to, subject, body)
	case model.ProviderSMTP:
		return d.SMTP.Send(ctx, cfg, to, subject, body)
	default:
		d.Log.Warn().
			Str("provider", string(cfg.Provider)).
			Str("sender", cfg.UserEmail).
			Msg("unsupported provider")
		return failed("unsupported provider %q for sender %s", cfg.Provider, cfg.UserEmail)
	}
}

var _ Sender = (*Dispatcher)(nil)
