package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/model"
)

// GmailSender sends through the Gmail API. The stored refresh token is
// exchanged for a short-lived access token on demand by the oauth2 token
// source; a refresh failure surfaces as a failed Outcome, not an error.
type GmailSender struct {
	ClientID     string
	ClientSecret string
	Log          *logger.Logger
}

func (g *GmailSender) Send(ctx context.Context, cfg *model.SenderConfig, to, subject, body string) Outcome {
	if cfg.RefreshToken == "" {
		return failed("gmail: sender %s has no refresh token", cfg.UserEmail)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return failed("gmail: failed to create service: %v", err)
	}

	raw := buildMIME(cfg.From(), to, subject, body)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}

	_, err = svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return failed("gmail: token refresh failed: %s", bytes.TrimSpace(retrieveErr.Body))
		}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			// 200/202 never reach here; everything else carries the
			// response body as diagnostic.
			return failed("gmail: send returned %d: %s", apiErr.Code, apiErr.Message)
		}
		return failed("gmail: send failed: %v", err)
	}

	g.Log.Debug().Str("to", to).Msg("sent via Gmail API")
	return succeeded()
}

var _ Sender = (*GmailSender)(nil)
