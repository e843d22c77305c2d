package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/model"
)

const graphSendMailURL = "https://graph.microsoft.com/v1.0/me/sendMail"

// graphMail is the Graph sendMail payload shape.
type graphMail struct {
	Message graphMessage `json:"message"`
}

type graphMessage struct {
	Subject      string           `json:"subject"`
	Body         graphBody        `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphRecipient struct {
	EmailAddress graphAddress `json:"emailAddress"`
}

type graphAddress struct {
	Address string `json:"address"`
}

// MicrosoftSender sends through the Microsoft Graph sendMail endpoint,
// refreshing the stored token against the common tenant.
type MicrosoftSender struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Log          *logger.Logger

	// Endpoint overrides the Graph sendMail URL; tests point it at a local
	// server. Empty means the production endpoint.
	Endpoint string
}

func (m *MicrosoftSender) Send(ctx context.Context, cfg *model.SenderConfig, to, subject, body string) Outcome {
	if cfg.RefreshToken == "" {
		return failed("microsoft: sender %s has no refresh token", cfg.UserEmail)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		Endpoint:     microsoft.AzureADEndpoint("common"),
		Scopes:       []string{"https://graph.microsoft.com/.default", "offline_access"},
	}
	token, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return failed("microsoft: token refresh failed: %s", bytes.TrimSpace(retrieveErr.Body))
		}
		return failed("microsoft: token refresh failed: %v", err)
	}

	payload, err := json.Marshal(graphMail{
		Message: graphMessage{
			Subject: subject,
			Body:    graphBody{ContentType: "HTML", Content: body},
			ToRecipients: []graphRecipient{
				{EmailAddress: graphAddress{Address: to}},
			},
		},
	})
	if err != nil {
		return failed("microsoft: failed to encode message: %v", err)
	}

	endpoint := m.Endpoint
	if endpoint == "" {
		endpoint = graphSendMailURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return failed("microsoft: failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return failed("microsoft: sendMail request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failed("microsoft: sendMail returned %d: %s", resp.StatusCode, bytes.TrimSpace(diag))
	}

	m.Log.Debug().Str("to", to).Msg("sent via Microsoft Graph")
	return succeeded()
}

var _ Sender = (*MicrosoftSender)(nil)
