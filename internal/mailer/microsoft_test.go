package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/mailramp/mailramp-backend/internal/model"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// tokenContext routes the oauth2 refresh exchange to a stub transport.
func tokenContext(status int, body string) context.Context {
	client := &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(status, body), nil
		}),
	}
	return context.WithValue(context.Background(), oauth2.HTTPClient, client)
}

func microsoftConfig() *model.SenderConfig {
	return &model.SenderConfig{
		Provider:     model.ProviderMicrosoftOAuth,
		UserEmail:    "out@x.dev",
		RefreshToken: "refresh-me",
	}
}

func TestMicrosoftNoRefreshToken(t *testing.T) {
	m := &MicrosoftSender{Log: nopLogger()}

	cfg := microsoftConfig()
	cfg.RefreshToken = ""
	outcome := m.Send(context.Background(), cfg, "to@x.dev", "s", "b")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "no refresh token")
}

func TestMicrosoftTokenRefreshFailure(t *testing.T) {
	m := &MicrosoftSender{Log: nopLogger()}

	ctx := tokenContext(http.StatusBadRequest, `{"error":"invalid_grant"}`)
	outcome := m.Send(ctx, microsoftConfig(), "to@x.dev", "s", "b")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "token refresh failed")
	assert.Contains(t, outcome.Error, "invalid_grant")
}

func TestMicrosoftSendMail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		success    bool
		diagnostic string
	}{
		{"accepted", http.StatusAccepted, "", true, ""},
		{"ok", http.StatusOK, "", true, ""},
		{"throttled", http.StatusTooManyRequests, `{"error":{"code":"TooManyRequests"}}`, false, "TooManyRequests"},
		{"server error", http.StatusInternalServerError, `{"error":{"code":"InternalServerError"}}`, false, "InternalServerError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *http.Request
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r
				gotBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			m := &MicrosoftSender{
				HTTPClient: srv.Client(),
				Endpoint:   srv.URL,
				Log:        nopLogger(),
			}
			ctx := tokenContext(http.StatusOK, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
			outcome := m.Send(ctx, microsoftConfig(), "to@x.dev", "Hello", "<p>Hi</p>")

			assert.Equal(t, tt.success, outcome.Success)
			if !tt.success {
				assert.Contains(t, outcome.Error, tt.diagnostic)
			}

			require.NotNil(t, got)
			assert.Equal(t, http.MethodPost, got.Method)
			assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
			assert.Equal(t, "application/json", got.Header.Get("Content-Type"))

			var mail graphMail
			require.NoError(t, json.Unmarshal(gotBody, &mail))
			assert.Equal(t, "Hello", mail.Message.Subject)
			assert.Equal(t, "HTML", mail.Message.Body.ContentType)
			assert.Equal(t, "<p>Hi</p>", mail.Message.Body.Content)
			require.Len(t, mail.Message.ToRecipients, 1)
			assert.Equal(t, "to@x.dev", mail.Message.ToRecipients[0].EmailAddress.Address)
		})
	}
}
