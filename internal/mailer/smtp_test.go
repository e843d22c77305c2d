package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailramp/mailramp-backend/internal/model"
)

func smtpConfig() *model.SenderConfig {
	return &model.SenderConfig{
		Provider:     model.ProviderSMTP,
		UserEmail:    "out@x.dev",
		FromName:     "Outreach",
		SMTPHost:     "mail.x.dev",
		SMTPPort:     587,
		SMTPUsername: "out@x.dev",
		SMTPPassword: "secret",
		UseTLS:       true,
	}
}

func TestSMTPIncompleteConfig(t *testing.T) {
	s := &SMTPSender{Log: nopLogger()}

	cfg := smtpConfig()
	cfg.SMTPPassword = ""
	outcome := s.Send(context.Background(), cfg, "to@x.dev", "s", "b")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "incomplete config")
}

func TestBuildSMTPMessageAlternatives(t *testing.T) {
	msg, err := buildSMTPMessage(smtpConfig(), "to@x.dev", "Hello", "<p>Hi</p>")
	require.NoError(t, err)

	raw := string(msg)
	assert.Contains(t, raw, "From: Outreach <out@x.dev>")
	assert.Contains(t, raw, "To: to@x.dev")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "text/plain")
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err       error
		transient bool
		contains  string
	}{
		{&authError{err: fmt.Errorf("535 bad credentials")}, false, "authentication failed"},
		{&recipientsRefusedError{recipient: "to@x.dev", err: fmt.Errorf("550 no such user")}, false, "recipient to@x.dev refused"},
		{&disconnectedError{stage: "data", err: io.EOF}, true, "server disconnected during data"},
		{&transportError{stage: "connect", err: fmt.Errorf("connection refused")}, true, "connect failed"},
		{&transportError{stage: "mail from", err: fmt.Errorf("451 try later")}, false, "mail from failed"},
	}
	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			assert.Equal(t, tt.transient, isTransient(tt.err))
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestWrapTransportDetectsDisconnects(t *testing.T) {
	var disconnected *disconnectedError
	assert.True(t, errors.As(wrapTransport("write", io.EOF), &disconnected))
	assert.True(t, errors.As(wrapTransport("data", fmt.Errorf("read: connection reset by peer")), &disconnected))

	var transport *transportError
	assert.True(t, errors.As(wrapTransport("mail from", fmt.Errorf("550 rejected")), &transport))
}

func TestLoginAuth(t *testing.T) {
	auth := &loginAuth{username: "user", password: "pass", host: "mail.x.dev"}

	proto, initial, err := auth.Start(&smtp.ServerInfo{Name: "mail.x.dev", TLS: true})
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", proto)
	assert.Nil(t, initial)

	resp, err := auth.Next([]byte("Username:"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("user"), resp)

	resp, err = auth.Next([]byte("Password:"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("pass"), resp)

	_, err = auth.Next([]byte("Whatever:"), true)
	assert.Error(t, err)
}

func TestLoginAuthRejectsWrongServer(t *testing.T) {
	auth := &loginAuth{username: "user", password: "pass", host: "mail.x.dev"}
	_, _, err := auth.Start(&smtp.ServerInfo{Name: "evil.example.com"})
	assert.Error(t, err)
}

func TestPickAuth(t *testing.T) {
	s := &SMTPSender{Log: nopLogger()}
	cfg := smtpConfig()

	_, isLogin := s.pickAuth(cfg, "LOGIN").(*loginAuth)
	assert.True(t, isLogin)

	_, isLogin = s.pickAuth(cfg, "PLAIN LOGIN").(*loginAuth)
	assert.False(t, isLogin)
}
