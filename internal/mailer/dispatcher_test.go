package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/model"
)

type stubSender struct {
	called bool
	result Outcome
}

func (s *stubSender) Send(ctx context.Context, cfg *model.SenderConfig, to, subject, body string) Outcome {
	s.called = true
	return s.result
}

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zerolog.Nop()}
}

func TestDispatcherRoutesByProvider(t *testing.T) {
	tests := []struct {
		provider model.Provider
		want     func(d *Dispatcher) *stubSender
	}{
		{model.ProviderGmailOAuth, func(d *Dispatcher) *stubSender { return d.Gmail.(*stubSender) }},
		{model.ProviderMicrosoftOAuth, func(d *Dispatcher) *stubSender { return d.Microsoft.(*stubSender) }},
		{model.ProviderSMTP, func(d *Dispatcher) *stubSender { return d.SMTP.(*stubSender) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			d := &Dispatcher{
				Gmail:     &stubSender{result: succeeded()},
				Microsoft: &stubSender{result: succeeded()},
				SMTP:      &stubSender{result: succeeded()},
				Log:       nopLogger(),
			}
			cfg := &model.SenderConfig{Provider: tt.provider, UserEmail: "out@x.dev"}
			outcome := d.Send(context.Background(), cfg, "to@x.dev", "s", "b")
			assert.True(t, outcome.Success)
			assert.True(t, tt.want(d).called)
		})
	}
}

func TestDispatcherUnknownProvider(t *testing.T) {
	gmail := &stubSender{result: succeeded()}
	var logs bytes.Buffer
	d := &Dispatcher{
		Gmail:     gmail,
		Microsoft: gmail,
		SMTP:      gmail,
		Log:       &logger.Logger{Logger: zerolog.New(&logs)},
	}

	cfg := &model.SenderConfig{Provider: "sendgrid", UserEmail: "out@x.dev"}
	outcome := d.Send(context.Background(), cfg, "to@x.dev", "s", "b")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "unsupported provider")
	assert.Contains(t, outcome.Error, "sendgrid")
	assert.False(t, gmail.called)
	assert.Contains(t, logs.String(), "unsupported provider")
	assert.Contains(t, logs.String(), "sendgrid")
}

func TestBuildMIMEEncodesSubject(t *testing.T) {
	raw := string(buildMIME("Out <out@x.dev>", "to@x.dev", "héllo", "<p>hi</p>"))
	assert.Contains(t, raw, "From: Out <out@x.dev>\r\n")
	assert.Contains(t, raw, "To: to@x.dev\r\n")
	assert.NotContains(t, raw, "Subject: héllo")
	assert.Contains(t, raw, `Content-Type: text/html; charset="UTF-8"`)
	assert.Contains(t, raw, "\r\n\r\n<p>hi</p>")
}
