package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"

	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/model"
)

// SMTPSender submits mail over plain SMTP or SMTPS, per the sender config's
// use_tls/use_ssl flags. Transient errors (timeouts, disconnects) are retried
// with exponential backoff up to MaxRetries attempts; auth and recipient
// failures are terminal for the attempt.
type SMTPSender struct {
	Timeout    time.Duration
	MaxRetries int
	Log        *logger.Logger

	// Sleep overrides the backoff sleep in tests.
	Sleep func(d time.Duration)
}

func (s *SMTPSender) Send(ctx context.Context, cfg *model.SenderConfig, to, subject, body string) Outcome {
	if cfg.SMTPHost == "" || cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		return failed("smtp: incomplete config for sender %s: host, username and password are required", cfg.UserEmail)
	}

	msg, err := buildSMTPMessage(cfg, to, subject, body)
	if err != nil {
		return failed("smtp: failed to build message: %v", err)
	}

	attempts := s.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			s.backoff(attempt)
		}
		if err := ctx.Err(); err != nil {
			return failed("smtp: cancelled: %v", err)
		}
		last = s.submit(cfg, to, msg)
		if last == nil {
			s.Log.Debug().Str("to", to).Str("host", cfg.SMTPHost).Msg("sent via SMTP")
			return succeeded()
		}
		if !isTransient(last) {
			break
		}
		s.Log.Warn().Err(last).Int("attempt", attempt+1).Msg("transient SMTP error, retrying")
	}
	return failed("%v", last)
}

// buildSMTPMessage constructs a multipart/alternative message with an HTML
// part. The body doubles as the plain-text part so every message carries
// both alternatives.
func buildSMTPMessage(cfg *model.SenderConfig, to, subject, body string) ([]byte, error) {
	e := email.NewEmail()
	e.From = cfg.From()
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(body)
	e.Text = []byte(body)
	return e.Bytes()
}

// submit runs one full SMTP conversation.
func (s *SMTPSender) submit(cfg *model.SenderConfig, to string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	var client *smtp.Client
	var err error
	if cfg.UseSSL && cfg.SMTPPort == 465 {
		client, err = s.dialTLS(cfg.SMTPHost, addr)
	} else {
		client, err = s.dialPlain(cfg.SMTPHost, addr)
	}
	if err != nil {
		return wrapTransport("connect", err)
	}
	defer client.Close()

	if !cfg.UseSSL && cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsCfg := &tls.Config{ServerName: cfg.SMTPHost}
			if err := client.StartTLS(tlsCfg); err != nil {
				return wrapTransport("starttls", err)
			}
		}
	}

	if ok, mechs := client.Extension("AUTH"); ok {
		auth := s.pickAuth(cfg, mechs)
		if err := client.Auth(auth); err != nil {
			return &authError{err: err}
		}
	}

	if err := client.Mail(cfg.UserEmail); err != nil {
		return wrapTransport("mail from", err)
	}
	if err := client.Rcpt(to); err != nil {
		return &recipientsRefusedError{recipient: to, err: err}
	}

	w, err := client.Data()
	if err != nil {
		return wrapTransport("data", err)
	}
	if _, err := w.Write(msg); err != nil {
		return wrapTransport("write", err)
	}
	if err := w.Close(); err != nil {
		return wrapTransport("close data", err)
	}
	return client.Quit()
}

func (s *SMTPSender) dialPlain(host, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: s.Timeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.applyDeadline(conn)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func (s *SMTPSender) dialTLS(host, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: s.Timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return nil, err
	}
	s.applyDeadline(conn)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func (s *SMTPSender) applyDeadline(conn net.Conn) {
	if s.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(s.Timeout))
	}
}

// pickAuth prefers PLAIN and falls back to LOGIN for servers that only
// advertise the legacy mechanism.
func (s *SMTPSender) pickAuth(cfg *model.SenderConfig, mechs string) smtp.Auth {
	if !strings.Contains(mechs, "PLAIN") && strings.Contains(mechs, "LOGIN") {
		return &loginAuth{username: cfg.SMTPUsername, password: cfg.SMTPPassword, host: cfg.SMTPHost}
	}
	return smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
}

func (s *SMTPSender) backoff(attempt int) {
	d := time.Duration(1<<uint(attempt-1)) * time.Second
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

// loginAuth implements the LOGIN SMTP auth mechanism.
type loginAuth struct {
	username string
	password string
	host     string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if server.Name != a.host {
		return "", nil, fmt.Errorf("unexpected server name %s", server.Name)
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:", "user:":
		return []byte(a.username), nil
	case "password:", "pass:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected login challenge %q", fromServer)
	}
}

// Failure subtypes. Each renders a distinct diagnostic but resolves to the
// same success=false outcome shape.

type authError struct{ err error }

func (e *authError) Error() string {
	return fmt.Sprintf("smtp: authentication failed: %v", e.err)
}

type recipientsRefusedError struct {
	recipient string
	err       error
}

func (e *recipientsRefusedError) Error() string {
	return fmt.Sprintf("smtp: recipient %s refused: %v", e.recipient, e.err)
}

type disconnectedError struct {
	stage string
	err   error
}

func (e *disconnectedError) Error() string {
	return fmt.Sprintf("smtp: server disconnected during %s: %v", e.stage, e.err)
}

type transportError struct {
	stage string
	err   error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("smtp: %s failed: %v", e.stage, e.err)
}

func wrapTransport(stage string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
		strings.Contains(err.Error(), "connection reset") {
		return &disconnectedError{stage: stage, err: err}
	}
	return &transportError{stage: stage, err: err}
}

// isTransient reports whether another attempt could plausibly succeed:
// disconnects and network timeouts are retried, auth and recipient
// rejections are not.
func isTransient(err error) bool {
	var disconnected *disconnectedError
	if errors.As(err, &disconnected) {
		return true
	}
	var transport *transportError
	if errors.As(err, &transport) {
		var netErr net.Error
		if errors.As(transport.err, &netErr) && netErr.Timeout() {
			return true
		}
		return transport.stage == "connect"
	}
	return false
}

var _ Sender = (*SMTPSender)(nil)
