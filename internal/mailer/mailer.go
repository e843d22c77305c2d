// Package mailer holds the provider-agnostic send abstraction and its three
// concrete transports (Gmail API, Microsoft Graph, SMTP). Every send resolves
// to an Outcome; transport and token-exchange failures never escape this
// package as errors or panics, which lets the dispatch loop keep iterating
// contacts.
package mailer

import (
	"context"
	"fmt"

	"github.com/mailramp/mailramp-backend/internal/model"
)

// Outcome is the result of one send attempt.
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Sender delivers one message through a single provider.
type Sender interface {
	Send(ctx context.Context, cfg *model.SenderConfig, to, subject, body string) Outcome
}

func succeeded() Outcome {
	return Outcome{Success: true}
}

func failed(format string, args ...interface{}) Outcome {
	return Outcome{Success: false, Error: fmt.Sprintf(format, args...)}
}
