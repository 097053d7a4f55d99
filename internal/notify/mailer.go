// Package notify delivers outbound mail. Delivery is always off the request
// path; callers get an answer before the message leaves the process.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

type Message struct {
	Kind string `json:"kind"`
	To   string `json:"to"`
	Link string `json:"link"`
}

const KindPasswordReset = "password_reset"

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	log.Info().Str("to", to).Str("kind", KindPasswordReset).Str("link", link).Msg("mail not sent: no webhook configured")
	return nil
}
