// Package mailer is the boundary to the external email transport. The
// transport itself is out of scope: delivery failures are non-fatal and the
// flows fall back to showing the outgoing message content instead.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/clinivault/screenauth/internal/logging"
)

// Message is the outgoing mail the flow composed. It doubles as the fallback
// preview when delivery fails.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. Implementations must treat delivery as
// best-effort; callers never abort a flow on a mailer error.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage composes the verification email for a registration.
// ttl is the configured code lifetime, quoted to the recipient so the
// message never contradicts the actual expiry.
func VerificationMessage(to, name, code string, ttl time.Duration, resend bool) Message {
	subject := "Your verification code"
	if resend {
		subject = "Your new verification code"
	}
	return Message{
		To:      to,
		Subject: subject,
		Body: fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n",
			name, code, int(ttl.Minutes())),
	}
}

// RecoveryMessage composes the password-recovery notice. It intentionally
// carries no credential material.
func RecoveryMessage(to, name string) Message {
	return Message{
		To:      to,
		Subject: "Password recovery",
		Body:    fmt.Sprintf("Hello %s,\n\nPassword recovery instructions have been requested for this account.\n", name),
	}
}

// LogMailer writes messages to the log instead of sending them. It is the
// default transport for local runs and never fails.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "outgoing mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
