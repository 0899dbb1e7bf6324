package notifications

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes transactional emails to the log instead of sending them.
// Used in development and as the default until an SMTP provider is wired in.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerification(_ context.Context, to, name, token string) error {
	m.log.Info().
		Str("to", to).
		Str("name", name).
		Str("token", token).
		Msg("verification email (log transport)")
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, name, token string) error {
	m.log.Info().
		Str("to", to).
		Str("name", name).
		Str("token", token).
		Msg("password reset email (log transport)")
	return nil
}
