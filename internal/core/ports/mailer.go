package ports

import "context"

// Mailer delivers transactional email. Delivery failures are surfaced to the
// caller, which decides whether they are fatal.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}
