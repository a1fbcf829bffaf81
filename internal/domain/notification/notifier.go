package notification

import "context"

// Notifier delivers a message to a user.
type Notifier interface {
	Send(ctx context.Context, userID, subject, body string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, userID, subject, body string) error

func (f NotifierFunc) Send(ctx context.Context, userID, subject, body string) error {
	return f(ctx, userID, subject, body)
}

// RecipientResolver maps a user to an e-mail address. ok is false when
// the user has no reachable address.
type RecipientResolver interface {
	ResolveEmail(ctx context.Context, userID string) (email string, ok bool, err error)
}
