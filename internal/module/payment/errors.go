package payment

import "errors"

// Module errors.
var (
	ErrWebhookEventNotFound = errors.New("webhook event not found")
	ErrEventNotReplayable   = errors.New("webhook event cannot be replayed")
)
