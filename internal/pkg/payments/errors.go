package payments

import "errors"

var (
	// ErrUnsupportedEvent is returned for event types the dispatcher does not
	// route. Unknown types are rejected, not silently dropped, so operators
	// can detect provider schema drift.
	ErrUnsupportedEvent = errors.New("unsupported webhook event type")

	// ErrInvalidPayload marks a structurally broken or incomplete payload.
	// Retrying the delivery will not fix it.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrProductNotFound is returned when a checkout references a product
	// that does not exist locally.
	ErrProductNotFound = errors.New("checkout references unknown product")

	// ErrProductNotDeliverable is returned when a checkout references a
	// product without a deliverable file key.
	ErrProductNotDeliverable = errors.New("product has no deliverable file")

	// ErrLedgerOrderMismatch signals that an event is marked processed but no
	// matching order exists. This means entitlement bookkeeping diverged from
	// idempotency bookkeeping and must page an operator, not retry silently.
	ErrLedgerOrderMismatch = errors.New("event marked processed but no matching order exists")

	// ErrNotAuthorized is returned when a caller reads an order they do not own.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNoLinkedUser is returned when a provider customer id cannot be
	// resolved to a local user.
	ErrNoLinkedUser = errors.New("no local user linked to provider customer")
)

// IsFatalInput reports whether the error is a fatal input error that the
// delivery retry mechanism should not blindly retry forever.
func IsFatalInput(err error) bool {
	return errors.Is(err, ErrUnsupportedEvent) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductNotDeliverable)
}
