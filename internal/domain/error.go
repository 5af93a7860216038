package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid query executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Access / identity
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidCredential = errors.New("invalid credential")

	// Subscription lifecycle
	ErrPlanNotFound      = errors.New("subscription plan not found")
	ErrPlanMisconfigured = errors.New("subscription plan has no provider price reference")
	ErrPlanInUse         = errors.New("plan is referenced by existing subscriptions")
	ErrAlreadySubscribed = errors.New("user already has an active subscription for this plan")
	ErrNotActive         = errors.New("subscription is not active")

	// Provider event path
	ErrSignatureInvalid = errors.New("provider event signature invalid")
	ErrMalformedEvent   = errors.New("malformed provider event")
	ErrUnresolvableUser = errors.New("no local user for provider customer")
	ErrGatewayFailure   = errors.New("billing provider request failed")
)

// permanentError marks an event-path failure that redelivery cannot fix.
// The webhook handler acknowledges permanent failures (after logging them)
// so the provider stops retrying; everything else is answered with a 5xx
// and redelivered later.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so IsPermanent reports true for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (or anything it wraps) is a failure that
// should be acknowledged instead of redelivered. Signature and payload-shape
// errors are permanent by definition; unclassified errors default to
// transient so an at-least-once sender retries them.
func IsPermanent(err error) bool {
	var pe *permanentError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrMalformedEvent)
}
