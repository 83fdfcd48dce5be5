package logic

import (
	"errors"
	"fmt"
)

// ErrNoEligibleBanner is returned when no banner passes eligibility for a
// slot. The filler turns it into the placement's fallback thumbnail.
var ErrNoEligibleBanner = errors.New("no eligible banner")

// ErrUnknownSlot is returned when a placement name has no banner slot.
var ErrUnknownSlot = errors.New("unknown banner slot")

// ErrNilRedisStore is returned when a RedisStore pointer is nil or uninitialized.
var ErrNilRedisStore = errors.New("redis store is nil")

// ErrSweepInProgress is returned when a daily sweep is requested while a
// previous pass still holds the sweep lock.
var ErrSweepInProgress = errors.New("expiry sweep already running")

// ValidationError reports a missing or malformed request field. It is
// surfaced to the caller with the offending field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
