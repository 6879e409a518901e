package providers

import (
	"context"
	"errors"
	"strings"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"

	// ErrorCanceled is the caller giving up. It says nothing about the
	// provider and never parks it.
	ErrorCanceled ErrorType = "canceled"
)

// ClassifyError sorts provider failures by how the manager should react.
// ErrorContext means the prompt is too long for the model, not a cancelled
// context; cancellation is transient from the provider's point of view.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTransient
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "too many requests"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context_length"), strings.Contains(e, "context length"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"), strings.Contains(e, " 502"), strings.Contains(e, " 503"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}
