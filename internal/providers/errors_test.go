package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":                       ErrorQuota,
		"openai generate error 429: slow down":     ErrorRate,
		"rate limit reached":                       ErrorRate,
		"maximum context length exceeded":          ErrorContext,
		"prompt too long":                          ErrorContext,
		"timeout":                                  ErrorTransient,
		"groq generate error 503: unavailable":     ErrorTransient,
		"openai generate error 400: bad request":   ErrorPermanent,
		"openai generate request failed: dial tcp": ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
	if got := ClassifyError(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)); got != ErrorTransient {
		t.Fatalf("deadline should be transient, got %s", got)
	}
	if got := ClassifyError(fmt.Errorf("openai generate request failed: %w", context.Canceled)); got != ErrorCanceled {
		t.Fatalf("cancellation should be its own class, got %s", got)
	}
	if got := ClassifyError(nil); got != "" {
		t.Fatalf("nil error should classify empty, got %s", got)
	}
}
