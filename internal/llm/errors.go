package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes surfaced to callers. classify wraps them with a
// user-readable message; test with errors.Is.
var (
	ErrModelNotFound = errors.New("model not found")
	ErrAuth          = errors.New("authentication failed")
	ErrQuota         = errors.New("quota exceeded")
)

// classify converts a raw SDK error into one of the error classes.
// Matching is on message text because the three SDKs share no error
// types; HTTP status codes and API reason strings appear in all of
// their messages.
func classify(err error, model, maskedKey string) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "404", "not found", "not_found", "does not exist", "is not supported", "unknown model", "invalid model"):
		return fmt.Errorf("%w: %q is not available to this API key", ErrModelNotFound, model)
	case containsAny(msg, "429", "quota", "resource_exhausted", "resource exhausted", "rate limit", "rate_limit", "overloaded"):
		return fmt.Errorf("%w: the API key (%s) has hit its rate limit or quota. Wait a moment or check the usage dashboard for that key", ErrQuota, maskedKey)
	case containsAny(msg, "401", "403", "api key", "api_key", "unauthorized", "unauthenticated", "permission", "forbidden", "invalid authentication"):
		return fmt.Errorf("%w: the API key (%s) was rejected. Check the key in Settings", ErrAuth, maskedKey)
	}
	return fmt.Errorf("model request failed: %v", err)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
