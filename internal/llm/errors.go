package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a gateway failure after retries are exhausted.
type ErrorKind string

const (
	KindTimeout         ErrorKind = "timeout"
	KindRateLimited     ErrorKind = "rate_limited"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindAuth            ErrorKind = "auth"
)

// GatewayError is the single error type the gateway surfaces to callers.
type GatewayError struct {
	Kind ErrorKind
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm gateway: %s: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ErrInvalidJSON marks a response that failed structural validation.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Classify maps a provider error to an ErrorKind. Unknown errors are treated
// as invalid responses so they still surface as a typed failure.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return KindAuth
		case apiErr.HTTPStatusCode == 429:
			return KindRateLimited
		case apiErr.HTTPStatusCode >= 500:
			return KindTimeout
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota"):
		return KindRateLimited
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key") ||
		strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "permission"):
		return KindAuth
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline") ||
		strings.Contains(msg, "unavailable") || strings.Contains(msg, "503") ||
		strings.Contains(msg, "502") || strings.Contains(msg, "500"):
		return KindTimeout
	}
	return KindInvalidResponse
}

// Transient reports whether a failure of this kind is worth retrying.
func Transient(kind ErrorKind) bool {
	return kind == KindTimeout || kind == KindRateLimited
}
