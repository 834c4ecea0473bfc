package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorType categorizes assistant errors for logs and metrics.
type ErrorType string

const (
	ErrAuth      ErrorType = "auth_error"   // 401/403, bad or revoked key
	ErrRateLimit ErrorType = "rate_limit"   // 429, quota or rate exceeded
	ErrServer    ErrorType = "server_error" // 5xx, OpenAI down
	ErrRequest   ErrorType = "bad_request"  // 400, model or payload rejected
	ErrTimeout   ErrorType = "timeout"      // context deadline exceeded
	ErrOther     ErrorType = "other"
)

// Classify inspects an OpenAI client error.
func Classify(err error) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusTooManyRequests:
		return ErrRateLimit
	case status >= 500:
		return ErrServer
	case status >= 400:
		return ErrRequest
	case strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return ErrTimeout
	default:
		return ErrOther
	}
}
