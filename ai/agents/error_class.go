package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/boardroom/ai/core/llm"
)

// ErrorClass represents the category of a model gateway failure.
type ErrorClass int

const (
	// Examples: per-call deadline expired, image limiter wait cancelled.
	ErrorClassTimeout ErrorClass = iota

	// Examples: connection reset, provider 429 or 5xx.
	ErrorClassTransient

	// Examples: structured response that is not valid JSON or misses required fields.
	ErrorClassMalformed

	// Examples: invalid API key, unknown model, rejected request.
	ErrorClassPermanent
)

// String returns the string representation of ErrorClass.
func (e ErrorClass) String() string {
	switch e {
	case ErrorClassTimeout:
		return "timeout"
	case ErrorClassTransient:
		return "transient"
	case ErrorClassMalformed:
		return "malformed"
	case ErrorClassPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Original   error
	Class      ErrorClass
	StatusCode int
}

// Error returns a formatted error message.
func (c *ClassifiedError) Error() string {
	if c.Original == nil {
		return fmt.Sprintf("classified error: class=%s", c.Class)
	}
	return fmt.Sprintf("%s: %v", c.Class, c.Original)
}

// Unwrap returns the original error for errors.Is/As.
func (c *ClassifiedError) Unwrap() error {
	return c.Original
}

// IsTransient reports whether the failure may resolve on retry.
func (c *ClassifiedError) IsTransient() bool {
	return c.Class == ErrorClassTransient || c.Class == ErrorClassTimeout
}

// ClassifyError analyzes a gateway error and determines its class.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	// 1. Deadlines, ours or the caller's.
	if errors.Is(err, llm.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Class: ErrorClassTimeout, Original: err}
	}

	// 2. Structured output that could not be parsed or validated.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, llm.ErrMalformedResponse) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &ClassifiedError{Class: ErrorClassMalformed, Original: err}
	}

	// 3. Provider status codes.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(err, apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(err, reqErr.HTTPStatusCode)
	}

	// 4. Network failures and the caller going away.
	if isNetworkError(err) || errors.Is(err, context.Canceled) || errors.Is(err, llm.ErrEmptyResponse) {
		return &ClassifiedError{Class: ErrorClassTransient, Original: err}
	}

	if isTimeoutError(err) {
		return &ClassifiedError{Class: ErrorClassTimeout, Original: err}
	}

	// Default to permanent for unknown errors (fail safe)
	return &ClassifiedError{Class: ErrorClassPermanent, Original: err}
}

func classifyStatus(err error, status int) *ClassifiedError {
	class := ErrorClassPermanent
	switch {
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		class = ErrorClassTransient
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		class = ErrorClassTimeout
	}
	return &ClassifiedError{Class: class, Original: err, StatusCode: status}
}

// isNetworkError checks if an error is network-related (transient).
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && !netErr.Timeout() {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"network is unreachable",
		"no such host",
		"temporary failure",
		"dial tcp",
		"eof",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// isTimeoutError checks if an error is timeout-related.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "deadline exceeded", "timed out"} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
