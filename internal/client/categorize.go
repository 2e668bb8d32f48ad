package client

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is a stable label for error classification in logs and metrics.
type ErrorCategory string

const (
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryInvalidAPIKey ErrorCategory = "invalid_api_key"
	ErrorCategoryCityNotFound  ErrorCategory = "city_not_found"
	ErrorCategoryNotDetected   ErrorCategory = "city_not_detected"
	ErrorCategoryRateLimited   ErrorCategory = "rate_limited"
	ErrorCategoryUpstream      ErrorCategory = "upstream"
	ErrorCategoryParsing       ErrorCategory = "parsing"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory. The more specific
// cause wins: a 401 surfaced as "city not found" is categorized invalid_api_key.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, ErrInvalidAPIKey) {
		return ErrorCategoryInvalidAPIKey
	}
	if errors.Is(err, ErrRateLimited) {
		return ErrorCategoryRateLimited
	}
	if errors.Is(err, ErrCityNotFound) {
		return ErrorCategoryCityNotFound
	}
	if errors.Is(err, ErrCityNotDetected) {
		return ErrorCategoryNotDetected
	}
	if errors.Is(err, ErrUpstreamFailure) {
		return ErrorCategoryUpstream
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") {
		return ErrorCategoryTimeout
	}
	if strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal") {
		return ErrorCategoryParsing
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "http request failed") {
		return ErrorCategoryNetwork
	}
	return ErrorCategoryUnknown
}
