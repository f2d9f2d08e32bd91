// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts domain errors to appropriate HTTP responses

package handlers

import (
	stderrors "errors"

	"github.com/danielgtaylor/huma/v2"

	"citations-app-api/core/errors"
)

// toHumaError converts domain errors to appropriate Huma HTTP errors.
// Every condition in the error taxonomy maps to a specific status;
// only genuinely unknown errors fall through to 500.
func toHumaError(err error) error {
	if err == nil {
		return nil
	}

	if errors.IsValidation(err) {
		return huma.Error400BadRequest(err.Error())
	}

	if errors.IsNotFound(err) {
		return huma.Error404NotFound(err.Error())
	}

	if errors.IsTimeout(err) {
		return huma.Error504GatewayTimeout(err.Error())
	}

	if errors.IsFetchFailed(err) {
		return huma.Error502BadGateway(err.Error())
	}

	if errors.IsCircuitOpen(err) {
		// The message carries the retry-after hint from the breaker.
		return huma.Error503ServiceUnavailable(err.Error())
	}

	return huma.Error500InternalServerError("internal server error", err)
}

// errorCode extracts the stable machine code from a domain error for
// metrics labels.
func errorCode(err error) string {
	var c interface{ Code() string }
	if stderrors.As(err, &c) {
		return c.Code()
	}
	return "INTERNAL"
}
