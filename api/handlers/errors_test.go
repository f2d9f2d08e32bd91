// ABOUTME: Tests for domain-error to HTTP-error translation
// ABOUTME: Verifies every taxonomy entry maps to its status and metrics code

package handlers

import (
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"

	coreerrors "citations-app-api/core/errors"
)

func TestToHumaError_StatusPerTaxonomyEntry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &coreerrors.ValidationError{Field: "url", Message: "bad"}, 400},
		{"not found", &coreerrors.NotFoundError{Resource: "page", ID: "x"}, 404},
		{"fetch failed", &coreerrors.FetchFailedError{URL: "x", Message: "boom"}, 502},
		{"circuit open", &coreerrors.CircuitOpenError{Dependency: "fetch"}, 503},
		{"timeout", &coreerrors.TimeoutError{URL: "x"}, 504},
		{"unknown", errors.New("surprise"), 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := toHumaError(tc.err)

			var statusErr huma.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("toHumaError returned %T, want a huma status error", err)
			}
			if statusErr.GetStatus() != tc.want {
				t.Errorf("status = %d, want %d", statusErr.GetStatus(), tc.want)
			}
		})
	}
}

func TestToHumaError_NilPassthrough(t *testing.T) {
	if toHumaError(nil) != nil {
		t.Error("toHumaError(nil) != nil")
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&coreerrors.ValidationError{Field: "url"}, coreerrors.CodeInvalidURL},
		{&coreerrors.TimeoutError{URL: "x"}, coreerrors.CodeTimeout},
		{&coreerrors.CircuitOpenError{Dependency: "fetch"}, coreerrors.CodeCircuitOpen},
		{errors.New("surprise"), "INTERNAL"},
	}

	for _, tc := range cases {
		if got := errorCode(tc.err); got != tc.want {
			t.Errorf("errorCode(%T) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
