package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAsAPIErrorConvertsSampleCountMismatch(t *testing.T) {
	wrapped := fmt.Errorf("fetch weather: %w", &SampleCountMismatchError{Variable: "temperature_2m", Expected: 24, Got: 23})

	if !IsSampleCountMismatch(wrapped) {
		t.Fatalf("IsSampleCountMismatch(%v) = false", wrapped)
	}
	apiErr := AsAPIError(wrapped)
	if apiErr.Type != ErrorTypeSampleCountMismatch {
		t.Fatalf("type = %s, want %s", apiErr.Type, ErrorTypeSampleCountMismatch)
	}
	if apiErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("code = %d, want %d", apiErr.Code, http.StatusUnprocessableEntity)
	}
}

func TestTypeHelpersSeeThroughWrapping(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("missing", nil), IsNotFound},
		{"validation", NewValidationError("bad", nil), IsValidation},
		{"upstream wrapped", fmt.Errorf("live: %w", NewUpstreamError("ttn down", nil)), IsUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.check(tc.err) {
				t.Fatalf("helper did not match %v", tc.err)
			}
		})
	}
	if IsNotFound(fmt.Errorf("plain")) {
		t.Errorf("plain error reported as not found")
	}
}

func TestAsAPIErrorFallsBackToInternal(t *testing.T) {
	apiErr := AsAPIError(fmt.Errorf("boom"))
	if apiErr.Type != ErrorTypeInternal || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("got %s/%d, want internal/500", apiErr.Type, apiErr.Code)
	}
}
