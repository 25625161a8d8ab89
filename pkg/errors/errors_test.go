package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_StatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"unavailable", NewEngineUnavailableError("down", nil), http.StatusServiceUnavailable},
		{"timeout", NewEngineTimeoutError("slow"), http.StatusGatewayTimeout},
		{"exit", NewEngineExitError(2, "boom"), http.StatusBadGateway},
		{"output", NewEngineOutputError("junk", nil), http.StatusBadGateway},
		{"internal", NewInternalError("oops", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GetStatusCode(tc.err); got != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, got)
			}
		})
	}
}

func TestIsType_Wrapped(t *testing.T) {
	err := fmt.Errorf("while processing: %w", NewValidationError("missing file"))
	if !IsType(err, ErrorTypeValidation) {
		t.Fatalf("expected wrapped validation error to be detected")
	}
	if IsType(err, ErrorTypeInternal) {
		t.Fatalf("did not expect internal type")
	}
	if GetStatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrapped validation error")
	}
}

func TestIsEngineError(t *testing.T) {
	if !IsEngineError(NewEngineExitError(1, "")) {
		t.Fatalf("exit error should be an engine error")
	}
	if IsEngineError(NewValidationError("x")) {
		t.Fatalf("validation error should not be an engine error")
	}
	if IsEngineError(fmt.Errorf("plain")) {
		t.Fatalf("plain error should not be an engine error")
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewEngineExitError(3, "traceback")
	if err.Error() != "engine_exit: engine exited with code 3 (traceback)" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
