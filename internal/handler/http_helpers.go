package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"court-order-server/internal/domain"
	apperrors "court-order-server/pkg/errors"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError maps an error onto the error-only body. Validation messages
// are shown to the client; anything else is logged and reported generically.
func writeAppError(w http.ResponseWriter, logger domain.Logger, err error) {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		writeError(w, appErr.StatusCode, appErr.Message)
		return
	case apperrors.IsEngineError(err):
		logger.Warn("Engine failure escaped the pipeline", "error", err.Error())
	default:
		logger.Error("Request failed", err)
	}
	writeError(w, apperrors.GetStatusCode(err), "Internal server error")
}

// maxJSONBodyBytes bounds JSON bodies; chat turns may carry a whole document.
const maxJSONBodyBytes = 32 << 20

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", err.Error())
	}
	return nil
}
