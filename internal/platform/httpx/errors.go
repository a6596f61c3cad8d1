package httpx

import (
	"errors"
	"net/http"

	"github.com/gvstock/gvstock/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// Partial failures map to 500 but keep a distinct title so clients can tell
// "recorded but not fully applied" apart from a plain failure.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsValidation(err):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case shared.IsInsufficientStock(err):
		Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case shared.IsPartialFailure(err):
		Problem(w, http.StatusInternalServerError, "Recorded But Not Fully Applied", err.Error())
	case shared.IsTransient(err):
		Problem(w, http.StatusServiceUnavailable, "Backend Unavailable", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
