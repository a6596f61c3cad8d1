package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gvstock/gvstock/internal/shared"
)

func respond(t *testing.T, err error) (int, ProblemDetail) {
	t.Helper()
	rr := httptest.NewRecorder()
	RespondError(rr, err)
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	return rr.Code, problem
}

func TestRespondErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "Not Found"},
		{"validation", shared.NewValidationError("amount", "must be positive"), http.StatusBadRequest, "Validation Failed"},
		{"insufficient stock", &shared.InsufficientStockError{ProductID: 1, Requested: 5, Available: 2}, http.StatusConflict, "Insufficient Stock"},
		{"partial failure", &shared.PartialFailureError{Step: "cash_register_deposit", Err: errors.New("down")}, http.StatusInternalServerError, "Recorded But Not Fully Applied"},
		{"transient", &shared.TransientError{Err: errors.New("refused")}, http.StatusServiceUnavailable, "Backend Unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, problem := respond(t, tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.title, problem.Title)
			require.Equal(t, tc.status, problem.Status)
		})
	}
}
