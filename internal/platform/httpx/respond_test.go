package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProblemUsesProblemJSONMediaType(t *testing.T) {
	rr := httptest.NewRecorder()
	Problem(rr, 409, "Insufficient Stock", "requested 5, available 2")

	require.Equal(t, 409, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Body.String(), `"title":"Insufficient Stock"`)
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"note":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))

	var target struct {
		Note string `json:"note"`
	}
	require.Error(t, DecodeJSON(req, &target))
}
