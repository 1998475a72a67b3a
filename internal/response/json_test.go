package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONOkResponseEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()

	err := JSONOkResponse(rr, map[string]any{
		"WalletID": "w1",
		"Owner":    map[string]any{"FirstName": "Jane"},
	}, "", http.Header{"X-Request-Id": []string{"abc"}})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.Equal(t, "abc", rr.Header().Get("X-Request-Id"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	require.Equal(t, true, body["success"])
	require.Equal(t, "Request successful", body["message"])
	require.EqualValues(t, http.StatusOK, body["status"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected body['data'] to be a map")
	require.Equal(t, "w1", data["wallet_id"])

	owner, ok := data["owner"].(map[string]any)
	require.True(t, ok, "expected nested map keys to be converted too")
	require.Equal(t, "Jane", owner["first_name"])
}

func TestJSONErrorResponseEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()

	err := JSONErrorResponse(rr, []string{"Amount must be greater than zero"}, "Validation failed", http.StatusUnprocessableEntity, nil)
	require.NoError(t, err)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	require.Equal(t, false, body["success"])
	require.Equal(t, "Validation failed", body["message"])
	require.NotContains(t, body, "data")
	require.Contains(t, body["error"], "Amount must be greater than zero")
}
