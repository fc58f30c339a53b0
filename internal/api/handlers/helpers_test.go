package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/cricketxpert/checkout-service/internal/utils/response"
	"github.com/stretchr/testify/require"
)

// decodeData unmarshals the data field of a success envelope into dest.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, dest))
}

// errorCode returns the error code of a failure envelope.
func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)

	return resp.Error.Code
}
