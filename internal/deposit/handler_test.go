package deposit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"
)

// The validation paths below reject before any repository access, so a nil
// repository is fine.
func newValidationHandler() *Handler {
	return NewHandler(nil, logging.NewLogger(true))
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	h := newValidationHandler()

	req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, httputil.CodeMissingAuth, resp.Code)
}

func TestCreate_RejectsMissingFields(t *testing.T) {
	h := newValidationHandler()

	bodies := []string{
		`{}`,
		`{"crypto":"BTC","cryptoName":"Bitcoin","amount":0,"usdValue":100,"plan":6,"apy":8}`,
		`{"crypto":"BTC","cryptoName":"Bitcoin","amount":0.5,"usdValue":100,"plan":6,"apy":-1}`,
		`{"crypto":"","cryptoName":"Bitcoin","amount":0.5,"usdValue":100,"plan":6,"apy":8}`,
	}

	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader([]byte(body)))
		req = req.WithContext(httputil.WithUser(req.Context(), uuid.New(), "jane@example.com"))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestUpdateStatus_RejectsMissingOrUnknownStatus(t *testing.T) {
	h := newValidationHandler()

	req := httptest.NewRequest(http.MethodPatch, "/deposits/x/status", bytes.NewReader([]byte(`{"status":""}`)))
	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, "/deposits/x/status", bytes.NewReader([]byte(`{"status":"refunded"}`)))
	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, httputil.CodeInvalidStatus, resp.Code)
}
