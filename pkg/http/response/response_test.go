package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorStatusAndBody(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", errors.NewValidationError("Missing userId", nil), http.StatusBadRequest, "Missing userId"},
		{"invalid org", errors.NewInvalidOrgError("org9"), http.StatusInternalServerError, `organization "org9" is not configured`},
		{"contract", errors.NewContractInvocationError("ReadAsset", stderrors.New("the asset A1 does not exist")), http.StatusInternalServerError, "the asset A1 does not exist"},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestWrapperCountsErrorsByKind(t *testing.T) {
	m := metrics.New()
	wrapper := NewWrapper(logger.NewNop(), m)

	failing := wrapper.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return errors.NewConnectionError("failed to connect to gateway", stderrors.New("unavailable"), nil)
	})
	ok := wrapper.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return WriteJSON(w, http.StatusOK, map[string]string{"message": "fine"})
	})

	rec := httptest.NewRecorder()
	failing(rec, httptest.NewRequest(http.MethodGet, "/api/getAllAssets", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	ok(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"fine"}`, rec.Body.String())

	count, err := testutil.GatherAndCount(m.Registry(), "asset_gateway_request_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMiddlewareWithoutWrapper(t *testing.T) {
	h := Middleware(func(w http.ResponseWriter, r *http.Request) error {
		return errors.NewValidationError("Missing org or userId", nil)
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/init", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing org or userId"}`, rec.Body.String())
}
