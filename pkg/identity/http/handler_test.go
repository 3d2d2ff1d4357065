package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chainlaunch/asset-gateway/internal/testutil"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/http/response"
	"github.com/chainlaunch/asset-gateway/pkg/identity"
	identityhttp "github.com/chainlaunch/asset-gateway/pkg/identity/http"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	network *testutil.Network
	store   identity.Store
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	network := testutil.NewNetwork(t)
	store := identity.NewFileStore(network.Config)
	log := logger.NewNop()
	authority := identity.NewAuthority(network.Config, networkconfig.NewResolver(network.Config), store,
		identity.NewCAClientFactory(log), log, nil)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		identityhttp.NewHandler(network.Config, authority, response.NewWrapper(log, nil)).RegisterRoutes(r)
	})
	return &fixture{network: network, store: store, router: r}
}

func (f *fixture) post(t *testing.T, target, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	return rec.Code, doc
}

func TestEnrollAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ca := f.network.CAs["org1"]

	for i := 0; i < 2; i++ {
		code, doc := f.post(t, "/api/enrollAdmin", `{"org":"org1"}`)
		require.Equal(t, http.StatusOK, code, doc["error"])
		assert.Equal(t, "Enrolled admin for org1 successfully", doc["message"])
	}
	assert.Equal(t, 1, ca.EnrollCalls(testutil.BootstrapID))

	admin, err := f.store.Get(context.Background(), "org1", testutil.BootstrapID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, admin.Role)
	assert.Equal(t, "Org1MSP", admin.MSPID)
}

func TestEnrollAdminRejectsUnknownOrg(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{"org":"org3"}`, `{}`} {
		code, doc := f.post(t, "/api/enrollAdmin", body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Org must be one of: org1, org2", doc["error"])
	}
	assert.Equal(t, 0, f.network.CAs["org1"].TotalEnrollCalls())
	assert.Equal(t, 0, f.network.CAs["org2"].TotalEnrollCalls())
}

func TestEnrollAdminCARejection(t *testing.T) {
	f := newFixture(t)
	f.network.CAs["org2"].FailEnroll("Authentication failure")

	code, doc := f.post(t, "/api/enrollAdmin", `{"org":"org2"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, doc["error"], "Authentication failure")

	exists, err := f.store.Exists(context.Background(), "org2", testutil.BootstrapID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)
	ca := f.network.CAs["org1"]

	code, doc := f.post(t, "/api/registerUser", `{"org":"org1","userId":"appUser"}`)
	require.Equal(t, http.StatusOK, code, doc["error"])
	assert.Equal(t, "Registered user appUser in org1 successfully", doc["message"])

	user, err := f.store.Get(context.Background(), "org1", "appUser")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleUser, user.Role)
	assert.Equal(t, "org1.department1", ca.LastRegisterRequest()["affiliation"])

	code, _ = f.post(t, "/api/registerUser", `{"org":"org1","userId":"appUser"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, ca.RegisterCalls())
	assert.Equal(t, 1, ca.EnrollCalls("appUser"))
}

func TestRegisterUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"unknown org", `{"org":"orgX","userId":"appUser"}`, http.StatusBadRequest, "Org must be one of: org1, org2"},
		{"missing user", `{"org":"org1"}`, http.StatusBadRequest, "Missing userId"},
		{"empty body", ``, http.StatusBadRequest, "Invalid or missing JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			code, doc := f.post(t, "/api/registerUser", tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.message, doc["error"])
			assert.Equal(t, 0, f.network.CAs["org1"].TotalEnrollCalls())
			assert.Equal(t, 0, f.network.CAs["org1"].RegisterCalls())
		})
	}
}

func TestRegisterUserRejectsPathLikeLabels(t *testing.T) {
	f := newFixture(t)

	code, doc := f.post(t, "/api/registerUser", `{"org":"org1","userId":"../admin"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, doc["error"])
	assert.Equal(t, 0, f.network.CAs["org1"].RegisterCalls())
}

func TestRegisterUserAlreadyRegisteredAtCA(t *testing.T) {
	f := newFixture(t)
	f.network.CAs["org1"].Register("appUser", "secret")

	code, doc := f.post(t, "/api/registerUser", `{"org":"org1","userId":"appUser"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, doc["error"], "already registered")
}
