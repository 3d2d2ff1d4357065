package http_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chainlaunch/asset-gateway/internal/testutil"
	"github.com/chainlaunch/asset-gateway/pkg/assets"
	assetshttp "github.com/chainlaunch/asset-gateway/pkg/assets/http"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/broker"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/http/response"
	"github.com/chainlaunch/asset-gateway/pkg/identity"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router    http.Handler
	connector *testutil.FakeConnector
	contract  *testutil.FakeContract
	broker    *broker.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	network := testutil.NewNetwork(t)
	store := identity.NewFileStore(network.Config)
	certPEM, keyPEM := testutil.SelfSignedIdentity(t, "appUser")
	require.NoError(t, store.Put(context.Background(), &identity.Identity{
		Org: "org1", Label: "appUser", MSPID: "Org1MSP",
		Certificate: certPEM, PrivateKey: keyPEM, Role: identity.RoleUser,
	}))

	log := logger.NewNop()
	m := metrics.New()
	contract := testutil.NewFakeContract()
	connector := testutil.NewFakeConnector(contract)
	b := broker.New(network.Config, networkconfig.NewResolver(network.Config), store, connector, log, m)
	service := assets.NewService(b, assets.NewDispatcher(log, m))

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		assetshttp.NewHandler(service, response.NewWrapper(log, m)).RegisterRoutes(r)
	})
	return &fixture{router: r, connector: connector, contract: contract, broker: b}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	return rec, doc
}

func TestMissingFieldsAreRejectedWithoutSession(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		message string
	}{
		{"init without user", http.MethodPost, "/api/init", `{"org":"org1"}`, "Missing org or userId"},
		{"init without org", http.MethodPost, "/api/init", `{"userId":"appUser"}`, "Missing org or userId"},
		{"create without color", http.MethodPost, "/api/createAsset",
			`{"org":"org1","userId":"appUser","id":"A1","size":5,"owner":"Alice","appraisedValue":100}`,
			"Missing parameters: org, userId, id, color, size, owner, appraisedValue"},
		{"create without size", http.MethodPost, "/api/createAsset",
			`{"org":"org1","userId":"appUser","id":"A1","color":"red","owner":"Alice","appraisedValue":100}`,
			"Missing parameters: org, userId, id, color, size, owner, appraisedValue"},
		{"update without appraisedValue", http.MethodPut, "/api/updateAsset",
			`{"org":"org1","userId":"appUser","id":"A1","color":"red","size":5,"owner":"Alice"}`,
			"Missing parameters: org, userId, id, color, size, owner, appraisedValue"},
		{"transfer without newOwner", http.MethodPost, "/api/transferAsset",
			`{"org":"org1","userId":"appUser","id":"A1"}`, "Missing parameters: org, userId, id, newOwner"},
		{"read without user", http.MethodGet, "/api/asset/A1?org=org1", "", "Missing org, userId or id"},
		{"delete without org", http.MethodDelete, "/api/asset/A1?userId=appUser", "", "Missing org, userId or id"},
		{"exists without user", http.MethodGet, "/api/asset/exists/A1?org=org1", "", "Missing org, userId or id"},
		{"list without user", http.MethodGet, "/api/getAllAssets?org=org1", "", "Missing org or userId"},
		{"empty body", http.MethodPost, "/api/init", "", "Invalid or missing JSON body"},
		{"malformed body", http.MethodPost, "/api/createAsset", `{"org":`, "Invalid or missing JSON body"},
		{"size of wrong type", http.MethodPost, "/api/createAsset",
			`{"org":"org1","userId":"appUser","id":"A1","color":"red","size":true,"owner":"Alice","appraisedValue":100}`,
			"Invalid or missing JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec, doc := f.do(t, tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, doc["error"])
			assert.Equal(t, 0, f.connector.Opens())
			assert.Empty(t, f.contract.Calls())
		})
	}
}

func TestCreateAsset(t *testing.T) {
	f := newFixture(t)
	rec, doc := f.do(t, http.MethodPost, "/api/createAsset",
		`{"org":"org1","userId":"appUser","id":"A1","color":"red","size":5,"owner":"Alice","appraisedValue":100}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"message": "Asset created successfully", "id": "A1"}, doc)
	assert.Equal(t, []testutil.Call{{
		Kind: testutil.KindSubmit,
		Name: "CreateAsset",
		Args: []string{"A1", "red", "5", "Alice", "100"},
	}}, f.contract.Calls())
	assert.Equal(t, 1, f.connector.Opens())
	assert.Equal(t, 1, f.connector.Closes())
}

func TestCreateAssetAcceptsZeroAndStrings(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodPost, "/api/createAsset",
		`{"org":"org1","userId":"appUser","id":"A0","color":"red","size":0,"owner":"Alice","appraisedValue":"12.5"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	calls := f.contract.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"A0", "red", "0", "Alice", "12.5"}, calls[0].Args)
}

func TestUpdateAsset(t *testing.T) {
	f := newFixture(t)
	rec, doc := f.do(t, http.MethodPut, "/api/updateAsset",
		`{"org":"org1","userId":"appUser","id":"A2","color":"blue","size":10,"owner":"Tom","appraisedValue":500}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asset updated successfully", doc["message"])
	assert.Equal(t, "A2", doc["id"])
	calls := f.contract.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "UpdateAsset", calls[0].Name)
	assert.Equal(t, "10", calls[0].Args[2])
	assert.Equal(t, "500", calls[0].Args[4])
}

func TestTransferAsset(t *testing.T) {
	f := newFixture(t)
	f.contract.On(assets.OpTransferAsset, []byte("Alice"))

	rec, doc := f.do(t, http.MethodPost, "/api/transferAsset",
		`{"org":"org1","userId":"appUser","id":"A1","newOwner":"Bob"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"message":  "Asset transferred successfully",
		"id":       "A1",
		"oldOwner": "Alice",
		"newOwner": "Bob",
	}, doc)
}

func TestReadAndDeleteAsset(t *testing.T) {
	f := newFixture(t)
	f.contract.On(assets.OpReadAsset, []byte(`{"ID":"A1","Color":"red","Size":5,"Owner":"Alice","AppraisedValue":100}`))

	rec, doc := f.do(t, http.MethodGet, "/api/asset/A1?org=org1&userId=appUser", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asset read successfully", doc["message"])
	asset, ok := doc["asset"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Alice", asset["Owner"])

	rec, doc = f.do(t, http.MethodDelete, "/api/asset/A1?org=org1&userId=appUser", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"message": "Asset deleted successfully", "id": "A1"}, doc)

	calls := f.contract.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, testutil.Call{Kind: testutil.KindEvaluate, Name: "ReadAsset", Args: []string{"A1"}}, calls[0])
	assert.Equal(t, testutil.Call{Kind: testutil.KindSubmit, Name: "DeleteAsset", Args: []string{"A1"}}, calls[1])
}

func TestAssetExists(t *testing.T) {
	tests := []struct {
		payload string
		exists  bool
		message string
	}{
		{"true", true, "Asset exists"},
		{"false", false, "Asset does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			f := newFixture(t)
			f.contract.On(assets.OpAssetExists, []byte(tt.payload))

			rec, doc := f.do(t, http.MethodGet, "/api/asset/exists/A9?org=org1&userId=appUser", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.message, doc["message"])
			assert.Equal(t, "A9", doc["id"])
			assert.Equal(t, tt.exists, doc["exists"])
		})
	}
}

func TestInitLedgerAndGetAllAssets(t *testing.T) {
	f := newFixture(t)
	f.contract.On(assets.OpGetAllAssets, []byte(`[{"ID":"asset1"},{"ID":"asset2"}]`))

	rec, doc := f.do(t, http.MethodPost, "/api/init", `{"org":"org1","userId":"appUser"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"message": "Ledger initialized successfully"}, doc)

	rec, doc = f.do(t, http.MethodGet, "/api/getAllAssets?org=org1&userId=appUser", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "All assets retrieved successfully", doc["message"])
	assert.EqualValues(t, 2, doc["count"])
	assert.Len(t, doc["assets"], 2)

	assert.Equal(t, 2, f.connector.Opens())
	assert.Equal(t, 2, f.connector.Closes())
}

func TestGetAllAssetsEmptyLedger(t *testing.T) {
	f := newFixture(t)

	rec, doc := f.do(t, http.MethodGet, "/api/getAllAssets?org=org1&userId=appUser", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, doc["count"])
	assert.Equal(t, []interface{}{}, doc["assets"])
}

func TestContractRejectionIsServerErrorAndReleasesSession(t *testing.T) {
	f := newFixture(t)
	f.contract.Fail(assets.OpGetAllAssets, stderrors.New("access denied: creator org unknown"))

	rec, doc := f.do(t, http.MethodGet, "/api/getAllAssets?org=org1&userId=appUser", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "access denied: creator org unknown", doc["error"])
	assert.Equal(t, 1, f.connector.Opens())
	assert.Equal(t, 1, f.connector.Closes())
	assert.Equal(t, broker.Stats{Opened: 1, Closed: 1}, f.broker.Stats())
}

func TestDownstreamFailuresAreServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"unknown org", "/api/getAllAssets?org=org9&userId=appUser"},
		{"unknown identity", "/api/getAllAssets?org=org1&userId=ghost"},
		{"identity in the other org", "/api/asset/A1?org=org2&userId=appUser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec, doc := f.do(t, http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotEmpty(t, doc["error"])
			assert.Equal(t, 0, f.connector.Opens())
		})
	}
}

func TestConnectFailureIsServerError(t *testing.T) {
	f := newFixture(t)
	f.connector.Err = stderrors.New("connection refused")

	rec, doc := f.do(t, http.MethodPost, "/api/init", `{"org":"org1","userId":"appUser"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, doc["error"], "connection refused")
	assert.Empty(t, f.contract.Calls())
}
