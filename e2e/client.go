package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"os"
	"time"

	assetshttp "github.com/chainlaunch/asset-gateway/pkg/assets/http"
	"github.com/chainlaunch/asset-gateway/pkg/http/response"
	identityhttp "github.com/chainlaunch/asset-gateway/pkg/identity/http"
)

const (
	defaultAPIURL = "http://localhost:3000/api"
)

// TestClient talks to a running gateway.
type TestClient struct {
	baseURL string
	client  *nethttp.Client
}

// NewTestClient reads the API location from GATEWAY_API_URL.
func NewTestClient() *TestClient {
	apiURL := os.Getenv("GATEWAY_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &TestClient{
		baseURL: apiURL,
		client:  &nethttp.Client{Timeout: 2 * time.Minute},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Message)
}

// DoRequest sends body as JSON and decodes a 200 response into out.
func (c *TestClient) DoRequest(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := nethttp.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		var errResp response.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &errResp) != nil || errResp.Error == "" {
			errResp.Error = string(data)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func userQuery(org, userID string) string {
	return "?" + url.Values{"org": {org}, "userId": {userID}}.Encode()
}

func (c *TestClient) EnrollAdmin(org string) (*identityhttp.MessageResponse, error) {
	var resp identityhttp.MessageResponse
	return &resp, c.DoRequest(nethttp.MethodPost, "/enrollAdmin", identityhttp.EnrollAdminRequest{Org: org}, &resp)
}

func (c *TestClient) RegisterUser(org, userID string) (*identityhttp.MessageResponse, error) {
	var resp identityhttp.MessageResponse
	return &resp, c.DoRequest(nethttp.MethodPost, "/registerUser", identityhttp.RegisterUserRequest{Org: org, UserID: userID}, &resp)
}

func (c *TestClient) InitLedger(org, userID string) error {
	return c.DoRequest(nethttp.MethodPost, "/init", assetshttp.UserRequest{Org: org, UserID: userID}, nil)
}

func (c *TestClient) CreateAsset(req assetshttp.AssetRequest) (*assetshttp.AssetIDResponse, error) {
	var resp assetshttp.AssetIDResponse
	return &resp, c.DoRequest(nethttp.MethodPost, "/createAsset", req, &resp)
}

func (c *TestClient) UpdateAsset(req assetshttp.AssetRequest) (*assetshttp.AssetIDResponse, error) {
	var resp assetshttp.AssetIDResponse
	return &resp, c.DoRequest(nethttp.MethodPut, "/updateAsset", req, &resp)
}

func (c *TestClient) ReadAsset(org, userID, id string) (*assetshttp.AssetResponse, error) {
	var resp assetshttp.AssetResponse
	return &resp, c.DoRequest(nethttp.MethodGet, "/asset/"+url.PathEscape(id)+userQuery(org, userID), nil, &resp)
}

func (c *TestClient) DeleteAsset(org, userID, id string) (*assetshttp.AssetIDResponse, error) {
	var resp assetshttp.AssetIDResponse
	return &resp, c.DoRequest(nethttp.MethodDelete, "/asset/"+url.PathEscape(id)+userQuery(org, userID), nil, &resp)
}

func (c *TestClient) TransferAsset(req assetshttp.TransferRequest) (*assetshttp.TransferResponse, error) {
	var resp assetshttp.TransferResponse
	return &resp, c.DoRequest(nethttp.MethodPost, "/transferAsset", req, &resp)
}

func (c *TestClient) AssetExists(org, userID, id string) (*assetshttp.ExistsResponse, error) {
	var resp assetshttp.ExistsResponse
	return &resp, c.DoRequest(nethttp.MethodGet, "/asset/exists/"+url.PathEscape(id)+userQuery(org, userID), nil, &resp)
}

func (c *TestClient) GetAllAssets(org, userID string) (*assetshttp.AssetListResponse, error) {
	var resp assetshttp.AssetListResponse
	return &resp, c.DoRequest(nethttp.MethodGet, "/getAllAssets"+userQuery(org, userID), nil, &resp)
}
