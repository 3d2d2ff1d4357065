package ca

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chainlaunch/asset-gateway/pkg/certutils"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/pkg/errors"
)

const (
	enrollPath   = "/api/v1/enroll"
	registerPath = "/api/v1/register"
)

// Client talks to one Fabric CA over its REST API.
type Client struct {
	baseURL    string
	caName     string
	httpClient *http.Client
	logger     *logger.Logger
}

type response struct {
	Success  bool              `json:"success"`
	Result   json.RawMessage   `json:"result"`
	Errors   []ResponseMessage `json:"errors"`
	Messages []ResponseMessage `json:"messages"`
}

// NewClient creates a client for the CA described by endpoint. TLS
// verification follows the endpoint's VerifyTLS flag.
func NewClient(endpoint *networkconfig.CAEndpoint, log *logger.Logger) (*Client, error) {
	if endpoint == nil || endpoint.URL == "" {
		return nil, fmt.Errorf("certificate authority endpoint is not configured")
	}
	if log == nil {
		log = logger.NewNop()
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: !endpoint.VerifyTLS}
	if len(endpoint.TLSCACerts) > 0 {
		pool := x509.NewCertPool()
		for _, cert := range endpoint.TLSCACerts {
			pool.AppendCertsFromPEM(cert)
		}
		tlsConfig.RootCAs = pool
	}

	return &Client{
		baseURL: strings.TrimSuffix(endpoint.URL, "/"),
		caName:  endpoint.CAName,
		httpClient: &http.Client{
			Timeout:   time.Second * 30,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
		logger: log.With("ca", endpoint.Name),
	}, nil
}

// Enroll generates a fresh key pair and exchanges a CSR for a certificate
// using the enrollment id and secret.
func (c *Client) Enroll(ctx context.Context, req EnrollmentRequest) (*Enrollment, error) {
	key, err := certutils.GenerateECKey()
	if err != nil {
		return nil, err
	}
	csr, err := certutils.CreateCSR(key, req.EnrollID)
	if err != nil {
		return nil, err
	}
	keyPEM, err := certutils.EncodePrivateKey(key)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(enrollRequestBody{
		CertificateRequest: string(csr),
		CAName:             c.caName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal enroll request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, enrollPath, body)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(req.EnrollID, req.Secret)

	var result enrollResult
	if err := c.do(httpReq, "enroll", &result); err != nil {
		return nil, err
	}

	cert, err := base64.StdEncoding.DecodeString(result.Cert)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode enrollment certificate")
	}
	if _, err := certutils.ParseX509Certificate(cert); err != nil {
		return nil, errors.Wrap(err, "CA returned an invalid certificate")
	}
	chain, err := base64.StdEncoding.DecodeString(result.ServerInfo.CAChain)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode CA chain")
	}

	c.logger.Debug("Enrolled identity", "enrollId", req.EnrollID)
	return &Enrollment{
		Certificate: cert,
		PrivateKey:  keyPEM,
		CAChain:     chain,
	}, nil
}

// Register creates a new identity on the CA on behalf of registrar and
// returns its enrollment secret.
func (c *Client) Register(ctx context.Context, registrar Credential, req RegistrationRequest) (string, error) {
	body, err := json.Marshal(registerRequestBody{
		ID:          req.Name,
		Type:        req.Type,
		Affiliation: req.Affiliation,
		CAName:      c.caName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal register request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, registerPath, body)
	if err != nil {
		return "", err
	}
	token, err := AuthToken(registrar, http.MethodPost, httpReq.URL.RequestURI(), body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", token)

	var result registerResult
	if err := c.do(httpReq, "register", &result); err != nil {
		return "", err
	}

	c.logger.Debug("Registered identity", "id", req.Name, "affiliation", req.Affiliation)
	return result.Secret, nil
}

// AuthToken builds the Fabric CA token "<b64 cert>.<b64 signature>" where
// the signature covers method, URI, body and certificate.
func AuthToken(cred Credential, method, uri string, body []byte) (string, error) {
	key, err := identity.PrivateKeyFromPEM(cred.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse registrar private key")
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return "", errors.Wrap(err, "failed to create registrar signer")
	}

	b64Cert := base64.StdEncoding.EncodeToString(cred.Certificate)
	payload := method + "." +
		base64.StdEncoding.EncodeToString([]byte(uri)) + "." +
		base64.StdEncoding.EncodeToString(body) + "." +
		b64Cert
	digest := sha256.Sum256([]byte(payload))

	signature, err := sign(digest[:])
	if err != nil {
		return "", errors.Wrap(err, "failed to sign request")
	}
	return b64Cert + "." + base64.StdEncoding.EncodeToString(signature), nil
}

func (c *Client) newRequest(ctx context.Context, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, operation string, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "fabric-ca request %s failed", operation)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope response
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return &ResponseError{Operation: operation, StatusCode: resp.StatusCode}
		}
		return errors.Wrapf(err, "failed to decode %s response", operation)
	}
	if !envelope.Success || resp.StatusCode >= 400 {
		return &ResponseError{Operation: operation, StatusCode: resp.StatusCode, Errors: envelope.Errors}
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return errors.Wrapf(err, "failed to decode %s result", operation)
	}
	return nil
}
