package testutil

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chainlaunch/asset-gateway/pkg/certutils"
	"github.com/stretchr/testify/require"
)

type registration struct {
	secret      string
	affiliation string
	idType      string
}

// FabricCA is an in-process stand-in for the Fabric CA enroll and register
// endpoints. It verifies basic auth on enroll and the token signature on
// register.
type FabricCA struct {
	Server *httptest.Server
	CAName string

	caCert *x509.Certificate
	caKey  *ecdsa.PrivateKey
	caPEM  []byte

	mu            sync.Mutex
	identities    map[string]registration
	enrollCalls   map[string]int
	registerCalls int
	registerErr   string
	enrollErr     string
	lastRegister  map[string]interface{}
}

// NewFabricCA starts a TLS CA that knows the bootstrap identity.
func NewFabricCA(t *testing.T, caName, bootstrapID, bootstrapSecret string) *FabricCA {
	t.Helper()
	caCert, caKey, caPEM := newCA(t, caName)
	f := &FabricCA{
		CAName:      caName,
		caCert:      caCert,
		caKey:       caKey,
		caPEM:       caPEM,
		identities:  map[string]registration{bootstrapID: {secret: bootstrapSecret, idType: "client"}},
		enrollCalls: map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/enroll", f.handleEnroll)
	mux.HandleFunc("/api/v1/register", f.handleRegister)
	f.Server = httptest.NewTLSServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FabricCA) URL() string {
	return f.Server.URL
}

// CACertPEM is the PEM of the certificate that signs issued certificates.
func (f *FabricCA) CACertPEM() []byte {
	return f.caPEM
}

func (f *FabricCA) EnrollCalls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enrollCalls[id]
}

func (f *FabricCA) TotalEnrollCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.enrollCalls {
		total += n
	}
	return total
}

func (f *FabricCA) RegisterCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registerCalls
}

// LastRegisterRequest returns the decoded body of the latest register call.
func (f *FabricCA) LastRegisterRequest() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRegister
}

// FailRegister makes every register call fail with msg.
func (f *FabricCA) FailRegister(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerErr = msg
}

// FailEnroll makes every enroll call fail with msg.
func (f *FabricCA) FailEnroll(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollErr = msg
}

// Register adds an identity directly, as if registered by another client.
func (f *FabricCA) Register(id, secret string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities[id] = registration{secret: secret, idType: "client"}
}

func (f *FabricCA) handleEnroll(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()

	f.mu.Lock()
	f.enrollCalls[id]++
	reg, known := f.identities[id]
	enrollErr := f.enrollErr
	f.mu.Unlock()

	if enrollErr != "" {
		writeCAError(w, http.StatusInternalServerError, 0, enrollErr)
		return
	}
	if !ok || !known || reg.secret != secret {
		writeCAError(w, http.StatusUnauthorized, 20, "Authentication failure")
		return
	}

	var body struct {
		CertificateRequest string `json:"certificate_request"`
		CAName             string `json:"caname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeCAError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if body.CAName != "" && body.CAName != f.CAName {
		writeCAError(w, http.StatusBadRequest, 19, fmt.Sprintf("CA '%s' does not exist", body.CAName))
		return
	}
	csr, err := certutils.ParseCSR([]byte(body.CertificateRequest))
	if err != nil {
		writeCAError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if csr.Subject.CommonName != id {
		writeCAError(w, http.StatusForbidden, 0, "The CSR subject common name must equal the enrollment ID")
		return
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: id, OrganizationalUnit: []string{reg.idType}},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, f.caCert, csr.PublicKey, f.caKey)
	if err != nil {
		writeCAError(w, http.StatusInternalServerError, 0, err.Error())
		return
	}
	certPEM := certutils.EncodeX509Certificate(&x509.Certificate{Raw: der})

	writeCAResult(w, map[string]interface{}{
		"Cert": base64.StdEncoding.EncodeToString(certPEM),
		"ServerInfo": map[string]interface{}{
			"CAName":  f.CAName,
			"CAChain": base64.StdEncoding.EncodeToString(f.caPEM),
		},
	})
}

func (f *FabricCA) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeCAError(w, http.StatusBadRequest, 0, err.Error())
		return
	}

	f.mu.Lock()
	f.registerCalls++
	registerErr := f.registerErr
	f.mu.Unlock()

	if err := f.verifyToken(r.Header.Get("Authorization"), r.Method, r.URL.RequestURI(), body); err != nil {
		writeCAError(w, http.StatusUnauthorized, 20, "Authentication failure: "+err.Error())
		return
	}
	if registerErr != "" {
		writeCAError(w, http.StatusBadRequest, 0, registerErr)
		return
	}

	var req map[string]interface{}
	if err := json.Unmarshal(body, &req); err != nil {
		writeCAError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	id, _ := req["id"].(string)
	affiliation, _ := req["affiliation"].(string)
	idType, _ := req["type"].(string)
	secret, _ := req["secret"].(string)
	if secret == "" {
		secret = id + "pw"
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRegister = req
	if _, exists := f.identities[id]; exists {
		writeCAError(w, http.StatusBadRequest, 74, fmt.Sprintf("Identity '%s' is already registered", id))
		return
	}
	f.identities[id] = registration{secret: secret, affiliation: affiliation, idType: idType}
	writeCAResult(w, map[string]interface{}{"secret": secret})
}

func (f *FabricCA) verifyToken(token, method, uri string, body []byte) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return fmt.Errorf("malformed token")
	}
	certPEM, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return err
	}
	cert, err := certutils.ParseX509Certificate(certPEM)
	if err != nil {
		return err
	}
	if err := cert.CheckSignatureFrom(f.caCert); err != nil {
		return fmt.Errorf("certificate not issued by this CA: %w", err)
	}
	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("unsupported key type")
	}
	payload := method + "." +
		base64.StdEncoding.EncodeToString([]byte(uri)) + "." +
		base64.StdEncoding.EncodeToString(body) + "." +
		parts[0]
	digest := sha256.Sum256([]byte(payload))
	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

func writeCAResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"result":   result,
		"errors":   []interface{}{},
		"messages": []interface{}{},
	})
}

func writeCAError(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  false,
		"result":   nil,
		"errors":   []map[string]interface{}{{"code": code, "message": msg}},
		"messages": []interface{}{},
	})
}

func newCA(t *testing.T, name string) (*x509.Certificate, *ecdsa.PrivateKey, []byte) {
	t.Helper()
	key, err := certutils.GenerateECKey()
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key, certutils.EncodeX509Certificate(cert)
}

// SelfSignedIdentity returns a certificate and PKCS#8 key PEM for cn, good
// enough for signing gateway requests in tests.
func SelfSignedIdentity(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()
	_, key, pemBytes := newCA(t, cn)
	keyPEM, err := certutils.EncodePrivateKey(key)
	require.NoError(t, err)
	return pemBytes, keyPEM
}
