package networkconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverWithProfile(t *testing.T, profile string) *Resolver {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "connection-org1.json")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0644))

	cfg := config.Default()
	org := cfg.Organizations["org1"]
	org.ConnectionProfile = path
	org.CAName = "ca-org1"
	cfg.Organizations["org1"] = org
	return NewResolver(cfg)
}

func TestResolveTestNetworkProfile(t *testing.T) {
	r := resolverWithProfile(t, testNetworkJSON)

	profile, err := r.Resolve("org1")
	require.NoError(t, err)

	assert.Equal(t, "org1", profile.Org)
	assert.Equal(t, "Org1MSP", profile.MSPID)
	require.Len(t, profile.Peers, 1)
	assert.Equal(t, "peer0.org1.example.com", profile.Peers[0].Name)
	assert.Equal(t, "grpcs://localhost:7051", profile.Peers[0].URL)
	assert.Equal(t, "peer0.org1.example.com", profile.Peers[0].ServerNameOverride)
	assert.Nil(t, profile.Orderer)

	require.NotNil(t, profile.CA)
	assert.Equal(t, "ca.org1.example.com", profile.CA.Name)
	assert.Equal(t, "ca-org1", profile.CA.CAName)
	assert.Equal(t, "https://localhost:7054", profile.CA.URL)
	assert.False(t, profile.CA.VerifyTLS)
	assert.Len(t, profile.CA.TLSCACerts, 1)
}

func TestResolveIsDeterministic(t *testing.T) {
	r := resolverWithProfile(t, testNetworkJSON)

	first, err := r.Resolve("org1")
	require.NoError(t, err)
	second, err := r.Resolve("org1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestResolveUnknownOrg(t *testing.T) {
	r := resolverWithProfile(t, testNetworkJSON)

	_, err := r.Resolve("org3")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.InvalidOrgError))
}

func TestResolveMissingProfile(t *testing.T) {
	cfg := config.Default()
	org := cfg.Organizations["org2"]
	org.ConnectionProfile = filepath.Join(t.TempDir(), "missing.json")
	cfg.Organizations["org2"] = org

	_, err := NewResolver(cfg).Resolve("org2")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ConnectionError))
}

func TestResolveRelativeCertPathAndOrderer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tls"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tls", "ca.crt"), []byte("peer-ca"), 0644))
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
organizations:
  Org1:
    mspid: Org1MSP
    peers: [peer1, peer0]
peers:
  peer0:
    url: grpc://localhost:7051
  peer1:
    url: grpcs://localhost:8051
    tlsCACerts:
      path: tls/ca.crt
orderers:
  orderer0:
    url: grpcs://localhost:7050
certificateAuthorities:
  org1-ca:
    url: https://localhost:7054
`), 0644))

	cfg := config.Default()
	org := cfg.Organizations["org1"]
	org.ConnectionProfile = path
	cfg.Organizations["org1"] = org

	profile, err := NewResolver(cfg).Resolve("org1")
	require.NoError(t, err)

	require.Len(t, profile.Peers, 2)
	assert.Equal(t, "peer1", profile.Peers[0].Name)
	assert.Equal(t, [][]byte{[]byte("peer-ca")}, profile.Peers[0].TLSCACerts)
	require.NotNil(t, profile.Orderer)
	assert.Equal(t, "orderer0", profile.Orderer.Name)
	require.NotNil(t, profile.CA)
	assert.Equal(t, "org1-ca", profile.CA.Name)
	assert.Equal(t, "org1-ca", profile.CA.CAName)
}
