package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/stretchr/testify/require"
)

const (
	BootstrapID     = "admin"
	BootstrapSecret = "adminpw"
)

// Network is a two-organization configuration whose profiles point at
// in-process CAs.
type Network struct {
	Config *config.Config
	CAs    map[string]*FabricCA
}

// NewNetwork writes connection profiles for org1 and org2 into a temp dir,
// each backed by its own fake CA, and returns a file-store configuration.
func NewNetwork(t *testing.T) *Network {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Log.Level = "error"
	n := &Network{Config: cfg, CAs: map[string]*FabricCA{}}

	for i, id := range cfg.OrgIDs() {
		org := cfg.Organizations[id]
		ca := NewFabricCA(t, org.CAName, BootstrapID, BootstrapSecret)
		n.CAs[id] = ca

		org.WalletPath = filepath.Join(dir, "wallet", id)
		org.ConnectionProfile = WriteConnectionProfile(t, dir, id, org.MSPID, fmt.Sprintf("grpcs://localhost:%d", 7051+2000*i), ca)
		cfg.Organizations[id] = org
	}
	require.NoError(t, cfg.Validate())
	return n
}

// WriteConnectionProfile writes a test-network shaped profile and returns
// its path.
func WriteConnectionProfile(t *testing.T, dir, org, mspID, peerURL string, ca *FabricCA) string {
	t.Helper()
	peerName := "peer0." + org + ".example.com"
	caKey := "ca." + org + ".example.com"
	verify := false

	nc := &networkconfig.NetworkConfig{
		Name:    "test-network-" + org,
		Version: "1.0.0",
		Client:  networkconfig.ClientConfig{Organization: org},
		Organizations: map[string]networkconfig.Organization{
			org: {
				MSPID:                  mspID,
				Peers:                  []string{peerName},
				CertificateAuthorities: []string{caKey},
			},
		},
		Peers: map[string]networkconfig.Peer{
			peerName: {
				URL:         peerURL,
				GRPCOptions: networkconfig.GRPCOptions{SSLTargetNameOverride: peerName},
				TLSCACerts:  networkconfig.TLSCACerts{PEM: networkconfig.PEMList{string(ca.CACertPEM())}},
			},
		},
		CertificateAuthorities: map[string]networkconfig.CertificateAuthority{
			caKey: {
				URL:         ca.URL(),
				CAName:      ca.CAName,
				TLSCACerts:  networkconfig.TLSCACerts{PEM: networkconfig.PEMList{string(ca.CACertPEM())}},
				HTTPOptions: networkconfig.HTTPOptions{Verify: &verify},
			},
		},
	}
	path := filepath.Join(dir, "connection-"+org+".yaml")
	require.NoError(t, nc.SaveToFile(path))
	return path
}
