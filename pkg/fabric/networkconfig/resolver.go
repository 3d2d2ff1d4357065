package networkconfig

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
)

// Endpoint is a resolved peer or orderer.
type Endpoint struct {
	Name               string
	URL                string
	TLSCACerts         [][]byte
	ServerNameOverride string
}

// CAEndpoint is a resolved certificate authority.
type CAEndpoint struct {
	Name       string
	CAName     string
	URL        string
	TLSCACerts [][]byte
	VerifyTLS  bool
}

// ConnectionProfile is the topology one organization uses to reach the
// network. It is derived on every Resolve call and never cached.
type ConnectionProfile struct {
	Org     string
	MSPID   string
	Peers   []Endpoint
	Orderer *Endpoint
	CA      *CAEndpoint
}

// Resolver maps configured organizations to their connection profiles.
type Resolver struct {
	cfg *config.Config
}

func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the connection profile of org. It fails with an
// InvalidOrgError for organizations outside the configured set.
func (r *Resolver) Resolve(org string) (*ConnectionProfile, error) {
	orgCfg, ok := r.cfg.Organization(org)
	if !ok {
		return nil, errors.NewInvalidOrgError(org)
	}

	details := map[string]interface{}{"org": org, "profile": orgCfg.ConnectionProfile}
	nc, err := LoadFromFile(orgCfg.ConnectionProfile)
	if err != nil {
		return nil, errors.NewConnectionError("failed to load connection profile", err, details)
	}
	baseDir := filepath.Dir(orgCfg.ConnectionProfile)

	profileOrg := findOrganization(nc, org, orgCfg.MSPID)
	profile := &ConnectionProfile{
		Org:   org,
		MSPID: orgCfg.MSPID,
	}

	peerNames := profileOrg.Peers
	if len(peerNames) == 0 {
		peerNames = sortedKeys(nc.Peers)
	}
	for _, name := range peerNames {
		peer, ok := nc.Peers[name]
		if !ok {
			continue
		}
		certs, err := readCerts(peer.TLSCACerts, baseDir)
		if err != nil {
			return nil, errors.NewConnectionError("failed to read peer TLS certificates", err, details)
		}
		profile.Peers = append(profile.Peers, Endpoint{
			Name:               name,
			URL:                peer.URL,
			TLSCACerts:         certs,
			ServerNameOverride: nameOverride(peer.GRPCOptions),
		})
	}
	if len(profile.Peers) == 0 {
		return nil, errors.NewConnectionError("connection profile defines no peers", nil, details)
	}

	ordererNames := profileOrg.Orderers
	if len(ordererNames) == 0 {
		ordererNames = sortedKeys(nc.Orderers)
	}
	for _, name := range ordererNames {
		orderer, ok := nc.Orderers[name]
		if !ok {
			continue
		}
		certs, err := readCerts(orderer.TLSCACerts, baseDir)
		if err != nil {
			return nil, errors.NewConnectionError("failed to read orderer TLS certificates", err, details)
		}
		profile.Orderer = &Endpoint{
			Name:               name,
			URL:                orderer.URL,
			TLSCACerts:         certs,
			ServerNameOverride: nameOverride(orderer.GRPCOptions),
		}
		break
	}

	caKey, ca, ok := findCA(nc, profileOrg, orgCfg.CAName)
	if ok {
		certs, err := readCerts(ca.TLSCACerts, baseDir)
		if err != nil {
			return nil, errors.NewConnectionError("failed to read CA TLS certificates", err, details)
		}
		caName := ca.CAName
		if caName == "" {
			caName = orgCfg.CAName
		}
		profile.CA = &CAEndpoint{
			Name:       caKey,
			CAName:     caName,
			URL:        ca.URL,
			TLSCACerts: certs,
			VerifyTLS:  ca.HTTPOptions.Verify != nil && *ca.HTTPOptions.Verify,
		}
	}

	return profile, nil
}

func findOrganization(nc *NetworkConfig, org, mspID string) Organization {
	for _, name := range sortedKeys(nc.Organizations) {
		if nc.Organizations[name].MSPID == mspID {
			return nc.Organizations[name]
		}
	}
	for name, o := range nc.Organizations {
		if strings.EqualFold(name, org) {
			return o
		}
	}
	return nc.Organizations[nc.Client.Organization]
}

// findCA prefers an entry keyed by the configured CA name, then an entry
// whose caName matches, then the first CA the organization lists.
func findCA(nc *NetworkConfig, org Organization, caName string) (string, CertificateAuthority, bool) {
	if ca, ok := nc.CertificateAuthorities[caName]; ok {
		return caName, ca, true
	}
	for _, name := range sortedKeys(nc.CertificateAuthorities) {
		if nc.CertificateAuthorities[name].CAName == caName {
			return name, nc.CertificateAuthorities[name], true
		}
	}
	for _, name := range org.CertificateAuthorities {
		if ca, ok := nc.CertificateAuthorities[name]; ok {
			return name, ca, true
		}
	}
	return "", CertificateAuthority{}, false
}

func nameOverride(opts GRPCOptions) string {
	if opts.SSLTargetNameOverride != "" {
		return opts.SSLTargetNameOverride
	}
	return opts.HostnameOverride
}

func readCerts(certs TLSCACerts, baseDir string) ([][]byte, error) {
	var out [][]byte
	for _, pem := range certs.PEM {
		out = append(out, []byte(pem))
	}
	if certs.Path != "" {
		path := certs.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
