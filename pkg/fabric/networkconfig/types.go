package networkconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NetworkConfig represents the root structure of a Fabric connection profile
type NetworkConfig struct {
	Name                   string                          `yaml:"name"`
	Version                string                          `yaml:"version"`
	Client                 ClientConfig                    `yaml:"client"`
	Organizations          map[string]Organization         `yaml:"organizations"`
	Orderers               map[string]Orderer              `yaml:"orderers,omitempty"`
	Peers                  map[string]Peer                 `yaml:"peers"`
	CertificateAuthorities map[string]CertificateAuthority `yaml:"certificateAuthorities"`
}

// ClientConfig represents the client configuration
type ClientConfig struct {
	Organization string `yaml:"organization"`
}

// Organization represents an organization in the network
type Organization struct {
	MSPID                  string   `yaml:"mspid"`
	Peers                  []string `yaml:"peers"`
	Orderers               []string `yaml:"orderers,omitempty"`
	CertificateAuthorities []string `yaml:"certificateAuthorities"`
}

// Orderer represents an orderer node
type Orderer struct {
	URL         string      `yaml:"url"`
	GRPCOptions GRPCOptions `yaml:"grpcOptions"`
	TLSCACerts  TLSCACerts  `yaml:"tlsCACerts"`
}

// Peer represents a peer node
type Peer struct {
	URL         string      `yaml:"url"`
	GRPCOptions GRPCOptions `yaml:"grpcOptions"`
	TLSCACerts  TLSCACerts  `yaml:"tlsCACerts"`
}

// GRPCOptions represents gRPC options
type GRPCOptions struct {
	SSLTargetNameOverride string `yaml:"ssl-target-name-override,omitempty"`
	HostnameOverride      string `yaml:"hostnameOverride,omitempty"`
	AllowInsecure         bool   `yaml:"allow-insecure,omitempty"`
}

// TLSCACerts represents TLS CA certificates, inline or by path
type TLSCACerts struct {
	PEM  PEMList `yaml:"pem,omitempty"`
	Path string  `yaml:"path,omitempty"`
}

// PEMList holds one or more PEM documents. Connection profiles write peer
// trust anchors as a single string and CA trust anchors as a list.
type PEMList []string

func (p *PEMList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*p = nil
			return nil
		}
		*p = PEMList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*p = list
		return nil
	default:
		return fmt.Errorf("line %d: pem must be a string or a list of strings", value.Line)
	}
}

func (p PEMList) MarshalYAML() (interface{}, error) {
	if len(p) == 1 {
		return p[0], nil
	}
	return []string(p), nil
}

// CertificateAuthority represents a CA server
type CertificateAuthority struct {
	URL         string      `yaml:"url"`
	CAName      string      `yaml:"caName"`
	TLSCACerts  TLSCACerts  `yaml:"tlsCACerts"`
	HTTPOptions HTTPOptions `yaml:"httpOptions"`
}

// HTTPOptions represents CA client HTTP options
type HTTPOptions struct {
	Verify *bool `yaml:"verify,omitempty"`
}
