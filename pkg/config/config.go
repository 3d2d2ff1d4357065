package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	IdentityStoreFile   = "file"
	IdentityStoreSQLite = "sqlite"

	defaultWalletRoot = "/fabric/application/wallet"
	defaultProfileDir = "/fabric/test-network/organizations/peerOrganizations"
)

// Config is built once at startup and shared read-only by every component.
type Config struct {
	Server        ServerConfig            `yaml:"server"`
	Log           logger.Config           `yaml:"log"`
	Fabric        FabricConfig            `yaml:"fabric"`
	IdentityStore IdentityStoreConfig     `yaml:"identityStore"`
	Bootstrap     BootstrapConfig         `yaml:"bootstrap"`
	Organizations map[string]Organization `yaml:"organizations"`
}

type ServerConfig struct {
	Port      int             `yaml:"port"`
	TLSCert   string          `yaml:"tlsCert"`
	TLSKey    string          `yaml:"tlsKey"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig is disabled when RPS is zero.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type FabricConfig struct {
	Channel   string `yaml:"channel"`
	Chaincode string `yaml:"chaincode"`
}

type IdentityStoreConfig struct {
	Type          string `yaml:"type"`
	DBPath        string `yaml:"dbPath"`
	EncryptionKey string `yaml:"encryptionKey"`
}

// BootstrapConfig holds the CA bootstrap registrar credentials used to
// enroll each organization's admin identity.
type BootstrapConfig struct {
	EnrollID     string `yaml:"enrollId"`
	EnrollSecret string `yaml:"enrollSecret"`
}

type Organization struct {
	ID                string `yaml:"-"`
	MSPID             string `yaml:"mspId"`
	CAName            string `yaml:"caName"`
	Affiliation       string `yaml:"affiliation"`
	WalletPath        string `yaml:"walletPath"`
	ConnectionProfile string `yaml:"connectionProfile"`
}

// Default returns the configuration for the two-organization Fabric test
// network.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000},
		Log: logger.Config{
			Level:      "info",
			OutputPath: "stdout",
			Format:     "console",
		},
		Fabric: FabricConfig{
			Channel:   "mychannel",
			Chaincode: "asset-transfer-basic",
		},
		IdentityStore: IdentityStoreConfig{
			Type:   IdentityStoreFile,
			DBPath: filepath.Join("data", "identities.db"),
		},
		Bootstrap: BootstrapConfig{
			EnrollID:     "admin",
			EnrollSecret: "adminpw",
		},
		Organizations: defaultOrganizations(),
	}
}

func defaultOrganizations() map[string]Organization {
	orgs := map[string]Organization{}
	for _, n := range []string{"1", "2"} {
		id := "org" + n
		orgs[id] = Organization{
			ID:                id,
			MSPID:             "Org" + n + "MSP",
			CAName:            id + "-ca",
			Affiliation:       id + ".department1",
			WalletPath:        filepath.Join(defaultWalletRoot, id),
			ConnectionProfile: filepath.Join(defaultProfileDir, id+".example.com", "connection-"+id+".json"),
		}
	}
	return orgs
}

// Option overrides a setting after the file and environment are read, before
// validation.
type Option func(*Config)

// WithPort sets the HTTP listen port.
func WithPort(port int) Option {
	return func(c *Config) {
		c.Server.Port = port
	}
}

// WithTLS sets the server certificate and key files. Empty values keep the
// configured ones.
func WithTLS(certFile, keyFile string) Option {
	return func(c *Config) {
		if certFile != "" {
			c.Server.TLSCert = certFile
		}
		if keyFile != "" {
			c.Server.TLSKey = keyFile
		}
	}
}

// Load reads a YAML configuration file on top of the defaults. An empty path
// yields the defaults. Environment overrides come next, then opts.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg.Organizations = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if len(cfg.Organizations) == 0 {
			cfg.Organizations = defaultOrganizations()
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(cfg)
	}
	for id, org := range cfg.Organizations {
		org.ID = id
		cfg.Organizations[id] = org
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("IDENTITY_ENCRYPTION_KEY"); ok && v != "" {
		c.IdentityStore.EncryptionKey = v
	}
	return nil
}

// Validate checks the invariants every component relies on.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Fabric.Channel == "" || c.Fabric.Chaincode == "" {
		return fmt.Errorf("fabric channel and chaincode are required")
	}
	if c.Bootstrap.EnrollID == "" || c.Bootstrap.EnrollSecret == "" {
		return fmt.Errorf("bootstrap enrollId and enrollSecret are required")
	}
	switch c.IdentityStore.Type {
	case IdentityStoreFile:
	case IdentityStoreSQLite:
		if c.IdentityStore.DBPath == "" {
			return fmt.Errorf("identityStore.dbPath is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unsupported identity store type %q", c.IdentityStore.Type)
	}
	if len(c.Organizations) == 0 {
		return fmt.Errorf("at least one organization must be configured")
	}
	for id, org := range c.Organizations {
		if org.MSPID == "" {
			return fmt.Errorf("organization %s: mspId is required", id)
		}
		if org.CAName == "" {
			return fmt.Errorf("organization %s: caName is required", id)
		}
		if org.ConnectionProfile == "" {
			return fmt.Errorf("organization %s: connectionProfile is required", id)
		}
		if c.IdentityStore.Type == IdentityStoreFile && org.WalletPath == "" {
			return fmt.Errorf("organization %s: walletPath is required for the file store", id)
		}
	}
	return nil
}

// Organization returns a copy of the configured organization.
func (c *Config) Organization(id string) (Organization, bool) {
	org, ok := c.Organizations[id]
	return org, ok
}

// OrgIDs returns the configured organization ids in sorted order.
func (c *Config) OrgIDs() []string {
	ids := make([]string, 0, len(c.Organizations))
	for id := range c.Organizations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
