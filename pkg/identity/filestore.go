package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
)

const (
	walletSuffix     = ".id"
	walletTypeX509   = "X.509"
	walletVersionOne = 1
)

// walletEntry is the on-disk layout of a Fabric X.509 wallet identity, with
// the role added.
type walletEntry struct {
	Credentials struct {
		Certificate string `json:"certificate"`
		PrivateKey  string `json:"privateKey"`
	} `json:"credentials"`
	MSPID   string `json:"mspId"`
	Type    string `json:"type"`
	Version int    `json:"version"`
	Role    Role   `json:"role,omitempty"`
}

// FileStore keeps one wallet directory per organization, created on first
// write.
type FileStore struct {
	cfg *config.Config
}

func NewFileStore(cfg *config.Config) *FileStore {
	return &FileStore{cfg: cfg}
}

func (s *FileStore) Put(ctx context.Context, id *Identity) error {
	dir, err := s.walletDir(id.Org)
	if err != nil {
		return err
	}
	if err := id.validate(); err != nil {
		return err
	}

	var entry walletEntry
	entry.Credentials.Certificate = string(id.Certificate)
	entry.Credentials.PrivateKey = string(id.PrivateKey)
	entry.MSPID = id.MSPID
	entry.Type = walletTypeX509
	entry.Version = walletVersionOne
	entry.Role = id.Role

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create wallet directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+id.Label+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write identity: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, id.Label+walletSuffix)); err != nil {
		return fmt.Errorf("failed to store identity: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, org, label string) (*Identity, error) {
	dir, err := s.walletDir(org)
	if err != nil {
		return nil, err
	}
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, label+walletSuffix))
	if os.IsNotExist(err) {
		return nil, errors.NewIdentityNotFoundError(org, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity %s: %w", label, err)
	}

	var entry walletEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse identity %s: %w", label, err)
	}
	if entry.Type != "" && entry.Type != walletTypeX509 {
		return nil, fmt.Errorf("identity %s has unsupported type %q", label, entry.Type)
	}
	role := entry.Role
	if role == "" {
		role = defaultRole(s.cfg, label)
	}

	return &Identity{
		Org:         org,
		Label:       label,
		MSPID:       entry.MSPID,
		Certificate: []byte(entry.Credentials.Certificate),
		PrivateKey:  []byte(entry.Credentials.PrivateKey),
		Role:        role,
	}, nil
}

func (s *FileStore) Exists(ctx context.Context, org, label string) (bool, error) {
	dir, err := s.walletDir(org)
	if err != nil {
		return false, err
	}
	if err := ValidateLabel(label); err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(dir, label+walletSuffix))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) List(ctx context.Context, org string) ([]string, error) {
	dir, err := s.walletDir(org)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet: %w", err)
	}

	labels := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, walletSuffix) {
			continue
		}
		labels = append(labels, strings.TrimSuffix(name, walletSuffix))
	}
	sort.Strings(labels)
	return labels, nil
}

func (s *FileStore) walletDir(org string) (string, error) {
	orgCfg, ok := s.cfg.Organization(org)
	if !ok {
		return "", errors.NewInvalidOrgError(org)
	}
	return orgCfg.WalletPath, nil
}
