package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Identity is the credential material a gateway session signs with.
type Identity struct {
	Org         string
	Label       string
	MSPID       string
	Certificate []byte
	PrivateKey  []byte
	Role        Role
}

// Store is a per-organization keyed store of identities. Implementations
// must be safe for concurrent readers; concurrent writers of the same label
// race and the last write wins.
type Store interface {
	Put(ctx context.Context, id *Identity) error
	Get(ctx context.Context, org, label string) (*Identity, error)
	Exists(ctx context.Context, org, label string) (bool, error)
	List(ctx context.Context, org string) ([]string, error)
}

// NewStore builds the store backend selected in cfg. encryptionKey is only
// used by the sqlite backend. The returned close func is never nil.
func NewStore(cfg *config.Config, encryptionKey string) (Store, func() error, error) {
	switch cfg.IdentityStore.Type {
	case config.IdentityStoreSQLite:
		store, err := OpenSQLStore(cfg, cfg.IdentityStore.DBPath, encryptionKey)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.IdentityStoreFile, "":
		return NewFileStore(cfg), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported identity store type %q", cfg.IdentityStore.Type)
	}
}

// ValidateLabel rejects labels that cannot be used as a store key. Labels
// starting with "." are reserved for the file store's temp files.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.NewValidationError("identity label must not be empty", nil)
	}
	if strings.ContainsAny(label, `/\`) || strings.Contains(label, "..") || strings.HasPrefix(label, ".") {
		return errors.NewValidationError(fmt.Sprintf("invalid identity label %q", label), map[string]interface{}{"label": label})
	}
	return nil
}

func (id *Identity) validate() error {
	if err := ValidateLabel(id.Label); err != nil {
		return err
	}
	if len(id.Certificate) == 0 || len(id.PrivateKey) == 0 {
		return errors.NewValidationError("identity requires a certificate and a private key", map[string]interface{}{"label": id.Label})
	}
	if id.Role != RoleAdmin && id.Role != RoleUser {
		return errors.NewValidationError(fmt.Sprintf("invalid identity role %q", id.Role), map[string]interface{}{"label": id.Label})
	}
	return nil
}

func defaultRole(cfg *config.Config, label string) Role {
	if label == cfg.Bootstrap.EnrollID {
		return RoleAdmin
	}
	return RoleUser
}
