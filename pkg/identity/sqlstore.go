package identity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/db"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
)

// SQLStore keeps identities in sqlite, one row per (org, label), with the
// private key encrypted.
type SQLStore struct {
	cfg    *config.Config
	db     *sql.DB
	cipher *keyCipher
}

// OpenSQLStore opens the database at path, migrating it if needed. hexKey is
// a hex encoded AES key.
func OpenSQLStore(cfg *config.Config, path, hexKey string) (*SQLStore, error) {
	keyCipher, err := newKeyCipher(hexKey)
	if err != nil {
		return nil, err
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLStore{cfg: cfg, db: database, cipher: keyCipher}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Put(ctx context.Context, id *Identity) error {
	if err := s.checkOrg(id.Org); err != nil {
		return err
	}
	if err := id.validate(); err != nil {
		return err
	}
	sealed, err := s.cipher.encrypt(string(id.PrivateKey))
	if err != nil {
		return fmt.Errorf("failed to encrypt private key: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO identities (org, label, msp_id, certificate, private_key, role)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (org, label) DO UPDATE SET
    msp_id = excluded.msp_id,
    certificate = excluded.certificate,
    private_key = excluded.private_key,
    role = excluded.role,
    updated_at = CURRENT_TIMESTAMP`,
		id.Org, id.Label, id.MSPID, string(id.Certificate), sealed, string(id.Role))
	if err != nil {
		return fmt.Errorf("failed to store identity %s: %w", id.Label, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, org, label string) (*Identity, error) {
	if err := s.checkOrg(org); err != nil {
		return nil, err
	}
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	var (
		mspID, cert, sealed, role string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT msp_id, certificate, private_key, role FROM identities WHERE org = ? AND label = ?`,
		org, label).Scan(&mspID, &cert, &sealed, &role)
	if err == sql.ErrNoRows {
		return nil, errors.NewIdentityNotFoundError(org, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity %s: %w", label, err)
	}
	key, err := s.cipher.decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key of %s: %w", label, err)
	}
	return &Identity{
		Org:         org,
		Label:       label,
		MSPID:       mspID,
		Certificate: []byte(cert),
		PrivateKey:  []byte(key),
		Role:        Role(role),
	}, nil
}

func (s *SQLStore) Exists(ctx context.Context, org, label string) (bool, error) {
	if err := s.checkOrg(org); err != nil {
		return false, err
	}
	if err := ValidateLabel(label); err != nil {
		return false, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM identities WHERE org = ? AND label = ?`, org, label).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check identity %s: %w", label, err)
	}
	return n > 0, nil
}

func (s *SQLStore) List(ctx context.Context, org string) ([]string, error) {
	if err := s.checkOrg(org); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT label FROM identities WHERE org = ? ORDER BY label`, org)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func (s *SQLStore) checkOrg(org string) error {
	if _, ok := s.cfg.Organization(org); !ok {
		return errors.NewInvalidOrgError(org)
	}
	return nil
}
