package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

const credentialColumns = `id, user_id, credential_id, schema_id, cred_def_id, issuer_did, rev_reg_id, cred_rev_id, attributes, document_cid, is_revoked, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*models.Credential, error) {
	c := &models.Credential{}
	var attrs []byte
	if err := s.Scan(&c.ID, &c.UserID, &c.CredentialID, &c.SchemaID, &c.CredDefID, &c.IssuerDID,
		&c.RevRegID, &c.CredRevID, &attrs, &c.DocumentCID, &c.IsRevoked, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Attributes = map[string]string{}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &c.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return c, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	attrs, err := json.Marshal(c.Attributes)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	if c.Attributes == nil {
		attrs = []byte("{}")
	}

	query :=
		`INSERT INTO credentials (user_id, credential_id, schema_id, cred_def_id, issuer_did, rev_reg_id, cred_rev_id, attributes, document_cid, is_revoked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (credential_id) DO UPDATE SET
		     schema_id = EXCLUDED.schema_id,
		     cred_def_id = EXCLUDED.cred_def_id,
		     issuer_did = EXCLUDED.issuer_did,
		     rev_reg_id = EXCLUDED.rev_reg_id,
		     cred_rev_id = EXCLUDED.cred_rev_id,
		     attributes = EXCLUDED.attributes,
		     document_cid = COALESCE(EXCLUDED.document_cid, credentials.document_cid),
		     is_revoked = EXCLUDED.is_revoked,
		     updated_at = NOW()
		 RETURNING id, created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		c.UserID, c.CredentialID, c.SchemaID, c.CredDefID, c.IssuerDID, c.RevRegID, c.CredRevID,
		attrs, c.DocumentCID, c.IsRevoked).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByCredentialID(ctx context.Context, credentialID string) (*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE credential_id = $1`

	c, err := scanCredential(r.db.QueryRowContext(ctx, query, credentialID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Credential, 0)
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByCredentialID(ctx context.Context, credentialID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE credential_id = $1`, credentialID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
