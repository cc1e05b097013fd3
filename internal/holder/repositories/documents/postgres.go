package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

const documentColumns = `id, user_id, cid, storage_key, filename, mime_type, size, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*models.Document, error) {
	d := &models.Document{}
	err := s.Scan(&d.ID, &d.UserID, &d.CID, &d.StorageKey, &d.Filename, &d.MimeType, &d.Size, &d.CreatedAt)
	return d, err
}

// Create records d. Uploading the same content twice for one user keeps the
// first row.
func (r *PostgresRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	query :=
		`INSERT INTO documents (user_id, cid, storage_key, filename, mime_type, size)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, cid) DO UPDATE SET filename = documents.filename
		 RETURNING ` + documentColumns

	got, err := scanDocument(r.db.QueryRowContext(ctx, query,
		d.UserID, d.CID, d.StorageKey, d.Filename, d.MimeType, d.Size))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return got, nil
}

func (r *PostgresRepository) GetByCID(ctx context.Context, userID int64, cid string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1 AND cid = $2`

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, userID, cid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int64, cid string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE user_id = $1 AND cid = $2`, userID, cid)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
