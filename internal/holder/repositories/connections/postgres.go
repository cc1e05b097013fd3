package connections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

const connectionColumns = `id, user_id, connection_id, state, remote_state, their_did, my_did, invitation_key, alias, their_label, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(s scanner) (*models.Connection, error) {
	c := &models.Connection{}
	var state string
	err := s.Scan(&c.ID, &c.UserID, &c.ConnectionID, &state, &c.RemoteState, &c.TheirDID, &c.MyDID,
		&c.InvitationKey, &c.Alias, &c.TheirLabel, &c.CreatedAt, &c.UpdatedAt)
	c.State = models.ConnectionState(state)
	return c, err
}

// Upsert records c for its owner. A row for the same agent connection id is
// refreshed in place; known values are never overwritten with NULL and the
// original owner is kept. The returned connection carries the stored owner.
func (r *PostgresRepository) Upsert(ctx context.Context, c *models.Connection) (*models.Connection, error) {
	query :=
		`INSERT INTO connections (user_id, connection_id, state, remote_state, their_did, my_did, invitation_key, alias, their_label)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (connection_id) DO UPDATE SET
		     state = EXCLUDED.state,
		     remote_state = EXCLUDED.remote_state,
		     their_did = COALESCE(EXCLUDED.their_did, connections.their_did),
		     my_did = COALESCE(EXCLUDED.my_did, connections.my_did),
		     invitation_key = COALESCE(EXCLUDED.invitation_key, connections.invitation_key),
		     alias = COALESCE(EXCLUDED.alias, connections.alias),
		     their_label = COALESCE(EXCLUDED.their_label, connections.their_label),
		     updated_at = NOW()
		 RETURNING id, user_id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		c.UserID, c.ConnectionID, string(c.State), c.RemoteState, c.TheirDID, c.MyDID, c.InvitationKey, c.Alias, c.TheirLabel).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// RefreshFromRemote copies agent-reported fields onto an existing row and
// reports whether one was found.
func (r *PostgresRepository) RefreshFromRemote(ctx context.Context, c *models.Connection) (bool, error) {
	query :=
		`UPDATE connections SET
		     state = $2,
		     remote_state = $3,
		     their_did = COALESCE($4, their_did),
		     my_did = COALESCE($5, my_did),
		     their_label = COALESCE($6, their_label),
		     updated_at = NOW()
		 WHERE connection_id = $1`

	res, err := r.db.ExecContext(ctx, query,
		c.ConnectionID, string(c.State), c.RemoteState, c.TheirDID, c.MyDID, c.TheirLabel)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) GetByRemoteID(ctx context.Context, connectionID string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE connection_id = $1`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, connectionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
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

func (r *PostgresRepository) DeleteByRemoteID(ctx context.Context, connectionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE connection_id = $1`, connectionID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
