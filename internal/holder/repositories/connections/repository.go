// Package connections persists the local projection of agent connection
// records. The agent stays authoritative; rows here are refreshed from it.
package connections

import (
	"context"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

type Repository interface {
	Upsert(ctx context.Context, c *models.Connection) (*models.Connection, error)
	RefreshFromRemote(ctx context.Context, c *models.Connection) (bool, error)
	GetByRemoteID(ctx context.Context, connectionID string) (*models.Connection, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Connection, error)
	DeleteByRemoteID(ctx context.Context, connectionID string) (bool, error)
}
