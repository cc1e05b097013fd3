package credentials

import (
	"context"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

type Repository interface {
	Upsert(ctx context.Context, c *models.Credential) (*models.Credential, error)
	GetByCredentialID(ctx context.Context, credentialID string) (*models.Credential, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error)
	DeleteByCredentialID(ctx context.Context, credentialID string) (bool, error)
}
