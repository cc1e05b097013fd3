package documents

import (
	"context"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Document) (*models.Document, error)
	GetByCID(ctx context.Context, userID int64, cid string) (*models.Document, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Document, error)
	Delete(ctx context.Context, userID int64, cid string) (bool, error)
}
