package users

import (
	"context"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateDID(ctx context.Context, id int64, did string) (bool, error)
	UpdateEmail(ctx context.Context, id int64, email string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
