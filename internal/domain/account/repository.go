package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
)

type Repository interface {
	CreateUser(
		ctx context.Context,
		u *models.User,
	) error

	GetUserByEmail(
		ctx context.Context,
		email string,
	) (*models.User, error)

	GetUser(
		ctx context.Context,
		id uuid.UUID,
	) (*models.User, error)
}
