package business

import (
	"context"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
)

type SearchFilter struct {
	Type  string
	Query string
	Limit int
}

type Repository interface {
	Create(
		ctx context.Context,
		b *models.Business,
	) error

	// Get loads the business with its working hours and special dates.
	Get(
		ctx context.Context,
		id uuid.UUID,
	) (*models.Business, error)

	GetByOwner(
		ctx context.Context,
		ownerID uuid.UUID,
	) (*models.Business, error)

	Search(
		ctx context.Context,
		f SearchFilter,
	) ([]models.Business, error)

	// UpdateProfile saves profile and appointment settings columns only.
	UpdateProfile(
		ctx context.Context,
		b *models.Business,
	) error

	ReplaceWorkingHours(
		ctx context.Context,
		businessID uuid.UUID,
		hours []models.WorkingHours,
	) error

	ReplaceSpecialDates(
		ctx context.Context,
		businessID uuid.UUID,
		dates []models.SpecialDate,
	) error
}
