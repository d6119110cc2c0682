package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rezervi/rezervi-api/internal/domain/business"
	"github.com/rezervi/rezervi-api/internal/models"
)

type BusinessGormRepository struct {
	db *gorm.DB
}

func NewBusinessGormRepository(db *gorm.DB) *BusinessGormRepository {
	return &BusinessGormRepository{db: db}
}

func (r *BusinessGormRepository) Create(
	ctx context.Context,
	b *models.Business,
) error {
	return classify("create business", r.db.WithContext(ctx).Create(b).Error)
}

func (r *BusinessGormRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*models.Business, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *BusinessGormRepository) GetByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) (*models.Business, error) {
	return r.first(ctx, "owner_id = ?", ownerID)
}

func (r *BusinessGormRepository) first(ctx context.Context, query string, arg any) (*models.Business, error) {
	var b models.Business
	if err := r.db.WithContext(ctx).
		Preload("WorkingHours", func(db *gorm.DB) *gorm.DB { return db.Order("weekday") }).
		Preload("SpecialDates", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		Where(query, arg).
		First(&b).Error; err != nil {
		return nil, notFound("business", "get business", err)
	}
	return &b, nil
}

func (r *BusinessGormRepository) Search(
	ctx context.Context,
	f business.SearchFilter,
) ([]models.Business, error) {

	q := r.db.WithContext(ctx).Model(&models.Business{})

	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ?", like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var list []models.Business
	if err := q.Order("name ASC").Find(&list).Error; err != nil {
		return nil, classify("search businesses", err)
	}
	return list, nil
}

// UpdateProfile writes the profile and settings columns. Associations are
// replaced through their own methods.
func (r *BusinessGormRepository) UpdateProfile(
	ctx context.Context,
	b *models.Business,
) error {
	res := r.db.WithContext(ctx).
		Model(&models.Business{ID: b.ID}).
		Select(
			"Name", "Slug", "Type", "Phone", "Address",
			"Latitude", "Longitude", "Timezone",
			"SlotDurationMinutes", "BufferTimeMinutes", "BookingWindowDays",
			"MinAdvanceBookingHours", "MaxCapacityPerSlot", "AutoConfirm",
		).
		Updates(b)
	if res.Error != nil {
		return classify("update business", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("business", "update business", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *BusinessGormRepository) ReplaceWorkingHours(
	ctx context.Context,
	businessID uuid.UUID,
	hours []models.WorkingHours,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", businessID).Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		for i := range hours {
			hours[i].ID = 0
			hours[i].BusinessID = businessID
		}
		return tx.Create(&hours).Error
	})
	return classify("replace working hours", err)
}

func (r *BusinessGormRepository) ReplaceSpecialDates(
	ctx context.Context,
	businessID uuid.UUID,
	dates []models.SpecialDate,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", businessID).Delete(&models.SpecialDate{}).Error; err != nil {
			return err
		}
		if len(dates) == 0 {
			return nil
		}
		for i := range dates {
			dates[i].ID = 0
			dates[i].BusinessID = businessID
		}
		return tx.Create(&dates).Error
	})
	return classify("replace special dates", err)
}

var _ business.Repository = (*BusinessGormRepository)(nil)
