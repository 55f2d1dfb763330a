package deliveries

import (
	"context"
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists deliveries and their units.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindSite(ctx context.Context, id uuid.UUID) (*models.BuildingSite, error) {
	var site models.BuildingSite
	if err := r.db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

// Create inserts the delivery together with its units.
func (r *Repository) Create(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

// FindByID loads a delivery with its site, client and units.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).
		Preload("BuildingSite.Client").
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Units.Rentable").
		First(&delivery, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// List returns deliveries newest first plus the unpaged total.
func (r *Repository) List(ctx context.Context, siteID *uuid.UUID, params pagination.Params) ([]models.Delivery, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Delivery{})
	if siteID != nil {
		base = base.Where("building_site_id = ?", *siteID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Delivery
	err := base.Session(&gorm.Session{}).
		Preload("Units.Rentable").
		Order("date DESC").
		Order("created_at DESC").
		Scopes(params.Scope).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) UpdateDate(ctx context.Context, id uuid.UUID, date time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", id).
		Updates(map[string]any{"date": date.UTC(), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the delivery and its units.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("delivery_id = ?", id).Delete(&models.DeliveryUnit{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&models.Delivery{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
