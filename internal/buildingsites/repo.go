package buildingsites

import (
	"context"
	"strings"

	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists building sites.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", clientID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, site *models.BuildingSite) error {
	return r.db.WithContext(ctx).Create(site).Error
}

// FindByID loads a site with its client.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BuildingSite, error) {
	var site models.BuildingSite
	if err := r.db.WithContext(ctx).Preload("Client").First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

// FindDetail loads a site with its client and every delivery, newest first.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.BuildingSite, error) {
	var site models.BuildingSite
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Deliveries", func(db *gorm.DB) *gorm.DB {
			return db.Order("date DESC").Order("created_at DESC")
		}).
		Preload("Deliveries.Units.Rentable").
		First(&site, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// List applies the same filters to the count and the page.
func (r *Repository) List(ctx context.Context, search string, status *enums.BuildingSiteStatus, clientID *uuid.UUID, params pagination.Params) ([]models.BuildingSite, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.BuildingSite{})
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+term+"%")
	}
	if status != nil {
		base = base.Where("status = ?", *status)
	}
	if clientID != nil {
		base = base.Where("client_id = ?", *clientID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BuildingSite
	if err := base.Session(&gorm.Session{}).
		Preload("Client").
		Order("created_at DESC").
		Scopes(params.Scope).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) Update(ctx context.Context, site *models.BuildingSite) error {
	return r.db.WithContext(ctx).Omit("Client", "Deliveries").Save(site).Error
}

func (r *Repository) CountDeliveries(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Delivery{}).Where("building_site_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes a site and its (necessarily empty) projection rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("building_site_id = ?", id).Delete(&models.Inventory{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&models.BuildingSite{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
