package ledger

import (
	"context"
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository reads the delivery history a ledger is built from.
type Repository interface {
	FindSite(ctx context.Context, siteID uuid.UUID) (*models.BuildingSite, error)
	FindRentable(ctx context.Context, rentableID uuid.UUID) (*models.Rentable, error)
	ListSiteMovements(ctx context.Context, siteID uuid.UUID, rentableID *uuid.UUID) ([]MovementRow, error)
}

// MovementRow is a delivery unit joined with its delivery date and rentable.
type MovementRow struct {
	DeliveryID   uuid.UUID       `gorm:"column:delivery_id"`
	Date         time.Time       `gorm:"column:date"`
	Count        int             `gorm:"column:count"`
	RentableID   uuid.UUID       `gorm:"column:rentable_id"`
	RentableName string          `gorm:"column:rentable_name"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindSite(ctx context.Context, siteID uuid.UUID) (*models.BuildingSite, error) {
	var site models.BuildingSite
	if err := r.db.WithContext(ctx).Preload("Client").First(&site, "id = ?", siteID).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *repository) FindRentable(ctx context.Context, rentableID uuid.UUID) (*models.Rentable, error) {
	var rentable models.Rentable
	if err := r.db.WithContext(ctx).First(&rentable, "id = ?", rentableID).Error; err != nil {
		return nil, err
	}
	return &rentable, nil
}

func (r *repository) ListSiteMovements(ctx context.Context, siteID uuid.UUID, rentableID *uuid.UUID) ([]MovementRow, error) {
	query := r.db.WithContext(ctx).
		Table("delivery_units").
		Select(`delivery_units.delivery_id AS delivery_id,
			deliveries.date AS date,
			delivery_units.count AS count,
			delivery_units.rentable_id AS rentable_id,
			rentables.name AS rentable_name,
			rentables.unit_price AS unit_price`).
		Joins("JOIN deliveries ON deliveries.id = delivery_units.delivery_id").
		Joins("JOIN rentables ON rentables.id = delivery_units.rentable_id").
		Where("delivery_units.building_site_id = ?", siteID)
	if rentableID != nil {
		query = query.Where("delivery_units.rentable_id = ?", *rentableID)
	}

	var rows []MovementRow
	if err := query.
		Order("rentables.name ASC").
		Order("deliveries.date ASC").
		Order("deliveries.created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
