package inventory

import (
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentableDTO is the API shape of a rentable.
type RentableDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Count       int             `json:"count"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateRentableInput captures a new rentable.
type CreateRentableInput struct {
	Name        string
	Description *string
	Count       int
	UnitPrice   decimal.Decimal
}

// UpdateRentableInput patches a rentable; nil fields are left alone.
type UpdateRentableInput struct {
	Name        *string
	Description *string
	Count       *int
	UnitPrice   *decimal.Decimal
}

// SiteCount is the quantity of one rentable currently at a building site.
type SiteCount struct {
	RentableID   uuid.UUID `json:"rentable_id" gorm:"column:rentable_id"`
	RentableName string    `json:"rentable_name" gorm:"column:rentable_name"`
	Count        int       `json:"count" gorm:"column:count"`
}

// Availability compares the owned stock of a rentable with what is out on sites.
type Availability struct {
	RentableID   uuid.UUID `json:"rentable_id" gorm:"column:rentable_id"`
	RentableName string    `json:"rentable_name" gorm:"column:rentable_name"`
	Total        int       `json:"total" gorm:"column:total"`
	OnSite       int       `json:"on_site" gorm:"column:on_site"`
	Available    int       `json:"available" gorm:"-"`
}

// ReconcileResult reports what a projection rebuild changed.
type ReconcileResult struct {
	Checked int `json:"checked"`
	Fixed   int `json:"fixed"`
	Removed int `json:"removed"`
}

// Drifted reports whether the rebuild touched any row.
func (r ReconcileResult) Drifted() bool {
	return r.Fixed > 0 || r.Removed > 0
}

func FromModel(r *models.Rentable) *RentableDTO {
	if r == nil {
		return nil
	}
	return &RentableDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Count:       r.Count,
		UnitPrice:   r.UnitPrice,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (c CreateRentableInput) ToModel() *models.Rentable {
	return &models.Rentable{
		Name:        c.Name,
		Description: c.Description,
		Count:       c.Count,
		UnitPrice:   c.UnitPrice,
	}
}
