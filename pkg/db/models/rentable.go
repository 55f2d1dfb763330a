package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rentable is a kind of equipment kept in stock, e.g. scaffolding frames.
// Count is the total owned by the business.
type Rentable struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null;uniqueIndex"`
	Description *string         `gorm:"column:description"`
	Count       int             `gorm:"column:count;not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Rentable) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
