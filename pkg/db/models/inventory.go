package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is the materialized on-site count per rentable. It always equals
// the sum of delivery unit counts for the same pair.
type Inventory struct {
	BuildingSiteID uuid.UUID `gorm:"column:building_site_id;type:uuid;primaryKey"`
	RentableID     uuid.UUID `gorm:"column:rentable_id;type:uuid;primaryKey"`
	Count          int       `gorm:"column:count;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`

	BuildingSite *BuildingSite `gorm:"foreignKey:BuildingSiteID;constraint:OnDelete:CASCADE"`
	Rentable     *Rentable     `gorm:"foreignKey:RentableID;constraint:OnDelete:RESTRICT"`
}

// All lists every model in dependency order, for test schemas.
func All() []any {
	return []any{
		&User{},
		&Client{},
		&BuildingSite{},
		&Rentable{},
		&Delivery{},
		&DeliveryUnit{},
		&Inventory{},
	}
}
