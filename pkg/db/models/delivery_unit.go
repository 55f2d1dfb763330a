package models

import (
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryUnit is a signed quantity change for one rentable. Positive counts
// were delivered, negative counts were returned.
type DeliveryUnit struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"`
	DeliveryID     uuid.UUID          `gorm:"column:delivery_id;type:uuid;not null;index"`
	BuildingSiteID uuid.UUID          `gorm:"column:building_site_id;type:uuid;not null;index:idx_delivery_units_site_rentable"`
	RentableID     uuid.UUID          `gorm:"column:rentable_id;type:uuid;not null;index:idx_delivery_units_site_rentable"`
	Count          int                `gorm:"column:count;not null"`
	DeliveryType   enums.DeliveryType `gorm:"column:delivery_type;type:text;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	Rentable       *Rentable          `gorm:"foreignKey:RentableID;constraint:OnDelete:RESTRICT"`
}

func (u *DeliveryUnit) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
