package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery groups the unit movements made on a single trip to a site.
type Delivery struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BuildingSiteID uuid.UUID      `gorm:"column:building_site_id;type:uuid;not null;index"`
	Date           time.Time      `gorm:"column:date;not null"`
	Notes          *string        `gorm:"column:notes"`
	CreatedByID    *uuid.UUID     `gorm:"column:created_by_id;type:uuid"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	BuildingSite   *BuildingSite  `gorm:"foreignKey:BuildingSiteID"`
	Units          []DeliveryUnit `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
}

func (d *Delivery) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
