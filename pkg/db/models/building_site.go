package models

import (
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BuildingSite struct {
	ID         uuid.UUID                `gorm:"type:uuid;primaryKey"`
	ClientID   uuid.UUID                `gorm:"column:client_id;type:uuid;not null;index"`
	Name       string                   `gorm:"column:name;not null"`
	Address    string                   `gorm:"column:address;not null"`
	Status     enums.BuildingSiteStatus `gorm:"column:status;type:text;not null;default:active"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
	Client     *Client                  `gorm:"foreignKey:ClientID"`
	Deliveries []Delivery               `gorm:"foreignKey:BuildingSiteID;constraint:OnDelete:RESTRICT"`
}

func (b *BuildingSite) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
