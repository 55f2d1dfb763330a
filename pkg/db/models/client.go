package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a customer renting equipment, either a company (CNPJ) or a
// person (CPF).
type Client struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name               string         `gorm:"column:name;not null"`
	Address            string         `gorm:"column:address;not null"`
	PhoneNumber        string         `gorm:"column:phone_number;not null"`
	RegistrationNumber *string        `gorm:"column:registration_number"`
	IsLegalEntity      bool           `gorm:"column:is_legal_entity;not null;default:false"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	BuildingSites      []BuildingSite `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
