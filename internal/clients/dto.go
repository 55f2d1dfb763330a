package clients

import (
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
)

// ClientDTO is the API shape of a client.
type ClientDTO struct {
	ID                 uuid.UUID     `json:"id"`
	Name               string        `json:"name"`
	Address            string        `json:"address"`
	PhoneNumber        string        `json:"phone_number"`
	RegistrationNumber *string       `json:"registration_number,omitempty"`
	IsLegalEntity      bool          `json:"is_legal_entity"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	BuildingSites      []SiteSummary `json:"building_sites,omitempty"`
}

// SiteSummary lists a client's building site.
type SiteSummary struct {
	ID      uuid.UUID                `json:"id"`
	Name    string                   `json:"name"`
	Address string                   `json:"address"`
	Status  enums.BuildingSiteStatus `json:"status"`
}

// CreateClientInput captures a new client.
type CreateClientInput struct {
	Name               string
	Address            string
	PhoneNumber        string
	RegistrationNumber *string
	IsLegalEntity      bool
}

// UpdateClientInput patches a client; nil fields are left alone.
type UpdateClientInput struct {
	Name               *string
	Address            *string
	PhoneNumber        *string
	RegistrationNumber *string
	IsLegalEntity      *bool
}

// ListParams filters the client list by a case-insensitive name fragment.
type ListParams struct {
	Search string
	Page   pagination.Params
}

// ListResult is a page of clients.
type ListResult struct {
	Items []ClientDTO     `json:"items"`
	Page  pagination.Page `json:"page"`
}

// CompanyPrefill is registry data shaped like the client form.
type CompanyPrefill struct {
	Name               string `json:"name"`
	TradeName          string `json:"trade_name,omitempty"`
	Address            string `json:"address"`
	PhoneNumber        string `json:"phone_number"`
	RegistrationNumber string `json:"registration_number"`
	IsLegalEntity      bool   `json:"is_legal_entity"`
	RegistrationStatus string `json:"registration_status,omitempty"`
}

func FromModel(c *models.Client) *ClientDTO {
	if c == nil {
		return nil
	}
	dto := &ClientDTO{
		ID:                 c.ID,
		Name:               c.Name,
		Address:            c.Address,
		PhoneNumber:        c.PhoneNumber,
		RegistrationNumber: c.RegistrationNumber,
		IsLegalEntity:      c.IsLegalEntity,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	for _, site := range c.BuildingSites {
		dto.BuildingSites = append(dto.BuildingSites, SiteSummary{
			ID:      site.ID,
			Name:    site.Name,
			Address: site.Address,
			Status:  site.Status,
		})
	}
	return dto
}
