package buildingsites

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
)

// StatusFilter narrows the site list.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// ParseStatusFilter accepts all, active or inactive; blank means all.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	}
	return "", fmt.Errorf("invalid status filter %q", raw)
}

func (f StatusFilter) status() (enums.BuildingSiteStatus, bool) {
	switch f {
	case StatusActive:
		return enums.BuildingSiteStatusActive, true
	case StatusInactive:
		return enums.BuildingSiteStatusInactive, true
	}
	return "", false
}

// SiteDTO is the API shape of a building site.
type SiteDTO struct {
	ID         uuid.UUID                `json:"id"`
	ClientID   uuid.UUID                `json:"client_id"`
	ClientName string                   `json:"client_name,omitempty"`
	Name       string                   `json:"name"`
	Address    string                   `json:"address"`
	Status     enums.BuildingSiteStatus `json:"status"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// SiteDetail adds the delivery history and current stock of a site.
type SiteDetail struct {
	SiteDTO
	ClientPhone string                   `json:"client_phone,omitempty"`
	Deliveries  []deliveries.DeliveryDTO `json:"deliveries"`
	Inventory   []inventory.SiteCount    `json:"inventory"`
}

// CreateSiteInput captures a new site.
type CreateSiteInput struct {
	ClientID uuid.UUID
	Name     string
	Address  string
}

// UpdateSiteInput patches a site; nil fields are left alone.
type UpdateSiteInput struct {
	Name    *string
	Address *string
	Status  *enums.BuildingSiteStatus
}

// ListParams filters the site list.
type ListParams struct {
	Search string
	Status StatusFilter
	Page   pagination.Params
}

// ListResult is a page of sites. Total always matches the filter.
type ListResult struct {
	Items []SiteDTO       `json:"items"`
	Page  pagination.Page `json:"page"`
}

func FromModel(site *models.BuildingSite) *SiteDTO {
	if site == nil {
		return nil
	}
	dto := &SiteDTO{
		ID:        site.ID,
		ClientID:  site.ClientID,
		Name:      site.Name,
		Address:   site.Address,
		Status:    site.Status,
		CreatedAt: site.CreatedAt,
		UpdatedAt: site.UpdatedAt,
	}
	if site.Client != nil {
		dto.ClientName = site.Client.Name
	}
	return dto
}
