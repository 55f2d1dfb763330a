package deliveries

import (
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
)

// UnitInput is one requested movement. Count is a magnitude; Type decides
// the sign that gets stored.
type UnitInput struct {
	RentableID uuid.UUID
	Count      int
	Type       enums.DeliveryType
}

// CreateInput captures a delivery to record.
type CreateInput struct {
	BuildingSiteID uuid.UUID
	Date           *time.Time
	Notes          *string
	ActorID        *uuid.UUID
	Units          []UnitInput
}

// ListParams filters the delivery list.
type ListParams struct {
	BuildingSiteID *uuid.UUID
	Page           pagination.Params
}

// UnitDTO is a stored, signed movement.
type UnitDTO struct {
	ID           uuid.UUID          `json:"id"`
	RentableID   uuid.UUID          `json:"rentable_id"`
	RentableName string             `json:"rentable_name,omitempty"`
	Count        int                `json:"count"`
	DeliveryType enums.DeliveryType `json:"delivery_type"`
}

// SiteSummary is the building site a delivery belongs to.
type SiteSummary struct {
	ID          uuid.UUID                `json:"id"`
	Name        string                   `json:"name"`
	Address     string                   `json:"address"`
	Status      enums.BuildingSiteStatus `json:"status"`
	ClientID    uuid.UUID                `json:"client_id"`
	ClientName  string                   `json:"client_name,omitempty"`
	ClientPhone string                   `json:"client_phone,omitempty"`
}

// DeliveryDTO is the API shape of a delivery.
type DeliveryDTO struct {
	ID             uuid.UUID    `json:"id"`
	BuildingSiteID uuid.UUID    `json:"building_site_id"`
	Date           time.Time    `json:"date"`
	Notes          *string      `json:"notes,omitempty"`
	CreatedByID    *uuid.UUID   `json:"created_by_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	BuildingSite   *SiteSummary `json:"building_site,omitempty"`
	Units          []UnitDTO    `json:"units"`
}

// ListResult is a page of deliveries.
type ListResult struct {
	Items []DeliveryDTO   `json:"items"`
	Page  pagination.Page `json:"page"`
}

func FromModel(d *models.Delivery) *DeliveryDTO {
	if d == nil {
		return nil
	}
	dto := &DeliveryDTO{
		ID:             d.ID,
		BuildingSiteID: d.BuildingSiteID,
		Date:           d.Date,
		Notes:          d.Notes,
		CreatedByID:    d.CreatedByID,
		CreatedAt:      d.CreatedAt,
		Units:          make([]UnitDTO, 0, len(d.Units)),
	}
	if site := d.BuildingSite; site != nil {
		dto.BuildingSite = &SiteSummary{
			ID:       site.ID,
			Name:     site.Name,
			Address:  site.Address,
			Status:   site.Status,
			ClientID: site.ClientID,
		}
		if site.Client != nil {
			dto.BuildingSite.ClientName = site.Client.Name
			dto.BuildingSite.ClientPhone = site.Client.PhoneNumber
		}
	}
	for _, unit := range d.Units {
		u := UnitDTO{
			ID:           unit.ID,
			RentableID:   unit.RentableID,
			Count:        unit.Count,
			DeliveryType: unit.DeliveryType,
		}
		if unit.Rentable != nil {
			u.RentableName = unit.Rentable.Name
		}
		dto.Units = append(dto.Units, u)
	}
	return dto
}
