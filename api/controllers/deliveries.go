package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/sitestock-backend/api/responses"
	"github.com/angelmondragon/sitestock-backend/api/validators"
	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/receipts"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
)

type deliveryUnitRequest struct {
	RentableID   uuid.UUID `json:"rentable_id" validate:"required"`
	Count        int       `json:"count" validate:"gte=0"`
	DeliveryType string    `json:"delivery_type" validate:"required"`
}

type deliveryCreateRequest struct {
	BuildingSiteID uuid.UUID             `json:"building_site_id" validate:"required"`
	Date           *time.Time            `json:"date,omitempty"`
	Notes          *string               `json:"notes,omitempty"`
	Units          []deliveryUnitRequest `json:"units" validate:"required,min=1,dive"`
}

func (r deliveryCreateRequest) toInput() (deliveries.CreateInput, error) {
	input := deliveries.CreateInput{
		BuildingSiteID: r.BuildingSiteID,
		Date:           r.Date,
		Notes:          r.Notes,
		Units:          make([]deliveries.UnitInput, 0, len(r.Units)),
	}
	for _, unit := range r.Units {
		deliveryType, err := enums.ParseDeliveryType(unit.DeliveryType)
		if err != nil {
			return input, pkgerrors.Fields(map[string]string{"delivery_type": "must be delivery or return"})
		}
		input.Units = append(input.Units, deliveries.UnitInput{
			RentableID: unit.RentableID,
			Count:      unit.Count,
			Type:       deliveryType,
		})
	}
	return input, nil
}

type deliveryUpdateRequest struct {
	Date time.Time `json:"date" validate:"required"`
}

func DeliveryList(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := deliveries.ListParams{Page: page}
		if raw := r.URL.Query().Get("building_site_id"); raw != "" {
			siteID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Fields(map[string]string{"building_site_id": "invalid building site id"}))
				return
			}
			params.BuildingSiteID = &siteID
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func DeliveryCreate(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body deliveryCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor, actorErr := actorID(r); actorErr == nil {
			input.ActorID = &actor
		}

		delivery, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, delivery)
	}
}

func DeliveryDetail(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// DeliveryUpdate moves a delivery to another date.
func DeliveryUpdate(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deliveryUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.UpdateDate(r.Context(), id, body.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

func DeliveryDelete(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DeliveryReceipt downloads the printable receipt of a delivery.
func DeliveryReceipt(svc deliveries.Service, company config.CompanyConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, err := receipts.DeliveryReceipt(delivery, company)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt"))
			return
		}
		responses.WriteAttachment(w, receipts.ContentType, receipts.Filename("entrega", delivery.Date), body)
	}
}
