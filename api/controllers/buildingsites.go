package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/sitestock-backend/api/responses"
	"github.com/angelmondragon/sitestock-backend/api/validators"
	"github.com/angelmondragon/sitestock-backend/internal/buildingsites"
	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/internal/ledger"
	"github.com/angelmondragon/sitestock-backend/internal/receipts"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
)

const formDateLayout = "2006-01-02"

type siteCreateRequest struct {
	ClientID uuid.UUID `json:"client_id" validate:"required"`
	Name     string    `json:"name" validate:"required"`
	Address  string    `json:"address" validate:"required"`
}

type siteUpdateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Address *string `json:"address,omitempty" validate:"omitempty,min=1"`
	Status  *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func (r siteUpdateRequest) toInput() (buildingsites.UpdateSiteInput, error) {
	input := buildingsites.UpdateSiteInput{Name: r.Name, Address: r.Address}
	if r.Status != nil {
		status, err := enums.ParseBuildingSiteStatus(*r.Status)
		if err != nil {
			return input, pkgerrors.Fields(map[string]string{"status": "must be active or inactive"})
		}
		input.Status = &status
	}
	return input, nil
}

// SiteList lists building sites; ?client_id narrows it to one client.
func SiteList(svc buildingsites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := buildingsites.ParseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Fields(map[string]string{"status": "must be all, active or inactive"}))
			return
		}
		params := buildingsites.ListParams{
			Search: validators.ParseSearch(r),
			Status: status,
			Page:   page,
		}

		var result *buildingsites.ListResult
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			clientID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Fields(map[string]string{"client_id": "invalid client id"}))
				return
			}
			result, err = svc.ListByClient(r.Context(), clientID, params)
		} else {
			result, err = svc.List(r.Context(), params)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func SiteCreate(svc buildingsites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body siteCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		site, err := svc.Create(r.Context(), buildingsites.CreateSiteInput{
			ClientID: body.ClientID,
			Name:     body.Name,
			Address:  body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, site)
	}
}

func SiteDetail(svc buildingsites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "buildingSiteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		site, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, site)
	}
}

func SiteUpdate(svc buildingsites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "buildingSiteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body siteUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		site, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, site)
	}
}

func SiteDelete(svc buildingsites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "buildingSiteId")
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

// SiteActions handles the building site page form: _action=edit-bs or
// create-delivery.
func SiteActions(sites buildingsites.Service, deliverySvc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := validators.ParseUUIDParam(r, "buildingSiteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ParseForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch validators.FormValue(r, "_action") {
		case "edit-bs":
			input := buildingsites.UpdateSiteInput{
				Name:    validators.OptionalFormValue(r, "name"),
				Address: validators.OptionalFormValue(r, "address"),
			}
			if raw := validators.FormValue(r, "status"); raw != "" {
				status, parseErr := enums.ParseBuildingSiteStatus(raw)
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Fields(map[string]string{"status": "must be active or inactive"}))
					return
				}
				input.Status = &status
			}
			site, err := sites.Update(r.Context(), siteID, input)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, site)

		case "create-delivery":
			input, err := parseDeliveryForm(r, siteID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if actor, actorErr := actorID(r); actorErr == nil {
				input.ActorID = &actor
			}
			delivery, err := deliverySvc.Create(r.Context(), input)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, delivery)

		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown action"))
		}
	}
}

// parseDeliveryForm reads the repeated rentableId fields, each paired with
// <id>_count and <id>_delivery_type (1 delivery, 2 return). Blank and zero
// counts are skipped.
func parseDeliveryForm(r *http.Request, siteID uuid.UUID) (deliveries.CreateInput, error) {
	input := deliveries.CreateInput{
		BuildingSiteID: siteID,
		Notes:          validators.OptionalFormValue(r, "notes"),
	}
	if raw := validators.FormValue(r, "date"); raw != "" {
		date, err := time.Parse(formDateLayout, raw)
		if err != nil {
			return input, pkgerrors.Fields(map[string]string{"date": "must be YYYY-MM-DD"})
		}
		input.Date = &date
	}

	problems := map[string]string{}
	for _, raw := range validators.FormValues(r, "rentableId") {
		rentableID, err := uuid.Parse(raw)
		if err != nil {
			problems["rentableId"] = fmt.Sprintf("invalid rentable id %q", raw)
			continue
		}
		countRaw := validators.FormValue(r, raw+"_count")
		if countRaw == "" {
			continue
		}
		count, err := strconv.Atoi(countRaw)
		if err != nil || count < 0 {
			problems[raw+"_count"] = "must be a non-negative whole number"
			continue
		}
		if count == 0 {
			continue
		}
		deliveryType := enums.DeliveryTypeDelivery
		if typeRaw := validators.FormValue(r, raw+"_delivery_type"); typeRaw != "" {
			parsed, err := enums.ParseDeliveryType(typeRaw)
			if err != nil {
				problems[raw+"_delivery_type"] = "must be 1 (delivery) or 2 (return)"
				continue
			}
			deliveryType = parsed
		}
		input.Units = append(input.Units, deliveries.UnitInput{
			RentableID: rentableID,
			Count:      count,
			Type:       deliveryType,
		})
	}
	if len(problems) > 0 {
		return input, pkgerrors.Fields(problems)
	}
	return input, nil
}

// SiteInventory returns what is currently on site, per rentable.
func SiteInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "buildingSiteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Snapshot(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func SiteLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "buildingSiteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.SiteReport(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func SiteItemLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := validators.ParseUUIDParam(r, "buildingSiteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rentableID, err := validators.ParseUUIDParam(r, "rentableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.ItemReport(r.Context(), siteID, rentableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// SiteLedgerWorkbook downloads the site ledger as an xlsx workbook.
func SiteLedgerWorkbook(svc ledger.Service, company config.CompanyConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "buildingSiteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.SiteReport(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, err := receipts.LedgerWorkbook(report, company)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render ledger workbook"))
			return
		}
		responses.WriteAttachment(w, receipts.ContentType, receipts.Filename("extrato", report.GeneratedAt), body)
	}
}
