package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/sitestock-backend/api/responses"
	"github.com/angelmondragon/sitestock-backend/api/validators"
	"github.com/angelmondragon/sitestock-backend/internal/clients"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
)

type clientCreateRequest struct {
	Name               string  `json:"name" validate:"required"`
	Address            string  `json:"address" validate:"required"`
	PhoneNumber        string  `json:"phone_number" validate:"required"`
	RegistrationNumber *string `json:"registration_number,omitempty"`
	IsLegalEntity      bool    `json:"is_legal_entity"`
}

func (r clientCreateRequest) toInput() clients.CreateClientInput {
	return clients.CreateClientInput{
		Name:               r.Name,
		Address:            r.Address,
		PhoneNumber:        r.PhoneNumber,
		RegistrationNumber: r.RegistrationNumber,
		IsLegalEntity:      r.IsLegalEntity,
	}
}

type clientUpdateRequest struct {
	Name               *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Address            *string `json:"address,omitempty" validate:"omitempty,min=1"`
	PhoneNumber        *string `json:"phone_number,omitempty" validate:"omitempty,min=1"`
	RegistrationNumber *string `json:"registration_number,omitempty"`
	IsLegalEntity      *bool   `json:"is_legal_entity,omitempty"`
}

func (r clientUpdateRequest) toInput() clients.UpdateClientInput {
	return clients.UpdateClientInput{
		Name:               r.Name,
		Address:            r.Address,
		PhoneNumber:        r.PhoneNumber,
		RegistrationNumber: r.RegistrationNumber,
		IsLegalEntity:      r.IsLegalEntity,
	}
}

func ClientList(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), clients.ListParams{
			Search: validators.ParseSearch(r),
			Page:   page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ClientCreate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body clientCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

func ClientDetail(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ClientUpdate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body clientUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ClientDelete(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "clientId")
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

// ClientActions handles the client list form: _action=create or delete.
func ClientActions(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validators.ParseForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch validators.FormValue(r, "_action") {
		case "create":
			client, err := svc.Create(r.Context(), clients.CreateClientInput{
				Name:               validators.FormValue(r, "name"),
				Address:            validators.FormValue(r, "address"),
				PhoneNumber:        validators.FormValue(r, "phoneNumber"),
				RegistrationNumber: validators.OptionalFormValue(r, "registrationNumber"),
				IsLegalEntity:      validators.FormBool(r, "isLegalEntity"),
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, client)

		case "delete":
			id, err := uuid.Parse(validators.FormValue(r, "id"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Fields(map[string]string{"id": "invalid client id"}))
				return
			}
			if err := svc.Delete(r.Context(), id); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]string{"status": "deleted"})

		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown action"))
		}
	}
}

// ClientLookup prefills the client form from the public company registry.
func ClientLookup(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefill, err := svc.LookupCompany(r.Context(), chi.URLParam(r, "cnpj"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, prefill)
	}
}
