package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/sitestock-backend/pkg/cnpj"
	"github.com/angelmondragon/sitestock-backend/pkg/db"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type companyLookup interface {
	Lookup(ctx context.Context, raw string) (*cnpj.Company, error)
}

// Service manages clients.
type Service interface {
	Create(ctx context.Context, input CreateClientInput) (*ClientDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ClientDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*ClientDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	LookupCompany(ctx context.Context, raw string) (*CompanyPrefill, error)
}

type service struct {
	repo     *Repository
	registry companyLookup
}

// NewService builds the clients service. The registry is optional; without it
// LookupCompany reports a dependency error.
func NewService(repo *Repository, registry companyLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("clients repository required")
	}
	return &service{repo: repo, registry: registry}, nil
}

func (s *service) Create(ctx context.Context, input CreateClientInput) (*ClientDTO, error) {
	client := &models.Client{
		Name:          strings.TrimSpace(input.Name),
		Address:       strings.TrimSpace(input.Address),
		PhoneNumber:   strings.TrimSpace(input.PhoneNumber),
		IsLegalEntity: input.IsLegalEntity,
	}
	registration, err := normalizeRegistration(input.RegistrationNumber, input.IsLegalEntity)
	if err := validateClient(client, err); err != nil {
		return nil, err
	}
	client.RegistrationNumber = registration

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}
	return FromModel(client), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ClientDTO, error) {
	client, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(client), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := pagination.Normalize(params.Page.Skip, params.Page.Top)
	rows, total, err := s.repo.List(ctx, params.Search, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	items := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &ListResult{Items: items, Page: pagination.NewPage(total, page)}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*ClientDTO, error) {
	client, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		client.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		client.Address = strings.TrimSpace(*input.Address)
	}
	if input.PhoneNumber != nil {
		client.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.IsLegalEntity != nil {
		client.IsLegalEntity = *input.IsLegalEntity
	}
	current := client.RegistrationNumber
	if input.RegistrationNumber != nil {
		current = input.RegistrationNumber
	}
	registration, regErr := normalizeRegistration(current, client.IsLegalEntity)
	if err := validateClient(client, regErr); err != nil {
		return nil, err
	}
	client.RegistrationNumber = registration

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client")
	}
	return FromModel(client), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	sites, err := s.repo.CountSites(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count client sites")
	}
	if sites > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "client has building sites").
			WithDetails(map[string]int64{"building_sites": sites})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		case db.IsForeignKeyViolation(err):
			return pkgerrors.New(pkgerrors.CodeConflict, "client has building sites")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete client")
	}
	return nil
}

func (s *service) LookupCompany(ctx context.Context, raw string) (*CompanyPrefill, error) {
	if s.registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "company registry not configured")
	}
	company, err := s.registry.Lookup(ctx, raw)
	if err != nil {
		return nil, err
	}

	name := company.LegalName
	if name == "" {
		name = company.TradeName
	}
	return &CompanyPrefill{
		Name:               name,
		TradeName:          company.TradeName,
		Address:            company.Address(),
		PhoneNumber:        company.Phone,
		RegistrationNumber: company.CNPJ,
		IsLegalEntity:      true,
		RegistrationStatus: company.Registration,
	}, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	return client, nil
}

var errRegistration = errors.New("invalid registration number")

// normalizeRegistration returns digits only. Companies need a valid CNPJ;
// people may leave it blank but a given number must be a valid CPF.
func normalizeRegistration(raw *string, legalEntity bool) (*string, error) {
	var digits string
	if raw != nil {
		digits = cnpj.Normalize(*raw)
	}
	switch {
	case digits == "" && legalEntity:
		return nil, errRegistration
	case digits == "":
		return nil, nil
	case legalEntity && !cnpj.ValidCNPJ(digits):
		return nil, errRegistration
	case !legalEntity && !cnpj.ValidCPF(digits):
		return nil, errRegistration
	}
	return &digits, nil
}

func validateClient(client *models.Client, registrationErr error) error {
	fields := map[string]string{}
	if client.Name == "" {
		fields["name"] = "name is required"
	}
	if client.Address == "" {
		fields["address"] = "address is required"
	}
	if client.PhoneNumber == "" {
		fields["phone_number"] = "phone number is required"
	}
	if registrationErr != nil {
		if client.IsLegalEntity {
			fields["registration_number"] = "a valid CNPJ is required"
		} else {
			fields["registration_number"] = "invalid CPF"
		}
	}
	if len(fields) > 0 {
		return pkgerrors.Fields(fields)
	}
	return nil
}
