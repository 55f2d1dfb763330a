package buildingsites

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/pkg/db"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type snapshotter interface {
	Snapshot(ctx context.Context, siteID uuid.UUID) ([]inventory.SiteCount, error)
}

// Service manages building sites.
type Service interface {
	Create(ctx context.Context, input CreateSiteInput) (*SiteDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SiteDetail, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, params ListParams) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateSiteInput) (*SiteDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      *Repository
	inventory snapshotter
}

// NewService builds the building sites service.
func NewService(repo *Repository, inv snapshotter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("building sites repository required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory snapshotter required")
	}
	return &service{repo: repo, inventory: inv}, nil
}

func (s *service) Create(ctx context.Context, input CreateSiteInput) (*SiteDTO, error) {
	site := &models.BuildingSite{
		ClientID: input.ClientID,
		Name:     strings.TrimSpace(input.Name),
		Address:  strings.TrimSpace(input.Address),
		Status:   enums.BuildingSiteStatusActive,
	}
	if err := validateSite(site, input.ClientID == uuid.Nil); err != nil {
		return nil, err
	}

	exists, err := s.repo.ClientExists(ctx, input.ClientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}

	if err := s.repo.Create(ctx, site); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create building site")
	}
	return FromModel(site), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SiteDetail, error) {
	site, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	snapshot, err := s.inventory.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &SiteDetail{
		SiteDTO:    *FromModel(site),
		Deliveries: make([]deliveries.DeliveryDTO, 0, len(site.Deliveries)),
		Inventory:  snapshot,
	}
	if site.Client != nil {
		detail.ClientPhone = site.Client.PhoneNumber
	}
	for i := range site.Deliveries {
		detail.Deliveries = append(detail.Deliveries, *deliveries.FromModel(&site.Deliveries[i]))
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	return s.list(ctx, nil, params)
}

func (s *service) ListByClient(ctx context.Context, clientID uuid.UUID, params ListParams) (*ListResult, error) {
	return s.list(ctx, &clientID, params)
}

func (s *service) list(ctx context.Context, clientID *uuid.UUID, params ListParams) (*ListResult, error) {
	var status *enums.BuildingSiteStatus
	if st, ok := params.Status.status(); ok {
		status = &st
	}
	page := pagination.Normalize(params.Page.Skip, params.Page.Top)

	rows, total, err := s.repo.List(ctx, params.Search, status, clientID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list building sites")
	}
	items := make([]SiteDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &ListResult{Items: items, Page: pagination.NewPage(total, page)}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateSiteInput) (*SiteDTO, error) {
	site, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}

	if input.Name != nil {
		site.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		site.Address = strings.TrimSpace(*input.Address)
	}
	if input.Status != nil {
		site.Status = *input.Status
	}
	if err := validateSite(site, false); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, site); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update building site")
	}
	return FromModel(site), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountDeliveries(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count deliveries")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "building site has deliveries").
			WithDetails(map[string]int64{"deliveries": count})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "building site has deliveries")
		}
		return mapLookupError(err)
	}
	return nil
}

func validateSite(site *models.BuildingSite, missingClient bool) error {
	fields := map[string]string{}
	if missingClient {
		fields["client_id"] = "client is required"
	}
	if site.Name == "" {
		fields["name"] = "name is required"
	}
	if site.Address == "" {
		fields["address"] = "address is required"
	}
	if !site.Status.IsValid() {
		fields["status"] = "status must be active or inactive"
	}
	if len(fields) > 0 {
		return pkgerrors.Fields(fields)
	}
	return nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "building site not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load building site")
}
