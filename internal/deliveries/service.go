package deliveries

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/pkg/db"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
	"github.com/angelmondragon/sitestock-backend/pkg/metrics"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotInvalidator interface {
	InvalidateSite(ctx context.Context, siteID uuid.UUID)
}

// Service records equipment movements and keeps the inventory projection
// in step with them.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*DeliveryDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DeliveryDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateDate(ctx context.Context, id uuid.UUID, date time.Time) (*DeliveryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups the service dependencies.
type ServiceParams struct {
	DB          txRunner
	Repo        *Repository
	Inventory   *inventory.Repository
	Invalidator snapshotInvalidator
	Metrics     *metrics.DeliveryMetrics
	Logger      *logger.Logger
	Clock       func() time.Time
}

type service struct {
	db          txRunner
	repo        *Repository
	inventory   *inventory.Repository
	invalidator snapshotInvalidator
	metrics     *metrics.DeliveryMetrics
	logg        *logger.Logger
	clock       func() time.Time
}

// NewService wires the deliveries service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		db:          params.DB,
		repo:        params.Repo,
		inventory:   params.Inventory,
		invalidator: params.Invalidator,
		metrics:     params.Metrics,
		logg:        params.Logger,
		clock:       clock,
	}, nil
}

// signedUnit is a merged movement ready to store.
type signedUnit struct {
	rentableID uuid.UUID
	count      int
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DeliveryDTO, error) {
	if input.BuildingSiteID == uuid.Nil {
		return nil, pkgerrors.Fields(map[string]string{"building_site_id": "building site is required"})
	}
	units, err := mergeUnits(input.Units)
	if err != nil {
		return nil, err
	}

	date := s.clock().UTC()
	if input.Date != nil && !input.Date.IsZero() {
		date = input.Date.UTC()
	}

	delivery := &models.Delivery{
		BuildingSiteID: input.BuildingSiteID,
		Date:           date,
		Notes:          trimOptional(input.Notes),
		CreatedByID:    input.ActorID,
	}
	deltas := make(map[uuid.UUID]int, len(units))
	rentableIDs := make([]uuid.UUID, 0, len(units))
	for _, unit := range units {
		delivery.Units = append(delivery.Units, models.DeliveryUnit{
			BuildingSiteID: input.BuildingSiteID,
			RentableID:     unit.rentableID,
			Count:          unit.count,
			DeliveryType:   enums.DeliveryTypeForCount(unit.count),
		})
		deltas[unit.rentableID] = unit.count
		rentableIDs = append(rentableIDs, unit.rentableID)
	}

	var negative []uuid.UUID
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inv := s.inventory.WithTx(tx)

		site, err := repo.FindSite(ctx, input.BuildingSiteID)
		if err != nil {
			return mapLookupError(err, "building site")
		}
		if site.Status != enums.BuildingSiteStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "building site is inactive")
		}

		if err := ensureRentablesExist(ctx, inv, rentableIDs); err != nil {
			return err
		}

		if err := repo.Create(ctx, delivery); err != nil {
			return mapWriteError(err, "create delivery")
		}
		if err := inv.ApplyDeltas(ctx, input.BuildingSiteID, deltas); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory projection")
		}

		counts, err := inv.ProjectedCounts(ctx, input.BuildingSiteID, rentableIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory projection")
		}
		for _, id := range rentableIDs {
			if counts[id] < 0 {
				negative = append(negative, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, input.BuildingSiteID)
	s.warnNegative(ctx, delivery.ID, input.BuildingSiteID, negative)
	s.metrics.IncOperation("create")
	for _, unit := range delivery.Units {
		s.metrics.AddUnits(unit.DeliveryType.String(), unit.Count)
	}

	return s.Get(ctx, delivery.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DeliveryDTO, error) {
	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "delivery")
	}
	return FromModel(delivery), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := pagination.Normalize(params.Page.Skip, params.Page.Top)
	rows, total, err := s.repo.List(ctx, params.BuildingSiteID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries")
	}
	items := make([]DeliveryDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &ListResult{Items: items, Page: pagination.NewPage(total, page)}, nil
}

// UpdateDate moves a delivery in time. Ledgers are recomputed on read, so
// nothing else needs to change.
func (s *service) UpdateDate(ctx context.Context, id uuid.UUID, date time.Time) (*DeliveryDTO, error) {
	if date.IsZero() {
		return nil, pkgerrors.Fields(map[string]string{"date": "date is required"})
	}
	if err := s.repo.UpdateDate(ctx, id, date); err != nil {
		return nil, mapLookupError(err, "delivery")
	}
	return s.Get(ctx, id)
}

// Delete removes a delivery and reverses its projection deltas.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var siteID uuid.UUID
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookupError(err, "delivery")
		}
		siteID = delivery.BuildingSiteID

		reverse := make(map[uuid.UUID]int, len(delivery.Units))
		for _, unit := range delivery.Units {
			reverse[unit.RentableID] -= unit.Count
		}
		if err := repo.Delete(ctx, id); err != nil {
			return mapWriteError(err, "delete delivery")
		}
		if err := s.inventory.WithTx(tx).ApplyDeltas(ctx, siteID, reverse); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory projection")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, siteID)
	s.metrics.IncOperation("delete")
	return nil
}

func (s *service) afterWrite(ctx context.Context, siteID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateSite(ctx, siteID)
	}
}

func (s *service) warnNegative(ctx context.Context, deliveryID, siteID uuid.UUID, rentableIDs []uuid.UUID) {
	if s.logg == nil || len(rentableIDs) == 0 {
		return
	}
	ids := make([]string, 0, len(rentableIDs))
	for _, id := range rentableIDs {
		ids = append(ids, id.String())
	}
	logCtx := s.logg.WithBuildingSiteID(ctx, siteID.String())
	logCtx = s.logg.WithDeliveryID(logCtx, deliveryID.String())
	logCtx = s.logg.WithField(logCtx, "rentable_ids", strings.Join(ids, ","))
	s.logg.Warn(logCtx, "delivery left site balance below zero")
}

// mergeUnits validates raw units, signs them, merges repeated rentables and
// drops anything that nets to zero. First-seen order is kept.
func mergeUnits(units []UnitInput) ([]signedUnit, error) {
	fields := map[string]string{}
	order := make([]uuid.UUID, 0, len(units))
	sums := make(map[uuid.UUID]int, len(units))

	for i, unit := range units {
		key := fmt.Sprintf("units[%d]", i)
		switch {
		case unit.RentableID == uuid.Nil:
			fields[key+".rentable_id"] = "rentable is required"
			continue
		case unit.Count < 0:
			fields[key+".count"] = "count must not be negative"
			continue
		case !unit.Type.IsValid():
			fields[key+".delivery_type"] = "delivery type must be delivery or return"
			continue
		}
		if unit.Count == 0 {
			continue
		}
		if _, seen := sums[unit.RentableID]; !seen {
			order = append(order, unit.RentableID)
		}
		sums[unit.RentableID] += unit.Count * unit.Type.Sign()
	}
	if len(fields) > 0 {
		return nil, pkgerrors.Fields(fields)
	}

	merged := make([]signedUnit, 0, len(order))
	for _, id := range order {
		if sums[id] == 0 {
			continue
		}
		merged = append(merged, signedUnit{rentableID: id, count: sums[id]})
	}
	if len(merged) == 0 {
		return nil, pkgerrors.Fields(map[string]string{"units": "at least one non-zero unit is required"})
	}
	return merged, nil
}

func ensureRentablesExist(ctx context.Context, repo *inventory.Repository, ids []uuid.UUID) error {
	found, err := repo.FindRentables(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rentables")
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, r := range found {
		known[r.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return pkgerrors.Fields(map[string]string{"rentable_id": "unknown rentable " + strings.Join(missing, ", ")})
}

func mapLookupError(err error, what string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}

func mapWriteError(err error, msg string) error {
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.New(pkgerrors.CodeConflict, "referenced record does not exist")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
