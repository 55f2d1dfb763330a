package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/db"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cache stores serialized snapshots.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Service manages rentables and answers stock questions.
type Service interface {
	CreateRentable(ctx context.Context, input CreateRentableInput) (*RentableDTO, error)
	ListRentables(ctx context.Context) ([]RentableDTO, error)
	GetRentable(ctx context.Context, id uuid.UUID) (*RentableDTO, error)
	UpdateRentable(ctx context.Context, id uuid.UUID, input UpdateRentableInput) (*RentableDTO, error)
	DeleteRentable(ctx context.Context, id uuid.UUID) error

	Snapshot(ctx context.Context, siteID uuid.UUID) ([]SiteCount, error)
	InvalidateSite(ctx context.Context, siteID uuid.UUID)
	Availability(ctx context.Context) ([]Availability, error)
	ReconcileProjection(ctx context.Context) (ReconcileResult, error)
}

// ServiceParams groups the service dependencies.
type ServiceParams struct {
	Repo     *Repository
	Cache    Cache
	CacheKey func(siteID string) string
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	cache    Cache
	cacheKey func(string) string
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the inventory service. The cache is optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	svc := &service{repo: params.Repo, logg: params.Logger}
	if params.Cache != nil && params.CacheKey != nil && params.CacheTTL > 0 {
		svc.cache = params.Cache
		svc.cacheKey = params.CacheKey
		svc.cacheTTL = params.CacheTTL
	}
	return svc, nil
}

func (s *service) CreateRentable(ctx context.Context, input CreateRentableInput) (*RentableDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = trimOptional(input.Description)
	if err := validateRentable(input.Name, input.Count, input.UnitPrice); err != nil {
		return nil, err
	}

	rentable := input.ToModel()
	if err := s.repo.CreateRentable(ctx, rentable); err != nil {
		return nil, mapWriteError(err, "create rentable")
	}
	return FromModel(rentable), nil
}

func (s *service) ListRentables(ctx context.Context) ([]RentableDTO, error) {
	rows, err := s.repo.ListRentables(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rentables")
	}
	out := make([]RentableDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetRentable(ctx context.Context, id uuid.UUID) (*RentableDTO, error) {
	rentable, err := s.findRentable(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(rentable), nil
}

func (s *service) UpdateRentable(ctx context.Context, id uuid.UUID, input UpdateRentableInput) (*RentableDTO, error) {
	rentable, err := s.findRentable(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		rentable.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		rentable.Description = trimOptional(input.Description)
	}
	if input.Count != nil {
		rentable.Count = *input.Count
	}
	if input.UnitPrice != nil {
		rentable.UnitPrice = *input.UnitPrice
	}
	if err := validateRentable(rentable.Name, rentable.Count, rentable.UnitPrice); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRentable(ctx, rentable); err != nil {
		return nil, mapWriteError(err, "update rentable")
	}
	return FromModel(rentable), nil
}

// DeleteRentable removes a rentable no delivery references. Leftover
// projection rows have no units behind them and go with it.
func (s *service) DeleteRentable(ctx context.Context, id uuid.UUID) error {
	return s.repo.Transaction(ctx, func(repo *Repository) error {
		inUse, err := repo.RentableInUse(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check rentable usage")
		}
		if inUse {
			return pkgerrors.New(pkgerrors.CodeConflict, "rentable has deliveries")
		}
		if err := repo.DeleteRentableProjection(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear rentable projection")
		}
		if err := repo.DeleteRentable(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rentable not found")
			}
			return mapWriteError(err, "delete rentable")
		}
		return nil
	})
}

func (s *service) Snapshot(ctx context.Context, siteID uuid.UUID) ([]SiteCount, error) {
	exists, err := s.repo.SiteExists(ctx, siteID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load building site")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "building site not found")
	}

	if cached, ok := s.cachedSnapshot(ctx, siteID); ok {
		return cached, nil
	}

	rows, err := s.repo.SiteSnapshot(ctx, siteID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load site inventory")
	}
	if rows == nil {
		rows = []SiteCount{}
	}
	s.storeSnapshot(ctx, siteID, rows)
	return rows, nil
}

func (s *service) InvalidateSite(ctx context.Context, siteID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(siteID.String())); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithBuildingSiteID(ctx, siteID.String()), "inventory cache invalidation failed", err)
	}
}

func (s *service) Availability(ctx context.Context) ([]Availability, error) {
	rows, err := s.repo.Availability(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load availability")
	}
	for i := range rows {
		rows[i].Available = rows[i].Total - rows[i].OnSite
	}
	if rows == nil {
		rows = []Availability{}
	}
	return rows, nil
}

// ReconcileProjection rebuilds the projection from delivery units. It runs
// in one transaction holding the projection lock, and every drifted pair is
// rewritten from a live unit sum rather than the totals read up front.
func (s *service) ReconcileProjection(ctx context.Context) (ReconcileResult, error) {
	var (
		result  ReconcileResult
		touched map[uuid.UUID]struct{}
	)
	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		result = ReconcileResult{}
		touched = map[uuid.UUID]struct{}{}

		if err := repo.LockProjection(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock projection")
		}
		totals, err := repo.UnitTotals(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum delivery units")
		}
		projected, err := repo.ProjectionRows(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load projection")
		}

		type pair struct{ site, rentable uuid.UUID }
		want := make(map[pair]int, len(totals))
		for _, total := range totals {
			want[pair{total.BuildingSiteID, total.RentableID}] = total.Count
		}
		have := make(map[pair]int, len(projected))
		for _, row := range projected {
			key := pair{row.BuildingSiteID, row.RentableID}
			have[key] = row.Count
			if _, ok := want[key]; !ok {
				want[key] = 0
			}
		}

		for key, count := range want {
			result.Checked++
			current, hasRow := have[key]
			if count == current && (count != 0 || !hasRow) {
				continue
			}
			live, changed, err := repo.RecomputeProjection(ctx, key.site, key.rentable)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rewrite projection row")
			}
			if !changed {
				continue
			}
			if live == 0 {
				result.Removed++
			} else {
				result.Fixed++
			}
			touched[key.site] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	for siteID := range touched {
		s.InvalidateSite(ctx, siteID)
	}
	return result, nil
}

func (s *service) findRentable(ctx context.Context, id uuid.UUID) (*models.Rentable, error) {
	rentable, err := s.repo.FindRentable(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rentable not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rentable")
	}
	return rentable, nil
}

func (s *service) cachedSnapshot(ctx context.Context, siteID uuid.UUID) ([]SiteCount, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(siteID.String()))
	if err != nil || raw == "" {
		return nil, false
	}
	var rows []SiteCount
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *service) storeSnapshot(ctx context.Context, siteID uuid.UUID, rows []SiteCount) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(siteID.String()), string(payload), s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithBuildingSiteID(ctx, siteID.String()), "inventory cache write failed")
	}
}

func validateRentable(name string, count int, unitPrice decimal.Decimal) error {
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "name is required"
	}
	if count < 0 {
		fields["count"] = "count must not be negative"
	}
	if unitPrice.IsNegative() {
		fields["unit_price"] = "unit price must not be negative"
	}
	if len(fields) > 0 {
		return pkgerrors.Fields(fields)
	}
	return nil
}

func mapWriteError(err error, msg string) error {
	switch {
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.New(pkgerrors.CodeConflict, "rentable name already exists")
	case db.IsForeignKeyViolation(err):
		return pkgerrors.New(pkgerrors.CodeConflict, "rentable has deliveries")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
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
