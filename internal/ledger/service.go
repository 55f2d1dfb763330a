package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemLedger is the ledger of one rentable at one building site.
type ItemLedger struct {
	RentableID   uuid.UUID       `json:"rentable_id"`
	RentableName string          `json:"rentable_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Rows         []Row           `json:"rows"`
	Totals       Totals          `json:"totals"`
}

// Report holds every item ledger of a building site.
type Report struct {
	BuildingSiteID   uuid.UUID       `json:"building_site_id"`
	BuildingSiteName string          `json:"building_site_name"`
	Address          string          `json:"address"`
	ClientName       string          `json:"client_name"`
	GeneratedAt      time.Time       `json:"generated_at"`
	Items            []ItemLedger    `json:"items"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

// Service builds ledgers from the stored delivery history. Nothing is
// persisted; every call recomputes from the full history.
type Service interface {
	SiteReport(ctx context.Context, siteID uuid.UUID) (*Report, error)
	ItemReport(ctx context.Context, siteID, rentableID uuid.UUID) (*ItemLedger, error)
}

type service struct {
	repo  Repository
	logg  *logger.Logger
	clock func() time.Time
}

// NewService wires a ledger service. A nil clock uses time.Now.
func NewService(repo Repository, logg *logger.Logger, clock func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, logg: logg, clock: clock}, nil
}

func (s *service) SiteReport(ctx context.Context, siteID uuid.UUID) (*Report, error) {
	site, err := s.repo.FindSite(ctx, siteID)
	if err != nil {
		return nil, mapLookupError(err, "building site")
	}

	rows, err := s.repo.ListSiteMovements(ctx, siteID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list site movements")
	}

	now := s.clock().UTC()
	report := &Report{
		BuildingSiteID:   site.ID,
		BuildingSiteName: site.Name,
		Address:          site.Address,
		GeneratedAt:      now,
		Items:            []ItemLedger{},
		TotalValue:       decimal.Zero,
	}
	if site.Client != nil {
		report.ClientName = site.Client.Name
	}

	for _, group := range groupByRentable(rows) {
		item := buildItem(group, now)
		if item.Totals.Balance < 0 && s.logg != nil {
			logCtx := s.logg.WithBuildingSiteID(ctx, siteID.String())
			logCtx = s.logg.WithField(logCtx, "rentable_id", item.RentableID.String())
			s.logg.Warn(logCtx, "ledger balance below zero")
		}
		report.TotalValue = report.TotalValue.Add(item.Totals.Value)
		report.Items = append(report.Items, item)
	}
	return report, nil
}

func (s *service) ItemReport(ctx context.Context, siteID, rentableID uuid.UUID) (*ItemLedger, error) {
	if _, err := s.repo.FindSite(ctx, siteID); err != nil {
		return nil, mapLookupError(err, "building site")
	}
	rentable, err := s.repo.FindRentable(ctx, rentableID)
	if err != nil {
		return nil, mapLookupError(err, "rentable")
	}

	rows, err := s.repo.ListSiteMovements(ctx, siteID, &rentableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list item movements")
	}

	if len(rows) == 0 {
		return &ItemLedger{
			RentableID:   rentable.ID,
			RentableName: rentable.Name,
			UnitPrice:    rentable.UnitPrice,
			Rows:         []Row{},
			Totals:       Summarize(nil),
		}, nil
	}
	item := buildItem(rows, s.clock().UTC())
	return &item, nil
}

// groupByRentable splits rows into runs sharing a rentable, keeping the
// query's order.
func groupByRentable(rows []MovementRow) [][]MovementRow {
	var groups [][]MovementRow
	index := map[uuid.UUID]int{}
	for _, row := range rows {
		i, ok := index[row.RentableID]
		if !ok {
			i = len(groups)
			index[row.RentableID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], row)
	}
	return groups
}

func buildItem(rows []MovementRow, now time.Time) ItemLedger {
	first := rows[0]
	movements := make([]Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, Movement{
			DeliveryID: row.DeliveryID,
			Date:       row.Date,
			Count:      row.Count,
		})
	}
	ledgerRows := Build(movements, first.UnitPrice, now)
	return ItemLedger{
		RentableID:   first.RentableID,
		RentableName: first.RentableName,
		UnitPrice:    first.UnitPrice,
		Rows:         ledgerRows,
		Totals:       Summarize(ledgerRows),
	}
}

func mapLookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
