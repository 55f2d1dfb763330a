package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/db/dbtest"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	site     models.BuildingSite
	frames   models.Rentable
	planks   models.Rentable
	svc      Service
	database *gorm.DB
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	conn := dbtest.Open(t)

	client := models.Client{Name: "Construtora Alfa", Address: "Rua A, 1", PhoneNumber: "41999990000"}
	require.NoError(t, conn.Create(&client).Error)
	site := models.BuildingSite{ClientID: client.ID, Name: "Obra Centro", Address: "Rua B, 2", Status: enums.BuildingSiteStatusActive}
	require.NoError(t, conn.Create(&site).Error)
	frames := models.Rentable{Name: "Andaime", Count: 615, UnitPrice: decimal.RequireFromString("0.50")}
	planks := models.Rentable{Name: "Prancha", Count: 100, UnitPrice: decimal.NewFromInt(2)}
	require.NoError(t, conn.Create(&frames).Error)
	require.NoError(t, conn.Create(&planks).Error)

	svc, err := NewService(NewRepository(conn), nil, func() time.Time { return now })
	require.NoError(t, err)
	return fixture{site: site, frames: frames, planks: planks, svc: svc, database: conn}
}

func (f fixture) deliver(t *testing.T, at time.Time, rentable models.Rentable, count int) {
	t.Helper()
	delivery := models.Delivery{
		BuildingSiteID: f.site.ID,
		Date:           at,
		Units: []models.DeliveryUnit{{
			BuildingSiteID: f.site.ID,
			RentableID:     rentable.ID,
			Count:          count,
			DeliveryType:   enums.DeliveryTypeForCount(count),
		}},
	}
	require.NoError(t, f.database.Create(&delivery).Error)
}

func TestSiteReportGroupsByRentable(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, start.AddDate(0, 0, 10))

	f.deliver(t, start, f.planks, 5)
	f.deliver(t, start, f.frames, 100)
	f.deliver(t, start.AddDate(0, 0, 4), f.frames, -40)

	report, err := f.svc.SiteReport(context.Background(), f.site.ID)
	require.NoError(t, err)
	assert.Equal(t, "Construtora Alfa", report.ClientName)
	require.Len(t, report.Items, 2)

	frames := report.Items[0]
	assert.Equal(t, "Andaime", frames.RentableName)
	require.Len(t, frames.Rows, 2)
	assert.Equal(t, 4, frames.Rows[0].Days)
	assert.Equal(t, 60, frames.Totals.Balance)
	// 100*4 + 60*6 = 760 balance days at 0.50
	assert.Equal(t, 760, frames.Totals.BalanceDays)
	assert.True(t, frames.Totals.Value.Equal(decimal.NewFromInt(380)), frames.Totals.Value.String())

	planks := report.Items[1]
	assert.Equal(t, 5, planks.Totals.Balance)
	assert.True(t, planks.Totals.Value.Equal(decimal.NewFromInt(100)))

	assert.True(t, report.TotalValue.Equal(decimal.NewFromInt(480)))
}

func TestSiteReportMissingSite(t *testing.T) {
	f := newFixture(t, time.Now())
	_, err := f.svc.SiteReport(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestItemReportWithoutMovements(t *testing.T) {
	f := newFixture(t, time.Now())
	item, err := f.svc.ItemReport(context.Background(), f.site.ID, f.planks.ID)
	require.NoError(t, err)
	assert.Empty(t, item.Rows)
	assert.Equal(t, "Prancha", item.RentableName)
	assert.Equal(t, 0, item.Totals.Balance)

	_, err = f.svc.ItemReport(context.Background(), f.site.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestItemReportFiltersRentable(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, start.AddDate(0, 0, 2))
	f.deliver(t, start, f.frames, 8)
	f.deliver(t, start, f.planks, 3)

	item, err := f.svc.ItemReport(context.Background(), f.site.ID, f.frames.ID)
	require.NoError(t, err)
	require.Len(t, item.Rows, 1)
	assert.Equal(t, 8, item.Rows[0].Balance)
	assert.Equal(t, 2, item.Rows[0].Days)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	assert.Error(t, err)
}
