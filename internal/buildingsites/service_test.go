package buildingsites

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/pkg/db/dbtest"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB, models.Client) {
	t.Helper()
	conn := dbtest.Open(t)
	inv, err := inventory.NewService(inventory.ServiceParams{Repo: inventory.NewRepository(conn)})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), inv)
	require.NoError(t, err)

	client := models.Client{Name: "Construtora Delta", Address: "Rua D", PhoneNumber: "41911112222"}
	require.NoError(t, conn.Create(&client).Error)
	return svc, conn, client
}

func TestCreateDefaultsToActive(t *testing.T) {
	svc, _, client := newTestService(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, CreateSiteInput{ClientID: client.ID, Name: " Obra Sul ", Address: "Rua E"})
	require.NoError(t, err)
	assert.Equal(t, enums.BuildingSiteStatusActive, site.Status)
	assert.Equal(t, "Obra Sul", site.Name)

	_, err = svc.Create(ctx, CreateSiteInput{ClientID: uuid.New(), Name: "X", Address: "Y"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Create(ctx, CreateSiteInput{ClientID: client.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListFilterKeepsTotalConsistent(t *testing.T) {
	svc, _, client := newTestService(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"Obra A", "Obra B", "Obra C"} {
		site, err := svc.Create(ctx, CreateSiteInput{ClientID: client.ID, Name: name, Address: "Rua"})
		require.NoError(t, err)
		ids = append(ids, site.ID)
	}
	inactive := enums.BuildingSiteStatusInactive
	_, err := svc.Update(ctx, ids[1], UpdateSiteInput{Status: &inactive})
	require.NoError(t, err)

	active, err := svc.List(ctx, ListParams{Status: StatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(2), active.Page.Total)
	assert.Len(t, active.Items, 2)

	onlyInactive, err := svc.List(ctx, ListParams{Status: StatusInactive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), onlyInactive.Page.Total)
	assert.Equal(t, ids[1], onlyInactive.Items[0].ID)

	all, err := svc.ListByClient(ctx, client.ID, ListParams{Status: StatusAll, Search: "obra", Page: pagination.Params{Top: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Page.Total)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, "Construtora Delta", all.Items[0].ClientName)

	none, err := svc.ListByClient(ctx, uuid.New(), ListParams{})
	require.NoError(t, err)
	assert.Zero(t, none.Page.Total)
}

func TestGetIncludesDeliveriesAndInventory(t *testing.T) {
	svc, conn, client := newTestService(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, CreateSiteInput{ClientID: client.ID, Name: "Obra", Address: "Rua"})
	require.NoError(t, err)
	rentable := models.Rentable{Name: "Andaime", Count: 10}
	require.NoError(t, conn.Create(&rentable).Error)

	for i, count := range []int{6, -2} {
		delivery := models.Delivery{
			BuildingSiteID: site.ID,
			Date:           time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Units: []models.DeliveryUnit{{
				BuildingSiteID: site.ID, RentableID: rentable.ID, Count: count,
				DeliveryType: enums.DeliveryTypeForCount(count),
			}},
		}
		require.NoError(t, conn.Create(&delivery).Error)
	}

	detail, err := svc.Get(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "41911112222", detail.ClientPhone)
	require.Len(t, detail.Deliveries, 2)
	assert.Equal(t, -2, detail.Deliveries[0].Units[0].Count, "newest delivery first")
	require.Len(t, detail.Inventory, 1)
	assert.Equal(t, 4, detail.Inventory[0].Count)

	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, site.ID), pkgerrors.CodeConflict))
}

func TestUpdateValidationAndDelete(t *testing.T) {
	svc, _, client := newTestService(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, CreateSiteInput{ClientID: client.ID, Name: "Obra", Address: "Rua"})
	require.NoError(t, err)

	blank := " "
	_, err = svc.Update(ctx, site.ID, UpdateSiteInput{Name: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	bogus := enums.BuildingSiteStatus("paused")
	_, err = svc.Update(ctx, site.ID, UpdateSiteInput{Status: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.Delete(ctx, site.ID))
	_, err = svc.Get(ctx, site.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, site.ID), pkgerrors.CodeNotFound))
}

func TestParseStatusFilter(t *testing.T) {
	for raw, want := range map[string]StatusFilter{"": StatusAll, "ALL": StatusAll, "active": StatusActive, " inactive ": StatusInactive} {
		got, err := ParseStatusFilter(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStatusFilter("archived")
	assert.Error(t, err)
}
