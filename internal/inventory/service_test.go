package inventory

import (
	"context"
	"errors"
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

type memoryCache struct {
	data map[string]string
	gets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func siteKey(id string) string { return "inventory:" + id }

func newTestService(t *testing.T) (Service, *gorm.DB, *memoryCache) {
	t.Helper()
	conn := dbtest.Open(t)
	cache := newMemoryCache()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Cache:    cache,
		CacheKey: siteKey,
		CacheTTL: time.Minute,
	})
	require.NoError(t, err)
	return svc, conn, cache
}

func mustSite(t *testing.T, conn *gorm.DB) models.BuildingSite {
	t.Helper()
	client := models.Client{Name: "Cliente", Address: "Rua 1", PhoneNumber: "4100000000"}
	require.NoError(t, conn.Create(&client).Error)
	site := models.BuildingSite{ClientID: client.ID, Name: "Obra", Address: "Rua 2", Status: enums.BuildingSiteStatusActive}
	require.NoError(t, conn.Create(&site).Error)
	return site
}

func mustDeliver(t *testing.T, conn *gorm.DB, siteID uuid.UUID, units map[uuid.UUID]int) {
	t.Helper()
	delivery := models.Delivery{BuildingSiteID: siteID, Date: time.Now().UTC()}
	for rentableID, count := range units {
		delivery.Units = append(delivery.Units, models.DeliveryUnit{
			BuildingSiteID: siteID,
			RentableID:     rentableID,
			Count:          count,
			DeliveryType:   enums.DeliveryTypeForCount(count),
		})
	}
	require.NoError(t, conn.Create(&delivery).Error)
}

func TestCreateRentableValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRentable(ctx, CreateRentableInput{Name: " ", Count: -1, UnitPrice: decimal.NewFromInt(-1)})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Len(t, details, 3)

	created, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Andaime", Count: 615, UnitPrice: decimal.RequireFromString("1.25")})
	require.NoError(t, err)
	assert.Equal(t, 615, created.Count)

	_, err = svc.CreateRentable(ctx, CreateRentableInput{Name: "Andaime", Count: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestUpdateAndDeleteRentable(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Escora", Count: 10})
	require.NoError(t, err)

	count := 12
	desc := "  metálica "
	updated, err := svc.UpdateRentable(ctx, created.ID, UpdateRentableInput{Count: &count, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Count)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "metálica", *updated.Description)

	negative := -3
	_, err = svc.UpdateRentable(ctx, created.ID, UpdateRentableInput{Count: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	site := mustSite(t, conn)
	mustDeliver(t, conn, site.ID, map[uuid.UUID]int{created.ID: 2})
	assert.True(t, pkgerrors.IsCode(svc.DeleteRentable(ctx, created.ID), pkgerrors.CodeConflict))

	other, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Betoneira", Count: 1})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRentable(ctx, other.ID))
	_, err = svc.GetRentable(ctx, other.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.DeleteRentable(ctx, other.ID), pkgerrors.CodeNotFound))
}

func TestSnapshotSumsUnitsAndUsesCache(t *testing.T) {
	svc, conn, cache := newTestService(t)
	ctx := context.Background()
	site := mustSite(t, conn)

	frames, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Andaime", Count: 100})
	require.NoError(t, err)
	planks, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Prancha", Count: 50})
	require.NoError(t, err)

	mustDeliver(t, conn, site.ID, map[uuid.UUID]int{frames.ID: 30, planks.ID: 5})
	mustDeliver(t, conn, site.ID, map[uuid.UUID]int{frames.ID: -10, planks.ID: -5})

	snapshot, err := svc.Snapshot(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, frames.ID, snapshot[0].RentableID)
	assert.Equal(t, 20, snapshot[0].Count)
	assert.Contains(t, cache.data, siteKey(site.ID.String()))

	mustDeliver(t, conn, site.ID, map[uuid.UUID]int{frames.ID: 1})
	cached, err := svc.Snapshot(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, cached[0].Count)

	svc.InvalidateSite(ctx, site.ID)
	fresh, err := svc.Snapshot(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, fresh[0].Count)
}

func TestAvailabilityAndReconcile(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	site := mustSite(t, conn)

	frames, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Andaime", Count: 100})
	require.NoError(t, err)
	planks, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Prancha", Count: 50})
	require.NoError(t, err)

	mustDeliver(t, conn, site.ID, map[uuid.UUID]int{frames.ID: 30})
	// projection left stale on purpose, plus an orphan row on another site
	require.NoError(t, repo.ApplyDeltas(ctx, site.ID, map[uuid.UUID]int{frames.ID: 25}))
	other := mustSite(t, conn)
	require.NoError(t, repo.ApplyDeltas(ctx, other.ID, map[uuid.UUID]int{planks.ID: 4}))

	result, err := svc.ReconcileProjection(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Checked: 2, Fixed: 1, Removed: 1}, result)
	assert.True(t, result.Drifted())

	again, err := svc.ReconcileProjection(ctx)
	require.NoError(t, err)
	assert.False(t, again.Drifted())

	availability, err := svc.Availability(ctx)
	require.NoError(t, err)
	require.Len(t, availability, 2)
	assert.Equal(t, Availability{RentableID: frames.ID, RentableName: "Andaime", Total: 100, OnSite: 30, Available: 70}, availability[0])
	assert.Equal(t, 50, availability[1].Available)
}

func TestApplyDeltasAccumulatesAndDropsZeroRows(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	site := mustSite(t, conn)
	rentable := models.Rentable{Name: "Escora", Count: 20}
	require.NoError(t, conn.Create(&rentable).Error)

	require.NoError(t, repo.ApplyDeltas(ctx, site.ID, map[uuid.UUID]int{rentable.ID: 7}))
	require.NoError(t, repo.ApplyDeltas(ctx, site.ID, map[uuid.UUID]int{rentable.ID: -3}))

	counts, err := repo.ProjectedCounts(ctx, site.ID, []uuid.UUID{rentable.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, counts[rentable.ID])

	require.NoError(t, repo.ApplyDeltas(ctx, site.ID, map[uuid.UUID]int{rentable.ID: -4}))
	var rows int64
	require.NoError(t, conn.Model(&models.Inventory{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestSnapshotUnknownSiteIsNotFound(t *testing.T) {
	svc, _, cache := newTestService(t)

	_, err := svc.Snapshot(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, cache.data)
}

func TestReconcileKeepsDeliveryCommittedMidRun(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	site := mustSite(t, conn)

	frames, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Andaime", Count: 100})
	require.NoError(t, err)
	mustDeliver(t, conn, site.ID, map[uuid.UUID]int{frames.ID: 5})
	require.NoError(t, repo.ApplyDeltas(ctx, site.ID, map[uuid.UUID]int{frames.ID: 5}))

	// a delivery of 3 lands after unit totals were read but before the
	// projection is loaded
	fired := false
	require.NoError(t, conn.Callback().Query().Before("gorm:query").Register("test:late_delivery", func(d *gorm.DB) {
		if fired || d.Statement.Table != "inventories" {
			return
		}
		fired = true
		tx := d.Session(&gorm.Session{NewDB: true})
		delivery := models.Delivery{BuildingSiteID: site.ID, Date: time.Now().UTC(), Units: []models.DeliveryUnit{{
			BuildingSiteID: site.ID, RentableID: frames.ID, Count: 3, DeliveryType: enums.DeliveryTypeDelivery,
		}}}
		if err := tx.Create(&delivery).Error; err != nil {
			d.AddError(err)
			return
		}
		if err := repo.WithTx(tx).ApplyDeltas(d.Statement.Context, site.ID, map[uuid.UUID]int{frames.ID: 3}); err != nil {
			d.AddError(err)
		}
	}))
	t.Cleanup(func() { _ = conn.Callback().Query().Remove("test:late_delivery") })

	result, err := svc.ReconcileProjection(ctx)
	require.NoError(t, err)
	require.True(t, fired)
	assert.False(t, result.Drifted())

	counts, err := repo.ProjectedCounts(ctx, site.ID, []uuid.UUID{frames.ID})
	require.NoError(t, err)
	sum, err := repo.UnitSum(ctx, site.ID, frames.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, sum)
	assert.Equal(t, sum, counts[frames.ID])
}

func TestDeleteRentableAfterItsDeliveryIsGone(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	site := mustSite(t, conn)

	props, err := svc.CreateRentable(ctx, CreateRentableInput{Name: "Escora", Count: 10})
	require.NoError(t, err)
	require.NoError(t, repo.ApplyDeltas(ctx, site.ID, map[uuid.UUID]int{props.ID: 2}))

	// the projection row holds the rentable in place at the schema level
	assert.Error(t, repo.DeleteRentable(ctx, props.ID))

	// no units reference it, so the leftover row goes with the rentable
	require.NoError(t, svc.DeleteRentable(ctx, props.ID))
	_, err = svc.GetRentable(ctx, props.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
