package inventory

import (
	"context"

	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists rentables and the per-site inventory projection.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateRentable(ctx context.Context, rentable *models.Rentable) error {
	return r.db.WithContext(ctx).Create(rentable).Error
}

func (r *Repository) ListRentables(ctx context.Context) ([]models.Rentable, error) {
	var rows []models.Rentable
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindRentable(ctx context.Context, id uuid.UUID) (*models.Rentable, error) {
	var rentable models.Rentable
	if err := r.db.WithContext(ctx).First(&rentable, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rentable, nil
}

// FindRentables loads the rentables with the given ids; missing ids are
// simply absent from the result.
func (r *Repository) FindRentables(ctx context.Context, ids []uuid.UUID) ([]models.Rentable, error) {
	var rows []models.Rentable
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) UpdateRentable(ctx context.Context, rentable *models.Rentable) error {
	return r.db.WithContext(ctx).Save(rentable).Error
}

func (r *Repository) DeleteRentable(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Rentable{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RentableInUse reports whether any delivery unit references the rentable.
func (r *Repository) RentableInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DeliveryUnit{}).Where("rentable_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SiteSnapshot sums delivery units per rentable for one site, skipping
// rentables whose balance is back to zero.
func (r *Repository) SiteSnapshot(ctx context.Context, siteID uuid.UUID) ([]SiteCount, error) {
	var rows []SiteCount
	err := r.db.WithContext(ctx).
		Table("delivery_units").
		Select("delivery_units.rentable_id AS rentable_id, rentables.name AS rentable_name, SUM(delivery_units.count) AS count").
		Joins("JOIN rentables ON rentables.id = delivery_units.rentable_id").
		Where("delivery_units.building_site_id = ?", siteID).
		Group("delivery_units.rentable_id, rentables.name").
		Having("SUM(delivery_units.count) <> 0").
		Order("rentables.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Availability lists every rentable with the quantity out on sites according
// to the projection.
func (r *Repository) Availability(ctx context.Context) ([]Availability, error) {
	onSite := r.db.
		Model(&models.Inventory{}).
		Select("rentable_id, SUM(count) AS on_site").
		Group("rentable_id")

	var rows []Availability
	err := r.db.WithContext(ctx).
		Table("rentables").
		Select("rentables.id AS rentable_id, rentables.name AS rentable_name, rentables.count AS total, COALESCE(placed.on_site, 0) AS on_site").
		Joins("LEFT JOIN (?) AS placed ON placed.rentable_id = rentables.id", onSite).
		Order("rentables.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ApplyDeltas adds signed counts to the projection rows of a site. Rows that
// land on zero are removed so the projection only holds pairs with units out.
func (r *Repository) ApplyDeltas(ctx context.Context, siteID uuid.UUID, deltas map[uuid.UUID]int) error {
	rows := make([]models.Inventory, 0, len(deltas))
	ids := make([]uuid.UUID, 0, len(deltas))
	for rentableID, delta := range deltas {
		if delta == 0 {
			continue
		}
		rows = append(rows, models.Inventory{BuildingSiteID: siteID, RentableID: rentableID, Count: delta})
		ids = append(ids, rentableID)
	}
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "building_site_id"}, {Name: "rentable_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("inventories.count + excluded.count"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&rows).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("building_site_id = ? AND rentable_id IN ? AND count = 0", siteID, ids).
		Delete(&models.Inventory{}).Error
}

// ProjectedCounts returns the projection rows of a site for the given rentables.
func (r *Repository) ProjectedCounts(ctx context.Context, siteID uuid.UUID, rentableIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []models.Inventory
	if err := r.db.WithContext(ctx).
		Where("building_site_id = ? AND rentable_id IN ?", siteID, rentableIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.RentableID] = row.Count
	}
	return out, nil
}

// PairCount is the summed unit count of one (site, rentable) pair.
type PairCount struct {
	BuildingSiteID uuid.UUID `gorm:"column:building_site_id"`
	RentableID     uuid.UUID `gorm:"column:rentable_id"`
	Count          int       `gorm:"column:count"`
}

// UnitTotals sums every delivery unit per (site, rentable).
func (r *Repository) UnitTotals(ctx context.Context) ([]PairCount, error) {
	var rows []PairCount
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryUnit{}).
		Select("building_site_id, rentable_id, SUM(count) AS count").
		Group("building_site_id, rentable_id").
		Scan(&rows).Error
	return rows, err
}

// ProjectionRows returns the whole projection table.
func (r *Repository) ProjectionRows(ctx context.Context) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := r.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

// UnitSum is the live sum of delivery units for one (site, rentable) pair.
func (r *Repository) UnitSum(ctx context.Context, siteID, rentableID uuid.UUID) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryUnit{}).
		Select("COALESCE(SUM(count), 0)").
		Where("building_site_id = ? AND rentable_id = ?", siteID, rentableID).
		Scan(&sum).Error
	return sum, err
}

// RecomputeProjection rewrites one projection row from the live unit sum and
// reports the new count and whether the row changed. A zero sum removes the
// row.
func (r *Repository) RecomputeProjection(ctx context.Context, siteID, rentableID uuid.UUID) (int, bool, error) {
	sum, err := r.UnitSum(ctx, siteID, rentableID)
	if err != nil {
		return 0, false, err
	}
	if sum == 0 {
		res := r.db.WithContext(ctx).
			Where("building_site_id = ? AND rentable_id = ?", siteID, rentableID).
			Delete(&models.Inventory{})
		return 0, res.RowsAffected > 0, res.Error
	}

	row := models.Inventory{BuildingSiteID: siteID, RentableID: rentableID, Count: sum}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "building_site_id"}, {Name: "rentable_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
		Where:     clause.Where{Exprs: []clause.Expression{gorm.Expr("inventories.count <> excluded.count")}},
	}).Create(&row)
	return sum, res.RowsAffected > 0, res.Error
}

// DeleteRentableProjection drops every projection row of a rentable.
func (r *Repository) DeleteRentableProjection(ctx context.Context, rentableID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("rentable_id = ?", rentableID).
		Delete(&models.Inventory{}).Error
}

// SiteExists reports whether the building site is present.
func (r *Repository) SiteExists(ctx context.Context, siteID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BuildingSite{}).Where("id = ?", siteID).Count(&count).Error
	return count > 0, err
}

// Transaction runs fn against a repository bound to one transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// LockProjection blocks concurrent projection writers until the surrounding
// transaction ends. Delivery writes insert units before touching the
// projection, so every statement after the lock sees units and projection
// agree. SQLite serializes writers already.
func (r *Repository) LockProjection(ctx context.Context) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).Exec("LOCK TABLE inventories IN SHARE ROW EXCLUSIVE MODE").Error
}
