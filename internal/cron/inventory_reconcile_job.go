package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/pkg/db/models"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
	"go.uber.org/multierr"
)

type InventoryReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler projectionReconciler
	Projection projectionReader
}

type projectionReconciler interface {
	ReconcileProjection(ctx context.Context) (inventory.ReconcileResult, error)
}

type projectionReader interface {
	ProjectionRows(ctx context.Context) ([]models.Inventory, error)
}

func NewInventoryReconcileJob(params InventoryReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("inventory reconciler required")
	}
	if params.Projection == nil {
		return nil, fmt.Errorf("projection reader required")
	}
	return &inventoryReconcileJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		projection: params.Projection,
		now:        time.Now,
	}, nil
}

// inventoryReconcileJob rebuilds the per-site inventory projection from
// delivery units and reports sites holding a negative balance.
type inventoryReconcileJob struct {
	logg       *logger.Logger
	reconciler projectionReconciler
	projection projectionReader
	now        func() time.Time
}

func (j *inventoryReconcileJob) Name() string { return "inventory-reconcile" }

func (j *inventoryReconcileJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.reconcile(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.reportNegativeBalances(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *inventoryReconcileJob) reconcile(ctx context.Context) error {
	result, err := j.reconciler.ReconcileProjection(ctx)
	if err != nil {
		return fmt.Errorf("reconcile projection: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked": result.Checked,
		"fixed":   result.Fixed,
		"removed": result.Removed,
		"ran_at":  j.now().UTC(),
	})
	if result.Drifted() {
		j.logg.Warn(logCtx, "inventory projection drift repaired")
		return nil
	}
	j.logg.Info(logCtx, "inventory projection consistent")
	return nil
}

func (j *inventoryReconcileJob) reportNegativeBalances(ctx context.Context) error {
	rows, err := j.projection.ProjectionRows(ctx)
	if err != nil {
		return fmt.Errorf("load projection: %w", err)
	}
	negative := 0
	for _, row := range rows {
		if row.Count >= 0 {
			continue
		}
		negative++
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"building_site_id": row.BuildingSiteID.String(),
			"rentable_id":      row.RentableID.String(),
			"count":            row.Count,
		})
		j.logg.Warn(logCtx, "building site holds a negative balance")
	}
	j.logg.Info(j.logg.WithField(ctx, "negative_rows", negative), "negative balance scan complete")
	return nil
}
