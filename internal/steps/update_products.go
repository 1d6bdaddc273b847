package steps

import (
	"context"

	"github.com/CihanTAYLAN/db-migration-tool/internal/source"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/batch"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
)

// UpdateProductsStep reconciles already-migrated products against the
// source. The upsert touches only the mutable column subset, so write-once
// fields keep their values from the products stage.
type UpdateProductsStep struct {
	deps *Deps
}

func NewUpdateProductsStep(deps *Deps) *UpdateProductsStep {
	return &UpdateProductsStep{deps: deps}
}

func (s *UpdateProductsStep) Name() string { return "update_products" }

func (s *UpdateProductsStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.UpdateProducts")
	defer span.End()

	var rows []models.SourceProductRow
	for _, typeID := range s.deps.Config.ProductTypes {
		typed, err := s.deps.Catalog.FetchProducts(ctx, state, source.ProductFilters{
			TypeID:        typeID,
			ExcludedSKUs:  s.deps.Config.ExcludedProductSkus,
			OrderStatuses: s.deps.Config.OrderStatuses,
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, typed...)
	}
	if err := s.deps.Catalog.FetchURLKeys(ctx, state, rows); err != nil {
		return nil, err
	}

	transformer := transform.NewProductTransformer(s.deps.Countries, s.deps.Refs, s.deps.Logger)

	fn := func(ctx context.Context, items []models.SourceProductRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			tp, err := transformer.Transform(ctx, row)
			if err != nil {
				if migration.KindOf(err) == migration.KindUnmappable {
					s.deps.logUnmappable(ctx, s.Name(), err)
					continue
				}
				return br, err
			}

			if _, err := s.deps.Products.Upsert(ctx, tp.Product); err != nil {
				s.deps.Logger.WithContext(ctx).WithError(err).WithField("sku", row.SKU).Error("Failed to reconcile product")
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("product_update", "failed").Inc()
				continue
			}
			br.Success++
			metrics.RecordsMigrated.WithLabelValues("product_update", "success").Inc()
		}
		return br, nil
	}

	result, err := batch.Process(ctx, s.deps.Processor, rows, fn,
		s.deps.batchOptions(s.deps.Config.ProductsBatchSize, s.deps.Config.ProductsParallelLimit, s.Name()))
	if err != nil {
		return nil, err
	}
	return stepResult(result), nil
}
