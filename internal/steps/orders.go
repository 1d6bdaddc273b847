package steps

import (
	"context"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/batch"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
)

// OrdersStep migrates orders with their items and shipping addresses as one
// nested write per order.
type OrdersStep struct {
	deps *Deps
}

func NewOrdersStep(deps *Deps) *OrdersStep {
	return &OrdersStep{deps: deps}
}

func (s *OrdersStep) Name() string { return "orders" }

func (s *OrdersStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.Orders")
	defer span.End()

	rows, err := s.deps.Sales.FetchOrders(ctx)
	if err != nil {
		return nil, err
	}

	transformer := transform.NewOrderTransformer(s.deps.Refs, s.deps.Logger)

	fn := func(ctx context.Context, items []models.SourceOrderRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			to, err := transformer.Transform(ctx, row)
			if err != nil {
				if migration.KindOf(err) == migration.KindUnmappable {
					s.deps.logUnmappable(ctx, s.Name(), err)
					continue
				}
				return br, err
			}

			if _, err := s.deps.Orders.SaveOrder(ctx, *to, s.deps.Refs.ProductIDBySKU); err != nil {
				s.deps.Logger.WithContext(ctx).WithError(err).WithField("order_no", to.OrderNo).Error("Failed to migrate order")
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("order", "failed").Inc()
				continue
			}
			br.Success++
			metrics.RecordsMigrated.WithLabelValues("order", "success").Inc()
		}
		return br, nil
	}

	result, err := batch.Process(ctx, s.deps.Processor, rows, fn,
		s.deps.batchOptions(s.deps.Config.OrdersBatchSize, s.deps.Config.OrdersParallelLimit, s.Name()))
	if err != nil {
		return nil, err
	}
	return stepResult(result), nil
}
