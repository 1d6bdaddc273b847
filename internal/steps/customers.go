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

// CustomersStep migrates customers and their address trees.
type CustomersStep struct {
	deps *Deps
}

func NewCustomersStep(deps *Deps) *CustomersStep {
	return &CustomersStep{deps: deps}
}

func (s *CustomersStep) Name() string { return "customers" }

func (s *CustomersStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.Customers")
	defer span.End()

	rows, err := s.deps.Customers.FetchCustomers(ctx, state)
	if err != nil {
		return nil, err
	}

	transformer := transform.NewCustomerTransformer(s.deps.Refs, s.deps.Logger)

	fn := func(ctx context.Context, items []models.SourceCustomerRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			tc, err := transformer.Transform(ctx, row)
			if err != nil {
				if migration.KindOf(err) == migration.KindUnmappable {
					s.deps.logUnmappable(ctx, s.Name(), err)
					continue
				}
				return br, err
			}

			if _, err := s.deps.Users.Save(ctx, *tc); err != nil {
				s.deps.Logger.WithContext(ctx).WithError(err).WithField("customer", tc.SourceEntityID).Error("Failed to migrate customer")
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("customer", "failed").Inc()
				continue
			}
			br.Success++
			metrics.RecordsMigrated.WithLabelValues("customer", "success").Inc()
		}
		return br, nil
	}

	result, err := batch.Process(ctx, s.deps.Processor, rows, fn,
		s.deps.batchOptions(s.deps.Config.CustomersBatchSize, 0, s.Name()))
	if err != nil {
		return nil, err
	}
	return stepResult(result), nil
}
