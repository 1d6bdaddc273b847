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

// CategoriesStep migrates the category graph with default-language
// translations and materializes the initial parent slug paths.
type CategoriesStep struct {
	deps *Deps
}

func NewCategoriesStep(deps *Deps) *CategoriesStep {
	return &CategoriesStep{deps: deps}
}

func (s *CategoriesStep) Name() string { return "categories" }

func (s *CategoriesStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.Categories")
	defer span.End()

	rows, err := s.deps.Catalog.FetchCategories(ctx, state)
	if err != nil {
		return nil, err
	}

	transformer := transform.NewCategoryTransformer(s.deps.Logger)

	fn := func(ctx context.Context, items []models.SourceCategoryRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			tc := transformer.Transform(row)

			categoryID, err := s.deps.Categories.Upsert(ctx, tc.Category)
			if err != nil {
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("category", "failed").Inc()
				continue
			}

			translation := tc.Translation
			translation.CategoryID = categoryID
			translation.LanguageID = state.DefaultLanguageID
			if err := s.deps.Categories.UpsertTranslation(ctx, translation); err != nil {
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("category", "failed").Inc()
				continue
			}

			br.Success++
			metrics.RecordsMigrated.WithLabelValues("category", "success").Inc()
		}
		return br, nil
	}

	result, err := batch.Process(ctx, s.deps.Processor, rows, fn,
		s.deps.batchOptions(s.deps.Config.CategoriesBatchSize, 0, s.Name()))
	if err != nil {
		return nil, err
	}

	if _, err := s.deps.recomputeParentSlugs(ctx, state.DefaultLanguageID); err != nil {
		return nil, err
	}

	return stepResult(result), nil
}
