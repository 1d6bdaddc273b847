// Package steps implements the ordered pipeline stages. Every stage is a
// migration.Step; in-stage batch failures are aggregated into the stage
// result, only top-level errors abort the run.
package steps

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/config"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/category"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/content"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/customer"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/lookup"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/order"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/product"
	"github.com/CihanTAYLAN/db-migration-tool/internal/source"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/batch"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/countries"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/translator"
)

// Deps carries everything the stages share. Built once in the CLI.
type Deps struct {
	Config *config.Config
	Logger ectologger.Logger

	SourceDB database.DB
	TargetDB database.DB

	Attributes *source.AttributeReader
	Catalog    *source.CatalogReader
	Sales      *source.SalesReader
	Customers  *source.CustomerReader
	Content    *source.ContentReader

	Categories *category.Repository
	Products   *product.Repository
	Orders     *order.Repository
	Users      *customer.Repository
	Contents   *content.Repository
	Lookup     *lookup.Repository

	Refs      *refdata.Resolver
	Countries *countries.Resolver

	Processor  *batch.Processor
	Translator translator.Translator
}

// Build returns every stage in the canonical order.
func Build(deps *Deps) []migration.Step {
	return []migration.Step{
		NewPrepareStep(deps),
		NewCategoriesStep(deps),
		NewProductsStep(deps),
		NewUpdateImagePathsStep(deps),
		NewMasterImagesStep(deps),
		NewMergeSubcategoriesStep(deps),
		NewUpdateMasterCategoriesStep(deps),
		NewCustomersStep(deps),
		NewOrdersStep(deps),
		NewTranslationsStep(deps),
		NewUpdateProductsStep(deps),
	}
}

// batchOptions derives batch.Options for a stage family from config.
func (d *Deps) batchOptions(batchSize, parallelLimit int, stage string) batch.Options {
	if batchSize <= 0 {
		batchSize = d.Config.DefaultBatchSize
	}
	if parallelLimit <= 0 {
		parallelLimit = d.Config.DefaultParallelLimit
	}
	return batch.Options{
		BatchSize:     batchSize,
		ParallelLimit: parallelLimit,
		RetryAttempts: d.Config.RetryAttempts,
		RetryDelay:    d.Config.RetryDelay(),
		Timeout:       d.Config.Timeout(),
		OnProgress: func(percent, success, failed int) {
			d.Logger.WithFields(map[string]any{
				"stage":   stage,
				"percent": percent,
				"success": success,
				"failed":  failed,
			}).Info("Stage progress")
		},
		OnError: func(err error, batchIndex, batchLen int) {
			d.Logger.WithError(err).WithFields(map[string]any{
				"stage": stage,
				"batch": batchIndex,
				"items": batchLen,
			}).Error("Batch exhausted retries")
		},
	}
}

// logUnmappable records a skipped record. Unmappable rows neither fail the
// batch nor count toward failures.
func (d *Deps) logUnmappable(ctx context.Context, stage string, err error) {
	d.Logger.WithContext(ctx).WithError(err).WithField("stage", stage).Debug("Skipping unmappable record")
}

// stepResult converts a batch result to the stage contract.
func stepResult(r batch.Result) *migration.Result {
	return &migration.Result{
		Success: r.Failed == 0,
		Count:   r.Success,
		Failed:  r.Failed,
	}
}

// recomputeParentSlugs rebuilds the materialized ancestor slug paths for one
// language. Existing values are preserved; only NULL rows are filled.
func (d *Deps) recomputeParentSlugs(ctx context.Context, languageID int64) (int, error) {
	rows, err := d.Categories.ListNodes(ctx, languageID)
	if err != nil {
		return 0, err
	}

	nodes := make([]transform.CategoryNode, 0, len(rows))
	for _, row := range rows {
		parentEntityID, entityID, ok := refdata.DecodeCategoryCodeFull(row.Code)
		if !ok {
			d.Logger.WithContext(ctx).WithField("code", row.Code).Warn("Category code does not decode, excluded from hierarchy")
			continue
		}
		nodes = append(nodes, transform.CategoryNode{
			CategoryID:     row.CategoryID,
			EntityID:       entityID,
			ParentEntityID: parentEntityID,
			Slug:           row.Slug,
		})
	}

	paths := transform.ComputeParentSlugs(nodes)
	for categoryID, path := range paths {
		if err := d.Categories.SetParentSlugs(ctx, categoryID, languageID, path); err != nil {
			return 0, err
		}
	}
	return len(paths), nil
}
