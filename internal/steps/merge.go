package steps

import (
	"context"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// MergeSubcategoriesStep collapses duplicate categories sharing a slug in
// the default language into the lowest-id canonical one, then recomputes the
// parent slug paths from scratch.
type MergeSubcategoriesStep struct {
	deps *Deps
}

func NewMergeSubcategoriesStep(deps *Deps) *MergeSubcategoriesStep {
	return &MergeSubcategoriesStep{deps: deps}
}

func (s *MergeSubcategoriesStep) Name() string { return "merge_subcategories" }

func (s *MergeSubcategoriesStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.MergeSubcategories")
	defer span.End()

	groups, err := s.deps.Categories.ListDuplicateSlugs(ctx, state.DefaultLanguageID)
	if err != nil {
		return nil, err
	}

	merged := 0
	failed := 0
	for _, group := range groups {
		canonical := group.CategoryIDs[0]
		for _, duplicate := range group.CategoryIDs[1:] {
			if err := s.deps.Categories.MergeInto(ctx, canonical, duplicate); err != nil {
				s.deps.Logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"slug":      group.Slug,
					"duplicate": duplicate,
				}).Error("Failed to merge duplicate category")
				failed++
				continue
			}
			merged++
		}
	}

	if merged > 0 {
		// The merge rewrote category rows; cached source-to-target ids are stale.
		s.deps.Refs.InvalidateCategories()

		if err := s.deps.Categories.ClearParentSlugs(ctx, state.DefaultLanguageID); err != nil {
			return nil, err
		}
		if _, err := s.deps.recomputeParentSlugs(ctx, state.DefaultLanguageID); err != nil {
			return nil, err
		}
	}

	return &migration.Result{Success: failed == 0, Count: merged, Failed: failed}, nil
}

// UpdateMasterCategoriesStep repairs master_category_id pointers the merge
// invalidated.
type UpdateMasterCategoriesStep struct {
	deps *Deps
}

func NewUpdateMasterCategoriesStep(deps *Deps) *UpdateMasterCategoriesStep {
	return &UpdateMasterCategoriesStep{deps: deps}
}

func (s *UpdateMasterCategoriesStep) Name() string { return "update_master_categories" }

func (s *UpdateMasterCategoriesStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.UpdateMasterCategories")
	defer span.End()

	count, err := s.deps.Products.RepairMasterCategories(ctx)
	if err != nil {
		return nil, err
	}

	s.deps.Logger.WithContext(ctx).WithField("repaired", count).Info("Repaired master categories")
	return &migration.Result{Success: true, Count: int(count)}, nil
}
