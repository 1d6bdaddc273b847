package steps

import (
	"context"
	"strings"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// UpdateImagePathsStep rewrites relative gallery urls to absolute CDN urls.
// A no-op when no CDN base is configured.
type UpdateImagePathsStep struct {
	deps *Deps
}

func NewUpdateImagePathsStep(deps *Deps) *UpdateImagePathsStep {
	return &UpdateImagePathsStep{deps: deps}
}

func (s *UpdateImagePathsStep) Name() string { return "update_image_paths" }

func (s *UpdateImagePathsStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.UpdateImagePaths")
	defer span.End()

	base := strings.TrimSpace(s.deps.Config.CDNBaseURL)
	if base == "" {
		s.deps.Logger.WithContext(ctx).Info("No CDN base configured, leaving image urls untouched")
		return &migration.Result{Success: true}, nil
	}
	base = strings.TrimSuffix(base, "/") + "/"

	count, err := s.deps.Products.PrependImageCDN(ctx, base)
	if err != nil {
		return nil, err
	}

	s.deps.Logger.WithContext(ctx).WithField("rewritten", count).Info("Rewrote image urls")
	return &migration.Result{Success: true, Count: int(count)}, nil
}

// MasterImagesStep backfills product_master_image_id for products whose
// images landed after the product row.
type MasterImagesStep struct {
	deps *Deps
}

func NewMasterImagesStep(deps *Deps) *MasterImagesStep {
	return &MasterImagesStep{deps: deps}
}

func (s *MasterImagesStep) Name() string { return "master_images" }

func (s *MasterImagesStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.MasterImages")
	defer span.End()

	count, err := s.deps.Products.BackfillMasterImages(ctx)
	if err != nil {
		return nil, err
	}

	s.deps.Logger.WithContext(ctx).WithField("backfilled", count).Info("Backfilled master images")
	return &migration.Result{Success: true, Count: int(count)}, nil
}
