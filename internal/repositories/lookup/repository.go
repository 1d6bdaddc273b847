// Package lookup reads and seeds the small reference tables the pipeline
// depends on: languages, currencies, certificate providers, and accounting
// tenants.
package lookup

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// Repository handles reference-table access
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListLanguages returns every target language
func (r *Repository) ListLanguages(ctx context.Context) ([]models.Language, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.ListLanguages")
	defer span.End()

	var languages []models.Language
	if err := r.db.SelectContext(ctx, &languages,
		"SELECT id, code, name, is_default FROM languages ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "failed to list languages")
	}
	return languages, nil
}

// ListCurrencies returns every target currency
func (r *Repository) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.ListCurrencies")
	defer span.End()

	var currencies []models.Currency
	if err := r.db.SelectContext(ctx, &currencies,
		"SELECT id, code, name FROM currencies ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "failed to list currencies")
	}
	return currencies, nil
}

// EnsureProvider inserts a certificate provider if missing and returns its id
func (r *Repository) EnsureProvider(ctx context.Context, name string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.EnsureProvider")
	defer span.End()

	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO certificate_providers (name, is_active, created_at, updated_at)
		VALUES ($1, TRUE, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id`, name)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("name", name).Error("Failed to ensure certificate provider")
		return 0, errors.Wrapf(err, "failed to ensure certificate provider %s", name)
	}
	return id, nil
}

// EnsureXeroTenant inserts an accounting tenant if missing and returns its id
func (r *Repository) EnsureXeroTenant(ctx context.Context, name string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.EnsureXeroTenant")
	defer span.End()

	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO xero_tenants (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to ensure xero tenant %s", name)
	}
	return id, nil
}

// EnsureXeroAccount inserts an accounting account if missing and returns its
// id. Accounts are keyed by (tenant_id, code).
func (r *Repository) EnsureXeroAccount(ctx context.Context, tenantID int64, code, name string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.EnsureXeroAccount")
	defer span.End()

	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO xero_accounts (tenant_id, code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, tenantID, code, name)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to ensure xero account %s", code)
	}
	return id, nil
}
