// Package product persists target products and their satellite rows.
package product

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// Repository handles product persistence
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

// Upsert writes a product keyed by product_web_sku and returns its id. Only
// the mutable subset is refreshed on conflict; everything else is
// write-once.
func (r *Repository) Upsert(ctx context.Context, p models.Product) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("products").
		Cols("product_identity", "product_sku", "product_web_sku", "price",
			"year", "year_text",
			"coin_grade_prefix", "coin_grade_value", "coin_grade_suffix", "coin_grade_text", "coin_our_grade",
			"status", "is_active", "sold_date", "sold_price", "archived_at",
			"certificate_provider_id", "country_id", "xero_tenant_id", "xero_account_id",
			"created_at", "updated_at").
		Values(p.ProductIdentity, p.ProductSKU, p.ProductWebSKU, p.Price,
			p.Year, p.YearText,
			p.CoinGradePrefix, p.CoinGradeValue, p.CoinGradeSuffix, p.CoinGradeText, p.CoinOurGrade,
			p.Status, p.IsActive, p.SoldDate, p.SoldPrice, p.ArchivedAt,
			p.CertificateProviderID, p.CountryID, p.XeroTenantID, p.XeroAccountID,
			p.CreatedAt, sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("product_web_sku")
	ub.Set(
		ub.Assign("price", database.Excluded("price")),
		ub.Assign("sold_date", database.Excluded("sold_date")),
		ub.Assign("sold_price", database.Excluded("sold_price")),
		ub.Assign("certificate_provider_id", database.Excluded("certificate_provider_id")),
		ub.Assign("country_id", database.Excluded("country_id")),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	)
	ib = ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("web_sku", p.ProductWebSKU).Error("Failed to upsert product")
		return 0, errors.Wrapf(err, "failed to upsert product %s", p.ProductWebSKU)
	}
	return id, nil
}

// UpsertTranslation writes a product translation keyed by
// (product_id, language_id).
func (r *Repository) UpsertTranslation(ctx context.Context, t models.ProductTranslation) error {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.UpsertTranslation")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("product_translations").
		Cols("product_id", "language_id", "title", "slug", "description", "short_description",
			"meta_title", "meta_description", "meta_keywords").
		Values(t.ProductID, t.LanguageID, t.Title, t.Slug, t.Description, t.ShortDescription,
			t.MetaTitle, t.MetaDescription, t.MetaKeywords)

	ub := ib.OnConflict("product_id", "language_id")
	ub.Set(
		ub.Assign("title", database.Excluded("title")),
		ub.Assign("slug", database.Excluded("slug")),
		ub.Assign("description", database.Excluded("description")),
		ub.Assign("short_description", database.Excluded("short_description")),
		ub.Assign("meta_title", database.Excluded("meta_title")),
		ub.Assign("meta_description", database.Excluded("meta_description")),
		ub.Assign("meta_keywords", database.Excluded("meta_keywords")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"product_id":  t.ProductID,
			"language_id": t.LanguageID,
		}).Error("Failed to upsert product translation")
		return errors.Wrap(err, "failed to upsert product translation")
	}
	return nil
}

// UpsertPrice writes a per-currency price keyed by (product_id, currency_id).
func (r *Repository) UpsertPrice(ctx context.Context, price models.ProductPrice) error {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.UpsertPrice")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("product_prices").
		Cols("product_id", "currency_id", "base_amount", "amount", "currency_code").
		Values(price.ProductID, price.CurrencyID, price.BaseAmount, price.Amount, price.CurrencyCode)

	ub := ib.OnConflict("product_id", "currency_id")
	ub.Set(
		ub.Assign("base_amount", database.Excluded("base_amount")),
		ub.Assign("amount", database.Excluded("amount")),
		ub.Assign("currency_code", database.Excluded("currency_code")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "failed to upsert price for product %d", price.ProductID)
	}
	return nil
}

// LinkCategory binds a product to a category, ignoring duplicates.
func (r *Repository) LinkCategory(ctx context.Context, productID, categoryID int64) error {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.LinkCategory")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("product_categories").
		Cols("product_id", "category_id").
		Values(productID, categoryID).
		OnConflictDoNothing()

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "failed to link product %d to category %d", productID, categoryID)
	}
	return nil
}

// UpsertImage writes one gallery image keyed by (product_id, image_url) and
// returns its id.
func (r *Repository) UpsertImage(ctx context.Context, image models.ProductImage) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.UpsertImage")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("product_images").
		Cols("product_id", "image_url", "alt", "position", "is_master").
		Values(image.ProductID, image.ImageURL, image.Alt, image.Position, image.IsMaster)

	ub := ib.OnConflict("product_id", "image_url")
	ub.Set(
		ub.Assign("alt", database.Excluded("alt")),
		ub.Assign("position", database.Excluded("position")),
		ub.Assign("is_master", database.Excluded("is_master")),
	)
	ib = ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, errors.Wrapf(err, "failed to upsert image for product %d", image.ProductID)
	}
	return id, nil
}

// SetMasterImage marks one image as master, clears the flag on its
// siblings, and points the product at it.
func (r *Repository) SetMasterImage(ctx context.Context, productID, imageID int64) error {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.SetMasterImage")
	defer span.End()

	if _, err := r.db.ExecContext(ctx,
		"UPDATE product_images SET is_master = (id = $1) WHERE product_id = $2", imageID, productID); err != nil {
		return errors.Wrapf(err, "failed to set master image for product %d", productID)
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE products SET product_master_image_id = $1, updated_at = NOW() WHERE id = $2", imageID, productID); err != nil {
		return errors.Wrapf(err, "failed to point product %d at master image", productID)
	}
	return nil
}

// PrependImageCDN rewrites relative image urls to absolute ones under the
// CDN base. Returns the number of rewritten rows.
func (r *Repository) PrependImageCDN(ctx context.Context, cdnBase string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.PrependImageCDN")
	defer span.End()

	result, err := r.db.ExecContext(ctx,
		"UPDATE product_images SET image_url = $1 || image_url WHERE image_url NOT LIKE 'http%'", cdnBase)
	if err != nil {
		return 0, errors.Wrap(err, "failed to rewrite image urls")
	}
	count, _ := result.RowsAffected()
	return count, nil
}

// BackfillMasterImages repairs products whose images were written after the
// product row: each product with images and no master image gets the image
// with the lowest position (earliest-inserted on ties). Returns the number
// of repaired products.
func (r *Repository) BackfillMasterImages(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.BackfillMasterImages")
	defer span.End()

	query := `
		WITH chosen AS (
			SELECT DISTINCT ON (product_id) product_id, id AS image_id
			FROM product_images
			ORDER BY product_id, is_master DESC, position, id
		)
		UPDATE products p
		SET product_master_image_id = chosen.image_id, updated_at = NOW()
		FROM chosen
		WHERE chosen.product_id = p.id AND p.product_master_image_id IS NULL`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, "failed to backfill master images")
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE product_images i
		SET is_master = (i.id = p.product_master_image_id)
		FROM products p
		WHERE p.id = i.product_id AND p.product_master_image_id IS NOT NULL`); err != nil {
		return 0, errors.Wrap(err, "failed to enforce master image exclusivity")
	}

	count, _ := result.RowsAffected()
	return count, nil
}

// SetMasterCategory points a product at its master category.
func (r *Repository) SetMasterCategory(ctx context.Context, productID, categoryID int64) error {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.SetMasterCategory")
	defer span.End()

	if _, err := r.db.ExecContext(ctx,
		"UPDATE products SET master_category_id = $1, updated_at = NOW() WHERE id = $2", categoryID, productID); err != nil {
		return errors.Wrapf(err, "failed to set master category for product %d", productID)
	}
	return nil
}

// RepairMasterCategories repoints products whose master category no longer
// exists or is hidden to their lowest-id visible linked category. Returns
// the number of repaired products.
func (r *Repository) RepairMasterCategories(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.RepairMasterCategories")
	defer span.End()

	query := `
		WITH fallback AS (
			SELECT pc.product_id, MIN(pc.category_id) AS category_id
			FROM product_categories pc
			JOIN categories c ON c.id = pc.category_id AND c.is_hidden = FALSE
			GROUP BY pc.product_id
		)
		UPDATE products p
		SET master_category_id = fallback.category_id, updated_at = NOW()
		FROM fallback
		WHERE fallback.product_id = p.id
		  AND (p.master_category_id IS NULL
		       OR NOT EXISTS (
		           SELECT 1 FROM categories c
		           WHERE c.id = p.master_category_id AND c.is_hidden = FALSE))
		  AND p.master_category_id IS DISTINCT FROM fallback.category_id`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, "failed to repair master categories")
	}
	count, _ := result.RowsAffected()
	return count, nil
}

// TranslationRow is one default-language translation joined with its
// product identity, used by the translation fan-out.
type TranslationRow struct {
	ProductID        int64   `db:"product_id"`
	Title            string  `db:"title"`
	Slug             string  `db:"slug"`
	Description      *string `db:"description"`
	ShortDescription *string `db:"short_description"`
	MetaTitle        *string `db:"meta_title"`
	MetaDescription  *string `db:"meta_description"`
	MetaKeywords     *string `db:"meta_keywords"`
}

// ListTranslations returns every translation row for one language.
func (r *Repository) ListTranslations(ctx context.Context, languageID int64) ([]TranslationRow, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.ListTranslations")
	defer span.End()

	query := `
		SELECT product_id, title, slug, description, short_description,
		       meta_title, meta_description, meta_keywords
		FROM product_translations
		WHERE language_id = $1
		ORDER BY product_id`

	var rows []TranslationRow
	if err := r.db.SelectContext(ctx, &rows, query, languageID); err != nil {
		return nil, errors.Wrap(err, "failed to list product translations")
	}
	return rows, nil
}

// GetTranslation returns one translation row, or nil when none exists.
func (r *Repository) GetTranslation(ctx context.Context, productID, languageID int64) (*TranslationRow, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.GetTranslation")
	defer span.End()

	query := `
		SELECT product_id, title, slug, description, short_description,
		       meta_title, meta_description, meta_keywords
		FROM product_translations
		WHERE product_id = $1 AND language_id = $2`

	var row TranslationRow
	err := r.db.GetContext(ctx, &row, query, productID, languageID)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get product translation")
	}
	return &row, nil
}
