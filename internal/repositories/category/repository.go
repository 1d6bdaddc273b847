// Package category persists target categories and their translations.
package category

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// Repository handles category persistence
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

// Upsert writes a category keyed by code and returns its id
func (r *Repository) Upsert(ctx context.Context, c models.Category) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("categories").
		Cols("code", "sort", "is_hidden", "created_at", "updated_at").
		Values(c.Code, c.Sort, c.IsHidden, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("code")
	ub.Set(
		ub.Assign("sort", database.Excluded("sort")),
		ub.Assign("is_hidden", database.Excluded("is_hidden")),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	)
	ib = ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("code", c.Code).Error("Failed to upsert category")
		return 0, errors.Wrapf(err, "failed to upsert category %s", c.Code)
	}
	return id, nil
}

// UpsertTranslation writes a category translation keyed by
// (category_id, language_id). Parent slugs are managed separately and left
// untouched here.
func (r *Repository) UpsertTranslation(ctx context.Context, t models.CategoryTranslation) error {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.UpsertTranslation")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("category_translations").
		Cols("category_id", "language_id", "title", "slug", "description",
			"meta_title", "meta_description", "meta_keywords", "created_at", "updated_at").
		Values(t.CategoryID, t.LanguageID, t.Title, t.Slug, t.Description,
			t.MetaTitle, t.MetaDescription, t.MetaKeywords, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("category_id", "language_id")
	ub.Set(
		ub.Assign("title", database.Excluded("title")),
		ub.Assign("slug", database.Excluded("slug")),
		ub.Assign("description", database.Excluded("description")),
		ub.Assign("meta_title", database.Excluded("meta_title")),
		ub.Assign("meta_description", database.Excluded("meta_description")),
		ub.Assign("meta_keywords", database.Excluded("meta_keywords")),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"category_id": t.CategoryID,
			"language_id": t.LanguageID,
		}).Error("Failed to upsert category translation")
		return errors.Wrap(err, "failed to upsert category translation")
	}
	return nil
}

// Node is one category joined with its per-language slug, as needed for
// hierarchy walks.
type Node struct {
	CategoryID int64  `db:"category_id"`
	Code       string `db:"code"`
	Slug       string `db:"slug"`
}

// ListNodes returns every category with its slug for one language
func (r *Repository) ListNodes(ctx context.Context, languageID int64) ([]Node, error) {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.ListNodes")
	defer span.End()

	query := `
		SELECT c.id AS category_id, c.code AS code, t.slug AS slug
		FROM categories c
		JOIN category_translations t ON t.category_id = c.id AND t.language_id = $1
		ORDER BY c.id`

	var nodes []Node
	if err := r.db.SelectContext(ctx, &nodes, query, languageID); err != nil {
		return nil, errors.Wrap(err, "failed to list category nodes")
	}
	return nodes, nil
}

// SetParentSlugs writes the materialized ancestor path for one translation.
// The value is write-once; rows that already carry a path keep it.
func (r *Repository) SetParentSlugs(ctx context.Context, categoryID, languageID int64, parentSlugs string) error {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.SetParentSlugs")
	defer span.End()

	query := `
		UPDATE category_translations
		SET parent_slugs = $1, updated_at = NOW()
		WHERE category_id = $2 AND language_id = $3 AND parent_slugs IS NULL`

	if _, err := r.db.ExecContext(ctx, query, parentSlugs, categoryID, languageID); err != nil {
		return errors.Wrapf(err, "failed to set parent slugs for category %d", categoryID)
	}
	return nil
}

// ClearParentSlugs drops every materialized path for one language so the
// hierarchy can be recomputed after a structural change.
func (r *Repository) ClearParentSlugs(ctx context.Context, languageID int64) error {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.ClearParentSlugs")
	defer span.End()

	if _, err := r.db.ExecContext(ctx,
		"UPDATE category_translations SET parent_slugs = NULL, updated_at = NOW() WHERE language_id = $1", languageID); err != nil {
		return errors.Wrap(err, "failed to clear parent slugs")
	}
	return nil
}

// TranslationRow is one default-language translation used by the
// translation fan-out.
type TranslationRow struct {
	CategoryID      int64   `db:"category_id"`
	Title           string  `db:"title"`
	Slug            string  `db:"slug"`
	Description     *string `db:"description"`
	MetaTitle       *string `db:"meta_title"`
	MetaDescription *string `db:"meta_description"`
	MetaKeywords    *string `db:"meta_keywords"`
}

// ListTranslations returns every translation row for one language
func (r *Repository) ListTranslations(ctx context.Context, languageID int64) ([]TranslationRow, error) {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.ListTranslations")
	defer span.End()

	query := `
		SELECT category_id, title, slug, description, meta_title, meta_description, meta_keywords
		FROM category_translations
		WHERE language_id = $1
		ORDER BY category_id`

	var rows []TranslationRow
	if err := r.db.SelectContext(ctx, &rows, query, languageID); err != nil {
		return nil, errors.Wrap(err, "failed to list category translations")
	}
	return rows, nil
}

// GetTranslation returns one translation row, or nil when none exists.
func (r *Repository) GetTranslation(ctx context.Context, categoryID, languageID int64) (*TranslationRow, error) {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.GetTranslation")
	defer span.End()

	query := `
		SELECT category_id, title, slug, description, meta_title, meta_description, meta_keywords
		FROM category_translations
		WHERE category_id = $1 AND language_id = $2`

	var row TranslationRow
	err := r.db.GetContext(ctx, &row, query, categoryID, languageID)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get category translation")
	}
	return &row, nil
}

// DuplicateGroup is a set of categories sharing one slug in the default
// language. CategoryIDs is ascending, so the first element is canonical.
type DuplicateGroup struct {
	Slug        string
	CategoryIDs []int64
}

// ListDuplicateSlugs returns the visible categories that share a slug in the
// given language, grouped by slug.
func (r *Repository) ListDuplicateSlugs(ctx context.Context, languageID int64) ([]DuplicateGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.ListDuplicateSlugs")
	defer span.End()

	query := `
		SELECT t.slug AS slug, t.category_id AS category_id
		FROM category_translations t
		JOIN categories c ON c.id = t.category_id
		WHERE t.language_id = $1 AND c.is_hidden = FALSE
		  AND t.slug IN (
		      SELECT t2.slug
		      FROM category_translations t2
		      JOIN categories c2 ON c2.id = t2.category_id
		      WHERE t2.language_id = $1 AND c2.is_hidden = FALSE
		      GROUP BY t2.slug
		      HAVING COUNT(*) > 1)
		ORDER BY t.slug, t.category_id`

	var rows []struct {
		Slug       string `db:"slug"`
		CategoryID int64  `db:"category_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, languageID); err != nil {
		return nil, errors.Wrap(err, "failed to list duplicate category slugs")
	}

	var groups []DuplicateGroup
	for _, row := range rows {
		if len(groups) == 0 || groups[len(groups)-1].Slug != row.Slug {
			groups = append(groups, DuplicateGroup{Slug: row.Slug})
		}
		groups[len(groups)-1].CategoryIDs = append(groups[len(groups)-1].CategoryIDs, row.CategoryID)
	}
	return groups, nil
}

// MergeInto repoints everything attached to the duplicate category at the
// canonical one and hides the duplicate. Product links that would collide
// with an existing canonical link are dropped.
func (r *Repository) MergeInto(ctx context.Context, canonicalID, duplicateID int64) error {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.MergeInto")
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin merge transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		UPDATE product_categories pc
		SET category_id = $1
		WHERE pc.category_id = $2
		  AND NOT EXISTS (
		      SELECT 1 FROM product_categories dup
		      WHERE dup.product_id = pc.product_id AND dup.category_id = $1)`,
		canonicalID, duplicateID); err != nil {
		return errors.Wrap(err, "failed to repoint product links")
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM product_categories WHERE category_id = $1", duplicateID); err != nil {
		return errors.Wrap(err, "failed to drop duplicate product links")
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE products SET master_category_id = $1, updated_at = NOW() WHERE master_category_id = $2",
		canonicalID, duplicateID); err != nil {
		return errors.Wrap(err, "failed to repoint master categories")
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE categories SET is_hidden = TRUE, updated_at = NOW() WHERE id = $1", duplicateID); err != nil {
		return errors.Wrap(err, "failed to hide duplicate category")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit merge transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"canonical_id": canonicalID,
		"duplicate_id": duplicateID,
	}).Info("Merged duplicate category")
	return nil
}
