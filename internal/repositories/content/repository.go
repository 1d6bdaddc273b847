// Package content persists editorial pages and their translations.
package content

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// Repository handles content persistence
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

// Upsert writes a content page keyed by code and returns its id
func (r *Repository) Upsert(ctx context.Context, c models.Content) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "content.Repository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("contents").
		Cols("code", "is_active", "created_at", "updated_at").
		Values(c.Code, c.IsActive, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("code")
	ub.Set(
		ub.Assign("is_active", database.Excluded("is_active")),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	)
	ib = ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("code", c.Code).Error("Failed to upsert content")
		return 0, errors.Wrapf(err, "failed to upsert content %s", c.Code)
	}
	return id, nil
}

// UpsertTranslation writes a content translation keyed by
// (content_id, language_id).
func (r *Repository) UpsertTranslation(ctx context.Context, t models.ContentTranslation) error {
	ctx, span := tracing.StartSpan(ctx, "content.Repository.UpsertTranslation")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto("content_translations").
		Cols("content_id", "language_id", "title", "slug", "body",
			"meta_title", "meta_description", "meta_keywords").
		Values(t.ContentID, t.LanguageID, t.Title, t.Slug, t.Body,
			t.MetaTitle, t.MetaDescription, t.MetaKeywords)

	ub := ib.OnConflict("content_id", "language_id")
	ub.Set(
		ub.Assign("title", database.Excluded("title")),
		ub.Assign("slug", database.Excluded("slug")),
		ub.Assign("body", database.Excluded("body")),
		ub.Assign("meta_title", database.Excluded("meta_title")),
		ub.Assign("meta_description", database.Excluded("meta_description")),
		ub.Assign("meta_keywords", database.Excluded("meta_keywords")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to upsert content translation")
	}
	return nil
}

// TranslationRow is one default-language translation used by the translation
// fan-out.
type TranslationRow struct {
	ContentID       int64   `db:"content_id"`
	Title           string  `db:"title"`
	Slug            string  `db:"slug"`
	Body            *string `db:"body"`
	MetaTitle       *string `db:"meta_title"`
	MetaDescription *string `db:"meta_description"`
	MetaKeywords    *string `db:"meta_keywords"`
}

// ListTranslations returns every translation row for one language
func (r *Repository) ListTranslations(ctx context.Context, languageID int64) ([]TranslationRow, error) {
	ctx, span := tracing.StartSpan(ctx, "content.Repository.ListTranslations")
	defer span.End()

	query := `
		SELECT content_id, title, slug, body, meta_title, meta_description, meta_keywords
		FROM content_translations
		WHERE language_id = $1
		ORDER BY content_id`

	var rows []TranslationRow
	if err := r.db.SelectContext(ctx, &rows, query, languageID); err != nil {
		return nil, errors.Wrap(err, "failed to list content translations")
	}
	return rows, nil
}

// GetTranslation returns one translation row, or nil when none exists.
func (r *Repository) GetTranslation(ctx context.Context, contentID, languageID int64) (*TranslationRow, error) {
	ctx, span := tracing.StartSpan(ctx, "content.Repository.GetTranslation")
	defer span.End()

	query := `
		SELECT content_id, title, slug, body, meta_title, meta_description, meta_keywords
		FROM content_translations
		WHERE content_id = $1 AND language_id = $2`

	var row TranslationRow
	err := r.db.GetContext(ctx, &row, query, contentID, languageID)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get content translation")
	}
	return &row, nil
}
