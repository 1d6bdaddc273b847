package steps

import (
	"context"

	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/category"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/content"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/product"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/batch"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/slug"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
)

// TranslationsStep migrates editorial pages, then fans category, product and
// content translations out to every configured non-default language and
// recomputes the per-language parent slug paths.
type TranslationsStep struct {
	deps *Deps
}

func NewTranslationsStep(deps *Deps) *TranslationsStep {
	return &TranslationsStep{deps: deps}
}

func (s *TranslationsStep) Name() string { return "translations" }

func (s *TranslationsStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.Translations")
	defer span.End()

	total := batch.Result{}

	contentResult, err := s.migrateContents(ctx, state)
	if err != nil {
		return nil, err
	}
	accumulate(&total, contentResult)

	languages, err := s.targetLanguages(ctx, state)
	if err != nil {
		return nil, err
	}

	if s.deps.Translator == nil {
		if len(languages) > 0 {
			s.deps.Logger.WithContext(ctx).Warn("Translator not configured, skipping language fan-out")
		}
		return stepResult(total), nil
	}

	for _, language := range languages {
		categoryResult, err := s.fanOutCategories(ctx, state, language)
		if err != nil {
			return nil, err
		}
		accumulate(&total, categoryResult)

		productResult, err := s.fanOutProducts(ctx, state, language)
		if err != nil {
			return nil, err
		}
		accumulate(&total, productResult)

		pageResult, err := s.fanOutContents(ctx, state, language)
		if err != nil {
			return nil, err
		}
		accumulate(&total, pageResult)

		if _, err := s.deps.recomputeParentSlugs(ctx, language.ID); err != nil {
			return nil, err
		}

		s.deps.Logger.WithContext(ctx).WithField("language", language.Code).Info("Language fan-out complete")
	}

	return stepResult(total), nil
}

func accumulate(total *batch.Result, r batch.Result) {
	total.Success += r.Success
	total.Failed += r.Failed
	total.Total += r.Total
	total.BatchesProcessed += r.BatchesProcessed
}

// migrateContents writes the editorial pages with their default-language
// translations. Pages have no earlier stage of their own.
func (s *TranslationsStep) migrateContents(ctx context.Context, state *migration.Context) (batch.Result, error) {
	rows, err := s.deps.Content.FetchPages(ctx)
	if err != nil {
		return batch.Result{}, err
	}

	transformer := transform.NewContentTransformer(s.deps.Logger)

	fn := func(ctx context.Context, items []models.SourceContentRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			tc := transformer.Transform(row)

			contentID, err := s.deps.Contents.Upsert(ctx, tc.Content)
			if err != nil {
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("content", "failed").Inc()
				continue
			}

			translation := tc.Translation
			translation.ContentID = contentID
			translation.LanguageID = state.DefaultLanguageID
			if err := s.deps.Contents.UpsertTranslation(ctx, translation); err != nil {
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("content", "failed").Inc()
				continue
			}

			br.Success++
			metrics.RecordsMigrated.WithLabelValues("content", "success").Inc()
		}
		return br, nil
	}

	return batch.Process(ctx, s.deps.Processor, rows, fn,
		s.deps.batchOptions(s.deps.Config.DefaultBatchSize, 0, s.Name()))
}

// targetLanguages enumerates the fan-out languages: every non-default target
// language, intersected with the configured list when one is set.
func (s *TranslationsStep) targetLanguages(ctx context.Context, state *migration.Context) ([]models.Language, error) {
	languages, err := s.deps.Lookup.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}

	configured := make(map[string]bool, len(s.deps.Config.TranslationLanguages))
	for _, code := range s.deps.Config.TranslationLanguages {
		configured[code] = true
	}

	var out []models.Language
	for _, language := range languages {
		if language.ID == state.DefaultLanguageID {
			continue
		}
		if len(configured) > 0 && !configured[language.Code] {
			continue
		}
		out = append(out, language)
	}
	return out, nil
}

func (s *TranslationsStep) fanOutCategories(ctx context.Context, state *migration.Context, language models.Language) (batch.Result, error) {
	defaults, err := s.deps.Categories.ListTranslations(ctx, state.DefaultLanguageID)
	if err != nil {
		return batch.Result{}, err
	}

	fn := func(ctx context.Context, items []category.TranslationRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			source := map[string]string{
				"title":            row.Title,
				"description":      sval(row.Description),
				"meta_title":       sval(row.MetaTitle),
				"meta_description": sval(row.MetaDescription),
				"meta_keywords":    sval(row.MetaKeywords),
			}

			existing, err := s.deps.Categories.GetTranslation(ctx, row.CategoryID, language.ID)
			if err != nil {
				return br, err
			}
			if existing != nil && transform.ShouldSkipTranslation(map[string]string{
				"title":            existing.Title,
				"description":      sval(existing.Description),
				"meta_title":       sval(existing.MetaTitle),
				"meta_description": sval(existing.MetaDescription),
				"meta_keywords":    sval(existing.MetaKeywords),
			}, source) {
				br.Success++
				continue
			}

			out, err := s.translate(ctx, state, source, language)
			if err != nil {
				br.Failed++
				continue
			}
			if out["title"] == "" {
				s.deps.Logger.WithContext(ctx).WithFields(map[string]any{
					"category": row.CategoryID,
					"language": language.Code,
				}).Warn("Translated title came back empty, not persisting")
				br.Failed++
				continue
			}

			if err := s.deps.Categories.UpsertTranslation(ctx, models.CategoryTranslation{
				CategoryID:      row.CategoryID,
				LanguageID:      language.ID,
				Title:           out["title"],
				Slug:            slug.Make(out["title"]),
				Description:     pval(out["description"]),
				MetaTitle:       pval(out["meta_title"]),
				MetaDescription: pval(out["meta_description"]),
				MetaKeywords:    pval(out["meta_keywords"]),
			}); err != nil {
				br.Failed++
				continue
			}
			br.Success++
		}
		return br, nil
	}

	return batch.Process(ctx, s.deps.Processor, defaults, fn,
		s.deps.batchOptions(s.deps.Config.TranslationsBatchSize, 0, s.Name()))
}

func (s *TranslationsStep) fanOutProducts(ctx context.Context, state *migration.Context, language models.Language) (batch.Result, error) {
	defaults, err := s.deps.Products.ListTranslations(ctx, state.DefaultLanguageID)
	if err != nil {
		return batch.Result{}, err
	}

	fn := func(ctx context.Context, items []product.TranslationRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			source := map[string]string{
				"title":             row.Title,
				"description":       sval(row.Description),
				"short_description": sval(row.ShortDescription),
				"meta_title":        sval(row.MetaTitle),
				"meta_description":  sval(row.MetaDescription),
				"meta_keywords":     sval(row.MetaKeywords),
			}

			existing, err := s.deps.Products.GetTranslation(ctx, row.ProductID, language.ID)
			if err != nil {
				return br, err
			}
			if existing != nil && transform.ShouldSkipTranslation(map[string]string{
				"title":             existing.Title,
				"description":       sval(existing.Description),
				"short_description": sval(existing.ShortDescription),
				"meta_title":        sval(existing.MetaTitle),
				"meta_description":  sval(existing.MetaDescription),
				"meta_keywords":     sval(existing.MetaKeywords),
			}, source) {
				br.Success++
				continue
			}

			out, err := s.translate(ctx, state, source, language)
			if err != nil {
				br.Failed++
				continue
			}
			if out["title"] == "" {
				s.deps.Logger.WithContext(ctx).WithFields(map[string]any{
					"product":  row.ProductID,
					"language": language.Code,
				}).Warn("Translated title came back empty, not persisting")
				br.Failed++
				continue
			}

			if err := s.deps.Products.UpsertTranslation(ctx, models.ProductTranslation{
				ProductID:        row.ProductID,
				LanguageID:       language.ID,
				Title:            out["title"],
				Slug:             slug.Make(out["title"]),
				Description:      pval(out["description"]),
				ShortDescription: pval(out["short_description"]),
				MetaTitle:        pval(out["meta_title"]),
				MetaDescription:  pval(out["meta_description"]),
				MetaKeywords:     pval(out["meta_keywords"]),
			}); err != nil {
				br.Failed++
				continue
			}
			br.Success++
		}
		return br, nil
	}

	return batch.Process(ctx, s.deps.Processor, defaults, fn,
		s.deps.batchOptions(s.deps.Config.TranslationsBatchSize, 0, s.Name()))
}

func (s *TranslationsStep) fanOutContents(ctx context.Context, state *migration.Context, language models.Language) (batch.Result, error) {
	defaults, err := s.deps.Contents.ListTranslations(ctx, state.DefaultLanguageID)
	if err != nil {
		return batch.Result{}, err
	}

	fn := func(ctx context.Context, items []content.TranslationRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			source := map[string]string{
				"title":            row.Title,
				"body":             sval(row.Body),
				"meta_title":       sval(row.MetaTitle),
				"meta_description": sval(row.MetaDescription),
				"meta_keywords":    sval(row.MetaKeywords),
			}

			existing, err := s.deps.Contents.GetTranslation(ctx, row.ContentID, language.ID)
			if err != nil {
				return br, err
			}
			if existing != nil && transform.ShouldSkipTranslation(map[string]string{
				"title":            existing.Title,
				"body":             sval(existing.Body),
				"meta_title":       sval(existing.MetaTitle),
				"meta_description": sval(existing.MetaDescription),
				"meta_keywords":    sval(existing.MetaKeywords),
			}, source) {
				br.Success++
				continue
			}

			out, err := s.translate(ctx, state, source, language)
			if err != nil {
				br.Failed++
				continue
			}
			if out["title"] == "" {
				s.deps.Logger.WithContext(ctx).WithFields(map[string]any{
					"content":  row.ContentID,
					"language": language.Code,
				}).Warn("Translated title came back empty, not persisting")
				br.Failed++
				continue
			}

			if err := s.deps.Contents.UpsertTranslation(ctx, models.ContentTranslation{
				ContentID:       row.ContentID,
				LanguageID:      language.ID,
				Title:           out["title"],
				Slug:            slug.Make(out["title"]),
				Body:            pval(out["body"]),
				MetaTitle:       pval(out["meta_title"]),
				MetaDescription: pval(out["meta_description"]),
				MetaKeywords:    pval(out["meta_keywords"]),
			}); err != nil {
				br.Failed++
				continue
			}
			br.Success++
		}
		return br, nil
	}

	return batch.Process(ctx, s.deps.Processor, defaults, fn,
		s.deps.batchOptions(s.deps.Config.TranslationsBatchSize, 0, s.Name()))
}

func (s *TranslationsStep) translate(ctx context.Context, state *migration.Context, fields map[string]string, language models.Language) (map[string]string, error) {
	return transform.TranslateFields(ctx, s.deps.Translator, fields, state.DefaultLanguageCode, language.Code, s.deps.Logger)
}

func sval(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// pval returns nil for empty strings so they persist as NULL.
func pval(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
