package source

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// ContentReader fetches editorial pages and currency rates.
type ContentReader struct {
	db     database.DB
	logger ectologger.Logger
}

func NewContentReader(db database.DB, logger ectologger.Logger) *ContentReader {
	return &ContentReader{db: db, logger: logger}
}

// FetchPages returns every CMS page.
func (r *ContentReader) FetchPages(ctx context.Context) ([]models.SourceContentRow, error) {
	ctx, span := tracing.StartSpan(ctx, "source.ContentReader.FetchPages")
	defer span.End()

	started := time.Now()

	query := `
		SELECT p.page_id AS page_id,
		       p.identifier AS identifier,
		       p.title AS title,
		       p.content_heading AS content_heading,
		       p.content AS content,
		       p.meta_title AS meta_title,
		       p.meta_description AS meta_description,
		       p.meta_keywords AS meta_keywords,
		       p.is_active AS is_active
		FROM cms_page p
		ORDER BY p.page_id`

	var pages []models.SourceContentRow
	if err := r.db.SelectContext(ctx, &pages, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source CMS pages")
		return nil, fmt.Errorf("failed to fetch source cms pages: %w", err)
	}

	metrics.SourceQueryDuration.WithLabelValues("content").Observe(time.Since(started).Seconds())
	r.logger.WithContext(ctx).WithField("count", len(pages)).Info("Fetched source CMS pages")
	return pages, nil
}

// FetchCurrencyRates returns the conversion rates from the given base
// currency.
func (r *ContentReader) FetchCurrencyRates(ctx context.Context, base string) ([]models.SourceCurrencyRateRow, error) {
	ctx, span := tracing.StartSpan(ctx, "source.ContentReader.FetchCurrencyRates")
	defer span.End()

	query := `
		SELECT dr.currency_from AS currency_from,
		       dr.currency_to AS currency_to,
		       dr.rate AS rate
		FROM directory_currency_rate dr
		WHERE dr.currency_from = ?`

	var rates []models.SourceCurrencyRateRow
	if err := r.db.SelectContext(ctx, &rates, query, base); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source currency rates")
		return nil, fmt.Errorf("failed to fetch source currency rates: %w", err)
	}
	return rates, nil
}
