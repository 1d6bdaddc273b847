package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// ProductFilters narrows the product fetch.
type ProductFilters struct {
	TypeID        string
	ExcludedSKUs  []string
	OrderStatuses []string
}

// CatalogReader fetches products, categories and gallery images.
type CatalogReader struct {
	db     database.DB
	logger ectologger.Logger
}

func NewCatalogReader(db database.DB, logger ectologger.Logger) *CatalogReader {
	return &CatalogReader{db: db, logger: logger}
}

// eavJoin renders one LEFT JOIN against a typed EAV value table.
func eavJoin(table, alias string, attributeID int64) string {
	return fmt.Sprintf(
		"LEFT JOIN %s %s ON %s.entity_id = e.entity_id AND %s.attribute_id = %d AND %s.store_id = 0\n",
		table, alias, alias, alias, attributeID, alias)
}

// FetchProducts issues the grouped product query. The url_key column is
// fetched by FetchURLKeys and merged by the caller; including it here would
// widen the group key and duplicate rows.
func (r *CatalogReader) FetchProducts(ctx context.Context, state *migration.Context, filters ProductFilters) ([]models.SourceProductRow, error) {
	ctx, span := tracing.StartSpan(ctx, "source.CatalogReader.FetchProducts")
	defer span.End()

	started := time.Now()

	attr := func(code string) int64 {
		id, ok := state.AttributeID(EntityProduct, code)
		if !ok {
			return -1
		}
		return id
	}

	var sb strings.Builder
	sb.WriteString(`SELECT
	e.entity_id AS entity_id,
	e.sku AS sku,
	e.type_id AS type_id,
	e.created_at AS created_at,
	name_v.value AS eav_name,
	f.name AS flat_name,
	price_d.value AS eav_price,
	f.price AS flat_price,
	desc_t.value AS eav_description,
	f.description AS flat_description,
	shortdesc_t.value AS short_description,
	f.url_key AS flat_url_key,
	country_opt.value AS country_option,
	f.country_value AS country_value,
	com_v.value AS country_of_manufacture,
	gradepfx_v.value AS grade_prefix,
	gradeval_i.value AS grade_value,
	gradesfx_v.value AS grade_suffix,
	metatitle_v.value AS meta_title,
	metadesc_v.value AS meta_description,
	metakey_v.value AS meta_keywords,
	year_v.value AS year_value,
	sortstr_v.value AS sort_string,
	solddate_dt.value AS sold_date,
	soldprice_d.value AS sold_price,
	agg.sold_date AS agg_sold_date,
	agg.sold_price AS agg_sold_price,
	status_i.value AS status,
	vis_i.value AS visibility,
	arch_i.value AS archived_status,
	certtype_i.value AS certification_type,
	certno_v.value AS certification_number,
	saleacct_v.value AS sale_account,
	COALESCE(GROUP_CONCAT(DISTINCT ccp.category_id), '') AS category_ids
FROM catalog_product_entity e
LEFT JOIN catalog_product_flat_1 f ON f.entity_id = e.entity_id
`)

	sb.WriteString(eavJoin("catalog_product_entity_varchar", "name_v", attr(AttrName)))
	sb.WriteString(eavJoin("catalog_product_entity_decimal", "price_d", attr(AttrPrice)))
	sb.WriteString(eavJoin("catalog_product_entity_text", "desc_t", attr(AttrDescription)))
	sb.WriteString(eavJoin("catalog_product_entity_text", "shortdesc_t", attr(AttrShortDescription)))
	sb.WriteString(eavJoin("catalog_product_entity_int", "country_i", attr(AttrCountryInt)))
	sb.WriteString("LEFT JOIN eav_attribute_option_value country_opt ON country_opt.option_id = country_i.value AND country_opt.store_id = 0\n")
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "com_v", attr(AttrCountryOfManufacture)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "gradepfx_v", attr(AttrGradePrefix)))
	sb.WriteString(eavJoin("catalog_product_entity_int", "gradeval_i", attr(AttrGradeValue)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "gradesfx_v", attr(AttrGradeSuffix)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "metatitle_v", attr(AttrMetaTitle)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "metadesc_v", attr(AttrMetaDescription)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "metakey_v", attr(AttrMetaKeyword)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "year_v", attr(AttrYear)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "sortstr_v", attr(AttrSortString)))
	sb.WriteString(eavJoin("catalog_product_entity_datetime", "solddate_dt", attr(AttrSoldDate)))
	sb.WriteString(eavJoin("catalog_product_entity_decimal", "soldprice_d", attr(AttrSoldPrice)))
	sb.WriteString(eavJoin("catalog_product_entity_int", "status_i", attr(AttrStatus)))
	sb.WriteString(eavJoin("catalog_product_entity_int", "vis_i", attr(AttrVisibility)))
	sb.WriteString(eavJoin("catalog_product_entity_int", "arch_i", attr(AttrArchivedStatus)))
	sb.WriteString(eavJoin("catalog_product_entity_int", "certtype_i", attr(AttrCertificationType)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "certno_v", attr(AttrCertificationNumber)))
	sb.WriteString(eavJoin("catalog_product_entity_varchar", "saleacct_v", attr(AttrSaleAccount)))
	sb.WriteString("LEFT JOIN catalog_category_product ccp ON ccp.product_id = e.entity_id\n")

	var args []any

	// Sold-date and sold-price aggregates across whitelisted order statuses.
	if len(filters.OrderStatuses) > 0 {
		sb.WriteString(`LEFT JOIN (
	SELECT oi.product_id AS product_id,
	       MAX(o.created_at) AS sold_date,
	       MAX(oi.price) AS sold_price
	FROM sales_flat_order_item oi
	JOIN sales_flat_order o ON o.entity_id = oi.order_id
	WHERE o.status IN (` + placeholders(len(filters.OrderStatuses)) + `)
	GROUP BY oi.product_id
) agg ON agg.product_id = e.entity_id
`)
		for _, status := range filters.OrderStatuses {
			args = append(args, status)
		}
	} else {
		sb.WriteString("LEFT JOIN (SELECT NULL AS product_id, NULL AS sold_date, NULL AS sold_price) agg ON agg.product_id = e.entity_id\n")
	}

	sb.WriteString("WHERE e.type_id = ?\n")
	args = append(args, filters.TypeID)

	if len(filters.ExcludedSKUs) > 0 {
		sb.WriteString("AND e.sku NOT IN (" + placeholders(len(filters.ExcludedSKUs)) + ")\n")
		for _, sku := range filters.ExcludedSKUs {
			args = append(args, sku)
		}
	}

	sb.WriteString("GROUP BY e.entity_id\nORDER BY e.entity_id")

	var rows []models.SourceProductRow
	if err := r.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source products")
		return nil, fmt.Errorf("failed to fetch source products: %w", err)
	}

	metrics.SourceQueryDuration.WithLabelValues("products").Observe(time.Since(started).Seconds())
	r.logger.WithContext(ctx).WithField("count", len(rows)).Info("Fetched source products")
	return rows, nil
}

// FetchURLKeys fetches the EAV url_key per product in a separate statement
// and merges it into the given rows in place.
func (r *CatalogReader) FetchURLKeys(ctx context.Context, state *migration.Context, rows []models.SourceProductRow) error {
	ctx, span := tracing.StartSpan(ctx, "source.CatalogReader.FetchURLKeys")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	attrID, ok := state.AttributeID(EntityProduct, AttrURLKey)
	if !ok {
		r.logger.WithContext(ctx).Warn("url_key attribute not present in source, skipping merge")
		return nil
	}

	query := `
		SELECT entity_id AS entity_id, value AS url_key
		FROM catalog_product_entity_varchar
		WHERE attribute_id = ? AND store_id = 0`

	var keyRows []struct {
		EntityID int64   `db:"entity_id"`
		URLKey   *string `db:"url_key"`
	}
	if err := r.db.SelectContext(ctx, &keyRows, query, attrID); err != nil {
		return fmt.Errorf("failed to fetch product url keys: %w", err)
	}

	byEntity := make(map[int64]*string, len(keyRows))
	for _, row := range keyRows {
		byEntity[row.EntityID] = row.URLKey
	}
	for i := range rows {
		if urlKey, ok := byEntity[rows[i].EntityID]; ok {
			rows[i].URLKey = urlKey
		}
	}
	return nil
}

// FetchImages fetches the media gallery ordered by product and position.
// Rows with no store-0 value row have a NULL position and sort last.
func (r *CatalogReader) FetchImages(ctx context.Context) ([]models.SourceMediaGalleryRow, error) {
	ctx, span := tracing.StartSpan(ctx, "source.CatalogReader.FetchImages")
	defer span.End()

	query := `
		SELECT g.value_id AS value_id,
		       g.entity_id AS entity_id,
		       g.value AS value,
		       gv.label AS label,
		       gv.position AS position
		FROM catalog_product_entity_media_gallery g
		LEFT JOIN catalog_product_entity_media_gallery_value gv
			ON gv.value_id = g.value_id AND gv.store_id = 0
		ORDER BY g.entity_id, gv.position IS NULL, gv.position, g.value_id`

	var rows []models.SourceMediaGalleryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source media gallery")
		return nil, fmt.Errorf("failed to fetch source media gallery: %w", err)
	}
	return rows, nil
}

// FetchCategories fetches the category tree with its EAV attributes, root
// containers excluded.
func (r *CatalogReader) FetchCategories(ctx context.Context, state *migration.Context) ([]models.SourceCategoryRow, error) {
	ctx, span := tracing.StartSpan(ctx, "source.CatalogReader.FetchCategories")
	defer span.End()

	started := time.Now()

	attr := func(code string) int64 {
		id, ok := state.AttributeID(EntityCategory, code)
		if !ok {
			return -1
		}
		return id
	}

	var sb strings.Builder
	sb.WriteString(`SELECT
	e.entity_id AS entity_id,
	e.parent_id AS parent_id,
	e.position AS position,
	e.level AS level,
	urlkey_v.value AS url_key,
	name_v.value AS name,
	desc_t.value AS description,
	metatitle_v.value AS meta_title,
	metadesc_t.value AS meta_description,
	metakey_t.value AS meta_keywords,
	active_i.value AS is_active
FROM catalog_category_entity e
`)
	sb.WriteString(eavJoin("catalog_category_entity_varchar", "urlkey_v", attr(AttrCategoryURLKey)))
	sb.WriteString(eavJoin("catalog_category_entity_varchar", "name_v", attr(AttrCategoryName)))
	sb.WriteString(eavJoin("catalog_category_entity_text", "desc_t", attr(AttrCategoryDescription)))
	sb.WriteString(eavJoin("catalog_category_entity_varchar", "metatitle_v", attr(AttrMetaTitle)))
	sb.WriteString(eavJoin("catalog_category_entity_text", "metadesc_t", attr(AttrMetaDescription)))
	sb.WriteString(eavJoin("catalog_category_entity_text", "metakey_t", attr(AttrMetaKeyword)))
	sb.WriteString(eavJoin("catalog_category_entity_int", "active_i", attr(AttrCategoryIsActive)))

	// Levels 0 and 1 are the invisible root containers.
	sb.WriteString("WHERE e.level >= 2\nORDER BY e.level, e.position")

	var rows []models.SourceCategoryRow
	if err := r.db.SelectContext(ctx, &rows, sb.String()); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source categories")
		return nil, fmt.Errorf("failed to fetch source categories: %w", err)
	}

	metrics.SourceQueryDuration.WithLabelValues("categories").Observe(time.Since(started).Seconds())
	r.logger.WithContext(ctx).WithField("count", len(rows)).Info("Fetched source categories")
	return rows, nil
}
