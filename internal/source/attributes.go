// Package source reads the legacy EAV store. All queries are read-only and
// use MySQL placeholder syntax.
package source

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// Entity kind keys used in the shared migration context.
const (
	EntityProduct         = "catalog_product"
	EntityCategory        = "catalog_category"
	EntityCustomer        = "customer"
	EntityCustomerAddress = "customer_address"
)

// Product attribute codes resolved during prepare.
const (
	AttrName                 = "name"
	AttrPrice                = "price"
	AttrDescription          = "description"
	AttrShortDescription     = "short_description"
	AttrURLKey               = "url_key"
	AttrCountryInt           = "country_int"
	AttrCountryOfManufacture = "country_of_manufacture"
	AttrGradePrefix          = "coin_grade_prefix"
	AttrGradeValue           = "coin_grade_value"
	AttrGradeSuffix          = "coin_grade_suffix"
	AttrMetaTitle            = "meta_title"
	AttrMetaDescription      = "meta_description"
	AttrMetaKeyword          = "meta_keyword"
	AttrYear                 = "year"
	AttrSortString           = "sort_string"
	AttrSoldDate             = "sold_date"
	AttrSoldPrice            = "sold_price"
	AttrStatus               = "status"
	AttrVisibility           = "visibility"
	AttrArchivedStatus       = "archived_status"
	AttrCertificationType    = "certification_type"
	AttrCertificationNumber  = "certification_number"
	AttrSaleAccount          = "sale_account"
)

// Category attribute codes.
const (
	AttrCategoryName        = "name"
	AttrCategoryURLKey      = "url_key"
	AttrCategoryDescription = "description"
	AttrCategoryIsActive    = "is_active"
)

// Customer attribute codes.
const (
	AttrCustomerFirstName = "firstname"
	AttrCustomerLastName  = "lastname"
)

// AttributeReader loads the EAV attribute-id map for the entity kinds the
// migration touches.
type AttributeReader struct {
	db     database.DB
	logger ectologger.Logger
}

func NewAttributeReader(db database.DB, logger ectologger.Logger) *AttributeReader {
	return &AttributeReader{db: db, logger: logger}
}

// LoadAttributeIDs fetches every attribute of the given entity kinds, keyed
// by entity type code then attribute code.
func (r *AttributeReader) LoadAttributeIDs(ctx context.Context, entityTypes ...string) (map[string]map[string]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "source.AttributeReader.LoadAttributeIDs")
	defer span.End()

	query := `
		SELECT et.entity_type_code AS entity_type_code,
		       ea.attribute_id AS attribute_id,
		       ea.attribute_code AS attribute_code
		FROM eav_attribute ea
		JOIN eav_entity_type et ON et.entity_type_id = ea.entity_type_id
		WHERE et.entity_type_code IN (` + placeholders(len(entityTypes)) + `)`

	args := make([]any, len(entityTypes))
	for i, entityType := range entityTypes {
		args[i] = entityType
	}

	var rows []struct {
		EntityTypeCode string `db:"entity_type_code"`
		AttributeID    int64  `db:"attribute_id"`
		AttributeCode  string `db:"attribute_code"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load EAV attribute map")
		return nil, fmt.Errorf("failed to load eav attributes: %w", err)
	}

	result := make(map[string]map[string]int64, len(entityTypes))
	for _, row := range rows {
		attrs, ok := result[row.EntityTypeCode]
		if !ok {
			attrs = make(map[string]int64)
			result[row.EntityTypeCode] = attrs
		}
		attrs[row.AttributeCode] = row.AttributeID
	}

	r.logger.WithContext(ctx).WithField("entity_types", len(result)).Info("Loaded EAV attribute map")
	return result, nil
}

// placeholders renders n comma-separated MySQL placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ", ?"
	}
	return out
}
