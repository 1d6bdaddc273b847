// Package transform converts source EAV rows into target-shaped records.
// Transformers are total: every field has an explicit fallback.
package transform

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/countries"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/grading"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/slug"
)

// archivedGracePeriod is added to the sold date to produce archived_at.
const archivedGracePeriod = 21 * 24 * time.Hour

// certificationProviders maps source certification_type codes to provider names.
var certificationProviders = map[string]string{
	"4":   "PCGS",
	"5":   "NGC",
	"262": "PMG",
	"6":   "Other",
}

// uncertifiedProvider is used when the type is unknown but a certification
// number exists.
const uncertifiedProvider = "Uncertified"

// TransformedProduct is the output of the product transformer. The default
// language translation is keyed by web SKU until the product row is inserted
// and its real id is known.
type TransformedProduct struct {
	Product           models.Product
	Translation       models.ProductTranslation
	CategorySourceIDs []int64
}

// ProductTransformer derives target product rows from grouped source rows.
type ProductTransformer struct {
	countries *countries.Resolver
	refs      *refdata.Resolver
	logger    ectologger.Logger
}

func NewProductTransformer(countryResolver *countries.Resolver, refs *refdata.Resolver, logger ectologger.Logger) *ProductTransformer {
	return &ProductTransformer{
		countries: countryResolver,
		refs:      refs,
		logger:    logger,
	}
}

// Transform produces the target product record for one source row. An
// unmappable row returns a migration error of kind unmappable; callers log
// it at debug and skip without counting a failure.
func (t *ProductTransformer) Transform(ctx context.Context, row models.SourceProductRow) (*TransformedProduct, error) {
	createdAt, err := ParseSourceDate(row.CreatedAt)
	if err != nil {
		return nil, migration.NewMigrationErrorf(migration.KindUnmappable, "product %s has unparseable created_at %q", row.SKU, row.CreatedAt).AddEntity(row.SKU)
	}

	name := firstNonEmpty(deref(row.EavName), deref(row.FlatName), row.SKU)
	price := firstFloat(row.EavPrice, row.FlatPrice)
	description := strPtr(firstNonEmpty(deref(row.EavDescription), deref(row.FlatDescription)))
	urlKey := firstNonEmpty(deref(row.URLKey), deref(row.FlatURLKey))

	grade := t.resolveGrade(row)
	soldDate := t.resolveSoldDate(ctx, row)
	soldPrice := firstFloat(row.SoldPrice, row.AggSoldPrice)
	status := deriveStatus(row, soldDate)

	product := models.Product{
		ProductIdentity: row.SKU + "-" + strconv.FormatInt(row.EntityID, 10),
		ProductSKU:      row.SKU,
		ProductWebSKU:   WebSKU(row.SKU, createdAt),
		Price:           price,
		Status:          status,
		IsActive:        deref(row.Status) == "1" && (deref(row.Visibility) == "2" || deref(row.Visibility) == "4"),
		SoldDate:        soldDate,
		SoldPrice:       soldPrice,
		CreatedAt:       createdAt,
	}

	for _, candidate := range []string{deref(row.YearValue), deref(row.SortString), name} {
		if year := ExtractYear(candidate); year != nil {
			product.Year = year
			product.YearText = strPtr(strconv.Itoa(*year))
			break
		}
	}

	if grade != nil {
		product.CoinGradePrefix = strPtr(grade.Prefix)
		product.CoinGradeValue = &grade.Value
		product.CoinGradeSuffix = strPtr(grade.Suffix)
		product.CoinGradeText = strPtr(grade.Text())
		ourGrade := grading.ConvertTo10PointScale(grade.Value)
		product.CoinOurGrade = &ourGrade
	}

	if status == models.ProductStatusArchived && soldDate != nil {
		archivedAt := soldDate.Add(archivedGracePeriod)
		product.ArchivedAt = &archivedAt
	}

	if err := t.resolveProvider(ctx, row, &product); err != nil {
		return nil, err
	}
	if err := t.resolveCountry(ctx, row, &product); err != nil {
		return nil, err
	}
	if err := t.resolveXero(ctx, row, &product); err != nil {
		return nil, err
	}

	translation := models.ProductTranslation{
		Title:            name,
		Slug:             slug.Make(firstNonEmpty(urlKey, name)),
		Description:      description,
		ShortDescription: strPtr(deref(row.ShortDescription)),
		MetaTitle:        strPtr(deref(row.MetaTitle)),
		MetaDescription:  strPtr(deref(row.MetaDescription)),
		MetaKeywords:     strPtr(deref(row.MetaKeywords)),
	}

	return &TransformedProduct{
		Product:           product,
		Translation:       translation,
		CategorySourceIDs: ParseCategoryIDs(row.CategoryIDs),
	}, nil
}

func (t *ProductTransformer) resolveGrade(row models.SourceProductRow) *grading.Grade {
	if deref(row.GradePrefix) != "" {
		grade := grading.Grade{Prefix: deref(row.GradePrefix), Suffix: deref(row.GradeSuffix)}
		if row.GradeValue != nil {
			grade.Value = *row.GradeValue
		}
		return &grade
	}

	if grade, ok := grading.ParseMetaTitle(deref(row.MetaTitle)); ok {
		return &grade
	}
	return nil
}

func (t *ProductTransformer) resolveSoldDate(ctx context.Context, row models.SourceProductRow) *time.Time {
	for _, raw := range []*string{row.SoldDate, row.AggSoldDate} {
		if deref(raw) == "" {
			continue
		}
		if date, err := ParseSourceDate(*raw); err == nil {
			return &date
		}
		t.logger.WithContext(ctx).WithFields(map[string]any{
			"sku":       row.SKU,
			"sold_date": *raw,
		}).Debug("Unparseable sold date, trying fallback")
	}
	return nil
}

func (t *ProductTransformer) resolveProvider(ctx context.Context, row models.SourceProductRow, product *models.Product) error {
	name, known := certificationProviders[deref(row.CertificationType)]
	if !known {
		if deref(row.CertificationNumber) == "" {
			return nil
		}
		name = uncertifiedProvider
	}

	id, err := t.refs.ProviderID(ctx, name)
	if err != nil {
		return err
	}
	if id == nil {
		t.logger.WithContext(ctx).WithFields(map[string]any{
			"sku":      row.SKU,
			"provider": name,
		}).Debug("Certificate provider missing from target")
		return nil
	}
	product.CertificateProviderID = id
	return nil
}

func (t *ProductTransformer) resolveCountry(ctx context.Context, row models.SourceProductRow, product *models.Product) error {
	var raw string
	for _, candidate := range []*string{row.CountryOption, row.CountryValue, row.CountryOfManufacture} {
		if candidate != nil && !countries.IsSentinel(*candidate) {
			raw = *candidate
			break
		}
	}
	if raw == "" {
		return nil
	}

	iso2, ok := t.countries.ISO2(raw)
	if !ok {
		t.logger.WithContext(ctx).WithFields(map[string]any{
			"sku":     row.SKU,
			"country": raw,
		}).Debug("Unknown country value")
		return nil
	}

	id, found, err := t.refs.CountryID(ctx, iso2)
	if err != nil {
		return err
	}
	if !found {
		t.logger.WithContext(ctx).WithFields(map[string]any{
			"sku":  row.SKU,
			"iso2": iso2,
		}).Debug("Country missing from target")
		return nil
	}
	product.CountryID = &id
	return nil
}

func (t *ProductTransformer) resolveXero(ctx context.Context, row models.SourceProductRow, product *models.Product) error {
	code := deref(row.SaleAccount)
	if code == "" {
		return nil
	}

	ref, err := t.refs.XeroAccount(ctx, code)
	if err != nil {
		return err
	}
	if ref == nil {
		t.logger.WithContext(ctx).WithFields(map[string]any{
			"sku":          row.SKU,
			"sale_account": code,
		}).Debug("Xero account missing from target")
		return nil
	}
	product.XeroAccountID = &ref.AccountID
	product.XeroTenantID = &ref.TenantID
	return nil
}

func deriveStatus(row models.SourceProductRow, soldDate *time.Time) models.ProductStatus {
	if deref(row.ArchivedStatus) == "1" {
		return models.ProductStatusArchived
	}
	if soldDate != nil {
		return models.ProductStatusSold
	}
	return models.ProductStatusPending
}

// WebSKU derives the deterministic external identifier from the SKU and
// source creation time.
func WebSKU(sku string, createdAt time.Time) string {
	return sku + "-" + strconv.FormatInt(createdAt.Unix(), 36)
}

var sourceDateFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseSourceDate parses the date formats the source emits. All source
// timestamps are treated as UTC.
func ParseSourceDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, format := range sourceDateFormats {
		date, err := time.ParseInLocation(format, raw, time.UTC)
		if err == nil {
			return date, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// ExtractYear finds the first 4-digit year in [1000, 2100] in the value.
func ExtractYear(value string) *int {
	for _, match := range yearPattern.FindAllString(value, -1) {
		year, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if year >= 1000 && year <= 2100 {
			return &year
		}
	}
	return nil
}

// ParseCategoryIDs splits the grouped concatenation of category entity ids.
func ParseCategoryIDs(raw string) []int64 {
	var ids []int64
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// strPtr returns nil for empty strings so empty values persist as NULL.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
