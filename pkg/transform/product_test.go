package transform

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/countries"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
)

type fakeDB struct {
	database.DB
}

func (f *fakeDB) GetContext(_ context.Context, dest any, query string, args ...any) error {
	key, _ := args[0].(string)
	switch {
	case strings.Contains(query, "certificate_providers"):
		ids := map[string]int64{"PCGS": 1, "NGC": 2, "PMG": 3, "Other": 4, "Uncertified": 5}
		if id, ok := ids[key]; ok {
			*dest.(*int64) = id
			return nil
		}
	case strings.Contains(query, "countries"):
		ids := map[string]int64{"US": 10, "AU": 11, "GB": 12}
		if id, ok := ids[key]; ok {
			*dest.(*int64) = id
			return nil
		}
	case strings.Contains(query, "xero_accounts"):
		if key == "200" {
			ref := dest.(*refdata.XeroAccountRef)
			ref.AccountID = 3
			ref.TenantID = 9
			return nil
		}
	}
	return sql.ErrNoRows
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testProductTransformer(t *testing.T) *ProductTransformer {
	t.Helper()
	logger := testLogger()
	countryResolver := countries.Load(filepath.Join(t.TempDir(), "missing.json"), logger)
	refs := refdata.NewResolver(&fakeDB{}, logger)
	return NewProductTransformer(countryResolver, refs, logger)
}

func s(v string) *string    { return &v }
func f(v float64) *float64  { return &v }
func i(v int) *int          { return &v }

func TestTransformProductWithFullEavGrade(t *testing.T) {
	tr := testProductTransformer(t)

	row := models.SourceProductRow{
		EntityID:          42,
		SKU:               "COIN-1",
		TypeID:            "simple",
		CreatedAt:         "2020-01-01 00:00:00",
		EavName:           s("1885 Gold Sovereign"),
		EavPrice:          f(1250.00),
		GradePrefix:       s("MS"),
		GradeValue:        i(65),
		GradeSuffix:       s("BN"),
		CertificationType: s("4"),
		CountryValue:      s("United States"),
		Status:            s("1"),
		Visibility:        s("4"),
		SaleAccount:       s("200"),
		CategoryIDs:       "5,7",
	}

	got, err := tr.Transform(context.Background(), row)
	require.NoError(t, err)

	assert.Equal(t, "COIN-1-q3eio0", got.Product.ProductWebSKU)
	assert.Equal(t, "COIN-1-42", got.Product.ProductIdentity)
	assert.Equal(t, "COIN-1", got.Product.ProductSKU)
	require.NotNil(t, got.Product.CoinOurGrade)
	assert.Equal(t, 9.5, *got.Product.CoinOurGrade)
	require.NotNil(t, got.Product.CoinGradeText)
	assert.Equal(t, "MS65BN", *got.Product.CoinGradeText)
	require.NotNil(t, got.Product.CertificateProviderID)
	assert.Equal(t, int64(1), *got.Product.CertificateProviderID, "certification_type 4 is PCGS")
	require.NotNil(t, got.Product.CountryID)
	assert.Equal(t, int64(10), *got.Product.CountryID, "United States resolves to US")
	require.NotNil(t, got.Product.XeroAccountID)
	assert.Equal(t, int64(3), *got.Product.XeroAccountID)
	assert.Equal(t, int64(9), *got.Product.XeroTenantID)
	assert.True(t, got.Product.IsActive)
	assert.Equal(t, models.ProductStatusPending, got.Product.Status)
	require.NotNil(t, got.Product.Year)
	assert.Equal(t, 1885, *got.Product.Year)
	assert.Equal(t, []int64{5, 7}, got.CategorySourceIDs)
	assert.Equal(t, "1885 Gold Sovereign", got.Translation.Title)
	assert.Equal(t, "1885-gold-sovereign", got.Translation.Slug)
}

func TestTransformProductGradeFromMetaTitle(t *testing.T) {
	tr := testProductTransformer(t)

	row := models.SourceProductRow{
		EntityID:  7,
		SKU:       "COIN-2",
		CreatedAt: "2019-06-15 12:30:00",
		FlatName:  s("Shield Penny"),
		MetaTitle: s("PCGS XF45BN"),
	}

	got, err := tr.Transform(context.Background(), row)
	require.NoError(t, err)

	require.NotNil(t, got.Product.CoinGradePrefix)
	assert.Equal(t, "XF", *got.Product.CoinGradePrefix)
	require.NotNil(t, got.Product.CoinGradeSuffix)
	assert.Equal(t, "BN", *got.Product.CoinGradeSuffix)
	require.NotNil(t, got.Product.CoinOurGrade)
	assert.Equal(t, 7.5, *got.Product.CoinOurGrade)
}

func TestTransformProductPrecedence(t *testing.T) {
	tr := testProductTransformer(t)

	row := models.SourceProductRow{
		EntityID:        1,
		SKU:             "SKU-P",
		CreatedAt:       "2021-03-01 00:00:00",
		EavName:         s("EAV Name"),
		FlatName:        s("Flat Name"),
		EavPrice:        f(10),
		FlatPrice:       f(20),
		EavDescription:  s("eav description"),
		FlatDescription: s("flat description"),
	}

	got, err := tr.Transform(context.Background(), row)
	require.NoError(t, err)

	assert.Equal(t, "EAV Name", got.Translation.Title)
	require.NotNil(t, got.Product.Price)
	assert.Equal(t, 10.0, *got.Product.Price)
	require.NotNil(t, got.Translation.Description)
	assert.Equal(t, "eav description", *got.Translation.Description)
}

func TestTransformProductNameFallsBackToSKU(t *testing.T) {
	tr := testProductTransformer(t)

	got, err := tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:  1,
		SKU:       "BARE-SKU",
		CreatedAt: "2021-03-01 00:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "BARE-SKU", got.Translation.Title)
}

func TestTransformProductStatusDerivation(t *testing.T) {
	tr := testProductTransformer(t)

	archived, err := tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:       1,
		SKU:            "A",
		CreatedAt:      "2021-01-01 00:00:00",
		ArchivedStatus: s("1"),
		SoldDate:       s("2021-05-01 00:00:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusArchived, archived.Product.Status)
	require.NotNil(t, archived.Product.ArchivedAt)
	assert.Equal(t,
		time.Date(2021, 5, 22, 0, 0, 0, 0, time.UTC),
		*archived.Product.ArchivedAt,
		"archived_at is sold_date plus 21 days")

	sold, err := tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:    2,
		SKU:         "B",
		CreatedAt:   "2021-01-01 00:00:00",
		AggSoldDate: s("2021-05-01 00:00:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusSold, sold.Product.Status)
	assert.Nil(t, sold.Product.ArchivedAt)

	pending, err := tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:  3,
		SKU:       "C",
		CreatedAt: "2021-01-01 00:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusPending, pending.Product.Status)
}

func TestTransformProductUncertifiedProvider(t *testing.T) {
	tr := testProductTransformer(t)

	got, err := tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:            1,
		SKU:                 "U",
		CreatedAt:           "2021-01-01 00:00:00",
		CertificationType:   s("999"),
		CertificationNumber: s("CERT-77"),
	})
	require.NoError(t, err)
	require.NotNil(t, got.Product.CertificateProviderID)
	assert.Equal(t, int64(5), *got.Product.CertificateProviderID)

	// Unknown type and no certification number means no provider at all.
	got, err = tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:          2,
		SKU:               "U2",
		CreatedAt:         "2021-01-01 00:00:00",
		CertificationType: s("999"),
	})
	require.NoError(t, err)
	assert.Nil(t, got.Product.CertificateProviderID)
}

func TestTransformProductCountrySentinels(t *testing.T) {
	tr := testProductTransformer(t)

	got, err := tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:             1,
		SKU:                  "C",
		CreatedAt:            "2021-01-01 00:00:00",
		CountryOption:        s("NULL"),
		CountryValue:         s("none"),
		CountryOfManufacture: s("AU"),
	})
	require.NoError(t, err)
	require.NotNil(t, got.Product.CountryID)
	assert.Equal(t, int64(11), *got.Product.CountryID, "sentinels must fall through to the next source")
}

func TestTransformProductUnparseableCreatedAt(t *testing.T) {
	tr := testProductTransformer(t)

	_, err := tr.Transform(context.Background(), models.SourceProductRow{
		EntityID:  1,
		SKU:       "BAD",
		CreatedAt: "not a date",
	})
	require.Error(t, err)
	assert.Equal(t, migration.KindUnmappable, migration.KindOf(err))
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		value string
		want  *int
	}{
		{"(199", nil},
		{"none", nil},
		{"1999-W", i(1999)},
		{"2100", i(2100)},
		{"2101", nil},
		{"0999", nil},
		{"minted in 1885 in london", i(1885)},
		{"", nil},
	}

	for _, tt := range tests {
		got := ExtractYear(tt.value)
		if tt.want == nil {
			assert.Nil(t, got, "value %q", tt.value)
		} else {
			require.NotNil(t, got, "value %q", tt.value)
			assert.Equal(t, *tt.want, *got)
		}
	}
}

func TestWebSKUBase36(t *testing.T) {
	createdAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "COIN-1-q3eio0", WebSKU("COIN-1", createdAt))
}

func TestParseCategoryIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, ParseCategoryIDs("1,2,3"))
	assert.Equal(t, []int64{5}, ParseCategoryIDs(" 5 , junk , "))
	assert.Nil(t, ParseCategoryIDs(""))
}
