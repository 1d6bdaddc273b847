package steps

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CihanTAYLAN/db-migration-tool/config"
	"github.com/CihanTAYLAN/db-migration-tool/internal/repositories/lookup"
	"github.com/CihanTAYLAN/db-migration-tool/internal/source"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
)

type fakeDB struct {
	database.DB
	pingErr  error
	onSelect func(dest any, query string, args ...any) error
}

func (f *fakeDB) PingContext(_ context.Context) error {
	return f.pingErr
}

func (f *fakeDB) SelectContext(_ context.Context, dest any, query string, args ...any) error {
	if f.onSelect == nil {
		return nil
	}
	return f.onSelect(dest, query, args...)
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func prepareDeps(sourceDB, targetDB database.DB) *Deps {
	logger := testLogger()
	return &Deps{
		Config:     &config.Config{DefaultLanguageCode: "en"},
		Logger:     logger,
		SourceDB:   sourceDB,
		TargetDB:   targetDB,
		Attributes: source.NewAttributeReader(sourceDB, logger),
		Content:    source.NewContentReader(sourceDB, logger),
		Lookup:     lookup.NewRepository(targetDB, logger),
	}
}

func TestPrepareLoadsSharedState(t *testing.T) {
	sourceDB := &fakeDB{onSelect: func(dest any, _ string, _ ...any) error {
		if rates, ok := dest.(*[]models.SourceCurrencyRateRow); ok {
			*rates = []models.SourceCurrencyRateRow{
				{CurrencyFrom: "AUD", CurrencyTo: "USD", Rate: 0.65},
				{CurrencyFrom: "AUD", CurrencyTo: "EUR", Rate: 0.61},
			}
		}
		return nil
	}}
	targetDB := &fakeDB{onSelect: func(dest any, _ string, _ ...any) error {
		switch d := dest.(type) {
		case *[]models.Language:
			*d = []models.Language{
				{ID: 1, Code: "en", Name: "English", IsDefault: true},
				{ID: 2, Code: "de", Name: "German"},
			}
		case *[]models.Currency:
			*d = []models.Currency{{ID: 1, Code: "AUD", Name: "Australian Dollar"}}
		}
		return nil
	}}

	state := migration.NewContext()
	result, err := NewPrepareStep(prepareDeps(sourceDB, targetDB)).Run(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, int64(1), state.DefaultLanguageID)
	assert.Equal(t, "en", state.DefaultLanguageCode)
	assert.Equal(t, float64(1), state.CurrencyRates["AUD"])
	assert.Equal(t, 0.65, state.CurrencyRates["USD"])
	assert.Equal(t, 0.61, state.CurrencyRates["EUR"])
}

func TestPrepareFailsWhenDefaultLanguageMissing(t *testing.T) {
	targetDB := &fakeDB{onSelect: func(dest any, _ string, _ ...any) error {
		if languages, ok := dest.(*[]models.Language); ok {
			*languages = []models.Language{{ID: 2, Code: "de", Name: "German"}}
		}
		return nil
	}}

	_, err := NewPrepareStep(prepareDeps(&fakeDB{}, targetDB)).Run(context.Background(), migration.NewContext())
	require.Error(t, err)
	assert.Equal(t, migration.KindConfig, migration.KindOf(err))
	assert.Contains(t, err.Error(), `default language "en"`)
}

func TestPrepareFailsWhenCurrenciesEmpty(t *testing.T) {
	targetDB := &fakeDB{onSelect: func(dest any, _ string, _ ...any) error {
		if languages, ok := dest.(*[]models.Language); ok {
			*languages = []models.Language{{ID: 1, Code: "en", Name: "English", IsDefault: true}}
		}
		return nil
	}}

	_, err := NewPrepareStep(prepareDeps(&fakeDB{}, targetDB)).Run(context.Background(), migration.NewContext())
	require.Error(t, err)
	assert.Equal(t, migration.KindConfig, migration.KindOf(err))
}

func TestPrepareFailsWhenSourceUnreachable(t *testing.T) {
	sourceDB := &fakeDB{pingErr: errors.New("connection refused")}

	_, err := NewPrepareStep(prepareDeps(sourceDB, &fakeDB{})).Run(context.Background(), migration.NewContext())
	require.Error(t, err)
	assert.Equal(t, migration.KindConfig, migration.KindOf(err))
}
