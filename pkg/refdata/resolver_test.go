package refdata

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
)

type fakeDB struct {
	database.DB
	getCalls    int
	onGet       func(dest any, query string, args ...any) error
	selectCalls int
	onSelect    func(dest any, query string, args ...any) error
}

func (f *fakeDB) GetContext(_ context.Context, dest any, query string, args ...any) error {
	f.getCalls++
	return f.onGet(dest, query, args...)
}

func (f *fakeDB) SelectContext(_ context.Context, dest any, query string, args ...any) error {
	f.selectCalls++
	return f.onSelect(dest, query, args...)
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestProviderIDMemoizesHit(t *testing.T) {
	db := &fakeDB{onGet: func(dest any, _ string, _ ...any) error {
		*dest.(*int64) = 7
		return nil
	}}
	r := NewResolver(db, testLogger())

	for i := 0; i < 3; i++ {
		id, err := r.ProviderID(context.Background(), "PCGS")
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, int64(7), *id)
	}
	assert.Equal(t, 1, db.getCalls)
}

func TestProviderIDNegativeCachesMiss(t *testing.T) {
	db := &fakeDB{onGet: func(_ any, _ string, _ ...any) error {
		return sql.ErrNoRows
	}}
	r := NewResolver(db, testLogger())

	for i := 0; i < 3; i++ {
		id, err := r.ProviderID(context.Background(), "Unknown")
		require.NoError(t, err)
		assert.Nil(t, id)
	}
	assert.Equal(t, 1, db.getCalls, "a provider miss must be negative cached")
}

func TestLanguageIDMissIsConfigErrorAndNotCached(t *testing.T) {
	db := &fakeDB{onGet: func(_ any, _ string, _ ...any) error {
		return sql.ErrNoRows
	}}
	r := NewResolver(db, testLogger())

	for i := 0; i < 2; i++ {
		_, err := r.LanguageID(context.Background(), "xx")
		require.Error(t, err)
		assert.Equal(t, migration.KindConfig, migration.KindOf(err))
	}
	assert.Equal(t, 2, db.getCalls, "a language miss must not be cached")
}

func TestCurrencyIDMissIsConfigErrorAndNotCached(t *testing.T) {
	db := &fakeDB{onGet: func(_ any, _ string, _ ...any) error {
		return sql.ErrNoRows
	}}
	r := NewResolver(db, testLogger())

	for i := 0; i < 2; i++ {
		_, err := r.CurrencyID(context.Background(), "XXX")
		require.Error(t, err)
		assert.Equal(t, migration.KindConfig, migration.KindOf(err))
	}
	assert.Equal(t, 2, db.getCalls)
}

func TestCountryIDMissIsNotCachedButHitIs(t *testing.T) {
	missing := true
	db := &fakeDB{}
	db.onGet = func(dest any, _ string, _ ...any) error {
		if missing {
			return sql.ErrNoRows
		}
		*dest.(*int64) = 13
		return nil
	}
	r := NewResolver(db, testLogger())

	_, ok, err := r.CountryID(context.Background(), "AU")
	require.NoError(t, err)
	assert.False(t, ok)

	missing = false
	id, ok, err := r.CountryID(context.Background(), "AU")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(13), id)

	// Cached now.
	_, _, err = r.CountryID(context.Background(), "AU")
	require.NoError(t, err)
	assert.Equal(t, 2, db.getCalls)
}

func TestXeroAccountResolvesPair(t *testing.T) {
	db := &fakeDB{onGet: func(dest any, _ string, _ ...any) error {
		ref := dest.(*XeroAccountRef)
		ref.AccountID = 3
		ref.TenantID = 9
		return nil
	}}
	r := NewResolver(db, testLogger())

	ref, err := r.XeroAccount(context.Background(), "200")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, int64(3), ref.AccountID)
	assert.Equal(t, int64(9), ref.TenantID)

	_, err = r.XeroAccount(context.Background(), "200")
	require.NoError(t, err)
	assert.Equal(t, 1, db.getCalls)
}

func TestCategoryIDLoadsMappingOnce(t *testing.T) {
	db := &fakeDB{onSelect: func(dest any, _ string, _ ...any) error {
		v := reflect.ValueOf(dest).Elem()
		for _, row := range []struct {
			id   int64
			code string
		}{
			{11, "gold-coins_2_42"},
			{12, "category-_2_43"},
			{13, "not-a-code"},
		} {
			e := reflect.New(v.Type().Elem()).Elem()
			e.FieldByName("ID").SetInt(row.id)
			e.FieldByName("Code").SetString(row.code)
			v.Set(reflect.Append(v, e))
		}
		return nil
	}}
	r := NewResolver(db, testLogger())

	id, ok, err := r.CategoryID(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(11), id)

	id, ok, err = r.CategoryID(context.Background(), 43)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(12), id)

	_, ok, err = r.CategoryID(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, db.selectCalls)

	r.InvalidateCategories()
	_, _, err = r.CategoryID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 2, db.selectCalls)
}

func TestCategoryCodeRoundTrip(t *testing.T) {
	code := EncodeCategoryCode("gold-coins", 2, 5)
	assert.Equal(t, "gold-coins_2_5", code)

	entityID, ok := DecodeCategoryCode(code)
	require.True(t, ok)
	assert.Equal(t, int64(5), entityID)

	assert.Equal(t, "category-_2_5", EncodeCategoryCode("", 2, 5))

	_, ok = DecodeCategoryCode("nounderscoresuffix")
	assert.False(t, ok)
	_, ok = DecodeCategoryCode("trailing_")
	assert.False(t, ok)
}
