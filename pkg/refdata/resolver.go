// Package refdata resolves source-side symbolic values to target-side
// primary keys, memoizing results for the lifetime of the run.
package refdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// XeroAccountRef is the resolved (account, tenant) pair for a sale account code
type XeroAccountRef struct {
	AccountID int64 `db:"id"`
	TenantID  int64 `db:"tenant_id"`
}

// Resolver caches target-side key lookups. Caches are append-only and guarded
// by a single lock; redundant misses under the parallel-batch regime are
// accepted rather than coalesced.
//
// Negative caching is applied only where a miss is a stable property of the
// data (providers, xero accounts). A language or currency miss is a
// configuration error and is never cached.
type Resolver struct {
	db     database.DB
	logger ectologger.Logger

	mu           sync.Mutex
	providers    map[string]*int64
	languages    map[string]int64
	countries    map[string]int64
	currencies   map[string]int64
	xeroAccounts map[string]*XeroAccountRef
	products     map[string]int64
	skus         map[string]int64
	categories   map[int64]int64
	categoriesOK bool
}

func NewResolver(db database.DB, logger ectologger.Logger) *Resolver {
	return &Resolver{
		db:           db,
		logger:       logger,
		providers:    make(map[string]*int64),
		languages:    make(map[string]int64),
		countries:    make(map[string]int64),
		currencies:   make(map[string]int64),
		xeroAccounts: make(map[string]*XeroAccountRef),
		products:     make(map[string]int64),
		skus:         make(map[string]int64),
		categories:   make(map[int64]int64),
	}
}

// ProviderID resolves a certificate provider by name. A nil id with nil error
// means the provider is known to be absent (negative cached).
func (r *Resolver) ProviderID(ctx context.Context, name string) (*int64, error) {
	r.mu.Lock()
	if id, ok := r.providers[name]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	var id int64
	err := r.db.GetContext(ctx, &id, "SELECT id FROM certificate_providers WHERE name = $1", name)
	if database.IsNoRows(err) {
		r.logger.WithContext(ctx).WithField("provider", name).Debug("Certificate provider not found in target")
		r.store(func() { r.providers[name] = nil })
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve certificate provider %q: %w", name, err)
	}

	r.store(func() { r.providers[name] = &id })
	return &id, nil
}

// LanguageID resolves a language by ISO code. A miss is a configuration
// error and is not cached.
func (r *Resolver) LanguageID(ctx context.Context, code string) (int64, error) {
	r.mu.Lock()
	if id, ok := r.languages[code]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	var id int64
	err := r.db.GetContext(ctx, &id, "SELECT id FROM languages WHERE code = $1", code)
	if database.IsNoRows(err) {
		return 0, migration.NewMigrationErrorf(migration.KindConfig, "language %q not present in target: %v", code, migration.ErrMissingDefaultLanguage)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve language %q: %w", code, err)
	}

	r.store(func() { r.languages[code] = id })
	return id, nil
}

// CountryID resolves a country by ISO alpha-2 code. A miss is an unmappable
// datum, reported via ok=false and not cached.
func (r *Resolver) CountryID(ctx context.Context, iso2 string) (int64, bool, error) {
	r.mu.Lock()
	if id, ok := r.countries[iso2]; ok {
		r.mu.Unlock()
		return id, true, nil
	}
	r.mu.Unlock()

	var id int64
	err := r.db.GetContext(ctx, &id, "SELECT id FROM countries WHERE iso2 = $1", iso2)
	if database.IsNoRows(err) {
		r.logger.WithContext(ctx).WithField("iso2", iso2).Debug("Country not found in target")
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve country %q: %w", iso2, err)
	}

	r.store(func() { r.countries[iso2] = id })
	return id, true, nil
}

// CurrencyID resolves a currency by ISO code. A miss is a configuration
// error and is not cached.
func (r *Resolver) CurrencyID(ctx context.Context, code string) (int64, error) {
	r.mu.Lock()
	if id, ok := r.currencies[code]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	var id int64
	err := r.db.GetContext(ctx, &id, "SELECT id FROM currencies WHERE code = $1", code)
	if database.IsNoRows(err) {
		return 0, migration.NewMigrationErrorf(migration.KindConfig, "currency %q not present in target: %v", code, migration.ErrMissingCurrency)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve currency %q: %w", code, err)
	}

	r.store(func() { r.currencies[code] = id })
	return id, nil
}

// XeroAccount resolves a sale account code to its (account, tenant) pair. A
// nil ref with nil error means the code is known to be absent (negative
// cached).
func (r *Resolver) XeroAccount(ctx context.Context, code string) (*XeroAccountRef, error) {
	r.mu.Lock()
	if ref, ok := r.xeroAccounts[code]; ok {
		r.mu.Unlock()
		return ref, nil
	}
	r.mu.Unlock()

	var ref XeroAccountRef
	err := r.db.GetContext(ctx, &ref, "SELECT id, tenant_id FROM xero_accounts WHERE code = $1", code)
	if database.IsNoRows(err) {
		r.logger.WithContext(ctx).WithField("account_code", code).Debug("Xero account not found in target")
		r.store(func() { r.xeroAccounts[code] = nil })
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve xero account %q: %w", code, err)
	}

	r.store(func() { r.xeroAccounts[code] = &ref })
	return &ref, nil
}

// ProductID resolves a product by its web SKU, for join purposes.
func (r *Resolver) ProductID(ctx context.Context, webSKU string) (int64, bool, error) {
	r.mu.Lock()
	if id, ok := r.products[webSKU]; ok {
		r.mu.Unlock()
		return id, true, nil
	}
	r.mu.Unlock()

	var id int64
	err := r.db.GetContext(ctx, &id, "SELECT id FROM products WHERE product_web_sku = $1", webSKU)
	if database.IsNoRows(err) {
		r.logger.WithContext(ctx).WithField("web_sku", webSKU).Debug("Product not found in target")
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve product %q: %w", webSKU, err)
	}

	r.store(func() { r.products[webSKU] = id })
	return id, true, nil
}

// ProductIDBySKU resolves a product by its plain source SKU. Order items
// reference products this way. When re-listings share a SKU the earliest
// migrated row wins.
func (r *Resolver) ProductIDBySKU(ctx context.Context, sku string) (int64, bool, error) {
	r.mu.Lock()
	if id, ok := r.skus[sku]; ok {
		r.mu.Unlock()
		return id, true, nil
	}
	r.mu.Unlock()

	var id int64
	err := r.db.GetContext(ctx, &id, "SELECT id FROM products WHERE product_sku = $1 ORDER BY id LIMIT 1", sku)
	if database.IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve product sku %q: %w", sku, err)
	}

	r.store(func() { r.skus[sku] = id })
	return id, true, nil
}

// CategoryID resolves a source category entity id to the target category id
// by decoding the entity id encoded in the category code. The whole mapping
// is loaded once on first use.
func (r *Resolver) CategoryID(ctx context.Context, sourceEntityID int64) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "refdata.Resolver.CategoryID")
	defer span.End()

	r.mu.Lock()
	loaded := r.categoriesOK
	r.mu.Unlock()

	if !loaded {
		if err := r.loadCategories(ctx); err != nil {
			return 0, false, err
		}
	}

	r.mu.Lock()
	id, ok := r.categories[sourceEntityID]
	r.mu.Unlock()
	return id, ok, nil
}

// InvalidateCategories drops the category mapping so the next lookup reloads
// it. Used after the subcategory merge rewrites category rows.
func (r *Resolver) InvalidateCategories() {
	r.mu.Lock()
	r.categories = make(map[int64]int64)
	r.categoriesOK = false
	r.mu.Unlock()
}

func (r *Resolver) loadCategories(ctx context.Context) error {
	var rows []struct {
		ID   int64  `db:"id"`
		Code string `db:"code"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT id, code FROM categories"); err != nil {
		return fmt.Errorf("failed to load category codes: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		if entityID, ok := DecodeCategoryCode(row.Code); ok {
			r.categories[entityID] = row.ID
		}
	}
	r.categoriesOK = true
	return nil
}

func (r *Resolver) store(fn func()) {
	r.mu.Lock()
	fn()
	r.mu.Unlock()
}
