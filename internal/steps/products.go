package steps

import (
	"context"
	"sort"
	"sync"

	"github.com/CihanTAYLAN/db-migration-tool/internal/source"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/batch"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
)

// seedProviders are the certificate providers the product transform maps to.
var seedProviders = []string{"PCGS", "NGC", "PMG", "Other", "Uncertified"}

// defaultXeroTenant owns accounts discovered from source sale_account codes.
const defaultXeroTenant = "Default"

// ProductsStep migrates products with their default translations, prices,
// category links and gallery images. Reference rows the transform resolves
// against are seeded first.
type ProductsStep struct {
	deps *Deps
}

func NewProductsStep(deps *Deps) *ProductsStep {
	return &ProductsStep{deps: deps}
}

func (s *ProductsStep) Name() string { return "products" }

// pendingTranslation is a default-language translation waiting for its
// product row to exist so the web SKU can be resolved to the real id.
type pendingTranslation struct {
	WebSKU      string
	Translation models.ProductTranslation
}

func (s *ProductsStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.Products")
	defer span.End()

	rows, err := s.fetchRows(ctx, state)
	if err != nil {
		return nil, err
	}

	if err := s.seedReferences(ctx, rows); err != nil {
		return nil, err
	}

	images, err := s.fetchImagesByEntity(ctx)
	if err != nil {
		return nil, err
	}

	transformer := transform.NewProductTransformer(s.deps.Countries, s.deps.Refs, s.deps.Logger)

	var (
		mu      sync.Mutex
		pending []pendingTranslation
	)

	fn := func(ctx context.Context, items []models.SourceProductRow, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, row := range items {
			tp, err := transformer.Transform(ctx, row)
			if err != nil {
				if migration.KindOf(err) == migration.KindUnmappable {
					s.deps.logUnmappable(ctx, s.Name(), err)
					continue
				}
				return br, err
			}

			if err := s.writeProduct(ctx, state, tp, images[row.EntityID]); err != nil {
				s.deps.Logger.WithContext(ctx).WithError(err).WithField("sku", row.SKU).Error("Failed to migrate product")
				br.Failed++
				metrics.RecordsMigrated.WithLabelValues("product", "failed").Inc()
				continue
			}

			mu.Lock()
			pending = append(pending, pendingTranslation{WebSKU: tp.Product.ProductWebSKU, Translation: tp.Translation})
			mu.Unlock()

			br.Success++
			metrics.RecordsMigrated.WithLabelValues("product", "success").Inc()
		}
		return br, nil
	}

	opts := s.deps.batchOptions(s.deps.Config.ProductsBatchSize, s.deps.Config.ProductsParallelLimit, s.Name())
	result, err := batch.Process(ctx, s.deps.Processor, rows, fn, opts)
	if err != nil {
		return nil, err
	}

	translationResult, err := s.writeTranslations(ctx, state, pending, opts)
	if err != nil {
		return nil, err
	}

	return &migration.Result{
		Success: result.Failed == 0 && translationResult.Failed == 0,
		Count:   result.Success,
		Failed:  result.Failed + translationResult.Failed,
	}, nil
}

func (s *ProductsStep) fetchRows(ctx context.Context, state *migration.Context) ([]models.SourceProductRow, error) {
	var rows []models.SourceProductRow
	for _, typeID := range s.deps.Config.ProductTypes {
		typed, err := s.deps.Catalog.FetchProducts(ctx, state, s.filters(typeID))
		if err != nil {
			return nil, err
		}
		rows = append(rows, typed...)
	}
	if err := s.deps.Catalog.FetchURLKeys(ctx, state, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ProductsStep) filters(typeID string) source.ProductFilters {
	return source.ProductFilters{
		TypeID:        typeID,
		ExcludedSKUs:  s.deps.Config.ExcludedProductSkus,
		OrderStatuses: s.deps.Config.OrderStatuses,
	}
}

// seedReferences ensures the provider rows and accounting rows the transform
// resolves against exist before any product is written.
func (s *ProductsStep) seedReferences(ctx context.Context, rows []models.SourceProductRow) error {
	for _, name := range seedProviders {
		if _, err := s.deps.Lookup.EnsureProvider(ctx, name); err != nil {
			return err
		}
	}

	codes := make(map[string]bool)
	for _, row := range rows {
		if row.SaleAccount != nil && *row.SaleAccount != "" {
			codes[*row.SaleAccount] = true
		}
	}
	if len(codes) == 0 {
		return nil
	}

	tenantID, err := s.deps.Lookup.EnsureXeroTenant(ctx, defaultXeroTenant)
	if err != nil {
		return err
	}

	sorted := make([]string, 0, len(codes))
	for code := range codes {
		sorted = append(sorted, code)
	}
	sort.Strings(sorted)
	for _, code := range sorted {
		if _, err := s.deps.Lookup.EnsureXeroAccount(ctx, tenantID, code, code); err != nil {
			return err
		}
	}

	s.deps.Logger.WithContext(ctx).WithFields(map[string]any{
		"providers":     len(seedProviders),
		"xero_accounts": len(sorted),
	}).Info("Seeded reference rows")
	return nil
}

func (s *ProductsStep) fetchImagesByEntity(ctx context.Context) (map[int64][]models.SourceMediaGalleryRow, error) {
	images, err := s.deps.Catalog.FetchImages(ctx)
	if err != nil {
		return nil, err
	}
	byEntity := make(map[int64][]models.SourceMediaGalleryRow)
	for _, image := range images {
		byEntity[image.EntityID] = append(byEntity[image.EntityID], image)
	}
	for _, gallery := range byEntity {
		sortGallery(gallery)
	}
	return byEntity, nil
}

// sortGallery orders one product's gallery so the position-1 image leads.
// Unpositioned rows sort last; value id breaks ties, so the pick does not
// depend on the driver's NULL collation.
func sortGallery(gallery []models.SourceMediaGalleryRow) {
	sort.SliceStable(gallery, func(i, j int) bool {
		a, b := gallery[i].Position, gallery[j].Position
		switch {
		case a == nil && b == nil:
			return gallery[i].ValueID < gallery[j].ValueID
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a < *b
		}
		return gallery[i].ValueID < gallery[j].ValueID
	})
}

// writeProduct persists one product with its prices, category links and
// images. The gallery rows arrive position-ordered from the reader; the
// first one becomes the master image.
func (s *ProductsStep) writeProduct(ctx context.Context, state *migration.Context, tp *transform.TransformedProduct, gallery []models.SourceMediaGalleryRow) error {
	productID, err := s.deps.Products.Upsert(ctx, tp.Product)
	if err != nil {
		return err
	}

	if tp.Product.Price != nil {
		if err := s.writePrices(ctx, state, productID, *tp.Product.Price); err != nil {
			return err
		}
	}

	var masterSet bool
	for _, entityID := range tp.CategorySourceIDs {
		categoryID, ok, err := s.deps.Refs.CategoryID(ctx, entityID)
		if err != nil {
			return err
		}
		if !ok {
			s.deps.Logger.WithContext(ctx).WithFields(map[string]any{
				"sku":             tp.Product.ProductSKU,
				"category_entity": entityID,
			}).Debug("Linked category not migrated, skipping link")
			continue
		}
		if err := s.deps.Products.LinkCategory(ctx, productID, categoryID); err != nil {
			return err
		}
		if !masterSet {
			if err := s.deps.Products.SetMasterCategory(ctx, productID, categoryID); err != nil {
				return err
			}
			masterSet = true
		}
	}

	for i, image := range gallery {
		position := i + 1
		if image.Position != nil {
			position = *image.Position
		}
		imageID, err := s.deps.Products.UpsertImage(ctx, models.ProductImage{
			ProductID: productID,
			ImageURL:  image.Value,
			Alt:       image.Label,
			Position:  position,
			IsMaster:  i == 0,
		})
		if err != nil {
			return err
		}
		if i == 0 {
			if err := s.deps.Products.SetMasterImage(ctx, productID, imageID); err != nil {
				return err
			}
		}
	}

	return nil
}

// writePrices fans the base AUD price out to every currency the source
// carries a conversion rate for.
func (s *ProductsStep) writePrices(ctx context.Context, state *migration.Context, productID int64, basePrice float64) error {
	for code, rate := range state.CurrencyRates {
		currencyID, err := s.deps.Refs.CurrencyID(ctx, code)
		if err != nil {
			if migration.KindOf(err) == migration.KindConfig {
				// Source carries rates for currencies the target does not sell in.
				s.deps.Logger.WithContext(ctx).WithField("currency", code).Debug("Currency missing from target, skipping price")
				continue
			}
			return err
		}
		if err := s.deps.Products.UpsertPrice(ctx, models.ProductPrice{
			ProductID:    productID,
			CurrencyID:   currencyID,
			BaseAmount:   basePrice,
			Amount:       basePrice * rate,
			CurrencyCode: code,
		}); err != nil {
			return err
		}
	}
	return nil
}

// writeTranslations rewrites the web-SKU key of each pending translation to
// the real product id and upserts the rows.
func (s *ProductsStep) writeTranslations(ctx context.Context, state *migration.Context, pending []pendingTranslation, opts batch.Options) (batch.Result, error) {
	fn := func(ctx context.Context, items []pendingTranslation, batchIndex int) (batch.BatchResult, error) {
		var br batch.BatchResult
		for _, item := range items {
			productID, ok, err := s.deps.Refs.ProductID(ctx, item.WebSKU)
			if err != nil {
				return br, err
			}
			if !ok {
				s.deps.Logger.WithContext(ctx).WithField("web_sku", item.WebSKU).Warn("Translation references a product that did not persist")
				br.Failed++
				continue
			}

			translation := item.Translation
			translation.ProductID = productID
			translation.LanguageID = state.DefaultLanguageID
			if err := s.deps.Products.UpsertTranslation(ctx, translation); err != nil {
				br.Failed++
				continue
			}
			br.Success++
		}
		return br, nil
	}

	return batch.Process(ctx, s.deps.Processor, pending, fn, opts)
}
