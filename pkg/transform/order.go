package transform

import (
	"context"
	"math"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
)

// orderStatusMap normalizes source order statuses to target statuses.
// Anything unrecognized falls back to PENDING.
var orderStatusMap = map[string]models.OrderStatus{
	"a_complete":         models.OrderStatusComplete,
	"complete":           models.OrderStatusComplete,
	"canceled":           models.OrderStatusCanceled,
	"closed":             models.OrderStatusCanceled,
	"pending":            models.OrderStatusPending,
	"paid_to_ship_later": models.OrderStatusOnHold,
}

// MapOrderStatus normalizes one source order status.
func MapOrderStatus(raw string) models.OrderStatus {
	if status, ok := orderStatusMap[raw]; ok {
		return status
	}
	return models.OrderStatusPending
}

// TransformedOrderItem is one order line with its product still identified
// by SKU; resolution happens at write time.
type TransformedOrderItem struct {
	SKU      string
	Quantity int
	Price    float64
}

// TransformedOrder is the validated, normalized order ready for writing.
type TransformedOrder struct {
	OrderNo   string
	Status    models.OrderStatus
	OrderedAt time.Time

	CustomerEmail     string
	CustomerFirstName string
	CustomerLastName  string
	IsGuest           bool
	SourceCustomerID  *int64

	Price   models.OrderPrice
	Items   []TransformedOrderItem
	Address models.OrderShippingAddress
}

// OrderTransformer derives target order records from grouped source orders.
type OrderTransformer struct {
	refs   *refdata.Resolver
	logger ectologger.Logger
}

func NewOrderTransformer(refs *refdata.Resolver, logger ectologger.Logger) *OrderTransformer {
	return &OrderTransformer{refs: refs, logger: logger}
}

// Transform validates and normalizes one grouped source order. Orders
// missing their increment id, customer email, items or shipping address are
// unmappable; callers log them at debug and skip without counting a failure.
func (t *OrderTransformer) Transform(ctx context.Context, row models.SourceOrderRow) (*TransformedOrder, error) {
	orderNo := deref(row.IncrementID)
	if orderNo == "" {
		return nil, migration.NewMigrationErrorf(migration.KindUnmappable, "order %d has no increment id", row.EntityID)
	}
	email := deref(row.CustomerEmail)
	if email == "" {
		return nil, migration.NewMigrationErrorf(migration.KindUnmappable, "order %s has no customer email", orderNo)
	}
	if len(row.Items) == 0 {
		return nil, migration.NewMigrationErrorf(migration.KindUnmappable, "order %s has no items", orderNo)
	}
	if row.ShippingAddress == nil {
		return nil, migration.NewMigrationErrorf(migration.KindUnmappable, "order %s has no shipping address", orderNo)
	}

	orderedAt, err := ParseSourceDate(row.CreatedAt)
	if err != nil {
		return nil, migration.NewMigrationErrorf(migration.KindUnmappable, "order %s has unparseable created_at %q", orderNo, row.CreatedAt)
	}

	currencyCode := firstNonEmpty(deref(row.CurrencyCode), "AUD")
	currencyID, err := t.refs.CurrencyID(ctx, currencyCode)
	if err != nil {
		return nil, err
	}

	price := models.OrderPrice{
		Subtotal:       floatOrZero(row.Subtotal),
		ShippingAmount: floatOrZero(row.ShippingAmount),
		DiscountAmount: floatOrZero(row.DiscountAmount),
		GrandTotal:     floatOrZero(row.GrandTotal),
		CurrencyID:     currencyID,
		CurrencyCode:   currencyCode,
	}

	items := make([]TransformedOrderItem, 0, len(row.Items))
	for _, item := range row.Items {
		sku := deref(item.SKU)
		if sku == "" {
			t.logger.WithContext(ctx).WithField("order_no", orderNo).Debug("Order item has no SKU, skipping")
			continue
		}
		quantity := int(math.Round(floatOrZero(item.QtyOrdered)))
		if quantity < 1 {
			quantity = 1
		}
		items = append(items, TransformedOrderItem{
			SKU:      sku,
			Quantity: quantity,
			Price:    floatOrZero(item.Price),
		})
	}

	address, err := t.transformAddress(ctx, orderNo, *row.ShippingAddress)
	if err != nil {
		return nil, err
	}

	return &TransformedOrder{
		OrderNo:           orderNo,
		Status:            MapOrderStatus(deref(row.Status)),
		OrderedAt:         orderedAt,
		CustomerEmail:     email,
		CustomerFirstName: firstNonEmpty(deref(row.CustomerFirstName), deref(row.ShippingAddress.FirstName)),
		CustomerLastName:  firstNonEmpty(deref(row.CustomerLastName), deref(row.ShippingAddress.LastName)),
		IsGuest:           deref(row.CustomerIsGuest) == "1",
		SourceCustomerID:  row.CustomerID,
		Price:             price,
		Items:             items,
		Address:           *address,
	}, nil
}

func (t *OrderTransformer) transformAddress(ctx context.Context, orderNo string, raw models.SourceOrderAddressRow) (*models.OrderShippingAddress, error) {
	address := models.OrderShippingAddress{
		FirstName: deref(raw.FirstName),
		LastName:  deref(raw.LastName),
		Street:    deref(raw.Street),
		City:      deref(raw.City),
		Region:    strPtr(deref(raw.Region)),
		Postcode:  strPtr(deref(raw.Postcode)),
		Phone:     strPtr(deref(raw.Telephone)),
	}

	if iso2 := deref(raw.CountryID); iso2 != "" {
		id, found, err := t.refs.CountryID(ctx, iso2)
		if err != nil {
			return nil, err
		}
		if found {
			address.CountryID = &id
		} else {
			t.logger.WithContext(ctx).WithFields(map[string]any{
				"order_no": orderNo,
				"iso2":     iso2,
			}).Debug("Order shipping country missing from target")
		}
	}

	return &address, nil
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
