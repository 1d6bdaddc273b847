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

// SalesReader fetches orders with their items and shipping addresses.
type SalesReader struct {
	db     database.DB
	logger ectologger.Logger
}

func NewSalesReader(db database.DB, logger ectologger.Logger) *SalesReader {
	return &SalesReader{db: db, logger: logger}
}

// FetchOrders returns one grouped object per source order: the order row
// with its items and shipping address attached.
func (r *SalesReader) FetchOrders(ctx context.Context) ([]models.SourceOrderRow, error) {
	ctx, span := tracing.StartSpan(ctx, "source.SalesReader.FetchOrders")
	defer span.End()

	started := time.Now()

	orders, err := r.fetchOrderRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	byID := make(map[int64]*models.SourceOrderRow, len(orders))
	for i := range orders {
		byID[orders[i].EntityID] = &orders[i]
	}

	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.attachAddresses(ctx, byID); err != nil {
		return nil, err
	}

	metrics.SourceQueryDuration.WithLabelValues("orders").Observe(time.Since(started).Seconds())
	r.logger.WithContext(ctx).WithField("count", len(orders)).Info("Fetched source orders")
	return orders, nil
}

func (r *SalesReader) fetchOrderRows(ctx context.Context) ([]models.SourceOrderRow, error) {
	query := `
		SELECT o.entity_id AS entity_id,
		       o.increment_id AS increment_id,
		       o.status AS status,
		       o.customer_id AS customer_id,
		       o.customer_email AS customer_email,
		       o.customer_firstname AS customer_firstname,
		       o.customer_lastname AS customer_lastname,
		       o.customer_is_guest AS customer_is_guest,
		       o.subtotal AS subtotal,
		       o.shipping_amount AS shipping_amount,
		       o.discount_amount AS discount_amount,
		       o.grand_total AS grand_total,
		       o.order_currency_code AS order_currency_code,
		       o.created_at AS created_at
		FROM sales_flat_order o
		ORDER BY o.entity_id`

	var orders []models.SourceOrderRow
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source orders")
		return nil, fmt.Errorf("failed to fetch source orders: %w", err)
	}
	return orders, nil
}

func (r *SalesReader) attachItems(ctx context.Context, orders map[int64]*models.SourceOrderRow) error {
	query := `
		SELECT oi.item_id AS item_id,
		       oi.order_id AS order_id,
		       oi.sku AS sku,
		       oi.name AS name,
		       oi.qty_ordered AS qty_ordered,
		       oi.price AS price
		FROM sales_flat_order_item oi
		ORDER BY oi.order_id, oi.item_id`

	var items []models.SourceOrderItemRow
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source order items")
		return fmt.Errorf("failed to fetch source order items: %w", err)
	}

	for _, item := range items {
		if order, ok := orders[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return nil
}

func (r *SalesReader) attachAddresses(ctx context.Context, orders map[int64]*models.SourceOrderRow) error {
	query := `
		SELECT a.parent_id AS order_id,
		       a.firstname AS firstname,
		       a.lastname AS lastname,
		       a.street AS street,
		       a.city AS city,
		       a.region AS region,
		       a.postcode AS postcode,
		       a.country_id AS country_id,
		       a.telephone AS telephone
		FROM sales_flat_order_address a
		WHERE a.address_type = 'shipping'`

	var rows []struct {
		OrderID int64 `db:"order_id"`
		models.SourceOrderAddressRow
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source order addresses")
		return fmt.Errorf("failed to fetch source order addresses: %w", err)
	}

	for _, row := range rows {
		if order, ok := orders[row.OrderID]; ok {
			address := row.SourceOrderAddressRow
			order.ShippingAddress = &address
		}
	}
	return nil
}
