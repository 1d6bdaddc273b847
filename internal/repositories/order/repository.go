// Package order persists migrated sales orders and their owners.
package order

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
)

// Repository handles order persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// txRunner is the slice of sqlx.Tx the order writes go through.
type txRunner interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveOrder writes one order with its customer, price, items, and shipping
// address in a single transaction. Items whose SKU has no migrated product
// are skipped. Returns the target order id.
func (r *Repository) SaveOrder(ctx context.Context, o transform.TransformedOrder, resolveProduct func(ctx context.Context, sku string) (int64, bool, error)) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "order.Repository.SaveOrder")
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin order transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	orderID, err := r.saveOrderTx(ctx, tx, o, resolveProduct)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit order transaction")
	}
	return orderID, nil
}

func (r *Repository) saveOrderTx(ctx context.Context, tx txRunner, o transform.TransformedOrder, resolveProduct func(ctx context.Context, sku string) (int64, bool, error)) (int64, error) {
	customerID, err := r.ensureCustomer(ctx, tx, o)
	if err != nil {
		return 0, err
	}

	orderID, err := r.upsertOrder(ctx, tx, o, customerID)
	if err != nil {
		return 0, err
	}

	// Re-runs replace the item set rather than appending to it.
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		return 0, errors.Wrap(err, "failed to clear order items")
	}
	for _, item := range o.Items {
		productID, ok, err := resolveProduct(ctx, item.SKU)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to resolve product for sku %s", item.SKU)
		}
		if !ok {
			r.logger.WithContext(ctx).WithFields(map[string]any{
				"order_no": o.OrderNo,
				"sku":      item.SKU,
			}).Debug("Order item references an unmigrated product, skipping")
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)`,
			orderID, productID, item.Quantity, item.Price); err != nil {
			return 0, errors.Wrap(err, "failed to insert order item")
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_shipping_addresses (order_id, first_name, last_name, street, city, region, postcode, country_id, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    street = EXCLUDED.street,
		    city = EXCLUDED.city,
		    region = EXCLUDED.region,
		    postcode = EXCLUDED.postcode,
		    country_id = EXCLUDED.country_id,
		    phone = EXCLUDED.phone`,
		orderID, o.Address.FirstName, o.Address.LastName, o.Address.Street, o.Address.City,
		o.Address.Region, o.Address.Postcode, o.Address.CountryID, o.Address.Phone); err != nil {
		return 0, errors.Wrap(err, "failed to upsert shipping address")
	}

	return orderID, nil
}

// upsertOrder writes the order and its price rows. An existing order keeps
// its order_prices row, refreshed in place; re-running on unchanged input
// inserts nothing.
func (r *Repository) upsertOrder(ctx context.Context, tx txRunner, o transform.TransformedOrder, customerID int64) (int64, error) {
	var existing struct {
		ID      int64 `db:"id"`
		PriceID int64 `db:"order_price_id"`
	}
	err := tx.GetContext(ctx, &existing,
		"SELECT id, order_price_id FROM orders WHERE order_no = $1", o.OrderNo)
	if err != nil && !database.IsNoRows(err) {
		return 0, errors.Wrapf(err, "failed to look up order %s", o.OrderNo)
	}

	if database.IsNoRows(err) {
		var priceID int64
		if err := tx.GetContext(ctx, &priceID, `
			INSERT INTO order_prices (subtotal, shipping_amount, discount_amount, grand_total, currency_id, currency_code)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			o.Price.Subtotal, o.Price.ShippingAmount, o.Price.DiscountAmount,
			o.Price.GrandTotal, o.Price.CurrencyID, o.Price.CurrencyCode); err != nil {
			return 0, errors.Wrap(err, "failed to insert order price")
		}

		var orderID int64
		if err := tx.GetContext(ctx, &orderID, `
			INSERT INTO orders (order_no, order_customer_id, order_price_id, status, ordered_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING id`,
			o.OrderNo, customerID, priceID, o.Status, o.OrderedAt); err != nil {
			return 0, errors.Wrapf(err, "failed to insert order %s", o.OrderNo)
		}
		return orderID, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE order_prices
		SET subtotal = $1,
		    shipping_amount = $2,
		    discount_amount = $3,
		    grand_total = $4,
		    currency_id = $5,
		    currency_code = $6
		WHERE id = $7`,
		o.Price.Subtotal, o.Price.ShippingAmount, o.Price.DiscountAmount,
		o.Price.GrandTotal, o.Price.CurrencyID, o.Price.CurrencyCode, existing.PriceID); err != nil {
		return 0, errors.Wrap(err, "failed to update order price")
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET order_customer_id = $1,
		    status = $2,
		    updated_at = NOW()
		WHERE id = $3`,
		customerID, o.Status, existing.ID); err != nil {
		return 0, errors.Wrapf(err, "failed to update order %s", o.OrderNo)
	}
	return existing.ID, nil
}

// ensureCustomer resolves the order owner: an existing user by email when
// the order belongs to an account, otherwise a guest created on first sight
// of the email.
func (r *Repository) ensureCustomer(ctx context.Context, tx txRunner, o transform.TransformedOrder) (int64, error) {
	var (
		userID  *int64
		guestID *string
		ctype   models.OrderCustomerType
	)

	if !o.IsGuest {
		var id int64
		err := tx.GetContext(ctx, &id, "SELECT id FROM users WHERE email = $1", o.CustomerEmail)
		if err == nil {
			userID = &id
			ctype = models.OrderCustomerTypeLoginUser
		} else if !database.IsNoRows(err) {
			return 0, errors.Wrap(err, "failed to look up order user")
		}
	}

	if userID == nil {
		var id string
		err := tx.GetContext(ctx, &id, "SELECT id FROM guests WHERE email = $1", o.CustomerEmail)
		if database.IsNoRows(err) {
			id = uuid.NewString()
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO guests (id, email, first_name, last_name, created_at)
				VALUES ($1, $2, $3, $4, NOW())`,
				id, o.CustomerEmail, o.CustomerFirstName, o.CustomerLastName); err != nil {
				return 0, errors.Wrap(err, "failed to insert guest")
			}
		} else if err != nil {
			return 0, errors.Wrap(err, "failed to look up guest")
		}
		guestID = &id
		ctype = models.OrderCustomerTypeGuest
	}

	var customerID int64
	err := tx.GetContext(ctx, &customerID, `
		SELECT id FROM order_customers
		WHERE (user_id IS NOT DISTINCT FROM $1) AND (guest_id IS NOT DISTINCT FROM $2)`,
		userID, guestID)
	if database.IsNoRows(err) {
		if err := tx.GetContext(ctx, &customerID, `
			INSERT INTO order_customers (user_id, guest_id, type)
			VALUES ($1, $2, $3)
			RETURNING id`,
			userID, guestID, ctype); err != nil {
			return 0, errors.Wrap(err, "failed to insert order customer")
		}
	} else if err != nil {
		return 0, errors.Wrap(err, "failed to look up order customer")
	}
	return customerID, nil
}
