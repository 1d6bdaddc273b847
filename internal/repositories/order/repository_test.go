package order

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
)

type fakeTx struct {
	queries []string
	onGet   func(dest any, query string, args ...any) error
}

func (f *fakeTx) GetContext(_ context.Context, dest any, query string, args ...any) error {
	f.queries = append(f.queries, query)
	return f.onGet(dest, query, args...)
}

func (f *fakeTx) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	return driver.RowsAffected(1), nil
}

func (f *fakeTx) count(fragment string) int {
	n := 0
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			n++
		}
	}
	return n
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func guestOrder() transform.TransformedOrder {
	return transform.TransformedOrder{
		OrderNo:           "100000042",
		Status:            models.OrderStatusComplete,
		OrderedAt:         time.Date(2019, 4, 2, 10, 0, 0, 0, time.UTC),
		CustomerEmail:     "buyer@example.com",
		CustomerFirstName: "Jo",
		CustomerLastName:  "Buyer",
		IsGuest:           true,
		Price: models.OrderPrice{
			Subtotal:     1200,
			GrandTotal:   1215,
			CurrencyID:   1,
			CurrencyCode: "AUD",
		},
		Items: []transform.TransformedOrderItem{
			{SKU: "COIN-1", Quantity: 1, Price: 1200},
			{SKU: "COIN-GONE", Quantity: 1, Price: 15},
		},
		Address: models.OrderShippingAddress{
			FirstName: "Jo",
			LastName:  "Buyer",
			Street:    "1 Example St",
			City:      "Sydney",
		},
	}
}

func resolveOnlyCoin1(_ context.Context, sku string) (int64, bool, error) {
	if sku == "COIN-1" {
		return 501, true, nil
	}
	return 0, false, nil
}

func setOrderRow(dest any, id, priceID int64) {
	v := reflect.ValueOf(dest).Elem()
	v.FieldByName("ID").SetInt(id)
	v.FieldByName("PriceID").SetInt(priceID)
}

func TestSaveOrderInsertsNewOrderWithPrice(t *testing.T) {
	tx := &fakeTx{}
	tx.onGet = func(dest any, query string, _ ...any) error {
		switch {
		case strings.Contains(query, "FROM guests"):
			return sql.ErrNoRows
		case strings.Contains(query, "FROM order_customers"):
			return sql.ErrNoRows
		case strings.Contains(query, "INSERT INTO order_customers"):
			*dest.(*int64) = 11
			return nil
		case strings.Contains(query, "FROM orders"):
			return sql.ErrNoRows
		case strings.Contains(query, "INSERT INTO order_prices"):
			*dest.(*int64) = 21
			return nil
		case strings.Contains(query, "INSERT INTO orders"):
			*dest.(*int64) = 31
			return nil
		}
		t.Fatalf("unexpected query: %s", query)
		return nil
	}

	r := NewRepository(nil, testLogger())
	orderID, err := r.saveOrderTx(context.Background(), tx, guestOrder(), resolveOnlyCoin1)

	require.NoError(t, err)
	assert.Equal(t, int64(31), orderID)
	assert.Equal(t, 1, tx.count("INSERT INTO order_prices"))
	assert.Equal(t, 0, tx.count("UPDATE order_prices"))
	assert.Equal(t, 1, tx.count("INSERT INTO guests"))
	assert.Equal(t, 1, tx.count("DELETE FROM order_items"))
	assert.Equal(t, 1, tx.count("INSERT INTO order_items"), "unresolved SKUs must be skipped")
	assert.Equal(t, 1, tx.count("INSERT INTO order_shipping_addresses"))
}

func TestSaveOrderRerunUpdatesPriceInPlace(t *testing.T) {
	tx := &fakeTx{}
	tx.onGet = func(dest any, query string, _ ...any) error {
		switch {
		case strings.Contains(query, "FROM guests"):
			*dest.(*string) = "9ff0a3c2-1f3e-4f8e-8f9d-0e3a1b2c3d4e"
			return nil
		case strings.Contains(query, "FROM order_customers"):
			*dest.(*int64) = 11
			return nil
		case strings.Contains(query, "FROM orders"):
			setOrderRow(dest, 31, 21)
			return nil
		}
		t.Fatalf("unexpected query: %s", query)
		return nil
	}

	r := NewRepository(nil, testLogger())
	orderID, err := r.saveOrderTx(context.Background(), tx, guestOrder(), resolveOnlyCoin1)

	require.NoError(t, err)
	assert.Equal(t, int64(31), orderID)
	assert.Equal(t, 0, tx.count("INSERT INTO order_prices"), "a re-run must not grow order_prices")
	assert.Equal(t, 0, tx.count("INSERT INTO orders"))
	assert.Equal(t, 0, tx.count("INSERT INTO guests"))
	assert.Equal(t, 1, tx.count("UPDATE order_prices"))
	assert.Equal(t, 1, tx.count("UPDATE orders"))
}
