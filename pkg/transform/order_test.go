package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
)

type currencyDB struct {
	fakeDB
}

func (c *currencyDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	if id, ok := dest.(*int64); ok && args[0] == "AUD" {
		*id = 1
		return nil
	}
	return c.fakeDB.GetContext(ctx, dest, query, args...)
}

func testOrderTransformer() *OrderTransformer {
	logger := testLogger()
	return NewOrderTransformer(refdata.NewResolver(&currencyDB{}, logger), logger)
}

func guestOrderRow() models.SourceOrderRow {
	return models.SourceOrderRow{
		EntityID:        500,
		IncrementID:     s("100000123"),
		Status:          s("complete"),
		CustomerEmail:   s("buyer@example.com"),
		CustomerIsGuest: s("1"),
		GrandTotal:      f(50.00),
		Subtotal:        f(45.00),
		ShippingAmount:  f(5.00),
		CreatedAt:       "2021-08-01 10:00:00",
		Items: []models.SourceOrderItemRow{
			{SKU: s("COIN-1"), QtyOrdered: f(1), Price: f(25.00)},
			{SKU: s("COIN-2"), QtyOrdered: f(1), Price: f(20.00)},
		},
		ShippingAddress: &models.SourceOrderAddressRow{
			FirstName: s("Jo"),
			LastName:  s("Smith"),
			Street:    s("1 Pitt St"),
			City:      s("Sydney"),
			CountryID: s("AU"),
		},
	}
}

func TestTransformGuestOrder(t *testing.T) {
	tr := testOrderTransformer()

	got, err := tr.Transform(context.Background(), guestOrderRow())
	require.NoError(t, err)

	assert.Equal(t, "100000123", got.OrderNo)
	assert.Equal(t, models.OrderStatusComplete, got.Status)
	assert.True(t, got.IsGuest)
	assert.Equal(t, "buyer@example.com", got.CustomerEmail)
	assert.Equal(t, 50.00, got.Price.GrandTotal)
	assert.Equal(t, "AUD", got.Price.CurrencyCode)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "COIN-1", got.Items[0].SKU)
	assert.Equal(t, 1, got.Items[0].Quantity)
	require.NotNil(t, got.Address.CountryID)
	assert.Equal(t, int64(11), *got.Address.CountryID)
}

func TestTransformOrderValidation(t *testing.T) {
	tr := testOrderTransformer()

	tests := []struct {
		name   string
		mutate func(*models.SourceOrderRow)
	}{
		{name: "missing increment id", mutate: func(r *models.SourceOrderRow) { r.IncrementID = nil }},
		{name: "missing email", mutate: func(r *models.SourceOrderRow) { r.CustomerEmail = s("") }},
		{name: "no items", mutate: func(r *models.SourceOrderRow) { r.Items = nil }},
		{name: "no shipping address", mutate: func(r *models.SourceOrderRow) { r.ShippingAddress = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := guestOrderRow()
			tt.mutate(&row)
			_, err := tr.Transform(context.Background(), row)
			require.Error(t, err)
			assert.Equal(t, migration.KindUnmappable, migration.KindOf(err))
		})
	}
}

func TestMapOrderStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want models.OrderStatus
	}{
		{"a_complete", models.OrderStatusComplete},
		{"complete", models.OrderStatusComplete},
		{"canceled", models.OrderStatusCanceled},
		{"closed", models.OrderStatusCanceled},
		{"pending", models.OrderStatusPending},
		{"paid_to_ship_later", models.OrderStatusOnHold},
		{"processing", models.OrderStatusPending},
		{"", models.OrderStatusPending},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapOrderStatus(tt.raw), "status %q", tt.raw)
	}
}

func TestTransformOrderSkipsItemsWithoutSKU(t *testing.T) {
	tr := testOrderTransformer()

	row := guestOrderRow()
	row.Items = append(row.Items, models.SourceOrderItemRow{QtyOrdered: f(1), Price: f(5)})

	got, err := tr.Transform(context.Background(), row)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}
