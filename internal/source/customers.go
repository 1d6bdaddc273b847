package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// Customer address attribute codes.
const (
	AttrAddressStreet    = "street"
	AttrAddressCity      = "city"
	AttrAddressRegion    = "region"
	AttrAddressPostcode  = "postcode"
	AttrAddressCountryID = "country_id"
	AttrAddressTelephone = "telephone"
)

// CustomerReader fetches customers and their address trees.
type CustomerReader struct {
	db     database.DB
	logger ectologger.Logger
}

func NewCustomerReader(db database.DB, logger ectologger.Logger) *CustomerReader {
	return &CustomerReader{db: db, logger: logger}
}

// FetchCustomers returns every source customer with addresses attached. The
// default billing/shipping address ids on the entity row mark defaults.
func (r *CustomerReader) FetchCustomers(ctx context.Context, state *migration.Context) ([]models.SourceCustomerRow, error) {
	ctx, span := tracing.StartSpan(ctx, "source.CustomerReader.FetchCustomers")
	defer span.End()

	started := time.Now()

	attr := func(code string) int64 {
		id, ok := state.AttributeID(EntityCustomer, code)
		if !ok {
			return -1
		}
		return id
	}

	var sb strings.Builder
	sb.WriteString(`SELECT
	e.entity_id AS entity_id,
	e.email AS email,
	e.created_at AS created_at,
	first_v.value AS firstname,
	last_v.value AS lastname
FROM customer_entity e
`)
	sb.WriteString(customerEavJoin("customer_entity_varchar", "first_v", attr(AttrCustomerFirstName)))
	sb.WriteString(customerEavJoin("customer_entity_varchar", "last_v", attr(AttrCustomerLastName)))
	sb.WriteString("ORDER BY e.entity_id")

	var customers []models.SourceCustomerRow
	if err := r.db.SelectContext(ctx, &customers, sb.String()); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source customers")
		return nil, fmt.Errorf("failed to fetch source customers: %w", err)
	}
	if len(customers) == 0 {
		return nil, nil
	}

	if err := r.attachAddresses(ctx, state, customers); err != nil {
		return nil, err
	}

	metrics.SourceQueryDuration.WithLabelValues("customers").Observe(time.Since(started).Seconds())
	r.logger.WithContext(ctx).WithField("count", len(customers)).Info("Fetched source customers")
	return customers, nil
}

func (r *CustomerReader) attachAddresses(ctx context.Context, state *migration.Context, customers []models.SourceCustomerRow) error {
	attr := func(code string) int64 {
		id, ok := state.AttributeID(EntityCustomerAddress, code)
		if !ok {
			return -1
		}
		return id
	}

	var sb strings.Builder
	sb.WriteString(`SELECT
	a.entity_id AS entity_id,
	a.parent_id AS parent_id,
	first_v.value AS firstname,
	last_v.value AS lastname,
	street_t.value AS street,
	city_v.value AS city,
	region_v.value AS region,
	postcode_v.value AS postcode,
	country_v.value AS country_id,
	phone_v.value AS telephone,
	COALESCE(c.default_shipping = a.entity_id, 0) AS is_default
FROM customer_address_entity a
JOIN customer_entity c ON c.entity_id = a.parent_id
`)
	sb.WriteString(customerAddressEavJoin("customer_address_entity_varchar", "first_v", attr(AttrCustomerFirstName)))
	sb.WriteString(customerAddressEavJoin("customer_address_entity_varchar", "last_v", attr(AttrCustomerLastName)))
	sb.WriteString(customerAddressEavJoin("customer_address_entity_text", "street_t", attr(AttrAddressStreet)))
	sb.WriteString(customerAddressEavJoin("customer_address_entity_varchar", "city_v", attr(AttrAddressCity)))
	sb.WriteString(customerAddressEavJoin("customer_address_entity_varchar", "region_v", attr(AttrAddressRegion)))
	sb.WriteString(customerAddressEavJoin("customer_address_entity_varchar", "postcode_v", attr(AttrAddressPostcode)))
	sb.WriteString(customerAddressEavJoin("customer_address_entity_varchar", "country_v", attr(AttrAddressCountryID)))
	sb.WriteString(customerAddressEavJoin("customer_address_entity_varchar", "phone_v", attr(AttrAddressTelephone)))
	sb.WriteString("ORDER BY a.parent_id, a.entity_id")

	var addresses []models.SourceCustomerAddressRow
	if err := r.db.SelectContext(ctx, &addresses, sb.String()); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to fetch source customer addresses")
		return fmt.Errorf("failed to fetch source customer addresses: %w", err)
	}

	byCustomer := make(map[int64][]models.SourceCustomerAddressRow)
	for _, address := range addresses {
		byCustomer[address.ParentID] = append(byCustomer[address.ParentID], address)
	}
	for i := range customers {
		customers[i].Addresses = byCustomer[customers[i].EntityID]
	}
	return nil
}

// customerEavJoin joins a customer EAV value table; customer value tables
// have no store dimension.
func customerEavJoin(table, alias string, attributeID int64) string {
	return fmt.Sprintf(
		"LEFT JOIN %s %s ON %s.entity_id = e.entity_id AND %s.attribute_id = %d\n",
		table, alias, alias, alias, attributeID)
}

func customerAddressEavJoin(table, alias string, attributeID int64) string {
	return fmt.Sprintf(
		"LEFT JOIN %s %s ON %s.entity_id = a.entity_id AND %s.attribute_id = %d\n",
		table, alias, alias, alias, attributeID)
}
