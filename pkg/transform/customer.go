package transform

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/models"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
)

// TransformedCustomer is a validated customer with its address tree.
type TransformedCustomer struct {
	SourceEntityID int64
	User           models.User
	Addresses      []models.UserAddress
}

// CustomerTransformer derives target user records from source customers.
type CustomerTransformer struct {
	refs   *refdata.Resolver
	logger ectologger.Logger
}

func NewCustomerTransformer(refs *refdata.Resolver, logger ectologger.Logger) *CustomerTransformer {
	return &CustomerTransformer{refs: refs, logger: logger}
}

// Transform validates and normalizes one source customer. Customers without
// an email are unmappable.
func (t *CustomerTransformer) Transform(ctx context.Context, row models.SourceCustomerRow) (*TransformedCustomer, error) {
	email := deref(row.Email)
	if email == "" {
		return nil, migration.NewMigrationErrorf(migration.KindUnmappable, "customer %d has no email", row.EntityID)
	}

	user := models.User{
		Email:     email,
		FirstName: deref(row.FirstName),
		LastName:  deref(row.LastName),
	}
	if createdAt, err := ParseSourceDate(row.CreatedAt); err == nil {
		user.CreatedAt = createdAt
	}

	addresses := make([]models.UserAddress, 0, len(row.Addresses))
	for _, raw := range row.Addresses {
		address := models.UserAddress{
			FirstName: firstNonEmpty(deref(raw.FirstName), user.FirstName),
			LastName:  firstNonEmpty(deref(raw.LastName), user.LastName),
			Street:    deref(raw.Street),
			City:      deref(raw.City),
			Region:    strPtr(deref(raw.Region)),
			Postcode:  strPtr(deref(raw.Postcode)),
			Phone:     strPtr(deref(raw.Telephone)),
			IsDefault: raw.IsDefault,
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
					"customer": row.EntityID,
					"iso2":     iso2,
				}).Debug("Customer address country missing from target")
			}
		}

		addresses = append(addresses, address)
	}

	return &TransformedCustomer{
		SourceEntityID: row.EntityID,
		User:           user,
		Addresses:      addresses,
	}, nil
}
