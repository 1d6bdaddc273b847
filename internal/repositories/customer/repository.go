// Package customer persists migrated customer accounts and addresses.
package customer

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/transform"
)

// Repository handles user persistence
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

// Save writes one customer and their addresses in a transaction, keyed by
// email. Re-runs replace the address set.
func (r *Repository) Save(ctx context.Context, c transform.TransformedCustomer) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Save")
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin customer transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var createdAt any = c.User.CreatedAt
	if c.User.CreatedAt.IsZero() {
		createdAt = sqlbuilder.Raw("NOW()")
	}

	ib := database.NewInsertBuilder().
		InsertInto("users").
		Cols("email", "first_name", "last_name", "created_at", "updated_at").
		Values(c.User.Email, c.User.FirstName, c.User.LastName, createdAt, sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("email")
	ub.Set(
		ub.Assign("first_name", database.Excluded("first_name")),
		ub.Assign("last_name", database.Excluded("last_name")),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	)
	ib = ib.Returning("id")

	query, args := ib.Build()

	var userID int64
	if err := tx.GetContext(ctx, &userID, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("email", c.User.Email).Error("Failed to upsert user")
		return 0, errors.Wrapf(err, "failed to upsert user %s", c.User.Email)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_addresses WHERE user_id = $1", userID); err != nil {
		return 0, errors.Wrap(err, "failed to clear user addresses")
	}
	for _, address := range c.Addresses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_addresses (user_id, first_name, last_name, street, city, region, postcode, country_id, phone, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			userID, address.FirstName, address.LastName, address.Street, address.City,
			address.Region, address.Postcode, address.CountryID, address.Phone, address.IsDefault); err != nil {
			return 0, errors.Wrap(err, "failed to insert user address")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit customer transaction")
	}
	return userID, nil
}
