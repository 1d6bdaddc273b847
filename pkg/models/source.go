package models

// Source rows are deliberately loose: every EAV-backed column is nullable
// and enum-like values stay strings so the transformer owns all coercion.

// SourceProductRow is one grouped row of the product fetch. EAV columns sit
// next to their flat-table fallbacks; precedence is applied in the
// transformer, not in SQL.
type SourceProductRow struct {
	EntityID  int64  `db:"entity_id"`
	SKU       string `db:"sku"`
	TypeID    string `db:"type_id"`
	CreatedAt string `db:"created_at"`

	EavName  *string `db:"eav_name"`
	FlatName *string `db:"flat_name"`

	EavPrice  *float64 `db:"eav_price"`
	FlatPrice *float64 `db:"flat_price"`

	EavDescription  *string `db:"eav_description"`
	FlatDescription *string `db:"flat_description"`

	ShortDescription *string `db:"short_description"`

	// URLKey is fetched by a separate statement and merged in afterwards.
	URLKey      *string `db:"url_key"`
	FlatURLKey  *string `db:"flat_url_key"`

	CountryOption        *string `db:"country_option"`
	CountryValue         *string `db:"country_value"`
	CountryOfManufacture *string `db:"country_of_manufacture"`

	GradePrefix *string `db:"grade_prefix"`
	GradeValue  *int    `db:"grade_value"`
	GradeSuffix *string `db:"grade_suffix"`

	MetaTitle       *string `db:"meta_title"`
	MetaDescription *string `db:"meta_description"`
	MetaKeywords    *string `db:"meta_keywords"`

	YearValue  *string `db:"year_value"`
	SortString *string `db:"sort_string"`

	SoldDate *string  `db:"sold_date"`
	SoldPrice *float64 `db:"sold_price"`

	// Aggregates computed across sales orders with whitelisted statuses.
	AggSoldDate  *string  `db:"agg_sold_date"`
	AggSoldPrice *float64 `db:"agg_sold_price"`

	Status         *string `db:"status"`
	Visibility     *string `db:"visibility"`
	ArchivedStatus *string `db:"archived_status"`

	CertificationType   *string `db:"certification_type"`
	CertificationNumber *string `db:"certification_number"`

	SaleAccount *string `db:"sale_account"`

	// CategoryIDs is the grouped concatenation of linked category entity
	// ids; NULL is coerced to "" in SQL.
	CategoryIDs string `db:"category_ids"`
}

// SourceCategoryRow is one row of the category fetch
type SourceCategoryRow struct {
	EntityID       int64   `db:"entity_id"`
	ParentEntityID int64   `db:"parent_id"`
	URLKey         *string `db:"url_key"`
	Name           *string `db:"name"`
	Description    *string `db:"description"`
	MetaTitle      *string `db:"meta_title"`
	MetaDescription *string `db:"meta_description"`
	MetaKeywords   *string `db:"meta_keywords"`
	Position       int     `db:"position"`
	IsActive       *string `db:"is_active"`
	Level          int     `db:"level"`
}

// SourceMediaGalleryRow is one product gallery image
type SourceMediaGalleryRow struct {
	ValueID  int64   `db:"value_id"`
	EntityID int64   `db:"entity_id"`
	Value    string  `db:"value"`
	Label    *string `db:"label"`
	Position *int    `db:"position"`
}

// SourceOrderItemRow is one line item of a source order
type SourceOrderItemRow struct {
	ItemID     int64    `db:"item_id"`
	OrderID    int64    `db:"order_id"`
	SKU        *string  `db:"sku"`
	Name       *string  `db:"name"`
	QtyOrdered *float64 `db:"qty_ordered"`
	Price      *float64 `db:"price"`
}

// SourceOrderAddressRow is the shipping address of a source order
type SourceOrderAddressRow struct {
	FirstName *string `db:"firstname"`
	LastName  *string `db:"lastname"`
	Street    *string `db:"street"`
	City      *string `db:"city"`
	Region    *string `db:"region"`
	Postcode  *string `db:"postcode"`
	CountryID *string `db:"country_id"`
	Telephone *string `db:"telephone"`
}

// SourceOrderRow is one grouped order with its items and shipping address
// attached by the reader.
type SourceOrderRow struct {
	EntityID          int64   `db:"entity_id"`
	IncrementID       *string `db:"increment_id"`
	Status            *string `db:"status"`
	CustomerID        *int64  `db:"customer_id"`
	CustomerEmail     *string `db:"customer_email"`
	CustomerFirstName *string `db:"customer_firstname"`
	CustomerLastName  *string `db:"customer_lastname"`
	CustomerIsGuest   *string `db:"customer_is_guest"`
	Subtotal          *float64 `db:"subtotal"`
	ShippingAmount    *float64 `db:"shipping_amount"`
	DiscountAmount    *float64 `db:"discount_amount"`
	GrandTotal        *float64 `db:"grand_total"`
	CurrencyCode      *string  `db:"order_currency_code"`
	CreatedAt         string   `db:"created_at"`

	Items           []SourceOrderItemRow   `db:"-"`
	ShippingAddress *SourceOrderAddressRow `db:"-"`
}

// SourceCustomerAddressRow is one address of a source customer
type SourceCustomerAddressRow struct {
	EntityID  int64   `db:"entity_id"`
	ParentID  int64   `db:"parent_id"`
	FirstName *string `db:"firstname"`
	LastName  *string `db:"lastname"`
	Street    *string `db:"street"`
	City      *string `db:"city"`
	Region    *string `db:"region"`
	Postcode  *string `db:"postcode"`
	CountryID *string `db:"country_id"`
	Telephone *string `db:"telephone"`
	IsDefault bool    `db:"is_default"`
}

// SourceCustomerRow is one source customer with its address tree
type SourceCustomerRow struct {
	EntityID  int64   `db:"entity_id"`
	Email     *string `db:"email"`
	FirstName *string `db:"firstname"`
	LastName  *string `db:"lastname"`
	CreatedAt string  `db:"created_at"`

	Addresses []SourceCustomerAddressRow `db:"-"`
}

// SourceContentRow is one editorial page
type SourceContentRow struct {
	PageID          int64   `db:"page_id"`
	Identifier      string  `db:"identifier"`
	Title           *string `db:"title"`
	ContentHeading  *string `db:"content_heading"`
	Content         *string `db:"content"`
	MetaTitle       *string `db:"meta_title"`
	MetaDescription *string `db:"meta_description"`
	MetaKeywords    *string `db:"meta_keywords"`
	IsActive        *string `db:"is_active"`
}

// SourceCurrencyRateRow is one conversion rate from the base currency
type SourceCurrencyRateRow struct {
	CurrencyFrom string  `db:"currency_from"`
	CurrencyTo   string  `db:"currency_to"`
	Rate         float64 `db:"rate"`
}

// SourceAttributeRow is one EAV attribute definition
type SourceAttributeRow struct {
	AttributeID   int64  `db:"attribute_id"`
	AttributeCode string `db:"attribute_code"`
	EntityTypeID  int64  `db:"entity_type_id"`
}
