// Package models holds the row shapes for both sides of the migration: the
// legacy EAV source and the relational target.
package models

import "time"

// ProductStatus is the lifecycle status of a target product
type ProductStatus string

const (
	ProductStatusArchived ProductStatus = "archived"
	ProductStatusSold     ProductStatus = "sold"
	ProductStatusPending  ProductStatus = "pending"
)

// OrderStatus is the normalized target order status
type OrderStatus string

const (
	OrderStatusComplete OrderStatus = "COMPLETE"
	OrderStatusCanceled OrderStatus = "CANCELED"
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusOnHold   OrderStatus = "ON_HOLD"
)

// OrderCustomerType discriminates logged-in users from guests
type OrderCustomerType string

const (
	OrderCustomerTypeLoginUser OrderCustomerType = "LOGIN_USER"
	OrderCustomerTypeGuest     OrderCustomerType = "GUEST"
)

// Category is a target catalog category. Code encodes the source entity's
// identity and is the idempotence key.
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Sort      int       `json:"sort" db:"sort"`
	IsHidden  bool      `json:"is_hidden" db:"is_hidden"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryTranslation is the per-language projection of a category
type CategoryTranslation struct {
	ID              int64     `json:"id" db:"id"`
	CategoryID      int64     `json:"category_id" db:"category_id"`
	LanguageID      int64     `json:"language_id" db:"language_id"`
	Title           string    `json:"title" db:"title"`
	Slug            string    `json:"slug" db:"slug"`
	Description     *string   `json:"description,omitempty" db:"description"`
	ParentSlugs     *string   `json:"parent_slugs,omitempty" db:"parent_slugs"`
	MetaTitle       *string   `json:"meta_title,omitempty" db:"meta_title"`
	MetaDescription *string   `json:"meta_description,omitempty" db:"meta_description"`
	MetaKeywords    *string   `json:"meta_keywords,omitempty" db:"meta_keywords"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a target product row. ProductWebSKU is the upsert conflict key;
// ProductIdentity ties the row back to its source entity.
type Product struct {
	ID                    int64         `json:"id" db:"id"`
	ProductIdentity       string        `json:"product_identity" db:"product_identity"`
	ProductSKU            string        `json:"product_sku" db:"product_sku"`
	ProductWebSKU         string        `json:"product_web_sku" db:"product_web_sku"`
	Price                 *float64      `json:"price,omitempty" db:"price"`
	Year                  *int          `json:"year,omitempty" db:"year"`
	YearText              *string       `json:"year_text,omitempty" db:"year_text"`
	CoinGradePrefix       *string       `json:"coin_grade_prefix,omitempty" db:"coin_grade_prefix"`
	CoinGradeValue        *int          `json:"coin_grade_value,omitempty" db:"coin_grade_value"`
	CoinGradeSuffix       *string       `json:"coin_grade_suffix,omitempty" db:"coin_grade_suffix"`
	CoinGradeText         *string       `json:"coin_grade_text,omitempty" db:"coin_grade_text"`
	CoinOurGrade          *float64      `json:"coin_our_grade,omitempty" db:"coin_our_grade"`
	Status                ProductStatus `json:"status" db:"status"`
	IsActive              bool          `json:"is_active" db:"is_active"`
	SoldDate              *time.Time    `json:"sold_date,omitempty" db:"sold_date"`
	SoldPrice             *float64      `json:"sold_price,omitempty" db:"sold_price"`
	ArchivedAt            *time.Time    `json:"archived_at,omitempty" db:"archived_at"`
	CertificateProviderID *int64        `json:"certificate_provider_id,omitempty" db:"certificate_provider_id"`
	CountryID             *int64        `json:"country_id,omitempty" db:"country_id"`
	MasterCategoryID      *int64        `json:"master_category_id,omitempty" db:"master_category_id"`
	ProductMasterImageID  *int64        `json:"product_master_image_id,omitempty" db:"product_master_image_id"`
	XeroTenantID          *int64        `json:"xero_tenant_id,omitempty" db:"xero_tenant_id"`
	XeroAccountID         *int64        `json:"xero_account_id,omitempty" db:"xero_account_id"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at" db:"updated_at"`
}

// ProductTranslation is the per-language projection of a product
type ProductTranslation struct {
	ID               int64   `json:"id" db:"id"`
	ProductID        int64   `json:"product_id" db:"product_id"`
	LanguageID       int64   `json:"language_id" db:"language_id"`
	Title            string  `json:"title" db:"title"`
	Slug             string  `json:"slug" db:"slug"`
	Description      *string `json:"description,omitempty" db:"description"`
	ShortDescription *string `json:"short_description,omitempty" db:"short_description"`
	MetaTitle        *string `json:"meta_title,omitempty" db:"meta_title"`
	MetaDescription  *string `json:"meta_description,omitempty" db:"meta_description"`
	MetaKeywords     *string `json:"meta_keywords,omitempty" db:"meta_keywords"`
}

// ProductPrice is one per-currency price of a product. BaseAmount is always
// the AUD price; Amount is BaseAmount times the source conversion rate.
type ProductPrice struct {
	ID           int64   `json:"id" db:"id"`
	ProductID    int64   `json:"product_id" db:"product_id"`
	CurrencyID   int64   `json:"currency_id" db:"currency_id"`
	BaseAmount   float64 `json:"base_amount" db:"base_amount"`
	Amount       float64 `json:"amount" db:"amount"`
	CurrencyCode string  `json:"currency_code" db:"currency_code"`
}

// ProductImage is one gallery image of a product. Exactly one image per
// product carries IsMaster when the product has any images.
type ProductImage struct {
	ID        int64   `json:"id" db:"id"`
	ProductID int64   `json:"product_id" db:"product_id"`
	ImageURL  string  `json:"image_url" db:"image_url"`
	Alt       *string `json:"alt,omitempty" db:"alt"`
	Position  int     `json:"position" db:"position"`
	IsMaster  bool    `json:"is_master" db:"is_master"`
}

// ProductCategory links a product to a category
type ProductCategory struct {
	ID         int64 `json:"id" db:"id"`
	ProductID  int64 `json:"product_id" db:"product_id"`
	CategoryID int64 `json:"category_id" db:"category_id"`
}

// CertificateProvider is a grading service (PCGS, NGC, ...)
type CertificateProvider struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Language is a target storefront language
type Language struct {
	ID        int64  `json:"id" db:"id"`
	Code      string `json:"code" db:"code"`
	Name      string `json:"name" db:"name"`
	IsDefault bool   `json:"is_default" db:"is_default"`
}

// Currency is a target currency
type Currency struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// Country is a target country keyed by ISO-3166 alpha-2
type Country struct {
	ID   int64  `json:"id" db:"id"`
	ISO2 string `json:"iso2" db:"iso2"`
	Name string `json:"name" db:"name"`
}

// XeroTenant is an accounting tenant
type XeroTenant struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// XeroAccount is an accounting account within a tenant
type XeroAccount struct {
	ID       int64  `json:"id" db:"id"`
	TenantID int64  `json:"tenant_id" db:"tenant_id"`
	Code     string `json:"code" db:"code"`
	Name     string `json:"name" db:"name"`
}

// User is a migrated customer account
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserAddress is one address of a migrated customer
type UserAddress struct {
	ID        int64   `json:"id" db:"id"`
	UserID    int64   `json:"user_id" db:"user_id"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name" db:"last_name"`
	Street    string  `json:"street" db:"street"`
	City      string  `json:"city" db:"city"`
	Region    *string `json:"region,omitempty" db:"region"`
	Postcode  *string `json:"postcode,omitempty" db:"postcode"`
	CountryID *int64  `json:"country_id,omitempty" db:"country_id"`
	Phone     *string `json:"phone,omitempty" db:"phone"`
	IsDefault bool    `json:"is_default" db:"is_default"`
}

// Guest is an order-time customer with no account. ID is a generated UUID.
type Guest struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OrderCustomer binds an order to either a user or a guest
type OrderCustomer struct {
	ID      int64             `json:"id" db:"id"`
	UserID  *int64            `json:"user_id,omitempty" db:"user_id"`
	GuestID *string           `json:"guest_id,omitempty" db:"guest_id"`
	Type    OrderCustomerType `json:"type" db:"type"`
}

// OrderPrice carries the order totals
type OrderPrice struct {
	ID             int64   `json:"id" db:"id"`
	Subtotal       float64 `json:"subtotal" db:"subtotal"`
	ShippingAmount float64 `json:"shipping_amount" db:"shipping_amount"`
	DiscountAmount float64 `json:"discount_amount" db:"discount_amount"`
	GrandTotal     float64 `json:"grand_total" db:"grand_total"`
	CurrencyID     int64   `json:"currency_id" db:"currency_id"`
	CurrencyCode   string  `json:"currency_code" db:"currency_code"`
}

// Order is a migrated sales order. OrderNo is the source increment id and
// the idempotence key.
type Order struct {
	ID              int64       `json:"id" db:"id"`
	OrderNo         string      `json:"order_no" db:"order_no"`
	OrderCustomerID int64       `json:"order_customer_id" db:"order_customer_id"`
	OrderPriceID    int64       `json:"order_price_id" db:"order_price_id"`
	Status          OrderStatus `json:"status" db:"status"`
	OrderedAt       time.Time   `json:"ordered_at" db:"ordered_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ID        int64   `json:"id" db:"id"`
	OrderID   int64   `json:"order_id" db:"order_id"`
	ProductID int64   `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"`
}

// OrderShippingAddress is the single shipping address of an order
type OrderShippingAddress struct {
	ID        int64   `json:"id" db:"id"`
	OrderID   int64   `json:"order_id" db:"order_id"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name" db:"last_name"`
	Street    string  `json:"street" db:"street"`
	City      string  `json:"city" db:"city"`
	Region    *string `json:"region,omitempty" db:"region"`
	Postcode  *string `json:"postcode,omitempty" db:"postcode"`
	CountryID *int64  `json:"country_id,omitempty" db:"country_id"`
	Phone     *string `json:"phone,omitempty" db:"phone"`
}

// Content is an editorial page
type Content struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContentTranslation is the per-language projection of a content page
type ContentTranslation struct {
	ID              int64   `json:"id" db:"id"`
	ContentID       int64   `json:"content_id" db:"content_id"`
	LanguageID      int64   `json:"language_id" db:"language_id"`
	Title           string  `json:"title" db:"title"`
	Slug            string  `json:"slug" db:"slug"`
	Body            *string `json:"body,omitempty" db:"body"`
	MetaTitle       *string `json:"meta_title,omitempty" db:"meta_title"`
	MetaDescription *string `json:"meta_description,omitempty" db:"meta_description"`
	MetaKeywords    *string `json:"meta_keywords,omitempty" db:"meta_keywords"`
}
