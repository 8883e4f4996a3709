package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// User mirrors the users table. BalanceCents is the cached sum of Completed transactions.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"not null;uniqueIndex:uniq_users_email"`
	Phone        string    `gorm:"not null;default:''"`
	Role         string    `gorm:"not null"`
	BalanceCents int64     `gorm:"not null;default:0;check:chk_users_balance_non_negative,balance_cents >= 0"`
	Status       string    `gorm:"not null;default:'Active'"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// Transaction mirrors the transactions table.
type Transaction struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	UserID         int64          `gorm:"not null;index:idx_transactions_user_created,priority:1"`
	AmountCents    int64          `gorm:"not null"`
	Type           string         `gorm:"not null"`
	Method         string         `gorm:"not null"`
	Reference      *string        `gorm:"uniqueIndex:uniq_transactions_reference"`
	Status         string         `gorm:"not null;index:idx_transactions_status"`
	Metadata       datatypes.JSON `gorm:"not null"`
	GatewayPayload datatypes.JSON
	CreatedAt      time.Time `gorm:"not null;index:idx_transactions_user_created,priority:2"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }

// PaymentPlan mirrors the payment_plans table.
type PaymentPlan struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	UserID          int64  `gorm:"not null;index:idx_payment_plans_user_status,priority:1"`
	PlanType        string `gorm:"not null"`
	AmountCents     int64  `gorm:"not null"`
	NextPaymentDate *time.Time
	Status          string    `gorm:"not null;index:idx_payment_plans_user_status,priority:2"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (PaymentPlan) TableName() string { return "payment_plans" }

// Category mirrors the categories table.
type Category struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	Name     string    `gorm:"not null;uniqueIndex:uniq_categories_name"`
	Products []Product `gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string { return "categories" }

// Product mirrors the products table.
type Product struct {
	ID         int64            `gorm:"primaryKey;autoIncrement"`
	CategoryID int64            `gorm:"not null;uniqueIndex:uniq_products_category_name,priority:1"`
	Name       string           `gorm:"not null;uniqueIndex:uniq_products_category_name,priority:2"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string { return "products" }

// ProductVariant mirrors the product_variants table.
type ProductVariant struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	ProductID      int64  `gorm:"not null;index"`
	Name           string `gorm:"not null"`
	UnitPriceCents int64  `gorm:"not null;check:chk_product_variants_price_positive,unit_price_cents > 0"`
}

func (ProductVariant) TableName() string { return "product_variants" }

// InventoryItem mirrors the inventory_items table.
type InventoryItem struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	ProductVariantID int64     `gorm:"not null;index"`
	TotalSlots       int64     `gorm:"not null;check:chk_inventory_items_total_positive,total_slots > 0"`
	SlotsBooked      int64     `gorm:"not null;default:0;check:chk_inventory_items_booked_range,slots_booked >= 0 AND slots_booked <= total_slots"`
	CreatedAt        time.Time `gorm:"not null"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// Booking mirrors the bookings table.
type Booking struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	UserID          int64     `gorm:"not null;index:idx_bookings_user_created,priority:1"`
	InventoryItemID int64     `gorm:"not null;index"`
	SlotsBooked     int64     `gorm:"not null"`
	AmountCents     int64     `gorm:"not null"`
	TransactionID   int64     `gorm:"not null;uniqueIndex:uniq_bookings_transaction"`
	CreatedAt       time.Time `gorm:"not null;index:idx_bookings_user_created,priority:2"`
}

func (Booking) TableName() string { return "bookings" }

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&User{},
		&Transaction{},
		&PaymentPlan{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&InventoryItem{},
		&Booking{},
	}
}
