package ledger

import "context"

// Store persists users, transactions, and the inventory catalog.
// WithTx runs fn inside one database transaction; every Lock* call made
// through txStore holds an exclusive row lock until fn returns.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	UserStore
	TransactionStore
	CatalogStore
}

// UserStore covers account rows and their cached balance.
type UserStore interface {
	CreateUser(ctx context.Context, input UserInput) (User, error)
	GetUser(ctx context.Context, userID UserID) (User, error)
	LockUser(ctx context.Context, userID UserID) (User, error)
	// ApplyBalanceDelta adds delta to the balance in one guarded update and
	// returns the new balance. A result below zero fails with ErrBalanceInvariant.
	ApplyBalanceDelta(ctx context.Context, userID UserID, delta SignedAmountCents) (AmountCents, error)
	// GetActivePaymentPlan returns the newest Active plan, or nil when none exists.
	GetActivePaymentPlan(ctx context.Context, userID UserID) (*PaymentPlan, error)
}

// TransactionStore covers ledger rows.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, input TransactionInput) (Transaction, error)
	LockTransactionByReference(ctx context.Context, reference Reference) (Transaction, error)
	LockTransactionByID(ctx context.Context, transactionID TransactionID) (Transaction, error)
	// UpdateTransactionStatus moves a row from one status to another. A row
	// whose status is no longer from fails with ErrStatusInvariant.
	UpdateTransactionStatus(ctx context.Context, transactionID TransactionID, from TransactionStatus, to TransactionStatus, gatewayPayload MetadataJSON) error
	ListTransactions(ctx context.Context, query TransactionQuery) ([]Transaction, error)
	SumCompletedAmounts(ctx context.Context, userID UserID) (SignedAmountCents, error)
	SumPendingWithdrawals(ctx context.Context, userID UserID) (AmountCents, error)
}

// CatalogStore covers categories, products, inventory, and bookings.
type CatalogStore interface {
	CreateProductVariant(ctx context.Context, input ProductVariantInput) (ProductVariant, error)
	GetProductVariant(ctx context.Context, variantID ProductVariantID) (ProductVariant, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateInventoryItem(ctx context.Context, input InventoryItemInput) (InventoryItem, error)
	GetInventoryItem(ctx context.Context, itemID InventoryItemID) (InventoryItem, error)
	LockInventoryItem(ctx context.Context, itemID InventoryItemID) (InventoryItem, error)
	// AddSlotsBooked increments slots_booked in one guarded update. Exceeding
	// total_slots fails with ErrSlotsInvariant.
	AddSlotsBooked(ctx context.Context, itemID InventoryItemID, slots int64) error
	ListInventoryItems(ctx context.Context) ([]InventoryItem, error)
	InsertBooking(ctx context.Context, input BookingInput) (Booking, error)
	ListBookings(ctx context.Context, query BookingQuery) ([]Booking, error)
}
