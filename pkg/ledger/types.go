package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UserID identifies an account holder.
type UserID int64

// TransactionID identifies a ledger transaction row.
type TransactionID int64

// InventoryItemID identifies a bookable inventory item.
type InventoryItemID int64

// ProductVariantID identifies a catalog variant.
type ProductVariantID int64

// BookingID identifies a booking row.
type BookingID int64

// NewUserID validates a user id.
func NewUserID(raw int64) (UserID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidUserID)
	}
	return UserID(raw), nil
}

// Int64 returns the raw identifier.
func (id UserID) Int64() int64 {
	return int64(id)
}

// NewTransactionID validates a transaction id.
func NewTransactionID(raw int64) (TransactionID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidTransactionID)
	}
	return TransactionID(raw), nil
}

// Int64 returns the raw identifier.
func (id TransactionID) Int64() int64 {
	return int64(id)
}

// NewInventoryItemID validates an inventory item id.
func NewInventoryItemID(raw int64) (InventoryItemID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidInventoryItemID)
	}
	return InventoryItemID(raw), nil
}

// Int64 returns the raw identifier.
func (id InventoryItemID) Int64() int64 {
	return int64(id)
}

// NewProductVariantID validates a product variant id.
func NewProductVariantID(raw int64) (ProductVariantID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidProductVariantID)
	}
	return ProductVariantID(raw), nil
}

// Int64 returns the raw identifier.
func (id ProductVariantID) Int64() int64 {
	return int64(id)
}

// Int64 returns the raw identifier.
func (id BookingID) Int64() int64 {
	return int64(id)
}

// Reference correlates a local transaction with a gateway-side charge.
type Reference struct {
	value string
}

const maxReferenceLength = 100

// NewReference validates and normalizes a reference.
func NewReference(raw string) (Reference, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reference{}, fmt.Errorf("%w: empty value", ErrInvalidReference)
	}
	if len(trimmed) > maxReferenceLength {
		return Reference{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidReference, maxReferenceLength)
	}
	return Reference{value: trimmed}, nil
}

// String returns the normalized reference.
func (reference Reference) String() string {
	return reference.value
}

// IsZero reports whether the reference is unset.
func (reference Reference) IsZero() bool {
	return reference.value == ""
}

// MetadataJSON stores arbitrary request metadata.
type MetadataJSON struct {
	value string
}

// NewMetadataJSON validates metadata string (defaulting to "{}" for empty inputs).
func NewMetadataJSON(raw string) (MetadataJSON, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		normalized = "{}"
	}
	if !json.Valid([]byte(normalized)) {
		return MetadataJSON{}, fmt.Errorf("%w: must be valid json", ErrInvalidMetadataJSON)
	}
	return MetadataJSON{value: normalized}, nil
}

// MarshalMetadataJSON encodes value as metadata.
func MarshalMetadataJSON(value any) (MetadataJSON, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return MetadataJSON{}, fmt.Errorf("%w: %v", ErrInvalidMetadataJSON, err)
	}
	return NewMetadataJSON(string(raw))
}

// String returns the normalized JSON blob.
func (metadata MetadataJSON) String() string {
	if metadata.value == "" {
		return "{}"
	}
	return metadata.value
}

// IsZero reports whether no metadata was supplied.
func (metadata MetadataJSON) IsZero() bool {
	return metadata.value == ""
}

// Role is the account role carried by a principal.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleOwner    Role = "Owner"
)

// ParseRole validates a role name.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(raw)) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleOwner:
		return RoleOwner, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// String returns the role name.
func (role Role) String() string {
	return string(role)
}

// Principal is the authenticated caller. Its id and role are trusted as-is.
type Principal struct {
	UserID UserID
	Email  string
	Role   Role
}

// IsOwner reports whether the principal holds the Owner role.
func (principal Principal) IsOwner() bool {
	return principal.Role == RoleOwner
}

// Method is how a transaction is funded.
type Method string

const (
	MethodCash     Method = "Cash"
	MethodPaystack Method = "Paystack"
	MethodTransfer Method = "Transfer"
	// MethodBalance marks internal debits against the settled balance.
	MethodBalance Method = "Balance"
)

// ParseDepositMethod validates a method accepted for deposits.
func ParseDepositMethod(raw string) (Method, error) {
	switch Method(strings.TrimSpace(raw)) {
	case MethodCash:
		return MethodCash, nil
	case MethodPaystack:
		return MethodPaystack, nil
	case MethodTransfer:
		return MethodTransfer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, raw)
	}
}

// ParseMethod validates any stored method.
func ParseMethod(raw string) (Method, error) {
	if Method(raw) == MethodBalance {
		return MethodBalance, nil
	}
	return ParseDepositMethod(raw)
}

// String returns the method name.
func (method Method) String() string {
	return string(method)
}

// TransactionType enumerates ledger entry kinds.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "Deposit"
	TransactionWithdrawal TransactionType = "Withdrawal"
	TransactionBooking    TransactionType = "Booking"
)

// ParseTransactionType validates a transaction type.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch TransactionType(raw) {
	case TransactionDeposit, TransactionWithdrawal, TransactionBooking:
		return TransactionType(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, raw)
	}
}

// String returns the type name.
func (transactionType TransactionType) String() string {
	return string(transactionType)
}

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "Pending"
	StatusCompleted TransactionStatus = "Completed"
	StatusFailed    TransactionStatus = "Failed"
)

// ParseTransactionStatus validates a status value.
func ParseTransactionStatus(raw string) (TransactionStatus, error) {
	switch TransactionStatus(strings.TrimSpace(raw)) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// String returns the status name.
func (status TransactionStatus) String() string {
	return string(status)
}

// IsTerminal reports whether no further transition is permitted.
func (status TransactionStatus) IsTerminal() bool {
	return status == StatusCompleted || status == StatusFailed
}

// User is an account holder with a cached balance.
type User struct {
	ID             UserID
	Name           string
	Email          string
	Phone          string
	Role           Role
	Balance        AmountCents
	Status         string
	CreatedUnixUTC int64
}

// UserInput describes a user to create.
type UserInput struct {
	Name           string
	Email          string
	Phone          string
	Role           Role
	CreatedUnixUTC int64
}

// NewUserInput validates user creation fields.
func NewUserInput(name string, email string, phone string, role Role, createdUnixUTC int64) (UserInput, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return UserInput{}, fmt.Errorf("%w: user name is empty", ErrInvalidName)
	}
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(trimmedEmail, "@") {
		return UserInput{}, fmt.Errorf("%w: email %q", ErrInvalidName, email)
	}
	if _, err := ParseRole(role.String()); err != nil {
		return UserInput{}, err
	}
	return UserInput{
		Name:           trimmedName,
		Email:          trimmedEmail,
		Phone:          strings.TrimSpace(phone),
		Role:           role,
		CreatedUnixUTC: createdUnixUTC,
	}, nil
}

// Transaction is a single ledger row.
type Transaction struct {
	ID             TransactionID
	UserID         UserID
	Amount         SignedAmountCents
	Type           TransactionType
	Method         Method
	Reference      Reference
	Status         TransactionStatus
	Metadata       MetadataJSON
	CreatedUnixUTC int64
}

// TransactionInput describes a transaction to insert.
type TransactionInput struct {
	userID          UserID
	amount          SignedAmountCents
	transactionType TransactionType
	method          Method
	reference       Reference
	status          TransactionStatus
	metadata        MetadataJSON
	createdUnixUTC  int64
}

// NewTransactionInput validates the sign of amount against the transaction type.
func NewTransactionInput(userID UserID, amount SignedAmountCents, transactionType TransactionType, method Method, reference Reference, status TransactionStatus, metadata MetadataJSON, createdUnixUTC int64) (TransactionInput, error) {
	if userID <= 0 {
		return TransactionInput{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidUserID)
	}
	if _, err := ParseTransactionType(transactionType.String()); err != nil {
		return TransactionInput{}, err
	}
	if _, err := ParseMethod(method.String()); err != nil {
		return TransactionInput{}, err
	}
	if _, err := ParseTransactionStatus(status.String()); err != nil {
		return TransactionInput{}, err
	}
	switch transactionType {
	case TransactionDeposit:
		if amount <= 0 {
			return TransactionInput{}, fmt.Errorf("%w: deposit must be positive", ErrInvalidAmount)
		}
	default:
		if amount >= 0 {
			return TransactionInput{}, fmt.Errorf("%w: %s must be negative", ErrInvalidAmount, transactionType)
		}
	}
	if reference.IsZero() {
		return TransactionInput{}, fmt.Errorf("%w: empty value", ErrInvalidReference)
	}
	return TransactionInput{
		userID:          userID,
		amount:          amount,
		transactionType: transactionType,
		method:          method,
		reference:       reference,
		status:          status,
		metadata:        metadata,
		createdUnixUTC:  createdUnixUTC,
	}, nil
}

func (input TransactionInput) UserID() UserID { return input.userID }
func (input TransactionInput) Amount() SignedAmountCents { return input.amount }
func (input TransactionInput) Type() TransactionType { return input.transactionType }
func (input TransactionInput) Method() Method { return input.method }
func (input TransactionInput) Reference() Reference { return input.reference }
func (input TransactionInput) Status() TransactionStatus { return input.status }
func (input TransactionInput) Metadata() MetadataJSON { return input.metadata }
func (input TransactionInput) CreatedUnixUTC() int64 { return input.createdUnixUTC }

// TransactionQuery selects transactions, newest first. A nil UserID selects
// every user; a zero Limit returns all rows.
type TransactionQuery struct {
	UserID *UserID
	Limit  int
}

// PlanStatus is the lifecycle of a payment plan. Only Active is consulted.
type PlanStatus string

const PlanStatusActive PlanStatus = "Active"

// PaymentPlan is a recurring savings commitment.
type PaymentPlan struct {
	ID                 int64
	UserID             UserID
	PlanType           string
	Amount             AmountCents
	NextPaymentUnixUTC int64
	Status             PlanStatus
	CreatedUnixUTC     int64
}

// Category groups products in the catalog.
type Category struct {
	ID       int64
	Name     string
	Products []Product
}

// Product is a catalog product with sellable variants.
type Product struct {
	ID         int64
	CategoryID int64
	Name       string
	Variants   []ProductVariant
}

// ProductVariant carries the unit price charged per slot.
type ProductVariant struct {
	ID           ProductVariantID
	ProductID    int64
	Name         string
	ProductName  string
	CategoryName string
	UnitPrice    PositiveAmountCents
}

// ProductVariantInput describes a catalog variant to create.
type ProductVariantInput struct {
	CategoryName string
	ProductName  string
	VariantName  string
	UnitPrice    PositiveAmountCents
}

// InventoryItem is bookable capacity for one product variant.
type InventoryItem struct {
	ID               InventoryItemID
	ProductVariantID ProductVariantID
	CategoryName     string
	ProductName      string
	VariantName      string
	UnitPrice        PositiveAmountCents
	TotalSlots       int64
	SlotsBooked      int64
	CreatedUnixUTC   int64
}

// RemainingSlots returns unbooked capacity.
func (item InventoryItem) RemainingSlots() int64 {
	return item.TotalSlots - item.SlotsBooked
}

// InventoryItemInput describes an inventory item to create.
type InventoryItemInput struct {
	ProductVariantID ProductVariantID
	TotalSlots       int64
	CreatedUnixUTC   int64
}

// Booking records slots bought with savings balance.
type Booking struct {
	ID              BookingID
	UserID          UserID
	InventoryItemID InventoryItemID
	ProductName     string
	VariantName     string
	Slots           int64
	Amount          PositiveAmountCents
	TransactionID   TransactionID
	CreatedUnixUTC  int64
}

// BookingInput describes a booking to insert.
type BookingInput struct {
	UserID          UserID
	InventoryItemID InventoryItemID
	Slots           int64
	Amount          PositiveAmountCents
	TransactionID   TransactionID
	CreatedUnixUTC  int64
}

// BookingQuery selects bookings. A nil UserID selects every user.
type BookingQuery struct {
	UserID *UserID
}
