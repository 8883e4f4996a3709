package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintTransactionReference = "uniq_transactions_reference"
	constraintUserEmail            = "uniq_users_email"
	defaultMetadataJSON            = "{}"
	pgUniqueViolationCode          = "23505"
	sqliteUniqueConstraintCode     = 2067
	errorOperationStore            = "store"
	errorSubjectUser               = "user"
	errorSubjectTransaction        = "transaction"
	errorSubjectPlan               = "payment_plan"
	errorSubjectCatalog            = "catalog"
	errorSubjectInventory          = "inventory"
	errorSubjectBooking            = "booking"
	errorCodeCreate                = "create"
	errorCodeDuplicate             = "duplicate"
	errorCodeGet                   = "get"
	errorCodeLock                  = "lock"
	errorCodeInsert                = "insert"
	errorCodeInvalid               = "invalid"
	errorCodeList                  = "list"
	errorCodeSum                   = "sum"
	errorCodeUpdateBalance         = "update_balance"
	errorCodeUpdateStatus          = "update_status"
	errorCodeUpdateSlots           = "update_slots"
	lockingStrengthUpdate          = "UPDATE"
	inventorySelect                = "i.id, i.product_variant_id, i.total_slots, i.slots_booked, i.created_at, v.name AS variant_name, v.unit_price_cents, p.name AS product_name, c.name AS category_name"
	variantSelect                  = "v.id, v.product_id, v.name, v.unit_price_cents, p.name AS product_name, c.name AS category_name"
	bookingSelect                  = "b.id, b.user_id, b.inventory_item_id, b.slots_booked, b.amount_cents, b.transaction_id, b.created_at, v.name AS variant_name, p.name AS product_name"
)

// sqliteUniqueColumns maps a unique index to the columns SQLite names in its
// constraint failure message.
var sqliteUniqueColumns = map[string]string{
	constraintTransactionReference: "transactions.reference",
	constraintUserEmail:            "users.email",
}

// Store implements ledger.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) CreateUser(ctx context.Context, input ledger.UserInput) (ledger.User, error) {
	model := User{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role.String(),
		Status:    "Active",
		CreatedAt: timeFromUnix(input.CreatedUnixUTC),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintUserEmail) {
		return ledger.User{}, wrapStoreError(errorSubjectUser, errorCodeDuplicate, ledger.ErrDuplicateUser)
	}
	if err != nil {
		return ledger.User{}, wrapStoreError(errorSubjectUser, errorCodeCreate, err)
	}
	return mapUser(model)
}

func (store *Store) GetUser(ctx context.Context, userID ledger.UserID) (ledger.User, error) {
	return store.findUser(store.db.WithContext(ctx), userID, errorCodeGet)
}

func (store *Store) LockUser(ctx context.Context, userID ledger.UserID) (ledger.User, error) {
	return store.findUser(store.db.WithContext(ctx).Clauses(clause.Locking{Strength: lockingStrengthUpdate}), userID, errorCodeLock)
}

func (store *Store) findUser(query *gorm.DB, userID ledger.UserID, code string) (ledger.User, error) {
	var model User
	err := query.Where("id = ?", userID.Int64()).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.User{}, wrapStoreError(errorSubjectUser, code, ledger.ErrUserNotFound)
	}
	if err != nil {
		return ledger.User{}, wrapStoreError(errorSubjectUser, code, err)
	}
	return mapUser(model)
}

func (store *Store) ApplyBalanceDelta(ctx context.Context, userID ledger.UserID, delta ledger.SignedAmountCents) (ledger.AmountCents, error) {
	db := store.db.WithContext(ctx)
	result := db.Model(&User{}).
		Where("id = ? AND balance_cents + ? >= 0", userID.Int64(), delta.Int64()).
		Update("balance_cents", gorm.Expr("balance_cents + ?", delta.Int64()))
	if result.Error != nil {
		return 0, wrapStoreError(errorSubjectUser, errorCodeUpdateBalance, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := store.GetUser(ctx, userID); err != nil {
			return 0, err
		}
		return 0, wrapStoreError(errorSubjectUser, errorCodeUpdateBalance, ledger.ErrBalanceInvariant)
	}
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

func (store *Store) GetActivePaymentPlan(ctx context.Context, userID ledger.UserID) (*ledger.PaymentPlan, error) {
	var rows []PaymentPlan
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID.Int64(), string(ledger.PlanStatusActive)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlan, errorCodeGet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	amount, err := ledger.NewAmountCents(row.AmountCents)
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlan, errorCodeInvalid, err)
	}
	plan := ledger.PaymentPlan{
		ID:             row.ID,
		UserID:         ledger.UserID(row.UserID),
		PlanType:       row.PlanType,
		Amount:         amount,
		Status:         ledger.PlanStatus(row.Status),
		CreatedUnixUTC: row.CreatedAt.Unix(),
	}
	if row.NextPaymentDate != nil {
		plan.NextPaymentUnixUTC = row.NextPaymentDate.Unix()
	}
	return &plan, nil
}

func (store *Store) InsertTransaction(ctx context.Context, input ledger.TransactionInput) (ledger.Transaction, error) {
	reference := input.Reference().String()
	model := Transaction{
		UserID:      input.UserID().Int64(),
		AmountCents: input.Amount().Int64(),
		Type:        input.Type().String(),
		Method:      input.Method().String(),
		Reference:   &reference,
		Status:      input.Status().String(),
		Metadata:    datatypesJSON(input.Metadata().String()),
		CreatedAt:   timeFromUnix(input.CreatedUnixUTC()),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintTransactionReference) {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeDuplicate, ledger.ErrDuplicateReference)
	}
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInsert, err)
	}
	return mapTransaction(model)
}

func (store *Store) LockTransactionByReference(ctx context.Context, reference ledger.Reference) (ledger.Transaction, error) {
	return store.lockTransaction(ctx, "reference = ?", reference.String())
}

func (store *Store) LockTransactionByID(ctx context.Context, transactionID ledger.TransactionID) (ledger.Transaction, error) {
	return store.lockTransaction(ctx, "id = ?", transactionID.Int64())
}

func (store *Store) lockTransaction(ctx context.Context, condition string, value any) (ledger.Transaction, error) {
	var model Transaction
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: lockingStrengthUpdate}).
		Where(condition, value).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeLock, ledger.ErrTransactionNotFound)
	}
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeLock, err)
	}
	return mapTransaction(model)
}

func (store *Store) UpdateTransactionStatus(ctx context.Context, transactionID ledger.TransactionID, from ledger.TransactionStatus, to ledger.TransactionStatus, gatewayPayload ledger.MetadataJSON) error {
	updates := map[string]any{
		"status":     to.String(),
		"updated_at": time.Now().UTC(),
	}
	if !gatewayPayload.IsZero() {
		updates["gateway_payload"] = datatypesJSON(gatewayPayload.String())
	}
	result := store.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND status = ?", transactionID.Int64(), from.String()).
		Updates(updates)
	if result.Error != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, ledger.ErrStatusInvariant)
	}
	return nil
}

func (store *Store) ListTransactions(ctx context.Context, query ledger.TransactionQuery) ([]ledger.Transaction, error) {
	db := store.db.WithContext(ctx).Model(&Transaction{})
	if query.UserID != nil {
		db = db.Where("user_id = ?", query.UserID.Int64())
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}
	var rows []Transaction
	if err := db.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	transactions := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		transaction, err := mapTransaction(row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, nil
}

func (store *Store) SumCompletedAmounts(ctx context.Context, userID ledger.UserID) (ledger.SignedAmountCents, error) {
	var sum sqlSum
	err := store.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("coalesce(sum(amount_cents),0) as total").
		Where("user_id = ? AND status = ?", userID.Int64(), ledger.StatusCompleted.String()).
		Scan(&sum).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeSum, err)
	}
	return ledger.SignedAmountCents(sum.Total), nil
}

func (store *Store) SumPendingWithdrawals(ctx context.Context, userID ledger.UserID) (ledger.AmountCents, error) {
	var sum sqlSum
	err := store.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("coalesce(sum(-amount_cents),0) as total").
		Where("user_id = ? AND status = ? AND type = ?", userID.Int64(), ledger.StatusPending.String(), ledger.TransactionWithdrawal.String()).
		Scan(&sum).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeSum, err)
	}
	pending, err := ledger.NewAmountCents(sum.Total)
	if err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	return pending, nil
}

func (store *Store) CreateProductVariant(ctx context.Context, input ledger.ProductVariantInput) (ledger.ProductVariant, error) {
	var variant ProductVariant
	err := store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		category := Category{Name: input.CategoryName}
		if err := transaction.Where("name = ?", input.CategoryName).FirstOrCreate(&category).Error; err != nil {
			return err
		}
		product := Product{CategoryID: category.ID, Name: input.ProductName}
		if err := transaction.Where("category_id = ? AND name = ?", category.ID, input.ProductName).FirstOrCreate(&product).Error; err != nil {
			return err
		}
		variant = ProductVariant{ProductID: product.ID, Name: input.VariantName, UnitPriceCents: input.UnitPrice.Int64()}
		return transaction.Create(&variant).Error
	})
	if err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeCreate, err)
	}
	return store.GetProductVariant(ctx, ledger.ProductVariantID(variant.ID))
}

func (store *Store) GetProductVariant(ctx context.Context, variantID ledger.ProductVariantID) (ledger.ProductVariant, error) {
	var row variantRow
	err := store.db.WithContext(ctx).
		Table("product_variants AS v").
		Select(variantSelect).
		Joins("JOIN products p ON p.id = v.product_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Where("v.id = ?", variantID.Int64()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeGet, ledger.ErrProductVariantNotFound)
	}
	if err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeGet, err)
	}
	return row.toDomain()
}

func (store *Store) ListCategories(ctx context.Context) ([]ledger.Category, error) {
	var rows []Category
	err := store.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Products.Variants", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectCatalog, errorCodeList, err)
	}
	categories := make([]ledger.Category, 0, len(rows))
	for _, row := range rows {
		category := ledger.Category{ID: row.ID, Name: row.Name, Products: []ledger.Product{}}
		for _, productRow := range row.Products {
			product := ledger.Product{ID: productRow.ID, CategoryID: row.ID, Name: productRow.Name, Variants: []ledger.ProductVariant{}}
			for _, variantModel := range productRow.Variants {
				variant, err := variantRow{
					ID:             variantModel.ID,
					ProductID:      productRow.ID,
					Name:           variantModel.Name,
					UnitPriceCents: variantModel.UnitPriceCents,
					ProductName:    productRow.Name,
					CategoryName:   row.Name,
				}.toDomain()
				if err != nil {
					return nil, err
				}
				product.Variants = append(product.Variants, variant)
			}
			category.Products = append(category.Products, product)
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (store *Store) CreateInventoryItem(ctx context.Context, input ledger.InventoryItemInput) (ledger.InventoryItem, error) {
	model := InventoryItem{
		ProductVariantID: input.ProductVariantID.Int64(),
		TotalSlots:       input.TotalSlots,
		CreatedAt:        timeFromUnix(input.CreatedUnixUTC),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeCreate, err)
	}
	return store.GetInventoryItem(ctx, ledger.InventoryItemID(model.ID))
}

func (store *Store) GetInventoryItem(ctx context.Context, itemID ledger.InventoryItemID) (ledger.InventoryItem, error) {
	var row inventoryRow
	err := store.inventoryQuery(ctx).Where("i.id = ?", itemID.Int64()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeGet, ledger.ErrInventoryItemNotFound)
	}
	if err != nil {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeGet, err)
	}
	return row.toDomain()
}

// LockInventoryItem locks only the inventory_items row, then reads the catalog view.
func (store *Store) LockInventoryItem(ctx context.Context, itemID ledger.InventoryItemID) (ledger.InventoryItem, error) {
	var locked InventoryItem
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: lockingStrengthUpdate}).
		Where("id = ?", itemID.Int64()).
		Take(&locked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeLock, ledger.ErrInventoryItemNotFound)
	}
	if err != nil {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeLock, err)
	}
	return store.GetInventoryItem(ctx, itemID)
}

func (store *Store) AddSlotsBooked(ctx context.Context, itemID ledger.InventoryItemID, slots int64) error {
	result := store.db.WithContext(ctx).
		Model(&InventoryItem{}).
		Where("id = ? AND slots_booked + ? <= total_slots", itemID.Int64(), slots).
		Update("slots_booked", gorm.Expr("slots_booked + ?", slots))
	if result.Error != nil {
		return wrapStoreError(errorSubjectInventory, errorCodeUpdateSlots, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := store.GetInventoryItem(ctx, itemID); err != nil {
			return err
		}
		return wrapStoreError(errorSubjectInventory, errorCodeUpdateSlots, ledger.ErrSlotsInvariant)
	}
	return nil
}

func (store *Store) ListInventoryItems(ctx context.Context) ([]ledger.InventoryItem, error) {
	var rows []inventoryRow
	if err := store.inventoryQuery(ctx).Order("i.id").Scan(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
	}
	items := make([]ledger.InventoryItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (store *Store) inventoryQuery(ctx context.Context) *gorm.DB {
	return store.db.WithContext(ctx).
		Table("inventory_items AS i").
		Select(inventorySelect).
		Joins("JOIN product_variants v ON v.id = i.product_variant_id").
		Joins("JOIN products p ON p.id = v.product_id").
		Joins("JOIN categories c ON c.id = p.category_id")
}

func (store *Store) InsertBooking(ctx context.Context, input ledger.BookingInput) (ledger.Booking, error) {
	model := Booking{
		UserID:          input.UserID.Int64(),
		InventoryItemID: input.InventoryItemID.Int64(),
		SlotsBooked:     input.Slots,
		AmountCents:     input.Amount.Int64(),
		TransactionID:   input.TransactionID.Int64(),
		CreatedAt:       timeFromUnix(input.CreatedUnixUTC),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return ledger.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInsert, err)
	}
	var row bookingRow
	if err := store.bookingQuery(ctx).Where("b.id = ?", model.ID).Take(&row).Error; err != nil {
		return ledger.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return row.toDomain()
}

func (store *Store) ListBookings(ctx context.Context, query ledger.BookingQuery) ([]ledger.Booking, error) {
	db := store.bookingQuery(ctx)
	if query.UserID != nil {
		db = db.Where("b.user_id = ?", query.UserID.Int64())
	}
	var rows []bookingRow
	if err := db.Order("b.created_at DESC").Order("b.id DESC").Scan(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	bookings := make([]ledger.Booking, 0, len(rows))
	for _, row := range rows {
		booking, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func (store *Store) bookingQuery(ctx context.Context) *gorm.DB {
	return store.db.WithContext(ctx).
		Table("bookings AS b").
		Select(bookingSelect).
		Joins("JOIN inventory_items i ON i.id = b.inventory_item_id").
		Joins("JOIN product_variants v ON v.id = i.product_variant_id").
		Joins("JOIN products p ON p.id = v.product_id")
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}

type sqlSum struct {
	Total int64
}

type variantRow struct {
	ID             int64
	ProductID      int64
	Name           string
	UnitPriceCents int64
	ProductName    string
	CategoryName   string
}

func (row variantRow) toDomain() (ledger.ProductVariant, error) {
	price, err := ledger.NewPositiveAmountCents(row.UnitPriceCents)
	if err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeInvalid, err)
	}
	return ledger.ProductVariant{
		ID:           ledger.ProductVariantID(row.ID),
		ProductID:    row.ProductID,
		Name:         row.Name,
		ProductName:  row.ProductName,
		CategoryName: row.CategoryName,
		UnitPrice:    price,
	}, nil
}

type inventoryRow struct {
	ID               int64
	ProductVariantID int64
	TotalSlots       int64
	SlotsBooked      int64
	CreatedAt        time.Time
	VariantName      string
	UnitPriceCents   int64
	ProductName      string
	CategoryName     string
}

func (row inventoryRow) toDomain() (ledger.InventoryItem, error) {
	price, err := ledger.NewPositiveAmountCents(row.UnitPriceCents)
	if err != nil {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeInvalid, err)
	}
	return ledger.InventoryItem{
		ID:               ledger.InventoryItemID(row.ID),
		ProductVariantID: ledger.ProductVariantID(row.ProductVariantID),
		CategoryName:     row.CategoryName,
		ProductName:      row.ProductName,
		VariantName:      row.VariantName,
		UnitPrice:        price,
		TotalSlots:       row.TotalSlots,
		SlotsBooked:      row.SlotsBooked,
		CreatedUnixUTC:   row.CreatedAt.Unix(),
	}, nil
}

type bookingRow struct {
	ID              int64
	UserID          int64
	InventoryItemID int64
	SlotsBooked     int64
	AmountCents     int64
	TransactionID   int64
	CreatedAt       time.Time
	VariantName     string
	ProductName     string
}

func (row bookingRow) toDomain() (ledger.Booking, error) {
	amount, err := ledger.NewPositiveAmountCents(row.AmountCents)
	if err != nil {
		return ledger.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return ledger.Booking{
		ID:              ledger.BookingID(row.ID),
		UserID:          ledger.UserID(row.UserID),
		InventoryItemID: ledger.InventoryItemID(row.InventoryItemID),
		ProductName:     row.ProductName,
		VariantName:     row.VariantName,
		Slots:           row.SlotsBooked,
		Amount:          amount,
		TransactionID:   ledger.TransactionID(row.TransactionID),
		CreatedUnixUTC:  row.CreatedAt.Unix(),
	}, nil
}

func mapUser(model User) (ledger.User, error) {
	role, err := ledger.ParseRole(model.Role)
	if err != nil {
		return ledger.User{}, wrapStoreError(errorSubjectUser, errorCodeInvalid, err)
	}
	balance, err := ledger.NewAmountCents(model.BalanceCents)
	if err != nil {
		return ledger.User{}, wrapStoreError(errorSubjectUser, errorCodeInvalid, err)
	}
	return ledger.User{
		ID:             ledger.UserID(model.ID),
		Name:           model.Name,
		Email:          model.Email,
		Phone:          model.Phone,
		Role:           role,
		Balance:        balance,
		Status:         model.Status,
		CreatedUnixUTC: model.CreatedAt.Unix(),
	}, nil
}

func mapTransaction(model Transaction) (ledger.Transaction, error) {
	transactionType, err := ledger.ParseTransactionType(model.Type)
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	method, err := ledger.ParseMethod(model.Method)
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	status, err := ledger.ParseTransactionStatus(model.Status)
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	var reference ledger.Reference
	if model.Reference != nil {
		reference, err = ledger.NewReference(*model.Reference)
		if err != nil {
			return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
		}
	}
	metadata, err := ledger.NewMetadataJSON(string(model.Metadata))
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	return ledger.Transaction{
		ID:             ledger.TransactionID(model.ID),
		UserID:         ledger.UserID(model.UserID),
		Amount:         ledger.SignedAmountCents(model.AmountCents),
		Type:           transactionType,
		Method:         method,
		Reference:      reference,
		Status:         status,
		Metadata:       metadata,
		CreatedUnixUTC: model.CreatedAt.Unix(),
	}, nil
}

func timeFromUnix(unixUTC int64) time.Time {
	if unixUTC == 0 {
		return time.Now().UTC()
	}
	return time.Unix(unixUTC, 0).UTC()
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultMetadataJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		columns, ok := sqliteUniqueColumns[constraint]
		return ok && sqliteErr.Code() == sqliteUniqueConstraintCode && strings.Contains(sqliteErr.Error(), columns)
	}
	return false
}
