package pgstore

import (
	"context"
	"errors"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	constraintTransactionReference = "uniq_transactions_reference"
	constraintUserEmail            = "uniq_users_email"
	pgUniqueViolationCode          = "23505"
	errorOperationStore            = "store"
	errorSubjectUser               = "user"
	errorSubjectTransaction        = "transaction"
	errorSubjectPlan               = "payment_plan"
	errorSubjectCatalog            = "catalog"
	errorSubjectInventory          = "inventory"
	errorSubjectBooking            = "booking"
	errorCodeBegin                 = "begin"
	errorCodeCommit                = "commit"
	errorCodeCreate                = "create"
	errorCodeDuplicate             = "duplicate"
	errorCodeGet                   = "get"
	errorCodeInsert                = "insert"
	errorCodeInvalid               = "invalid"
	errorCodeList                  = "list"
	errorCodeLock                  = "lock"
	errorCodeSum                   = "sum"
	errorCodeUpdateBalance         = "update_balance"
	errorCodeUpdateSlots           = "update_slots"
	errorCodeUpdateStatus          = "update_status"

	sqlInsertUser = `
		insert into users(name, email, phone, role, created_at)
		values($1, $2, $3, $4, to_timestamp($5))
		returning id, name, email, phone, role, balance_cents, status, extract(epoch from created_at)::bigint
	`

	sqlSelectUser = `
		select id, name, email, phone, role, balance_cents, status, extract(epoch from created_at)::bigint
		from users where id = $1
	`

	sqlApplyBalanceDelta = `
		update users set balance_cents = balance_cents + $2
		where id = $1 and balance_cents + $2 >= 0
		returning balance_cents
	`

	sqlSelectActivePlan = `
		select id, user_id, plan_type, amount_cents,
			coalesce(extract(epoch from next_payment_date)::bigint, 0),
			status, extract(epoch from created_at)::bigint
		from payment_plans
		where user_id = $1 and status = 'Active'
		order by created_at desc, id desc
		limit 1
	`

	sqlTransactionColumns = `
		id, user_id, amount_cents, type, method, coalesce(reference, ''), status,
		coalesce(metadata::text, '{}'), extract(epoch from created_at)::bigint
	`

	sqlInsertTransaction = `
		insert into transactions(user_id, amount_cents, type, method, reference, status, metadata, created_at, updated_at)
		values($1, $2, $3, $4, $5, $6, coalesce(nullif($7, ''), '{}')::jsonb, to_timestamp($8), to_timestamp($8))
		returning ` + sqlTransactionColumns

	sqlLockTransactionByReference = `select ` + sqlTransactionColumns + ` from transactions where reference = $1 for update`

	sqlLockTransactionByID = `select ` + sqlTransactionColumns + ` from transactions where id = $1 for update`

	sqlUpdateTransactionStatus = `
		update transactions
		set status = $3, gateway_payload = coalesce(nullif($4, '')::jsonb, gateway_payload), updated_at = now()
		where id = $1 and status = $2
	`

	sqlListTransactions = `
		select ` + sqlTransactionColumns + `
		from transactions
		where ($1::bigint is null or user_id = $1)
		order by created_at desc, id desc
		limit nullif($2, 0)
	`

	sqlSumCompleted = `
		select coalesce(sum(amount_cents), 0)::bigint from transactions
		where user_id = $1 and status = 'Completed'
	`

	sqlSumPendingWithdrawals = `
		select coalesce(sum(-amount_cents), 0)::bigint from transactions
		where user_id = $1 and status = 'Pending' and type = 'Withdrawal'
	`

	sqlUpsertCategory = `
		insert into categories(name) values($1)
		on conflict (name) do update set name = excluded.name
		returning id
	`

	sqlUpsertProduct = `
		insert into products(category_id, name) values($1, $2)
		on conflict (category_id, name) do update set name = excluded.name
		returning id
	`

	sqlInsertVariant = `
		insert into product_variants(product_id, name, unit_price_cents) values($1, $2, $3)
		returning id
	`

	sqlSelectVariant = `
		select v.id, v.product_id, v.name, v.unit_price_cents, p.name, c.name
		from product_variants v
		join products p on p.id = v.product_id
		join categories c on c.id = p.category_id
		where v.id = $1
	`

	sqlSelectCatalog = `
		select c.id, c.name, coalesce(p.id, 0), coalesce(p.name, ''),
			coalesce(v.id, 0), coalesce(v.name, ''), coalesce(v.unit_price_cents, 0)
		from categories c
		left join products p on p.category_id = c.id
		left join product_variants v on v.product_id = p.id
		order by c.name, p.name, v.name
	`

	sqlInsertInventoryItem = `
		insert into inventory_items(product_variant_id, total_slots, created_at)
		values($1, $2, to_timestamp($3))
		returning id
	`

	sqlInventoryView = `
		select i.id, i.product_variant_id, c.name, p.name, v.name, v.unit_price_cents,
			i.total_slots, i.slots_booked, extract(epoch from i.created_at)::bigint
		from inventory_items i
		join product_variants v on v.id = i.product_variant_id
		join products p on p.id = v.product_id
		join categories c on c.id = p.category_id
	`

	sqlSelectInventoryItem = sqlInventoryView + ` where i.id = $1`

	sqlListInventoryItems = sqlInventoryView + ` order by i.id`

	sqlLockInventoryItem = `select id from inventory_items where id = $1 for update`

	sqlAddSlotsBooked = `
		update inventory_items set slots_booked = slots_booked + $2
		where id = $1 and slots_booked + $2 <= total_slots
	`

	sqlInsertBooking = `
		insert into bookings(user_id, inventory_item_id, slots_booked, amount_cents, transaction_id, created_at)
		values($1, $2, $3, $4, $5, to_timestamp($6))
		returning id
	`

	sqlBookingView = `
		select b.id, b.user_id, b.inventory_item_id, p.name, v.name, b.slots_booked,
			b.amount_cents, b.transaction_id, extract(epoch from b.created_at)::bigint
		from bookings b
		join inventory_items i on i.id = b.inventory_item_id
		join product_variants v on v.id = i.product_variant_id
		join products p on p.id = v.product_id
	`

	sqlSelectBooking = sqlBookingView + ` where b.id = $1`

	sqlListBookings = sqlBookingView + `
		where ($1::bigint is null or b.user_id = $1)
		order by b.created_at desc, b.id desc
	`
)

type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// queries holds every statement; Store and TxStore differ only in what they run on.
type queries struct {
	db queryer
}

// Store implements ledger.Store using a pgx connection pool (autocommit).
type Store struct {
	queries
	pool *pgxpool.Pool
}

// TxStore implements ledger.Store for an active transaction.
type TxStore struct {
	queries
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	// Rollback after Commit is a no-op; the deferred call releases the connection when fn panics.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()
	transactionStore := &TxStore{queries: queries{db: tx}}
	if err := fn(ctx, transactionStore); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *TxStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return fn(ctx, store)
}

func (store queries) CreateUser(ctx context.Context, input ledger.UserInput) (ledger.User, error) {
	row := store.db.QueryRow(ctx, sqlInsertUser, input.Name, input.Email, input.Phone, input.Role.String(), input.CreatedUnixUTC)
	user, err := scanUser(row)
	if isUniqueViolation(err, constraintUserEmail) {
		return ledger.User{}, wrapStoreError(errorSubjectUser, errorCodeDuplicate, ledger.ErrDuplicateUser)
	}
	if err != nil {
		return ledger.User{}, wrapStoreError(errorSubjectUser, errorCodeCreate, err)
	}
	return user, nil
}

func (store queries) GetUser(ctx context.Context, userID ledger.UserID) (ledger.User, error) {
	return store.selectUser(ctx, sqlSelectUser, userID, errorCodeGet)
}

func (store queries) LockUser(ctx context.Context, userID ledger.UserID) (ledger.User, error) {
	return store.selectUser(ctx, sqlSelectUser+" for update", userID, errorCodeLock)
}

func (store queries) selectUser(ctx context.Context, statement string, userID ledger.UserID, code string) (ledger.User, error) {
	user, err := scanUser(store.db.QueryRow(ctx, statement, userID.Int64()))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.User{}, wrapStoreError(errorSubjectUser, code, ledger.ErrUserNotFound)
	}
	if err != nil {
		return ledger.User{}, wrapStoreError(errorSubjectUser, code, err)
	}
	return user, nil
}

func (store queries) ApplyBalanceDelta(ctx context.Context, userID ledger.UserID, delta ledger.SignedAmountCents) (ledger.AmountCents, error) {
	var balanceValue int64
	err := store.db.QueryRow(ctx, sqlApplyBalanceDelta, userID.Int64(), delta.Int64()).Scan(&balanceValue)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, lookupErr := store.GetUser(ctx, userID); lookupErr != nil {
			return 0, lookupErr
		}
		return 0, wrapStoreError(errorSubjectUser, errorCodeUpdateBalance, ledger.ErrBalanceInvariant)
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectUser, errorCodeUpdateBalance, err)
	}
	balance, err := ledger.NewAmountCents(balanceValue)
	if err != nil {
		return 0, wrapStoreError(errorSubjectUser, errorCodeInvalid, err)
	}
	return balance, nil
}

func (store queries) GetActivePaymentPlan(ctx context.Context, userID ledger.UserID) (*ledger.PaymentPlan, error) {
	var (
		plan        ledger.PaymentPlan
		userValue   int64
		amountValue int64
		statusValue string
	)
	err := store.db.QueryRow(ctx, sqlSelectActivePlan, userID.Int64()).Scan(
		&plan.ID, &userValue, &plan.PlanType, &amountValue, &plan.NextPaymentUnixUTC, &statusValue, &plan.CreatedUnixUTC,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlan, errorCodeGet, err)
	}
	amount, err := ledger.NewAmountCents(amountValue)
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlan, errorCodeInvalid, err)
	}
	plan.UserID = ledger.UserID(userValue)
	plan.Amount = amount
	plan.Status = ledger.PlanStatus(statusValue)
	return &plan, nil
}

func (store queries) InsertTransaction(ctx context.Context, input ledger.TransactionInput) (ledger.Transaction, error) {
	row := store.db.QueryRow(ctx, sqlInsertTransaction,
		input.UserID().Int64(),
		input.Amount().Int64(),
		input.Type().String(),
		input.Method().String(),
		input.Reference().String(),
		input.Status().String(),
		input.Metadata().String(),
		input.CreatedUnixUTC(),
	)
	transaction, err := scanTransaction(row)
	if isUniqueViolation(err, constraintTransactionReference) {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeDuplicate, ledger.ErrDuplicateReference)
	}
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInsert, err)
	}
	return transaction, nil
}

func (store queries) LockTransactionByReference(ctx context.Context, reference ledger.Reference) (ledger.Transaction, error) {
	return store.lockTransaction(ctx, sqlLockTransactionByReference, reference.String())
}

func (store queries) LockTransactionByID(ctx context.Context, transactionID ledger.TransactionID) (ledger.Transaction, error) {
	return store.lockTransaction(ctx, sqlLockTransactionByID, transactionID.Int64())
}

func (store queries) lockTransaction(ctx context.Context, statement string, key any) (ledger.Transaction, error) {
	transaction, err := scanTransaction(store.db.QueryRow(ctx, statement, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeLock, ledger.ErrTransactionNotFound)
	}
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeLock, err)
	}
	return transaction, nil
}

func (store queries) UpdateTransactionStatus(ctx context.Context, transactionID ledger.TransactionID, from ledger.TransactionStatus, to ledger.TransactionStatus, gatewayPayload ledger.MetadataJSON) error {
	payload := ""
	if !gatewayPayload.IsZero() {
		payload = gatewayPayload.String()
	}
	tag, err := store.db.Exec(ctx, sqlUpdateTransactionStatus, transactionID.Int64(), from.String(), to.String(), payload)
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, ledger.ErrStatusInvariant)
	}
	return nil
}

func (store queries) ListTransactions(ctx context.Context, query ledger.TransactionQuery) ([]ledger.Transaction, error) {
	var userFilter *int64
	if query.UserID != nil {
		value := query.UserID.Int64()
		userFilter = &value
	}
	rows, err := store.db.Query(ctx, sqlListTransactions, userFilter, query.Limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	defer rows.Close()
	transactions := make([]ledger.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	return transactions, nil
}

func (store queries) SumCompletedAmounts(ctx context.Context, userID ledger.UserID) (ledger.SignedAmountCents, error) {
	var total int64
	if err := store.db.QueryRow(ctx, sqlSumCompleted, userID.Int64()).Scan(&total); err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeSum, err)
	}
	return ledger.SignedAmountCents(total), nil
}

func (store queries) SumPendingWithdrawals(ctx context.Context, userID ledger.UserID) (ledger.AmountCents, error) {
	var total int64
	if err := store.db.QueryRow(ctx, sqlSumPendingWithdrawals, userID.Int64()).Scan(&total); err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeSum, err)
	}
	pending, err := ledger.NewAmountCents(total)
	if err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	return pending, nil
}

func (store queries) CreateProductVariant(ctx context.Context, input ledger.ProductVariantInput) (ledger.ProductVariant, error) {
	var categoryID, productID, variantID int64
	if err := store.db.QueryRow(ctx, sqlUpsertCategory, input.CategoryName).Scan(&categoryID); err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeCreate, err)
	}
	if err := store.db.QueryRow(ctx, sqlUpsertProduct, categoryID, input.ProductName).Scan(&productID); err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeCreate, err)
	}
	if err := store.db.QueryRow(ctx, sqlInsertVariant, productID, input.VariantName, input.UnitPrice.Int64()).Scan(&variantID); err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeCreate, err)
	}
	return store.GetProductVariant(ctx, ledger.ProductVariantID(variantID))
}

func (store queries) GetProductVariant(ctx context.Context, variantID ledger.ProductVariantID) (ledger.ProductVariant, error) {
	var (
		variant    ledger.ProductVariant
		idValue    int64
		priceValue int64
	)
	err := store.db.QueryRow(ctx, sqlSelectVariant, variantID.Int64()).Scan(
		&idValue, &variant.ProductID, &variant.Name, &priceValue, &variant.ProductName, &variant.CategoryName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeGet, ledger.ErrProductVariantNotFound)
	}
	if err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeGet, err)
	}
	price, err := ledger.NewPositiveAmountCents(priceValue)
	if err != nil {
		return ledger.ProductVariant{}, wrapStoreError(errorSubjectCatalog, errorCodeInvalid, err)
	}
	variant.ID = ledger.ProductVariantID(idValue)
	variant.UnitPrice = price
	return variant, nil
}

func (store queries) ListCategories(ctx context.Context) ([]ledger.Category, error) {
	rows, err := store.db.Query(ctx, sqlSelectCatalog)
	if err != nil {
		return nil, wrapStoreError(errorSubjectCatalog, errorCodeList, err)
	}
	defer rows.Close()
	categories := make([]ledger.Category, 0)
	for rows.Next() {
		var categoryID, productID, variantID, priceValue int64
		var categoryName, productName, variantName string
		if err := rows.Scan(&categoryID, &categoryName, &productID, &productName, &variantID, &variantName, &priceValue); err != nil {
			return nil, wrapStoreError(errorSubjectCatalog, errorCodeList, err)
		}
		if len(categories) == 0 || categories[len(categories)-1].ID != categoryID {
			categories = append(categories, ledger.Category{ID: categoryID, Name: categoryName, Products: []ledger.Product{}})
		}
		category := &categories[len(categories)-1]
		if productID == 0 {
			continue
		}
		if len(category.Products) == 0 || category.Products[len(category.Products)-1].ID != productID {
			category.Products = append(category.Products, ledger.Product{ID: productID, CategoryID: categoryID, Name: productName, Variants: []ledger.ProductVariant{}})
		}
		product := &category.Products[len(category.Products)-1]
		if variantID == 0 {
			continue
		}
		price, err := ledger.NewPositiveAmountCents(priceValue)
		if err != nil {
			return nil, wrapStoreError(errorSubjectCatalog, errorCodeInvalid, err)
		}
		product.Variants = append(product.Variants, ledger.ProductVariant{
			ID:           ledger.ProductVariantID(variantID),
			ProductID:    productID,
			Name:         variantName,
			ProductName:  productName,
			CategoryName: categoryName,
			UnitPrice:    price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectCatalog, errorCodeList, err)
	}
	return categories, nil
}

func (store queries) CreateInventoryItem(ctx context.Context, input ledger.InventoryItemInput) (ledger.InventoryItem, error) {
	var itemID int64
	err := store.db.QueryRow(ctx, sqlInsertInventoryItem, input.ProductVariantID.Int64(), input.TotalSlots, input.CreatedUnixUTC).Scan(&itemID)
	if err != nil {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeCreate, err)
	}
	return store.GetInventoryItem(ctx, ledger.InventoryItemID(itemID))
}

func (store queries) GetInventoryItem(ctx context.Context, itemID ledger.InventoryItemID) (ledger.InventoryItem, error) {
	item, err := scanInventoryItem(store.db.QueryRow(ctx, sqlSelectInventoryItem, itemID.Int64()))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeGet, ledger.ErrInventoryItemNotFound)
	}
	if err != nil {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeGet, err)
	}
	return item, nil
}

// LockInventoryItem locks the inventory_items row only; the catalog join is read afterwards.
func (store queries) LockInventoryItem(ctx context.Context, itemID ledger.InventoryItemID) (ledger.InventoryItem, error) {
	var lockedID int64
	err := store.db.QueryRow(ctx, sqlLockInventoryItem, itemID.Int64()).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeLock, ledger.ErrInventoryItemNotFound)
	}
	if err != nil {
		return ledger.InventoryItem{}, wrapStoreError(errorSubjectInventory, errorCodeLock, err)
	}
	return store.GetInventoryItem(ctx, itemID)
}

func (store queries) AddSlotsBooked(ctx context.Context, itemID ledger.InventoryItemID, slots int64) error {
	tag, err := store.db.Exec(ctx, sqlAddSlotsBooked, itemID.Int64(), slots)
	if err != nil {
		return wrapStoreError(errorSubjectInventory, errorCodeUpdateSlots, err)
	}
	if tag.RowsAffected() == 0 {
		if _, lookupErr := store.GetInventoryItem(ctx, itemID); lookupErr != nil {
			return lookupErr
		}
		return wrapStoreError(errorSubjectInventory, errorCodeUpdateSlots, ledger.ErrSlotsInvariant)
	}
	return nil
}

func (store queries) ListInventoryItems(ctx context.Context) ([]ledger.InventoryItem, error) {
	rows, err := store.db.Query(ctx, sqlListInventoryItems)
	if err != nil {
		return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
	}
	defer rows.Close()
	items := make([]ledger.InventoryItem, 0)
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
	}
	return items, nil
}

func (store queries) InsertBooking(ctx context.Context, input ledger.BookingInput) (ledger.Booking, error) {
	var bookingID int64
	err := store.db.QueryRow(ctx, sqlInsertBooking,
		input.UserID.Int64(),
		input.InventoryItemID.Int64(),
		input.Slots,
		input.Amount.Int64(),
		input.TransactionID.Int64(),
		input.CreatedUnixUTC,
	).Scan(&bookingID)
	if err != nil {
		return ledger.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInsert, err)
	}
	booking, err := scanBooking(store.db.QueryRow(ctx, sqlSelectBooking, bookingID))
	if err != nil {
		return ledger.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return booking, nil
}

func (store queries) ListBookings(ctx context.Context, query ledger.BookingQuery) ([]ledger.Booking, error) {
	var userFilter *int64
	if query.UserID != nil {
		value := query.UserID.Int64()
		userFilter = &value
	}
	rows, err := store.db.Query(ctx, sqlListBookings, userFilter)
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	defer rows.Close()
	bookings := make([]ledger.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	return bookings, nil
}

func scanUser(row pgx.Row) (ledger.User, error) {
	var (
		idValue      int64
		roleValue    string
		balanceValue int64
		user         ledger.User
	)
	if err := row.Scan(&idValue, &user.Name, &user.Email, &user.Phone, &roleValue, &balanceValue, &user.Status, &user.CreatedUnixUTC); err != nil {
		return ledger.User{}, err
	}
	role, err := ledger.ParseRole(roleValue)
	if err != nil {
		return ledger.User{}, err
	}
	balance, err := ledger.NewAmountCents(balanceValue)
	if err != nil {
		return ledger.User{}, err
	}
	user.ID = ledger.UserID(idValue)
	user.Role = role
	user.Balance = balance
	return user, nil
}

func scanTransaction(row pgx.Row) (ledger.Transaction, error) {
	var idValue, userValue, amountValue, createdValue int64
	var typeValue, methodValue, referenceValue, statusValue, rawMeta string
	if err := row.Scan(&idValue, &userValue, &amountValue, &typeValue, &methodValue, &referenceValue, &statusValue, &rawMeta, &createdValue); err != nil {
		return ledger.Transaction{}, err
	}
	transactionType, err := ledger.ParseTransactionType(typeValue)
	if err != nil {
		return ledger.Transaction{}, err
	}
	method, err := ledger.ParseMethod(methodValue)
	if err != nil {
		return ledger.Transaction{}, err
	}
	status, err := ledger.ParseTransactionStatus(statusValue)
	if err != nil {
		return ledger.Transaction{}, err
	}
	var reference ledger.Reference
	if referenceValue != "" {
		reference, err = ledger.NewReference(referenceValue)
		if err != nil {
			return ledger.Transaction{}, err
		}
	}
	metadata, err := ledger.NewMetadataJSON(rawMeta)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return ledger.Transaction{
		ID:             ledger.TransactionID(idValue),
		UserID:         ledger.UserID(userValue),
		Amount:         ledger.SignedAmountCents(amountValue),
		Type:           transactionType,
		Method:         method,
		Reference:      reference,
		Status:         status,
		Metadata:       metadata,
		CreatedUnixUTC: createdValue,
	}, nil
}

func scanInventoryItem(row pgx.Row) (ledger.InventoryItem, error) {
	var item ledger.InventoryItem
	var idValue, variantID, price int64
	err := row.Scan(&idValue, &variantID, &item.CategoryName, &item.ProductName, &item.VariantName, &price, &item.TotalSlots, &item.SlotsBooked, &item.CreatedUnixUTC)
	if err != nil {
		return ledger.InventoryItem{}, err
	}
	unitPrice, err := ledger.NewPositiveAmountCents(price)
	if err != nil {
		return ledger.InventoryItem{}, err
	}
	item.ID = ledger.InventoryItemID(idValue)
	item.ProductVariantID = ledger.ProductVariantID(variantID)
	item.UnitPrice = unitPrice
	return item, nil
}

func scanBooking(row pgx.Row) (ledger.Booking, error) {
	var booking ledger.Booking
	var idValue, userValue, itemValue, amountValue, txValue int64
	err := row.Scan(&idValue, &userValue, &itemValue, &booking.ProductName, &booking.VariantName, &booking.Slots, &amountValue, &txValue, &booking.CreatedUnixUTC)
	if err != nil {
		return ledger.Booking{}, err
	}
	amount, err := ledger.NewPositiveAmountCents(amountValue)
	if err != nil {
		return ledger.Booking{}, err
	}
	booking.ID = ledger.BookingID(idValue)
	booking.UserID = ledger.UserID(userValue)
	booking.InventoryItemID = ledger.InventoryItemID(itemValue)
	booking.Amount = amount
	booking.TransactionID = ledger.TransactionID(txValue)
	return booking, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
	}
	return false
}
