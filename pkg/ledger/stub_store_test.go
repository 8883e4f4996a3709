package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

var errStoreFailure = errors.New("store error")

// stubStore keeps rows in memory. Lock* calls and guarded updates take a
// per-row mutex held until WithTx returns; a failed WithTx replays its undo
// journal before releasing the rows.
type stubStore struct {
	data *stubData
	tx   *stubTx
}

type stubData struct {
	mu           sync.Mutex
	nextID       int64
	users        map[UserID]User
	transactions map[TransactionID]Transaction
	payloads     map[TransactionID]MetadataJSON
	plans        []PaymentPlan
	categories   map[string]int64
	products     map[string]int64
	variants     map[ProductVariantID]ProductVariant
	items        map[InventoryItemID]InventoryItem
	bookings     []Booking
	rowLocks     map[string]*sync.Mutex
	failures     map[string]error
	lockHook     func(key string)
}

type stubTx struct {
	held map[string]*sync.Mutex
	undo []func()
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{data: &stubData{
		users:        make(map[UserID]User),
		transactions: make(map[TransactionID]Transaction),
		payloads:     make(map[TransactionID]MetadataJSON),
		categories:   make(map[string]int64),
		products:     make(map[string]int64),
		variants:     make(map[ProductVariantID]ProductVariant),
		items:        make(map[InventoryItemID]InventoryItem),
		rowLocks:     make(map[string]*sync.Mutex),
		failures:     make(map[string]error),
	}}
}

func (store *stubStore) failOn(method string, err error) {
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	store.data.failures[method] = err
}

func (store *stubStore) failure(method string) error {
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	return store.data.failures[method]
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	if store.tx != nil {
		return fn(ctx, store)
	}
	if err := store.failure("WithTx"); err != nil {
		return err
	}
	txStore := &stubStore{data: store.data, tx: &stubTx{held: make(map[string]*sync.Mutex)}}
	err := fn(ctx, txStore)
	if err != nil {
		store.data.mu.Lock()
		for index := len(txStore.tx.undo) - 1; index >= 0; index-- {
			txStore.tx.undo[index]()
		}
		store.data.mu.Unlock()
	}
	for _, rowLock := range txStore.tx.held {
		rowLock.Unlock()
	}
	return err
}

func (store *stubStore) lockRow(key string) {
	if store.tx == nil {
		return
	}
	if _, held := store.tx.held[key]; held {
		return
	}
	store.data.mu.Lock()
	rowLock, ok := store.data.rowLocks[key]
	if !ok {
		rowLock = &sync.Mutex{}
		store.data.rowLocks[key] = rowLock
	}
	hook := store.data.lockHook
	store.data.mu.Unlock()
	rowLock.Lock()
	store.tx.held[key] = rowLock
	if hook != nil {
		hook(key)
	}
}

// journal must be called with data.mu held.
func (store *stubStore) journal(undo func()) {
	if store.tx != nil {
		store.tx.undo = append(store.tx.undo, undo)
	}
}

func (store *stubStore) nextIDLocked() int64 {
	store.data.nextID++
	return store.data.nextID
}

func userRowKey(userID UserID) string {
	return fmt.Sprintf("user:%d", userID)
}

func transactionRowKey(transactionID TransactionID) string {
	return fmt.Sprintf("transaction:%d", transactionID)
}

func itemRowKey(itemID InventoryItemID) string {
	return fmt.Sprintf("item:%d", itemID)
}

func (store *stubStore) CreateUser(ctx context.Context, input UserInput) (User, error) {
	if err := store.failure("CreateUser"); err != nil {
		return User{}, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	for _, existing := range store.data.users {
		if existing.Email == input.Email {
			return User{}, ErrDuplicateUser
		}
	}
	user := User{
		ID:             UserID(store.nextIDLocked()),
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Role:           input.Role,
		Status:         "Active",
		CreatedUnixUTC: input.CreatedUnixUTC,
	}
	store.data.users[user.ID] = user
	store.journal(func() { delete(store.data.users, user.ID) })
	return user, nil
}

func (store *stubStore) GetUser(ctx context.Context, userID UserID) (User, error) {
	if err := store.failure("GetUser"); err != nil {
		return User{}, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	user, ok := store.data.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (store *stubStore) LockUser(ctx context.Context, userID UserID) (User, error) {
	if err := store.failure("LockUser"); err != nil {
		return User{}, err
	}
	store.lockRow(userRowKey(userID))
	return store.GetUser(ctx, userID)
}

func (store *stubStore) ApplyBalanceDelta(ctx context.Context, userID UserID, delta SignedAmountCents) (AmountCents, error) {
	if err := store.failure("ApplyBalanceDelta"); err != nil {
		return 0, err
	}
	store.lockRow(userRowKey(userID))
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	user, ok := store.data.users[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	updated := user.Balance.Int64() + delta.Int64()
	if updated < 0 {
		return 0, ErrBalanceInvariant
	}
	previous := user.Balance
	user.Balance = AmountCents(updated)
	store.data.users[userID] = user
	store.journal(func() {
		restored := store.data.users[userID]
		restored.Balance = previous
		store.data.users[userID] = restored
	})
	return user.Balance, nil
}

func (store *stubStore) GetActivePaymentPlan(ctx context.Context, userID UserID) (*PaymentPlan, error) {
	if err := store.failure("GetActivePaymentPlan"); err != nil {
		return nil, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	var newest *PaymentPlan
	for index := range store.data.plans {
		plan := store.data.plans[index]
		if plan.UserID != userID || plan.Status != PlanStatusActive {
			continue
		}
		if newest == nil || plan.CreatedUnixUTC > newest.CreatedUnixUTC || (plan.CreatedUnixUTC == newest.CreatedUnixUTC && plan.ID > newest.ID) {
			selected := plan
			newest = &selected
		}
	}
	return newest, nil
}

func (store *stubStore) InsertTransaction(ctx context.Context, input TransactionInput) (Transaction, error) {
	if err := store.failure("InsertTransaction"); err != nil {
		return Transaction{}, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	for _, existing := range store.data.transactions {
		if existing.Reference == input.Reference() {
			return Transaction{}, ErrDuplicateReference
		}
	}
	transaction := Transaction{
		ID:             TransactionID(store.nextIDLocked()),
		UserID:         input.UserID(),
		Amount:         input.Amount(),
		Type:           input.Type(),
		Method:         input.Method(),
		Reference:      input.Reference(),
		Status:         input.Status(),
		Metadata:       input.Metadata(),
		CreatedUnixUTC: input.CreatedUnixUTC(),
	}
	store.data.transactions[transaction.ID] = transaction
	store.journal(func() { delete(store.data.transactions, transaction.ID) })
	return transaction, nil
}

func (store *stubStore) LockTransactionByReference(ctx context.Context, reference Reference) (Transaction, error) {
	if err := store.failure("LockTransactionByReference"); err != nil {
		return Transaction{}, err
	}
	store.data.mu.Lock()
	var found *Transaction
	for _, existing := range store.data.transactions {
		if existing.Reference == reference {
			candidate := existing
			found = &candidate
			break
		}
	}
	store.data.mu.Unlock()
	if found == nil {
		return Transaction{}, ErrTransactionNotFound
	}
	return store.LockTransactionByID(ctx, found.ID)
}

func (store *stubStore) LockTransactionByID(ctx context.Context, transactionID TransactionID) (Transaction, error) {
	if err := store.failure("LockTransactionByID"); err != nil {
		return Transaction{}, err
	}
	store.lockRow(transactionRowKey(transactionID))
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	transaction, ok := store.data.transactions[transactionID]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return transaction, nil
}

func (store *stubStore) UpdateTransactionStatus(ctx context.Context, transactionID TransactionID, from TransactionStatus, to TransactionStatus, gatewayPayload MetadataJSON) error {
	if err := store.failure("UpdateTransactionStatus"); err != nil {
		return err
	}
	store.lockRow(transactionRowKey(transactionID))
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	transaction, ok := store.data.transactions[transactionID]
	if !ok {
		return ErrTransactionNotFound
	}
	if transaction.Status != from {
		return ErrStatusInvariant
	}
	transaction.Status = to
	store.data.transactions[transactionID] = transaction
	previousPayload, hadPayload := store.data.payloads[transactionID]
	if !gatewayPayload.IsZero() {
		store.data.payloads[transactionID] = gatewayPayload
	}
	store.journal(func() {
		restored := store.data.transactions[transactionID]
		restored.Status = from
		store.data.transactions[transactionID] = restored
		if hadPayload {
			store.data.payloads[transactionID] = previousPayload
		} else {
			delete(store.data.payloads, transactionID)
		}
	})
	return nil
}

func (store *stubStore) ListTransactions(ctx context.Context, query TransactionQuery) ([]Transaction, error) {
	if err := store.failure("ListTransactions"); err != nil {
		return nil, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	results := []Transaction{}
	for _, transaction := range store.data.transactions {
		if query.UserID != nil && transaction.UserID != *query.UserID {
			continue
		}
		results = append(results, transaction)
	}
	sort.Slice(results, func(left, right int) bool {
		if results[left].CreatedUnixUTC != results[right].CreatedUnixUTC {
			return results[left].CreatedUnixUTC > results[right].CreatedUnixUTC
		}
		return results[left].ID > results[right].ID
	})
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

func (store *stubStore) SumCompletedAmounts(ctx context.Context, userID UserID) (SignedAmountCents, error) {
	if err := store.failure("SumCompletedAmounts"); err != nil {
		return 0, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	var sum int64
	for _, transaction := range store.data.transactions {
		if transaction.UserID == userID && transaction.Status == StatusCompleted {
			sum += transaction.Amount.Int64()
		}
	}
	return SignedAmountCents(sum), nil
}

func (store *stubStore) SumPendingWithdrawals(ctx context.Context, userID UserID) (AmountCents, error) {
	if err := store.failure("SumPendingWithdrawals"); err != nil {
		return 0, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	var sum int64
	for _, transaction := range store.data.transactions {
		if transaction.UserID == userID && transaction.Status == StatusPending && transaction.Type == TransactionWithdrawal {
			sum -= transaction.Amount.Int64()
		}
	}
	return AmountCents(sum), nil
}

func (store *stubStore) CreateProductVariant(ctx context.Context, input ProductVariantInput) (ProductVariant, error) {
	if err := store.failure("CreateProductVariant"); err != nil {
		return ProductVariant{}, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	if _, ok := store.data.categories[input.CategoryName]; !ok {
		store.data.categories[input.CategoryName] = store.nextIDLocked()
	}
	productKey := input.CategoryName + "/" + input.ProductName
	productID, ok := store.data.products[productKey]
	if !ok {
		productID = store.nextIDLocked()
		store.data.products[productKey] = productID
	}
	variant := ProductVariant{
		ID:           ProductVariantID(store.nextIDLocked()),
		ProductID:    productID,
		Name:         input.VariantName,
		ProductName:  input.ProductName,
		CategoryName: input.CategoryName,
		UnitPrice:    input.UnitPrice,
	}
	store.data.variants[variant.ID] = variant
	return variant, nil
}

func (store *stubStore) GetProductVariant(ctx context.Context, variantID ProductVariantID) (ProductVariant, error) {
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	variant, ok := store.data.variants[variantID]
	if !ok {
		return ProductVariant{}, ErrProductVariantNotFound
	}
	return variant, nil
}

func (store *stubStore) ListCategories(ctx context.Context) ([]Category, error) {
	if err := store.failure("ListCategories"); err != nil {
		return nil, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	categories := []Category{}
	for name, categoryID := range store.data.categories {
		category := Category{ID: categoryID, Name: name}
		for productKey, productID := range store.data.products {
			productName, found := strings.CutPrefix(productKey, name+"/")
			if !found {
				continue
			}
			product := Product{ID: productID, CategoryID: categoryID, Name: productName}
			for _, variant := range store.data.variants {
				if variant.ProductID == productID {
					product.Variants = append(product.Variants, variant)
				}
			}
			category.Products = append(category.Products, product)
		}
		categories = append(categories, category)
	}
	sort.Slice(categories, func(left, right int) bool { return categories[left].Name < categories[right].Name })
	return categories, nil
}

func (store *stubStore) CreateInventoryItem(ctx context.Context, input InventoryItemInput) (InventoryItem, error) {
	if err := store.failure("CreateInventoryItem"); err != nil {
		return InventoryItem{}, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	variant, ok := store.data.variants[input.ProductVariantID]
	if !ok {
		return InventoryItem{}, ErrProductVariantNotFound
	}
	item := InventoryItem{
		ID:               InventoryItemID(store.nextIDLocked()),
		ProductVariantID: variant.ID,
		CategoryName:     variant.CategoryName,
		ProductName:      variant.ProductName,
		VariantName:      variant.Name,
		UnitPrice:        variant.UnitPrice,
		TotalSlots:       input.TotalSlots,
		CreatedUnixUTC:   input.CreatedUnixUTC,
	}
	store.data.items[item.ID] = item
	store.journal(func() { delete(store.data.items, item.ID) })
	return item, nil
}

func (store *stubStore) GetInventoryItem(ctx context.Context, itemID InventoryItemID) (InventoryItem, error) {
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	item, ok := store.data.items[itemID]
	if !ok {
		return InventoryItem{}, ErrInventoryItemNotFound
	}
	return item, nil
}

func (store *stubStore) LockInventoryItem(ctx context.Context, itemID InventoryItemID) (InventoryItem, error) {
	if err := store.failure("LockInventoryItem"); err != nil {
		return InventoryItem{}, err
	}
	store.lockRow(itemRowKey(itemID))
	return store.GetInventoryItem(ctx, itemID)
}

func (store *stubStore) AddSlotsBooked(ctx context.Context, itemID InventoryItemID, slots int64) error {
	if err := store.failure("AddSlotsBooked"); err != nil {
		return err
	}
	store.lockRow(itemRowKey(itemID))
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	item, ok := store.data.items[itemID]
	if !ok {
		return ErrInventoryItemNotFound
	}
	if item.SlotsBooked+slots > item.TotalSlots {
		return ErrSlotsInvariant
	}
	item.SlotsBooked += slots
	store.data.items[itemID] = item
	store.journal(func() {
		restored := store.data.items[itemID]
		restored.SlotsBooked -= slots
		store.data.items[itemID] = restored
	})
	return nil
}

func (store *stubStore) ListInventoryItems(ctx context.Context) ([]InventoryItem, error) {
	if err := store.failure("ListInventoryItems"); err != nil {
		return nil, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	items := []InventoryItem{}
	for _, item := range store.data.items {
		items = append(items, item)
	}
	sort.Slice(items, func(left, right int) bool { return items[left].ID < items[right].ID })
	return items, nil
}

func (store *stubStore) InsertBooking(ctx context.Context, input BookingInput) (Booking, error) {
	if err := store.failure("InsertBooking"); err != nil {
		return Booking{}, err
	}
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	booking := Booking{
		ID:              BookingID(store.nextIDLocked()),
		UserID:          input.UserID,
		InventoryItemID: input.InventoryItemID,
		Slots:           input.Slots,
		Amount:          input.Amount,
		TransactionID:   input.TransactionID,
		CreatedUnixUTC:  input.CreatedUnixUTC,
	}
	store.data.bookings = append(store.data.bookings, booking)
	store.journal(func() {
		for index, existing := range store.data.bookings {
			if existing.ID == booking.ID {
				store.data.bookings = append(store.data.bookings[:index], store.data.bookings[index+1:]...)
				return
			}
		}
	})
	return booking, nil
}

func (store *stubStore) ListBookings(ctx context.Context, query BookingQuery) ([]Booking, error) {
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	bookings := []Booking{}
	for index := len(store.data.bookings) - 1; index >= 0; index-- {
		booking := store.data.bookings[index]
		if query.UserID != nil && booking.UserID != *query.UserID {
			continue
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

// seedUser creates a user whose balance is backed by one Completed deposit.
func (store *stubStore) seedUser(test *testing.T, role Role, balance int64) Principal {
	test.Helper()
	input, err := NewUserInput(fmt.Sprintf("user %d", store.data.nextID+1), fmt.Sprintf("user%d@example.com", store.data.nextID+1), "", role, 1)
	if err != nil {
		test.Fatalf("user input: %v", err)
	}
	user, err := store.CreateUser(context.Background(), input)
	if err != nil {
		test.Fatalf("create user: %v", err)
	}
	if balance > 0 {
		input, err := NewTransactionInput(user.ID, SignedAmountCents(balance), TransactionDeposit, MethodCash, mustReference(test, fmt.Sprintf("SEED-%d", user.ID)), StatusCompleted, MetadataJSON{}, 1)
		if err != nil {
			test.Fatalf("seed transaction: %v", err)
		}
		if _, err := store.InsertTransaction(context.Background(), input); err != nil {
			test.Fatalf("insert seed transaction: %v", err)
		}
		if _, err := store.ApplyBalanceDelta(context.Background(), user.ID, SignedAmountCents(balance)); err != nil {
			test.Fatalf("seed balance: %v", err)
		}
	}
	return Principal{UserID: user.ID, Email: user.Email, Role: role}
}

func (store *stubStore) seedPendingPaystack(test *testing.T, userID UserID, reference string, amount int64) Transaction {
	test.Helper()
	input, err := NewTransactionInput(userID, SignedAmountCents(amount), TransactionDeposit, MethodPaystack, mustReference(test, reference), StatusPending, MetadataJSON{}, 2)
	if err != nil {
		test.Fatalf("pending input: %v", err)
	}
	transaction, err := store.InsertTransaction(context.Background(), input)
	if err != nil {
		test.Fatalf("insert pending: %v", err)
	}
	return transaction
}

func (store *stubStore) seedItem(test *testing.T, unitPrice int64, total int64, booked int64) InventoryItem {
	test.Helper()
	variant, err := store.CreateProductVariant(context.Background(), ProductVariantInput{
		CategoryName: "Grains",
		ProductName:  "Rice",
		VariantName:  fmt.Sprintf("%d kg bag", store.data.nextID+1),
		UnitPrice:    mustPositiveAmount(test, unitPrice),
	})
	if err != nil {
		test.Fatalf("variant: %v", err)
	}
	item, err := store.CreateInventoryItem(context.Background(), InventoryItemInput{ProductVariantID: variant.ID, TotalSlots: total, CreatedUnixUTC: 1})
	if err != nil {
		test.Fatalf("item: %v", err)
	}
	if booked > 0 {
		if err := store.AddSlotsBooked(context.Background(), item.ID, booked); err != nil {
			test.Fatalf("booked: %v", err)
		}
		item.SlotsBooked = booked
	}
	return item
}

func (store *stubStore) balanceOf(test *testing.T, userID UserID) int64 {
	test.Helper()
	user, err := store.GetUser(context.Background(), userID)
	if err != nil {
		test.Fatalf("get user: %v", err)
	}
	return user.Balance.Int64()
}

func (store *stubStore) transactionByReference(test *testing.T, reference string) Transaction {
	test.Helper()
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	for _, transaction := range store.data.transactions {
		if transaction.Reference.String() == reference {
			return transaction
		}
	}
	test.Fatalf("transaction %s not found", reference)
	return Transaction{}
}

func (store *stubStore) transactionCount() int {
	store.data.mu.Lock()
	defer store.data.mu.Unlock()
	return len(store.data.transactions)
}

// requireBalanceInvariant checks balance == sum of Completed amounts for every user.
func (store *stubStore) requireBalanceInvariant(test *testing.T) {
	test.Helper()
	store.data.mu.Lock()
	users := make([]User, 0, len(store.data.users))
	for _, user := range store.data.users {
		users = append(users, user)
	}
	store.data.mu.Unlock()
	for _, user := range users {
		sum, err := store.SumCompletedAmounts(context.Background(), user.ID)
		if err != nil {
			test.Fatalf("sum: %v", err)
		}
		if user.Balance.Int64() != sum.Int64() {
			test.Fatalf("user %d balance %d, completed sum %d", user.ID, user.Balance, sum)
		}
	}
}

type stubGateway struct {
	mu              sync.Mutex
	initializeErr   error
	verifyErr       error
	banksErr        error
	verifyDelay     time.Duration
	verifications   map[string]Verification
	initializeCalls []ChargeRequest
	verifyCalls     int
	banks           []Bank
}

func newStubGateway() *stubGateway {
	return &stubGateway{verifications: make(map[string]Verification)}
}

func (gateway *stubGateway) succeed(reference string, amountMinor int64) {
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	gateway.verifications[reference] = Verification{
		Successful:  true,
		Status:      "success",
		AmountMinor: amountMinor,
		Raw:         MetadataJSON{value: fmt.Sprintf(`{"reference":%q,"status":"success"}`, reference)},
	}
}

func (gateway *stubGateway) Initialize(ctx context.Context, request ChargeRequest) (Charge, error) {
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	gateway.initializeCalls = append(gateway.initializeCalls, request)
	if gateway.initializeErr != nil {
		return Charge{}, gateway.initializeErr
	}
	return Charge{
		AuthorizationURL: "https://checkout.example.com/" + request.Reference.String(),
		AccessCode:       "access-" + request.Reference.String(),
		Reference:        request.Reference.String(),
	}, nil
}

func (gateway *stubGateway) Verify(ctx context.Context, reference Reference) (Verification, error) {
	gateway.mu.Lock()
	gateway.verifyCalls++
	delay := gateway.verifyDelay
	verifyErr := gateway.verifyErr
	verification, ok := gateway.verifications[reference.String()]
	gateway.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Verification{}, ctx.Err()
		}
	}
	if verifyErr != nil {
		return Verification{}, verifyErr
	}
	if !ok {
		return Verification{Successful: false, Status: "abandoned"}, nil
	}
	return verification, nil
}

func (gateway *stubGateway) ListBanks(ctx context.Context) ([]Bank, error) {
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	if gateway.banksErr != nil {
		return nil, gateway.banksErr
	}
	return append([]Bank(nil), gateway.banks...), nil
}

func (gateway *stubGateway) verifyCount() int {
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	return gateway.verifyCalls
}

func sequentialReferences() ReferenceGenerator {
	var mu sync.Mutex
	counter := 0
	return func(prefix string) (Reference, error) {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return NewReference(fmt.Sprintf("%s-%d", prefix, counter))
	}
}

func mustNewService(test *testing.T, store Store, gateway Gateway, options ...ServiceOption) *Service {
	test.Helper()
	options = append([]ServiceOption{WithReferenceGenerator(sequentialReferences())}, options...)
	service, err := NewService(store, gateway, func() int64 { return 100 }, options...)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustReference(test *testing.T, raw string) Reference {
	test.Helper()
	value, err := NewReference(raw)
	if err != nil {
		test.Fatalf("reference: %v", err)
	}
	return value
}

func mustPositiveAmount(test *testing.T, raw int64) PositiveAmountCents {
	test.Helper()
	value, err := NewPositiveAmountCents(raw)
	if err != nil {
		test.Fatalf("amount: %v", err)
	}
	return value
}

func requireErrorIs(test *testing.T, err error, target error) {
	test.Helper()
	if !errors.Is(err, target) {
		test.Fatalf("expected %v, got %v", target, err)
	}
}
