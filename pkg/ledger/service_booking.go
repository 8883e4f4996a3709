package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// BookingRequest asks for slots on one inventory item.
type BookingRequest struct {
	InventoryItemID int64
	Slots           int64
}

// BookingResult is the committed booking with its debit transaction.
type BookingResult struct {
	Booking     Booking
	Transaction Transaction
	Item        InventoryItem
	Balance     AmountCents
}

// BookSlots spends savings balance on inventory slots. The item row is locked
// before the user row; slots, balance, booking, and debit commit together.
func (service *Service) BookSlots(ctx context.Context, principal Principal, request BookingRequest) (BookingResult, error) {
	var result BookingResult
	entry := OperationLog{Operation: operationBookSlots, ActorID: principal.UserID, UserID: principal.UserID}
	operationError := func() error {
		if err := Authorize(operationBookSlots, principal); err != nil {
			return err
		}
		itemID, err := NewInventoryItemID(request.InventoryItemID)
		if err != nil {
			return err
		}
		if request.Slots <= 0 {
			return fmt.Errorf("%w: must be greater than zero", ErrInvalidSlots)
		}
		reference, err := service.newReference(referencePrefixBooking)
		if err != nil {
			return err
		}
		entry.Reference = reference
		return service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
			item, err := txStore.LockInventoryItem(ctx, itemID)
			if err != nil {
				return err
			}
			if item.RemainingSlots() < request.Slots {
				return fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientSlots, request.Slots, item.RemainingSlots())
			}
			price, err := item.UnitPrice.MultiplySlots(request.Slots)
			if err != nil {
				return err
			}
			entry.Amount = price.Debit()
			user, err := txStore.LockUser(ctx, principal.UserID)
			if err != nil {
				return err
			}
			if user.Balance < price.ToAmountCents() {
				return fmt.Errorf("%w: price %d, balance %d", ErrInsufficientBalance, price, user.Balance)
			}
			if err := txStore.AddSlotsBooked(ctx, itemID, request.Slots); err != nil {
				return err
			}
			balance, err := txStore.ApplyBalanceDelta(ctx, principal.UserID, price.Debit())
			if err != nil {
				return err
			}
			metadata, err := MarshalMetadataJSON(map[string]any{
				"inventory_item_id": itemID.Int64(),
				"slots":             request.Slots,
			})
			if err != nil {
				return err
			}
			nowUnixUTC := service.nowFn()
			input, err := NewTransactionInput(principal.UserID, price.Debit(), TransactionBooking, MethodBalance, reference, StatusCompleted, metadata, nowUnixUTC)
			if err != nil {
				return err
			}
			transaction, err := txStore.InsertTransaction(ctx, input)
			if err != nil {
				return err
			}
			booking, err := txStore.InsertBooking(ctx, BookingInput{
				UserID:          principal.UserID,
				InventoryItemID: itemID,
				Slots:           request.Slots,
				Amount:          price,
				TransactionID:   transaction.ID,
				CreatedUnixUTC:  nowUnixUTC,
			})
			if err != nil {
				return err
			}
			item.SlotsBooked += request.Slots
			booking.ProductName = item.ProductName
			booking.VariantName = item.VariantName
			result = BookingResult{Booking: booking, Transaction: transaction, Item: item, Balance: balance}
			entry.TransactionID = transaction.ID
			entry.BalanceDelta = price.Debit()
			return nil
		})
	}()
	if operationError != nil {
		entry.BalanceDelta = 0
		result = BookingResult{}
	}
	entry.Error = operationError
	service.logOperation(ctx, entry)
	return result, operationError
}

// AddProductVariantRequest describes a catalog variant. Category and product are created on first use.
type AddProductVariantRequest struct {
	CategoryName   string
	ProductName    string
	VariantName    string
	UnitPriceCents int64
}

// AddProductVariant registers a sellable variant in the catalog.
func (service *Service) AddProductVariant(ctx context.Context, principal Principal, request AddProductVariantRequest) (ProductVariant, error) {
	if err := Authorize(operationAddVariant, principal); err != nil {
		return ProductVariant{}, err
	}
	input := ProductVariantInput{
		CategoryName: strings.TrimSpace(request.CategoryName),
		ProductName:  strings.TrimSpace(request.ProductName),
		VariantName:  strings.TrimSpace(request.VariantName),
	}
	if input.CategoryName == "" || input.ProductName == "" || input.VariantName == "" {
		return ProductVariant{}, fmt.Errorf("%w: category, product, and variant names are required", ErrInvalidName)
	}
	price, err := NewPositiveAmountCents(request.UnitPriceCents)
	if err != nil {
		return ProductVariant{}, err
	}
	input.UnitPrice = price
	var created ProductVariant
	err = service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		variant, err := txStore.CreateProductVariant(ctx, input)
		if err != nil {
			return err
		}
		created = variant
		return nil
	})
	if err != nil {
		return ProductVariant{}, err
	}
	return created, nil
}

// AddInventory creates an inventory item with no slots booked.
func (service *Service) AddInventory(ctx context.Context, principal Principal, rawVariantID int64, totalSlots int64) (InventoryItem, error) {
	if err := Authorize(operationAddInventory, principal); err != nil {
		return InventoryItem{}, err
	}
	variantID, err := NewProductVariantID(rawVariantID)
	if err != nil {
		return InventoryItem{}, err
	}
	if totalSlots <= 0 {
		return InventoryItem{}, fmt.Errorf("%w: total slots must be greater than zero", ErrInvalidSlots)
	}
	var created InventoryItem
	err = service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		if _, err := txStore.GetProductVariant(ctx, variantID); err != nil {
			return err
		}
		item, err := txStore.CreateInventoryItem(ctx, InventoryItemInput{
			ProductVariantID: variantID,
			TotalSlots:       totalSlots,
			CreatedUnixUTC:   service.nowFn(),
		})
		if err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return InventoryItem{}, err
	}
	return created, nil
}

// CategorySummary aggregates open capacity per category.
type CategorySummary struct {
	Name           string
	Items          int
	RemainingSlots int64
}

// StockBoard lists bookable items with per-category totals and low-stock alerts.
type StockBoard struct {
	Items      []InventoryItem
	Categories []CategorySummary
	LowStock   []InventoryItem
}

// GetStockBoard returns every item that still has free slots.
func (service *Service) GetStockBoard(ctx context.Context, principal Principal) (StockBoard, error) {
	if err := Authorize(operationStockBoard, principal); err != nil {
		return StockBoard{}, err
	}
	items, err := service.store.ListInventoryItems(ctx)
	if err != nil {
		return StockBoard{}, err
	}
	board := StockBoard{Items: []InventoryItem{}, Categories: []CategorySummary{}, LowStock: []InventoryItem{}}
	summaries := map[string]*CategorySummary{}
	for _, item := range items {
		remaining := item.RemainingSlots()
		if remaining <= 0 {
			continue
		}
		board.Items = append(board.Items, item)
		summary, ok := summaries[item.CategoryName]
		if !ok {
			summary = &CategorySummary{Name: item.CategoryName}
			summaries[item.CategoryName] = summary
		}
		summary.Items++
		summary.RemainingSlots += remaining
		if remaining*100 <= item.TotalSlots*service.lowStockPercent {
			board.LowStock = append(board.LowStock, item)
		}
	}
	for _, summary := range summaries {
		board.Categories = append(board.Categories, *summary)
	}
	sort.Slice(board.Categories, func(left, right int) bool {
		return board.Categories[left].Name < board.Categories[right].Name
	})
	return board, nil
}

// GetCategories returns the catalog tree.
func (service *Service) GetCategories(ctx context.Context, principal Principal) ([]Category, error) {
	if err := Authorize(operationCategories, principal); err != nil {
		return nil, err
	}
	return service.store.ListCategories(ctx)
}

// GetInventoryItem returns one item.
func (service *Service) GetInventoryItem(ctx context.Context, principal Principal, rawItemID int64) (InventoryItem, error) {
	if err := Authorize(operationInventoryItem, principal); err != nil {
		return InventoryItem{}, err
	}
	itemID, err := NewInventoryItemID(rawItemID)
	if err != nil {
		return InventoryItem{}, err
	}
	return service.store.GetInventoryItem(ctx, itemID)
}

// BookingScope selects whose bookings are listed.
type BookingScope string

const (
	BookingScopeMine BookingScope = "mine"
	BookingScopeAll  BookingScope = "all"
)

// ListBookings lists the caller's bookings, or everyone's for Owners.
func (service *Service) ListBookings(ctx context.Context, principal Principal, scope BookingScope) ([]Booking, error) {
	switch scope {
	case BookingScopeMine:
		if err := Authorize(operationListMyBookings, principal); err != nil {
			return nil, err
		}
		userID := principal.UserID
		return service.store.ListBookings(ctx, BookingQuery{UserID: &userID})
	case BookingScopeAll:
		if err := Authorize(operationListAllBookings, principal); err != nil {
			return nil, err
		}
		return service.store.ListBookings(ctx, BookingQuery{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBookingScope, scope)
	}
}
