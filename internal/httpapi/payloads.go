package httpapi

import (
	"encoding/json"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/shopspring/decimal"
)

type depositRequest struct {
	UserID    int64           `json:"user_id"`
	Amount    json.Number     `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Metadata  json.RawMessage `json:"metadata"`
}

type updateStatusRequest struct {
	TransactionID int64  `json:"transaction_id"`
	Status        string `json:"status"`
}

type withdrawRequest struct {
	Amount        json.Number `json:"amount"`
	BankCode      string      `json:"bank_code"`
	AccountNumber string      `json:"account_number"`
	AccountName   string      `json:"account_name"`
}

type bookRequest struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	Slots           int64 `json:"slots"`
}

type addInventoryRequest struct {
	ProductVariantID int64 `json:"product_variant_id"`
	TotalSlots       int64 `json:"total_slots"`
}

type addVariantRequest struct {
	Category  string      `json:"category"`
	Product   string      `json:"product"`
	Variant   string      `json:"variant"`
	UnitPrice json.Number `json:"unit_price"`
}

type transactionPayload struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	AmountCents    int64           `json:"amount_cents"`
	Amount         string          `json:"amount"`
	Type           string          `json:"type"`
	Method         string          `json:"method"`
	Reference      string          `json:"reference"`
	Status         string          `json:"status"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedUnixUTC int64           `json:"created_unix_utc"`
}

func newTransactionPayload(transaction ledger.Transaction) transactionPayload {
	return transactionPayload{
		ID:             transaction.ID.Int64(),
		UserID:         transaction.UserID.Int64(),
		AmountCents:    transaction.Amount.Int64(),
		Amount:         ledger.FormatMajorUnits(transaction.Amount.Int64()),
		Type:           transaction.Type.String(),
		Method:         transaction.Method.String(),
		Reference:      transaction.Reference.String(),
		Status:         transaction.Status.String(),
		Metadata:       json.RawMessage(transaction.Metadata.String()),
		CreatedUnixUTC: transaction.CreatedUnixUTC,
	}
}

func newTransactionPayloads(transactions []ledger.Transaction) []transactionPayload {
	payloads := make([]transactionPayload, 0, len(transactions))
	for _, transaction := range transactions {
		payloads = append(payloads, newTransactionPayload(transaction))
	}
	return payloads
}

type balancePayload struct {
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
}

func newBalancePayload(balance ledger.AmountCents) balancePayload {
	return balancePayload{BalanceCents: balance.Int64(), Balance: ledger.FormatMajorUnits(balance.Int64())}
}

type userPayload struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	AccountType    string `json:"account_type"`
	BalanceCents   int64  `json:"balance_cents"`
	Balance        string `json:"balance"`
	Status         string `json:"status"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

func newUserPayload(user ledger.User) userPayload {
	return userPayload{
		ID:             user.ID.Int64(),
		Name:           user.Name,
		Email:          user.Email,
		Phone:          user.Phone,
		AccountType:    user.Role.String(),
		BalanceCents:   user.Balance.Int64(),
		Balance:        ledger.FormatMajorUnits(user.Balance.Int64()),
		Status:         user.Status,
		CreatedUnixUTC: user.CreatedUnixUTC,
	}
}

type planPayload struct {
	ID                 int64  `json:"id"`
	PlanType           string `json:"plan_type"`
	AmountCents        int64  `json:"amount_cents"`
	Amount             string `json:"amount"`
	NextPaymentUnixUTC int64  `json:"next_payment_unix_utc"`
	Status             string `json:"status"`
}

type goalPayload struct {
	TargetCents int64  `json:"target_cents"`
	Target      string `json:"target"`
	SavedCents  int64  `json:"saved_cents"`
	Percent     string `json:"percent"`
}

func newGoalPayload(goal ledger.GoalProgress) goalPayload {
	return goalPayload{
		TargetCents: goal.Target.Int64(),
		Target:      ledger.FormatMajorUnits(goal.Target.Int64()),
		SavedCents:  goal.Saved.Int64(),
		Percent:     formatTenths(goal.PercentTenths),
	}
}

func formatTenths(tenths int64) string {
	return decimal.New(tenths, -1).StringFixed(1)
}

type dashboardPayload struct {
	User               userPayload          `json:"user"`
	ActivePlan         *planPayload         `json:"active_plan"`
	RecentTransactions []transactionPayload `json:"recent_transactions"`
	MonthlyGoal        goalPayload          `json:"monthly_goal"`
	AnnualGoal         goalPayload          `json:"annual_goal"`
}

func newDashboardPayload(dashboard ledger.Dashboard) dashboardPayload {
	payload := dashboardPayload{
		User:               newUserPayload(dashboard.User),
		RecentTransactions: newTransactionPayloads(dashboard.RecentTransactions),
		MonthlyGoal:        newGoalPayload(dashboard.MonthlyGoal),
		AnnualGoal:         newGoalPayload(dashboard.AnnualGoal),
	}
	if plan := dashboard.ActivePlan; plan != nil {
		payload.ActivePlan = &planPayload{
			ID:                 plan.ID,
			PlanType:           plan.PlanType,
			AmountCents:        plan.Amount.Int64(),
			Amount:             ledger.FormatMajorUnits(plan.Amount.Int64()),
			NextPaymentUnixUTC: plan.NextPaymentUnixUTC,
			Status:             string(plan.Status),
		}
	}
	return payload
}

type inventoryItemPayload struct {
	ID               int64  `json:"id"`
	ProductVariantID int64  `json:"product_variant_id"`
	Category         string `json:"category"`
	Product          string `json:"product"`
	Variant          string `json:"variant"`
	UnitPriceCents   int64  `json:"unit_price_cents"`
	UnitPrice        string `json:"unit_price"`
	TotalSlots       int64  `json:"total_slots"`
	SlotsBooked      int64  `json:"slots_booked"`
	RemainingSlots   int64  `json:"remaining_slots"`
	CreatedUnixUTC   int64  `json:"created_unix_utc"`
}

func newInventoryItemPayload(item ledger.InventoryItem) inventoryItemPayload {
	return inventoryItemPayload{
		ID:               item.ID.Int64(),
		ProductVariantID: item.ProductVariantID.Int64(),
		Category:         item.CategoryName,
		Product:          item.ProductName,
		Variant:          item.VariantName,
		UnitPriceCents:   item.UnitPrice.Int64(),
		UnitPrice:        ledger.FormatMajorUnits(item.UnitPrice.Int64()),
		TotalSlots:       item.TotalSlots,
		SlotsBooked:      item.SlotsBooked,
		RemainingSlots:   item.RemainingSlots(),
		CreatedUnixUTC:   item.CreatedUnixUTC,
	}
}

func newInventoryItemPayloads(items []ledger.InventoryItem) []inventoryItemPayload {
	payloads := make([]inventoryItemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, newInventoryItemPayload(item))
	}
	return payloads
}

type categorySummaryPayload struct {
	Name           string `json:"name"`
	Items          int    `json:"items"`
	RemainingSlots int64  `json:"remaining_slots"`
}

type stockBoardPayload struct {
	Items      []inventoryItemPayload   `json:"items"`
	Categories []categorySummaryPayload `json:"categories"`
	LowStock   []inventoryItemPayload   `json:"low_stock"`
}

func newStockBoardPayload(board ledger.StockBoard) stockBoardPayload {
	categories := make([]categorySummaryPayload, 0, len(board.Categories))
	for _, category := range board.Categories {
		categories = append(categories, categorySummaryPayload{Name: category.Name, Items: category.Items, RemainingSlots: category.RemainingSlots})
	}
	return stockBoardPayload{
		Items:      newInventoryItemPayloads(board.Items),
		Categories: categories,
		LowStock:   newInventoryItemPayloads(board.LowStock),
	}
}

type variantPayload struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Product        string `json:"product,omitempty"`
	Category       string `json:"category,omitempty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	UnitPrice      string `json:"unit_price"`
}

func newVariantPayload(variant ledger.ProductVariant) variantPayload {
	return variantPayload{
		ID:             variant.ID.Int64(),
		Name:           variant.Name,
		Product:        variant.ProductName,
		Category:       variant.CategoryName,
		UnitPriceCents: variant.UnitPrice.Int64(),
		UnitPrice:      ledger.FormatMajorUnits(variant.UnitPrice.Int64()),
	}
}

type productPayload struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Variants []variantPayload `json:"variants"`
}

type categoryPayload struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Products []productPayload `json:"products"`
}

func newCategoryPayloads(categories []ledger.Category) []categoryPayload {
	payloads := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		products := make([]productPayload, 0, len(category.Products))
		for _, product := range category.Products {
			variants := make([]variantPayload, 0, len(product.Variants))
			for _, variant := range product.Variants {
				variants = append(variants, newVariantPayload(variant))
			}
			products = append(products, productPayload{ID: product.ID, Name: product.Name, Variants: variants})
		}
		payloads = append(payloads, categoryPayload{ID: category.ID, Name: category.Name, Products: products})
	}
	return payloads
}

type bookingPayload struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	InventoryItemID int64  `json:"inventory_item_id"`
	Product         string `json:"product"`
	Variant         string `json:"variant"`
	Slots           int64  `json:"slots"`
	AmountCents     int64  `json:"amount_cents"`
	Amount          string `json:"amount"`
	TransactionID   int64  `json:"transaction_id"`
	CreatedUnixUTC  int64  `json:"created_unix_utc"`
}

func newBookingPayload(booking ledger.Booking) bookingPayload {
	return bookingPayload{
		ID:              booking.ID.Int64(),
		UserID:          booking.UserID.Int64(),
		InventoryItemID: booking.InventoryItemID.Int64(),
		Product:         booking.ProductName,
		Variant:         booking.VariantName,
		Slots:           booking.Slots,
		AmountCents:     booking.Amount.Int64(),
		Amount:          ledger.FormatMajorUnits(booking.Amount.Int64()),
		TransactionID:   booking.TransactionID.Int64(),
		CreatedUnixUTC:  booking.CreatedUnixUTC,
	}
}

func newBookingPayloads(bookings []ledger.Booking) []bookingPayload {
	payloads := make([]bookingPayload, 0, len(bookings))
	for _, booking := range bookings {
		payloads = append(payloads, newBookingPayload(booking))
	}
	return payloads
}

type bankPayload struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}
