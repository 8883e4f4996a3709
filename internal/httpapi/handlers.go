package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MarkoPoloResearchLab/savings/internal/report"
	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/gin-gonic/gin"
)

func (handler *httpHandler) handleDeposit(ctx *gin.Context) {
	var request depositRequest
	if !bindJSON(ctx, &request) {
		return
	}
	amount, err := parseAmount(request.Amount)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	result, err := handler.ledger.RecordDeposit(ctx.Request.Context(), getPrincipal(ctx), ledger.DepositRequest{
		UserID:      request.UserID,
		AmountCents: amount,
		Method:      request.Method,
		Reference:   request.Reference,
		Metadata:    rawMetadata(request.Metadata),
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	response := gin.H{
		"transaction": newTransactionPayload(result.Transaction),
		"balance":     newBalancePayload(result.Balance),
	}
	if result.AuthorizationURL != "" {
		response["authorization_url"] = result.AuthorizationURL
		response["access_code"] = result.AccessCode
		response["reference"] = result.Transaction.Reference.String()
	}
	ctx.JSON(http.StatusCreated, response)
}

func (handler *httpHandler) handleVerify(ctx *gin.Context) {
	result, err := handler.ledger.SettleByReference(ctx.Request.Context(), ctx.Query("reference"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	response := gin.H{
		"outcome":        string(result.Outcome),
		"gateway_status": result.GatewayStatus,
	}
	if result.Transaction.ID != 0 {
		response["transaction"] = newTransactionPayload(result.Transaction)
	}
	if result.Outcome == ledger.SettlementSettled {
		response["balance"] = newBalancePayload(result.Balance)
	}
	status := http.StatusOK
	if result.Outcome == ledger.SettlementNotFound {
		status = http.StatusNotFound
	}
	ctx.JSON(status, response)
}

func (handler *httpHandler) handleUpdateStatus(ctx *gin.Context) {
	var request updateStatusRequest
	if !bindJSON(ctx, &request) {
		return
	}
	transaction, err := handler.ledger.SetStatus(ctx.Request.Context(), getPrincipal(ctx), request.TransactionID, request.Status)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"transaction": newTransactionPayload(transaction)})
}

func (handler *httpHandler) handleHistory(ctx *gin.Context) {
	var userID int64
	if raw := ctx.Param("userId"); raw != "" {
		parsed, err := parseID(raw, ledger.ErrInvalidUserID)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		userID = parsed
	}
	transactions, err := handler.ledger.ListHistory(ctx.Request.Context(), getPrincipal(ctx), userID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": newTransactionPayloads(transactions)})
}

func (handler *httpHandler) handleRecent(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			handler.respondError(ctx, fmt.Errorf("%w: %q", ledger.ErrInvalidLimit, raw))
			return
		}
		limit = parsed
	}
	var userID int64
	if raw := ctx.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			handler.respondError(ctx, fmt.Errorf("%w: %q", ledger.ErrInvalidUserID, raw))
			return
		}
		userID = parsed
	}
	transactions, err := handler.ledger.ListRecent(ctx.Request.Context(), getPrincipal(ctx), userID, limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": newTransactionPayloads(transactions)})
}

func (handler *httpHandler) handleWithdraw(ctx *gin.Context) {
	var request withdrawRequest
	if !bindJSON(ctx, &request) {
		return
	}
	amount, err := parseAmount(request.Amount)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	transaction, err := handler.ledger.RequestWithdrawal(ctx.Request.Context(), getPrincipal(ctx), ledger.WithdrawalRequest{
		AmountCents:   amount,
		BankCode:      request.BankCode,
		AccountNumber: request.AccountNumber,
		AccountName:   request.AccountName,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"transaction": newTransactionPayload(transaction)})
}

func (handler *httpHandler) handleBanks(ctx *gin.Context) {
	banks, err := handler.ledger.ListBanks(ctx.Request.Context(), getPrincipal(ctx))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]bankPayload, 0, len(banks))
	for _, bank := range banks {
		payloads = append(payloads, bankPayload{Name: bank.Name, Code: bank.Code, Active: bank.Active})
	}
	ctx.JSON(http.StatusOK, gin.H{"banks": payloads})
}

func (handler *httpHandler) handleAudit(ctx *gin.Context) {
	userID, err := parseID(ctx.Param("userId"), ledger.ErrInvalidUserID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	audit, err := handler.ledger.AuditBalance(ctx.Request.Context(), getPrincipal(ctx), userID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"user_id":             audit.UserID.Int64(),
		"balance_cents":       audit.Balance.Int64(),
		"completed_sum_cents": audit.CompletedSum.Int64(),
		"consistent":          audit.Consistent(),
	})
}

func (handler *httpHandler) handleDashboard(ctx *gin.Context) {
	dashboard, err := handler.ledger.Dashboard(ctx.Request.Context(), getPrincipal(ctx))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newDashboardPayload(dashboard))
}

func (handler *httpHandler) handleStockBoard(ctx *gin.Context) {
	board, err := handler.ledger.GetStockBoard(ctx.Request.Context(), getPrincipal(ctx))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newStockBoardPayload(board))
}

func (handler *httpHandler) handleCategories(ctx *gin.Context) {
	categories, err := handler.ledger.GetCategories(ctx.Request.Context(), getPrincipal(ctx))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"categories": newCategoryPayloads(categories)})
}

func (handler *httpHandler) handleInventoryItem(ctx *gin.Context) {
	itemID, err := parseID(ctx.Param("id"), ledger.ErrInvalidInventoryItemID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	item, err := handler.ledger.GetInventoryItem(ctx.Request.Context(), getPrincipal(ctx), itemID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"item": newInventoryItemPayload(item)})
}

func (handler *httpHandler) handleMyBookings(ctx *gin.Context) {
	handler.respondBookings(ctx, ledger.BookingScopeMine)
}

func (handler *httpHandler) handleAllBookings(ctx *gin.Context) {
	handler.respondBookings(ctx, ledger.BookingScopeAll)
}

func (handler *httpHandler) respondBookings(ctx *gin.Context, scope ledger.BookingScope) {
	bookings, err := handler.ledger.ListBookings(ctx.Request.Context(), getPrincipal(ctx), scope)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"bookings": newBookingPayloads(bookings)})
}

func (handler *httpHandler) handleExportBookings(ctx *gin.Context) {
	bookings, err := handler.ledger.ListBookings(ctx.Request.Context(), getPrincipal(ctx), ledger.BookingScopeAll)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var buffer bytes.Buffer
	if err := report.WriteBookings(&buffer, bookings); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.BookingsFilename(handler.now())))
	ctx.Data(http.StatusOK, report.ContentTypeXLSX, buffer.Bytes())
}

func (handler *httpHandler) handleBook(ctx *gin.Context) {
	var request bookRequest
	if !bindJSON(ctx, &request) {
		return
	}
	result, err := handler.ledger.BookSlots(ctx.Request.Context(), getPrincipal(ctx), ledger.BookingRequest{
		InventoryItemID: request.InventoryItemID,
		Slots:           request.Slots,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"booking":     newBookingPayload(result.Booking),
		"transaction": newTransactionPayload(result.Transaction),
		"item":        newInventoryItemPayload(result.Item),
		"balance":     newBalancePayload(result.Balance),
	})
}

func (handler *httpHandler) handleAddInventory(ctx *gin.Context) {
	var request addInventoryRequest
	if !bindJSON(ctx, &request) {
		return
	}
	item, err := handler.ledger.AddInventory(ctx.Request.Context(), getPrincipal(ctx), request.ProductVariantID, request.TotalSlots)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"item": newInventoryItemPayload(item)})
}

func (handler *httpHandler) handleAddVariant(ctx *gin.Context) {
	var request addVariantRequest
	if !bindJSON(ctx, &request) {
		return
	}
	price, err := parseAmount(request.UnitPrice)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	variant, err := handler.ledger.AddProductVariant(ctx.Request.Context(), getPrincipal(ctx), ledger.AddProductVariantRequest{
		CategoryName:   request.Category,
		ProductName:    request.Product,
		VariantName:    request.Variant,
		UnitPriceCents: price,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"variant": newVariantPayload(variant)})
}

func bindJSON(ctx *gin.Context, target any) bool {
	if err := ctx.ShouldBindJSON(target); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, "expected JSON body"))
		return false
	}
	return true
}

// parseAmount converts a major-unit amount, given as a JSON number or string, into cents.
func parseAmount(raw json.Number) (int64, error) {
	amount, err := ledger.ParseMajorUnits(raw.String())
	if err != nil {
		return 0, err
	}
	return amount.Int64(), nil
}

func parseID(raw string, invalid error) (int64, error) {
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%w: %q", invalid, raw)
	}
	return parsed, nil
}

func rawMetadata(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	return string(trimmed)
}
