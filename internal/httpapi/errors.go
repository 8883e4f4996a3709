package httpapi

import (
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	codeUnauthorized   = "unauthorized"
	codeInvalidPayload = "invalid_payload"
	messageInternal    = "internal error"
)

var kindStatus = map[ledger.ErrorKind]int{
	ledger.KindValidation:    http.StatusBadRequest,
	ledger.KindAuthorization: http.StatusForbidden,
	ledger.KindNotFound:      http.StatusNotFound,
	ledger.KindConflict:      http.StatusConflict,
	ledger.KindUpstream:      http.StatusBadGateway,
	ledger.KindConsistency:   http.StatusInternalServerError,
	ledger.KindInternal:      http.StatusInternalServerError,
}

// errorCodes names the specific sentinels clients branch on. Others report their kind.
var errorCodes = []struct {
	sentinel error
	code     string
}{
	{ledger.ErrInsufficientBalance, "insufficient_balance"},
	{ledger.ErrInsufficientSlots, "insufficient_slots"},
	{ledger.ErrInvalidTransition, "already_processed"},
	{ledger.ErrDuplicateReference, "duplicate_reference"},
	{ledger.ErrDuplicateUser, "duplicate_user"},
	{ledger.ErrManualSettlementRequired, "manual_settlement_required"},
	{ledger.ErrGatewayAmountMismatch, "amount_mismatch"},
	{ledger.ErrGatewayUnavailable, "gateway_unavailable"},
	{ledger.ErrForbidden, "forbidden"},
	{ledger.ErrUserNotFound, "user_not_found"},
	{ledger.ErrTransactionNotFound, "transaction_not_found"},
	{ledger.ErrInventoryItemNotFound, "inventory_item_not_found"},
	{ledger.ErrProductVariantNotFound, "product_variant_not_found"},
	{ledger.ErrInvalidAmount, "invalid_amount"},
	{ledger.ErrReferenceRequired, "reference_required"},
}

// mapError converts a ledger error into a status code and response body.
// Internal and consistency failures never echo the underlying message.
func mapError(err error) (int, gin.H) {
	kind := ledger.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	code := string(kind)
	for _, candidate := range errorCodes {
		if errors.Is(err, candidate.sentinel) {
			code = candidate.code
			break
		}
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = messageInternal
	}
	body := errorResponse(code, message)
	body["error"].(gin.H)["kind"] = string(kind)
	return status, body
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		handler.logger.Error("request failed",
			zap.String("route", ctx.FullPath()),
			zap.String("kind", string(ledger.KindOf(err))),
			zap.Error(err),
		)
	}
	ctx.AbortWithStatusJSON(status, body)
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
