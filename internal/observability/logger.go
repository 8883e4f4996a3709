package observability

import (
	"context"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"go.uber.org/zap"
)

const operationLogMessage = "ledger operation"

// ZapOperationLogger writes one structured line per ledger operation.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger returns an OperationLogger backed by logger. A nil logger discards entries.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapOperationLogger{logger: logger}
}

// LogOperation implements ledger.OperationLogger.
func (operationLogger *ZapOperationLogger) LogOperation(_ context.Context, entry ledger.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.Int64("actor_id", entry.ActorID.Int64()),
		zap.Int64("user_id", entry.UserID.Int64()),
		zap.Int64("amount_cents", entry.Amount.Int64()),
		zap.Int64("balance_delta_cents", entry.BalanceDelta.Int64()),
	}
	if entry.TransactionID != 0 {
		fields = append(fields, zap.Int64("transaction_id", entry.TransactionID.Int64()))
	}
	if !entry.Reference.IsZero() {
		fields = append(fields, zap.String("reference", entry.Reference.String()))
	}
	if entry.Outcome != "" {
		fields = append(fields, zap.String("outcome", entry.Outcome))
	}
	if entry.Error == nil {
		operationLogger.logger.Info(operationLogMessage, fields...)
		return
	}
	kind := ledger.KindOf(entry.Error)
	fields = append(fields, zap.String("kind", string(kind)), zap.Error(entry.Error))
	switch kind {
	case ledger.KindConsistency:
		operationLogger.logger.Error(operationLogMessage, append(fields, zap.Bool("alert", true))...)
	case ledger.KindInternal, ledger.KindUpstream:
		operationLogger.logger.Error(operationLogMessage, fields...)
	default:
		operationLogger.logger.Warn(operationLogMessage, fields...)
	}
}
