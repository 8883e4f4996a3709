package ledger

import (
	"context"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing ledger operation.
// BalanceDelta is the committed change to the user's balance, zero when none.
type OperationLog struct {
	Operation     string
	ActorID       UserID
	UserID        UserID
	TransactionID TransactionID
	Reference     Reference
	Amount        SignedAmountCents
	BalanceDelta  SignedAmountCents
	Outcome       string
	Status        string
	Error         error
}

// MultiOperationLogger fans one entry out to several loggers.
type MultiOperationLogger []OperationLogger

// LogOperation forwards entry to every non-nil logger.
func (loggers MultiOperationLogger) LogOperation(ctx context.Context, entry OperationLog) {
	for _, logger := range loggers {
		if logger != nil {
			logger.LogOperation(ctx, entry)
		}
	}
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithReferenceGenerator overrides how engine-side references are minted.
func WithReferenceGenerator(generator ReferenceGenerator) ServiceOption {
	return func(service *Service) {
		if generator != nil {
			service.newReference = generator
		}
	}
}

// WithGatewayTimeout bounds every gateway call.
func WithGatewayTimeout(timeout time.Duration) ServiceOption {
	return func(service *Service) {
		if timeout > 0 {
			service.gatewayTimeout = timeout
		}
	}
}

// WithTransferSettlement selects how Transfer deposits settle.
func WithTransferSettlement(mode TransferSettlement) ServiceOption {
	return func(service *Service) {
		service.transferSettlement = mode
	}
}

// WithLowStockPercent sets the remaining-capacity threshold for stock alerts.
func WithLowStockPercent(percent int64) ServiceOption {
	return func(service *Service) {
		if percent > 0 && percent <= 100 {
			service.lowStockPercent = percent
		}
	}
}
