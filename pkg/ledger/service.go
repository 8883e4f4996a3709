package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service contains the ledger and booking engines over a Store.
type Service struct {
	store              Store
	gateway            Gateway
	nowFn              func() int64
	logger             OperationLogger
	newReference       ReferenceGenerator
	gatewayTimeout     time.Duration
	transferSettlement TransferSettlement
	lowStockPercent    int64
}

// NewService wires a Service.
func NewService(store Store, gateway Gateway, now func() int64, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: gateway dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{
		store:              store,
		gateway:            gateway,
		nowFn:              now,
		newReference:       NewRandomReference,
		gatewayTimeout:     defaultGatewayTimeout,
		transferSettlement: TransferSettlementManual,
		lowStockPercent:    defaultLowStockPct,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if _, err := ParseTransferSettlement(string(service.transferSettlement)); err != nil {
		return nil, err
	}
	return service, nil
}

// DepositRequest carries raw deposit input. UserID zero means the caller.
type DepositRequest struct {
	UserID      int64
	AmountCents int64
	Method      string
	Reference   string
	Metadata    string
}

// DepositResult is the recorded transaction plus gateway checkout details for Paystack.
type DepositResult struct {
	Transaction      Transaction
	AuthorizationURL string
	AccessCode       string
	Balance          AmountCents
}

// RecordDeposit inserts a deposit. Cash (and Transfer in immediate mode) completes
// and credits in the same unit; Paystack opens a gateway charge before commit.
func (service *Service) RecordDeposit(ctx context.Context, principal Principal, request DepositRequest) (DepositResult, error) {
	var result DepositResult
	entry := OperationLog{Operation: operationRecordDeposit, ActorID: principal.UserID}
	operationError := func() error {
		if err := Authorize(operationRecordDeposit, principal); err != nil {
			return err
		}
		targetID := UserID(request.UserID)
		if request.UserID != 0 {
			validated, err := NewUserID(request.UserID)
			if err != nil {
				return err
			}
			targetID = validated
		}
		userID, err := scopeUser(principal, targetID)
		if err != nil {
			return err
		}
		entry.UserID = userID
		amount, err := NewPositiveAmountCents(request.AmountCents)
		if err != nil {
			return err
		}
		entry.Amount = amount.Credit()
		method, err := ParseDepositMethod(request.Method)
		if err != nil {
			return err
		}
		completesOnEntry := service.completesOnEntry(method)
		reference, err := service.depositReference(method, request.Reference, completesOnEntry)
		if err != nil {
			return err
		}
		entry.Reference = reference
		metadata, err := NewMetadataJSON(request.Metadata)
		if err != nil {
			return err
		}
		status := StatusPending
		if completesOnEntry {
			status = StatusCompleted
		}
		input, err := NewTransactionInput(userID, amount.Credit(), TransactionDeposit, method, reference, status, metadata, service.nowFn())
		if err != nil {
			return err
		}
		return service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
			user, err := txStore.GetUser(ctx, userID)
			if err != nil {
				return err
			}
			transaction, err := txStore.InsertTransaction(ctx, input)
			if err != nil {
				return err
			}
			result.Transaction = transaction
			result.Balance = user.Balance
			entry.TransactionID = transaction.ID
			if completesOnEntry {
				balance, err := txStore.ApplyBalanceDelta(ctx, userID, transaction.Amount)
				if err != nil {
					return err
				}
				result.Balance = balance
				entry.BalanceDelta = transaction.Amount
				return nil
			}
			if method != MethodPaystack {
				return nil
			}
			charge, err := service.initializeCharge(ctx, ChargeRequest{
				Email:       user.Email,
				AmountMinor: ToGatewayMinorUnits(amount),
				Reference:   reference,
			})
			if err != nil {
				return err
			}
			result.AuthorizationURL = charge.AuthorizationURL
			result.AccessCode = charge.AccessCode
			return nil
		})
	}()
	if operationError != nil {
		entry.BalanceDelta = 0
		result = DepositResult{}
	}
	entry.Error = operationError
	service.logOperation(ctx, entry)
	return result, operationError
}

func (service *Service) completesOnEntry(method Method) bool {
	switch method {
	case MethodCash:
		return true
	case MethodTransfer:
		return service.transferSettlement == TransferSettlementImmediate
	default:
		return false
	}
}

func (service *Service) depositReference(method Method, raw string, required bool) (Reference, error) {
	if raw != "" {
		return NewReference(raw)
	}
	if required {
		return Reference{}, fmt.Errorf("%w: %s", ErrReferenceRequired, method)
	}
	prefix := referencePrefixTransfer
	if method == MethodPaystack {
		prefix = referencePrefixPaystack
	}
	return service.newReference(prefix)
}

// SettlementOutcome is the result of a settlement attempt. Only settled changes state.
type SettlementOutcome string

const (
	SettlementSettled          SettlementOutcome = "settled"
	SettlementAlreadyProcessed SettlementOutcome = "already_processed"
	SettlementNotFound         SettlementOutcome = "not_found"
	SettlementNotSuccessful    SettlementOutcome = "not_successful"
)

// SettlementResult describes what SettleByReference did.
type SettlementResult struct {
	Outcome       SettlementOutcome
	Transaction   Transaction
	GatewayStatus string
	Balance       AmountCents
}

// SettleByReference completes a Pending gateway deposit once the gateway confirms it.
// Repeated and concurrent calls for the same reference credit the balance at most once.
func (service *Service) SettleByReference(ctx context.Context, rawReference string) (SettlementResult, error) {
	var result SettlementResult
	entry := OperationLog{Operation: operationSettleByReference}
	operationError := func() error {
		reference, err := NewReference(rawReference)
		if err != nil {
			return err
		}
		entry.Reference = reference
		return service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
			transaction, err := txStore.LockTransactionByReference(ctx, reference)
			if errors.Is(err, ErrTransactionNotFound) {
				result.Outcome = SettlementNotFound
				return nil
			}
			if err != nil {
				return err
			}
			result.Transaction = transaction
			entry.UserID = transaction.UserID
			entry.TransactionID = transaction.ID
			entry.Amount = transaction.Amount
			if transaction.Status != StatusPending {
				result.Outcome = SettlementAlreadyProcessed
				return nil
			}
			if transaction.Method != MethodPaystack {
				return fmt.Errorf("%w: %s %s", ErrManualSettlementRequired, transaction.Method, reference)
			}
			verification, err := service.verifyCharge(ctx, reference)
			if err != nil {
				return err
			}
			result.GatewayStatus = verification.Status
			if !verification.Successful {
				result.Outcome = SettlementNotSuccessful
				return nil
			}
			if FromGatewayMinorUnits(verification.AmountMinor) != transaction.Amount.Int64() {
				return fmt.Errorf("%w: gateway reported %d, expected %d", ErrGatewayAmountMismatch, verification.AmountMinor, transaction.Amount.Int64()*GatewayMinorUnitsPerCent)
			}
			if err := txStore.UpdateTransactionStatus(ctx, transaction.ID, StatusPending, StatusCompleted, verification.Raw); err != nil {
				return err
			}
			balance, err := txStore.ApplyBalanceDelta(ctx, transaction.UserID, transaction.Amount)
			if err != nil {
				return err
			}
			result.Transaction.Status = StatusCompleted
			result.Balance = balance
			result.Outcome = SettlementSettled
			entry.BalanceDelta = transaction.Amount
			return nil
		})
	}()
	if operationError != nil {
		entry.BalanceDelta = 0
		result = SettlementResult{}
	}
	entry.Outcome = string(result.Outcome)
	entry.Error = operationError
	service.logOperation(ctx, entry)
	return result, operationError
}

// SetStatus moves a Pending transaction to Completed or Failed. Completed applies
// the transaction's signed amount to the balance.
func (service *Service) SetStatus(ctx context.Context, principal Principal, rawTransactionID int64, rawStatus string) (Transaction, error) {
	var updated Transaction
	entry := OperationLog{Operation: operationSetStatus, ActorID: principal.UserID}
	operationError := func() error {
		if err := Authorize(operationSetStatus, principal); err != nil {
			return err
		}
		transactionID, err := NewTransactionID(rawTransactionID)
		if err != nil {
			return err
		}
		entry.TransactionID = transactionID
		status, err := ParseTransactionStatus(rawStatus)
		if err != nil {
			return err
		}
		if !status.IsTerminal() {
			return fmt.Errorf("%w: target must be %s or %s", ErrInvalidStatus, StatusCompleted, StatusFailed)
		}
		return service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
			transaction, err := txStore.LockTransactionByID(ctx, transactionID)
			if err != nil {
				return err
			}
			entry.UserID = transaction.UserID
			entry.Reference = transaction.Reference
			entry.Amount = transaction.Amount
			if transaction.Status != StatusPending {
				return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, transaction.Reference, transaction.Status)
			}
			if status == StatusCompleted && transaction.Amount < 0 {
				user, err := txStore.LockUser(ctx, transaction.UserID)
				if err != nil {
					return err
				}
				if user.Balance < transaction.Amount.Abs() {
					return ErrInsufficientBalance
				}
			}
			if err := txStore.UpdateTransactionStatus(ctx, transactionID, StatusPending, status, MetadataJSON{}); err != nil {
				return err
			}
			transaction.Status = status
			updated = transaction
			if status != StatusCompleted {
				return nil
			}
			if _, err := txStore.ApplyBalanceDelta(ctx, transaction.UserID, transaction.Amount); err != nil {
				return err
			}
			entry.BalanceDelta = transaction.Amount
			return nil
		})
	}()
	if operationError != nil {
		entry.BalanceDelta = 0
		updated = Transaction{}
	}
	entry.Outcome = string(updated.Status)
	entry.Error = operationError
	service.logOperation(ctx, entry)
	return updated, operationError
}

// ListHistory lists a user's transactions, newest first. Zero means the caller.
func (service *Service) ListHistory(ctx context.Context, principal Principal, rawUserID int64) ([]Transaction, error) {
	if err := Authorize(operationListHistory, principal); err != nil {
		return nil, err
	}
	targetID := UserID(0)
	if rawUserID != 0 {
		validated, err := NewUserID(rawUserID)
		if err != nil {
			return nil, err
		}
		targetID = validated
	}
	userID, err := scopeUser(principal, targetID)
	if err != nil {
		return nil, err
	}
	return service.store.ListTransactions(ctx, TransactionQuery{UserID: &userID})
}

// ListRecent returns the latest transactions, newest first. Owners get the
// global feed when rawUserID is zero and one user's feed otherwise; everyone
// else only sees their own rows. Limit zero means the default.
func (service *Service) ListRecent(ctx context.Context, principal Principal, rawUserID int64, limit int) ([]Transaction, error) {
	if err := Authorize(operationListRecent, principal); err != nil {
		return nil, err
	}
	normalized, err := normalizeListLimit(limit, defaultRecentLimit)
	if err != nil {
		return nil, err
	}
	query := TransactionQuery{Limit: normalized}
	if rawUserID == 0 && principal.IsOwner() {
		return service.store.ListTransactions(ctx, query)
	}
	targetID := UserID(0)
	if rawUserID != 0 {
		validated, err := NewUserID(rawUserID)
		if err != nil {
			return nil, err
		}
		targetID = validated
	}
	userID, err := scopeUser(principal, targetID)
	if err != nil {
		return nil, err
	}
	query.UserID = &userID
	return service.store.ListTransactions(ctx, query)
}

func normalizeListLimit(limit int, fallback int) (int, error) {
	switch {
	case limit == 0:
		return fallback, nil
	case limit < 0:
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidLimit)
	case limit > maxListLimit:
		return maxListLimit, nil
	default:
		return limit, nil
	}
}

func (service *Service) initializeCharge(ctx context.Context, request ChargeRequest) (Charge, error) {
	gatewayContext, cancel := context.WithTimeout(ctx, service.gatewayTimeout)
	defer cancel()
	charge, err := service.gateway.Initialize(gatewayContext, request)
	if err != nil {
		return Charge{}, upstreamError("initialize", err)
	}
	return charge, nil
}

func (service *Service) verifyCharge(ctx context.Context, reference Reference) (Verification, error) {
	gatewayContext, cancel := context.WithTimeout(ctx, service.gatewayTimeout)
	defer cancel()
	verification, err := service.gateway.Verify(gatewayContext, reference)
	if err != nil {
		return Verification{}, upstreamError("verify", err)
	}
	return verification, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
