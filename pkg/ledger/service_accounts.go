package ledger

import (
	"context"
	"fmt"
	"strings"
)

// WithdrawalRequest asks for savings to be paid out to a bank account.
type WithdrawalRequest struct {
	AmountCents   int64
	BankCode      string
	AccountNumber string
	AccountName   string
}

type withdrawalMetadata struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name,omitempty"`
}

// RequestWithdrawal records a Pending withdrawal. The balance is debited only
// when an Owner completes it, so the request is checked against the balance
// net of other Pending withdrawals.
func (service *Service) RequestWithdrawal(ctx context.Context, principal Principal, request WithdrawalRequest) (Transaction, error) {
	var created Transaction
	entry := OperationLog{Operation: operationRequestWithdrawal, ActorID: principal.UserID, UserID: principal.UserID}
	operationError := func() error {
		if err := Authorize(operationRequestWithdrawal, principal); err != nil {
			return err
		}
		amount, err := NewPositiveAmountCents(request.AmountCents)
		if err != nil {
			return err
		}
		entry.Amount = amount.Debit()
		details, err := newWithdrawalMetadata(request)
		if err != nil {
			return err
		}
		metadata, err := MarshalMetadataJSON(details)
		if err != nil {
			return err
		}
		reference, err := service.newReference(referencePrefixWithdrawal)
		if err != nil {
			return err
		}
		entry.Reference = reference
		input, err := NewTransactionInput(principal.UserID, amount.Debit(), TransactionWithdrawal, MethodTransfer, reference, StatusPending, metadata, service.nowFn())
		if err != nil {
			return err
		}
		return service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
			user, err := txStore.LockUser(ctx, principal.UserID)
			if err != nil {
				return err
			}
			pending, err := txStore.SumPendingWithdrawals(ctx, principal.UserID)
			if err != nil {
				return err
			}
			if user.Balance.Int64()-pending.Int64() < amount.Int64() {
				return ErrInsufficientBalance
			}
			transaction, err := txStore.InsertTransaction(ctx, input)
			if err != nil {
				return err
			}
			created = transaction
			entry.TransactionID = transaction.ID
			return nil
		})
	}()
	if operationError != nil {
		created = Transaction{}
	}
	entry.Error = operationError
	service.logOperation(ctx, entry)
	return created, operationError
}

func newWithdrawalMetadata(request WithdrawalRequest) (withdrawalMetadata, error) {
	bankCode := strings.TrimSpace(request.BankCode)
	if bankCode == "" {
		return withdrawalMetadata{}, fmt.Errorf("%w: bank code is empty", ErrInvalidBankAccount)
	}
	accountNumber := strings.TrimSpace(request.AccountNumber)
	if len(accountNumber) < 6 || len(accountNumber) > 20 {
		return withdrawalMetadata{}, fmt.Errorf("%w: account number length", ErrInvalidBankAccount)
	}
	for _, digit := range accountNumber {
		if digit < '0' || digit > '9' {
			return withdrawalMetadata{}, fmt.Errorf("%w: account number must be digits", ErrInvalidBankAccount)
		}
	}
	return withdrawalMetadata{
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		AccountName:   strings.TrimSpace(request.AccountName),
	}, nil
}

// ListBanks returns the gateway's settlement banks.
func (service *Service) ListBanks(ctx context.Context, principal Principal) ([]Bank, error) {
	if err := Authorize(operationListBanks, principal); err != nil {
		return nil, err
	}
	gatewayContext, cancel := context.WithTimeout(ctx, service.gatewayTimeout)
	defer cancel()
	banks, err := service.gateway.ListBanks(gatewayContext)
	if err != nil {
		return nil, upstreamError("list_banks", err)
	}
	return banks, nil
}

// BalanceAudit compares the cached balance with the completed transaction sum.
type BalanceAudit struct {
	UserID       UserID
	Balance      AmountCents
	CompletedSum SignedAmountCents
}

// Consistent reports whether the cached balance matches the ledger.
func (audit BalanceAudit) Consistent() bool {
	return audit.Balance.Int64() == audit.CompletedSum.Int64()
}

// AuditBalance checks the balance invariant for one user under a row lock.
// A mismatch returns the audit together with ErrBalanceInvariant.
func (service *Service) AuditBalance(ctx context.Context, principal Principal, rawUserID int64) (BalanceAudit, error) {
	if err := Authorize(operationAuditBalance, principal); err != nil {
		return BalanceAudit{}, err
	}
	userID, err := NewUserID(rawUserID)
	if err != nil {
		return BalanceAudit{}, err
	}
	var audit BalanceAudit
	err = service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		user, err := txStore.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		sum, err := txStore.SumCompletedAmounts(ctx, userID)
		if err != nil {
			return err
		}
		audit = BalanceAudit{UserID: userID, Balance: user.Balance, CompletedSum: sum}
		return nil
	})
	if err != nil {
		return BalanceAudit{}, err
	}
	if !audit.Consistent() {
		auditError := fmt.Errorf("%w: user %d balance %d, completed sum %d", ErrBalanceInvariant, userID, audit.Balance, audit.CompletedSum)
		service.logOperation(ctx, OperationLog{
			Operation: operationAuditBalance,
			ActorID:   principal.UserID,
			UserID:    userID,
			Amount:    audit.CompletedSum,
			Error:     auditError,
		})
		return audit, auditError
	}
	return audit, nil
}

// GoalProgress is savings progress towards a fixed target, in tenths of a percent capped at 1000.
type GoalProgress struct {
	Target        AmountCents
	Saved         AmountCents
	PercentTenths int64
}

func newGoalProgress(balance AmountCents, target AmountCents) GoalProgress {
	tenths := int64(1000)
	if balance < target {
		tenths = balance.Int64() * 1000 / target.Int64()
	}
	return GoalProgress{Target: target, Saved: balance, PercentTenths: tenths}
}

// Dashboard summarizes a user's savings position.
type Dashboard struct {
	User               User
	ActivePlan         *PaymentPlan
	RecentTransactions []Transaction
	MonthlyGoal        GoalProgress
	AnnualGoal         GoalProgress
}

// Dashboard returns the caller's profile, active plan, latest transactions, and goals.
func (service *Service) Dashboard(ctx context.Context, principal Principal) (Dashboard, error) {
	if err := Authorize(operationDashboard, principal); err != nil {
		return Dashboard{}, err
	}
	user, err := service.store.GetUser(ctx, principal.UserID)
	if err != nil {
		return Dashboard{}, err
	}
	plan, err := service.store.GetActivePaymentPlan(ctx, principal.UserID)
	if err != nil {
		return Dashboard{}, err
	}
	userID := principal.UserID
	recent, err := service.store.ListTransactions(ctx, TransactionQuery{UserID: &userID, Limit: dashboardRecentLimit})
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		User:               user,
		ActivePlan:         plan,
		RecentTransactions: recent,
		MonthlyGoal:        newGoalProgress(user.Balance, monthlyGoalCents),
		AnnualGoal:         newGoalProgress(user.Balance, annualGoalCents),
	}, nil
}
