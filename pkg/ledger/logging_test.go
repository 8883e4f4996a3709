package ledger

import (
	"context"
	"sync"
	"testing"
)

type recorderLogger struct {
	mu      sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.entries = append(logger.entries, entry)
}

func TestServiceLogsCommittedBalanceDelta(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	owner := store.seedUser(test, RoleOwner, 0)
	customer := store.seedUser(test, RoleCustomer, 0)
	logger := &recorderLogger{}
	service := mustNewService(test, store, newStubGateway(), WithOperationLogger(logger))

	if _, err := service.RecordDeposit(context.Background(), owner, DepositRequest{UserID: customer.UserID.Int64(), AmountCents: 100, Method: "Cash", Reference: "R-LOG"}); err != nil {
		test.Fatalf("deposit: %v", err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationRecordDeposit || entry.UserID != customer.UserID || entry.ActorID != owner.UserID || entry.BalanceDelta != 100 || entry.Reference.String() != "R-LOG" {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.Error != nil || entry.Status != operationStatusOK {
		test.Fatalf("expected successful log entry, got %+v", entry)
	}
}

func TestServiceLogsErrorStatusWithoutDelta(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	customer := store.seedUser(test, RoleCustomer, 100)
	item := store.seedItem(test, 1000, 10, 0)
	logger := &recorderLogger{}
	service := mustNewService(test, store, newStubGateway(), WithOperationLogger(logger))

	if _, err := service.BookSlots(context.Background(), customer, BookingRequest{InventoryItemID: item.ID.Int64(), Slots: 1}); err == nil {
		test.Fatalf("expected error")
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	if logger.entries[0].Status != operationStatusError || logger.entries[0].Error == nil || logger.entries[0].BalanceDelta != 0 {
		test.Fatalf("expected error log entry, got %+v", logger.entries[0])
	}
}

func TestServiceLogsSettlementOutcome(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	customer := store.seedUser(test, RoleCustomer, 0)
	store.seedPendingPaystack(test, customer.UserID, "PSK-LOG", 300)
	gateway := newStubGateway()
	gateway.succeed("PSK-LOG", 300)
	logger := &recorderLogger{}
	service := mustNewService(test, store, gateway, WithOperationLogger(logger))

	for index := 0; index < 2; index++ {
		if _, err := service.SettleByReference(context.Background(), "PSK-LOG"); err != nil {
			test.Fatalf("settle: %v", err)
		}
	}
	if len(logger.entries) != 2 {
		test.Fatalf("expected two log entries, got %d", len(logger.entries))
	}
	if logger.entries[0].Outcome != string(SettlementSettled) || logger.entries[0].BalanceDelta != 300 {
		test.Fatalf("unexpected first entry %+v", logger.entries[0])
	}
	if logger.entries[1].Outcome != string(SettlementAlreadyProcessed) || logger.entries[1].BalanceDelta != 0 {
		test.Fatalf("unexpected second entry %+v", logger.entries[1])
	}
}

func TestMultiOperationLoggerFansOut(test *testing.T) {
	test.Parallel()
	first := &recorderLogger{}
	second := &recorderLogger{}
	multi := MultiOperationLogger{first, nil, second}
	multi.LogOperation(context.Background(), OperationLog{Operation: operationBookSlots})
	if len(first.entries) != 1 || len(second.entries) != 1 {
		test.Fatalf("expected both loggers called, got %d and %d", len(first.entries), len(second.entries))
	}
}

func TestNewServiceRequiresDependencies(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	if _, err := NewService(nil, newStubGateway(), func() int64 { return 1 }); err == nil {
		test.Fatalf("expected error for nil store")
	}
	if _, err := NewService(store, nil, func() int64 { return 1 }); err == nil {
		test.Fatalf("expected error for nil gateway")
	}
	if _, err := NewService(store, newStubGateway(), nil); err == nil {
		test.Fatalf("expected error for nil clock")
	}
	if _, err := NewService(store, newStubGateway(), func() int64 { return 1 }, WithTransferSettlement("sometimes")); err == nil {
		test.Fatalf("expected error for unknown transfer settlement")
	}
}
