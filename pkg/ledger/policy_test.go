package ledger

import (
	"errors"
	"testing"
)

func TestAuthorizePolicyTable(test *testing.T) {
	test.Parallel()
	customer := Principal{UserID: 1, Role: RoleCustomer}
	owner := Principal{UserID: 2, Role: RoleOwner}
	testCases := []struct {
		name      string
		operation string
		principal Principal
		allowed   bool
	}{
		{name: "customer deposits", operation: operationRecordDeposit, principal: customer, allowed: true},
		{name: "customer sets status", operation: operationSetStatus, principal: customer, allowed: false},
		{name: "owner sets status", operation: operationSetStatus, principal: owner, allowed: true},
		{name: "owner books", operation: operationBookSlots, principal: owner, allowed: false},
		{name: "customer books", operation: operationBookSlots, principal: customer, allowed: true},
		{name: "customer adds inventory", operation: operationAddInventory, principal: customer, allowed: false},
		{name: "owner lists all bookings", operation: operationListAllBookings, principal: owner, allowed: true},
		{name: "customer lists all bookings", operation: operationListAllBookings, principal: customer, allowed: false},
		{name: "unknown role", operation: operationStockBoard, principal: Principal{UserID: 3, Role: "Auditor"}, allowed: false},
		{name: "anonymous", operation: operationStockBoard, principal: Principal{Role: RoleOwner}, allowed: false},
		{name: "unknown operation", operation: "transfer_ownership", principal: owner, allowed: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			err := Authorize(testCase.operation, testCase.principal)
			if testCase.allowed && err != nil {
				test.Fatalf("expected allowed, got %v", err)
			}
			if !testCase.allowed && !errors.Is(err, ErrForbidden) {
				test.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestEveryOperationHasPolicy(test *testing.T) {
	test.Parallel()
	operations := []string{
		operationRecordDeposit, operationSetStatus, operationListHistory, operationListRecent,
		operationRequestWithdrawal, operationListBanks, operationAuditBalance, operationDashboard,
		operationBookSlots, operationAddInventory, operationAddVariant, operationStockBoard,
		operationCategories, operationInventoryItem, operationListMyBookings, operationListAllBookings,
	}
	for _, operation := range operations {
		if len(operationPolicy[operation]) == 0 {
			test.Fatalf("operation %s has no roles", operation)
		}
	}
}

func TestScopeUser(test *testing.T) {
	test.Parallel()
	customer := Principal{UserID: 1, Role: RoleCustomer}
	owner := Principal{UserID: 2, Role: RoleOwner}
	if scoped, err := scopeUser(customer, 0); err != nil || scoped != 1 {
		test.Fatalf("expected self scope, got %d %v", scoped, err)
	}
	if _, err := scopeUser(customer, 5); !errors.Is(err, ErrForbidden) {
		test.Fatalf("expected ErrForbidden, got %v", err)
	}
	if scoped, err := scopeUser(owner, 5); err != nil || scoped != 5 {
		test.Fatalf("expected owner scope, got %d %v", scoped, err)
	}
}
