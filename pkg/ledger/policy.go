package ledger

import "fmt"

// operationPolicy lists the roles allowed to run each operation.
var operationPolicy = map[string][]Role{
	operationRecordDeposit:     {RoleCustomer, RoleOwner},
	operationSetStatus:         {RoleOwner},
	operationListHistory:       {RoleCustomer, RoleOwner},
	operationListRecent:        {RoleCustomer, RoleOwner},
	operationRequestWithdrawal: {RoleCustomer},
	operationListBanks:         {RoleCustomer, RoleOwner},
	operationAuditBalance:      {RoleOwner},
	operationDashboard:         {RoleCustomer, RoleOwner},
	operationBookSlots:         {RoleCustomer},
	operationAddInventory:      {RoleOwner},
	operationAddVariant:        {RoleOwner},
	operationStockBoard:        {RoleCustomer, RoleOwner},
	operationCategories:        {RoleCustomer, RoleOwner},
	operationInventoryItem:     {RoleCustomer, RoleOwner},
	operationListMyBookings:    {RoleCustomer},
	operationListAllBookings:   {RoleOwner},
}

// Authorize reports whether principal may run operation.
func Authorize(operation string, principal Principal) error {
	if principal.UserID <= 0 {
		return fmt.Errorf("%w: %s requires an authenticated user", ErrForbidden, operation)
	}
	allowed, ok := operationPolicy[operation]
	if !ok {
		return fmt.Errorf("%w: unknown operation %s", ErrForbidden, operation)
	}
	for _, role := range allowed {
		if principal.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not allowed for %s", ErrForbidden, operation, principal.Role)
}

// scopeUser resolves the user an operation acts on. Owners may act on anyone;
// everyone else only on themselves.
func scopeUser(principal Principal, target UserID) (UserID, error) {
	if target == 0 {
		return principal.UserID, nil
	}
	if principal.IsOwner() || target == principal.UserID {
		return target, nil
	}
	return 0, fmt.Errorf("%w: user %d may not act on user %d", ErrForbidden, principal.UserID, target)
}
