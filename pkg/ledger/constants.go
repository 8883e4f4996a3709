package ledger

import "time"

const (
	operationRecordDeposit     = "record_deposit"
	operationSettleByReference = "settle_by_reference"
	operationSetStatus         = "set_status"
	operationListHistory       = "list_history"
	operationListRecent        = "list_recent"
	operationRequestWithdrawal = "request_withdrawal"
	operationListBanks         = "list_banks"
	operationAuditBalance      = "audit_balance"
	operationDashboard         = "dashboard"
	operationBookSlots         = "book_slots"
	operationAddInventory      = "add_inventory"
	operationAddVariant        = "add_product_variant"
	operationStockBoard        = "stock_board"
	operationCategories        = "categories"
	operationInventoryItem     = "inventory_item"
	operationListMyBookings    = "list_my_bookings"
	operationListAllBookings   = "list_all_bookings"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	referencePrefixPaystack   = "STK"
	referencePrefixTransfer   = "TRF"
	referencePrefixWithdrawal = "WDR"
	referencePrefixBooking    = "BKG"

	defaultRecentLimit    = 5
	maxListLimit          = 100
	dashboardRecentLimit  = 4
	defaultLowStockPct    = 10
	defaultGatewayTimeout = 10 * time.Second

	monthlyGoalCents = 20000 * CentsPerUnit
	annualGoalCents  = 240000 * CentsPerUnit
)

// Exported operation names for transport-level checks and metrics labels.
const (
	OperationRecordDeposit     = operationRecordDeposit
	OperationSettleByReference = operationSettleByReference
	OperationSetStatus         = operationSetStatus
	OperationRequestWithdrawal = operationRequestWithdrawal
	OperationBookSlots         = operationBookSlots
)
