package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReferenceGenerator mints a unique reference carrying prefix.
type ReferenceGenerator func(prefix string) (Reference, error)

// NewRandomReference returns prefix-<unix millis>-<random token>.
func NewRandomReference(prefix string) (Reference, error) {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return NewReference(fmt.Sprintf("%s-%d-%s", prefix, time.Now().UTC().UnixMilli(), token))
}

// TransferSettlement selects how bank-transfer deposits reach Completed.
type TransferSettlement string

const (
	// TransferSettlementManual leaves transfers Pending until an Owner sets their status.
	TransferSettlementManual TransferSettlement = "manual"
	// TransferSettlementImmediate completes transfers on entry, like cash.
	TransferSettlementImmediate TransferSettlement = "immediate"
)

// ParseTransferSettlement validates a settlement mode name.
func ParseTransferSettlement(raw string) (TransferSettlement, error) {
	switch TransferSettlement(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TransferSettlementManual:
		return TransferSettlementManual, nil
	case TransferSettlementImmediate:
		return TransferSettlementImmediate, nil
	default:
		return "", fmt.Errorf("%w: transfer settlement %q", ErrInvalidServiceConfig, raw)
	}
}
