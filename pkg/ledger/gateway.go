package ledger

import (
	"context"
	"errors"
	"fmt"
)

// Gateway is the external payment processor.
type Gateway interface {
	Initialize(ctx context.Context, request ChargeRequest) (Charge, error)
	Verify(ctx context.Context, reference Reference) (Verification, error)
	ListBanks(ctx context.Context) ([]Bank, error)
}

// ChargeRequest asks the gateway to open a charge. AmountMinor is in gateway minor units.
type ChargeRequest struct {
	Email       string
	AmountMinor int64
	Reference   Reference
}

// Charge is the gateway's answer to an initialization.
type Charge struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification reports the gateway-side state of a charge.
type Verification struct {
	Successful  bool
	Status      string
	AmountMinor int64
	Raw         MetadataJSON
}

// Bank is a settlement bank offered by the gateway.
type Bank struct {
	Name   string
	Code   string
	Active bool
}

// upstreamError tags gateway failures with ErrGatewayUnavailable unless they already carry an upstream kind.
func upstreamError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrGatewayUnavailable, operation, err)
}
