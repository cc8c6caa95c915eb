// Package payment defines the gateway collaborator the reservation engine
// charges through. The engine only computes amounts and records intent; the
// actual money movement lives behind this interface.
package payment

import (
	"context"
	"time"
)

// Receipt is the gateway's acknowledgement of a processed amount.
type Receipt struct {
	TransactionID string
	PaidAt        time.Time
}

// Gateway processes a signed amount against a stored payment method
// reference. A positive amount is a charge, a negative amount a refund to
// the same method. Implementations return an error when the processor
// declines; the engine maps that to an explicit failed-payment status.
type Gateway interface {
	Charge(ctx context.Context, method string, amountCents int64) (*Receipt, error)
}
