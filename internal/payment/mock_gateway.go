package payment

import (
	"context"

	"github.com/google/uuid"

	"peerrent-backend/internal/clock"
	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/logger"
)

// MockGateway approves every charge and refund with a generated transaction
// id. It stands in for a real processor integration in development and
// tests.
type MockGateway struct {
	clock clock.Clock
}

func NewMockGateway(clk clock.Clock) *MockGateway {
	return &MockGateway{clock: clk}
}

func (g *MockGateway) Charge(ctx context.Context, method string, amountCents int64) (*Receipt, error) {
	if method == "" {
		return nil, domain.E(domain.KindPaymentFailed, "no payment method on file")
	}

	receipt := &Receipt{
		TransactionID: uuid.NewString(),
		PaidAt:        g.clock.Now(),
	}

	kind := "charge"
	if amountCents < 0 {
		kind = "refund"
	}
	logger.ExternalServiceCall("payment-gateway", kind, "method", method, "amount_cents", amountCents)
	logger.ExternalServiceResult("payment-gateway", kind, nil, "transaction_id", receipt.TransactionID)

	return receipt, nil
}
