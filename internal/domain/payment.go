package domain

import "time"

type PaymentType string

const (
	PaymentTypeRented          PaymentType = "rented"
	PaymentTypeExtended        PaymentType = "extended"
	PaymentTypeReduced         PaymentType = "reduced"
	PaymentTypeRescheduled     PaymentType = "rescheduled"
	PaymentTypeLateFee         PaymentType = "late_fee"
	PaymentTypeSecurityDeposit PaymentType = "security_deposit"
	PaymentTypeCancellationFee PaymentType = "cancellation_fee"
	PaymentTypeRefund          PaymentType = "refund"
)

type PaymentStatus string

const (
	PaymentStatusPending                 PaymentStatus = "pending"
	PaymentStatusActive                  PaymentStatus = "active"
	PaymentStatusCompletedHoldingDeposit PaymentStatus = "completed_holding_deposit"
	PaymentStatusCompleted               PaymentStatus = "completed"
	PaymentStatusRefunded                PaymentStatus = "refunded"
	PaymentStatusCanceled                PaymentStatus = "canceled"
	PaymentStatusDisputed                PaymentStatus = "disputed"
	PaymentStatusPaymentFailed           PaymentStatus = "payment_failed"
	PaymentStatusOverdue                 PaymentStatus = "overdue"
	PaymentStatusTerminated              PaymentStatus = "terminated"
)

// PaymentEntry is one recorded payment or refund event on a rental.
// AmountCents is signed: negative denotes a refund owed to the renter.
type PaymentEntry struct {
	Type          PaymentType   `json:"type"`
	Method        string        `json:"method"`
	AmountCents   int64         `json:"amount_cents"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id"`
	PaidAt        time.Time     `json:"paid_at"`
}

// PaymentTypeForAction maps a reschedule action to its ledger entry type.
func PaymentTypeForAction(action RescheduleAction) PaymentType {
	switch action {
	case RescheduleActionExtended:
		return PaymentTypeExtended
	case RescheduleActionReduced:
		return PaymentTypeReduced
	default:
		return PaymentTypeRescheduled
	}
}
