package domain

import "time"

type RentalStatus string

const (
	RentalStatusPending                   RentalStatus = "pending"
	RentalStatusConfirmed                 RentalStatus = "confirmed"
	RentalStatusDenied                    RentalStatus = "denied"
	RentalStatusOngoing                   RentalStatus = "ongoing"
	RentalStatusCompleted                 RentalStatus = "completed"
	RentalStatusPaymentIssues             RentalStatus = "payment_issues"
	RentalStatusReschedulingPending       RentalStatus = "rescheduling_pending"
	RentalStatusReschedulingDenied        RentalStatus = "rescheduling_denied"
	RentalStatusReschedulingConfirmed     RentalStatus = "rescheduling_confirmed"
	RentalStatusReschedulingFailedPayment RentalStatus = "rescheduling_failed_payment"
	RentalStatusLateReturn                RentalStatus = "late_return"
	RentalStatusDispute                   RentalStatus = "dispute"
	RentalStatusCancelled                 RentalStatus = "cancelled"
	RentalStatusInReview                  RentalStatus = "in_review"
)

// CommittedStatuses are the statuses that occupy a product's calendar.
// A rental in any of these states blocks overlapping bookings.
var CommittedStatuses = []RentalStatus{
	RentalStatusConfirmed,
	RentalStatusReschedulingConfirmed,
	RentalStatusOngoing,
	RentalStatusCompleted,
}

// IsCommitted reports whether the rental occupies the product's calendar.
func (s RentalStatus) IsCommitted() bool {
	for _, cs := range CommittedStatuses {
		if s == cs {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusDenied || s == RentalStatusCompleted || s == RentalStatusCancelled
}

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusConfirmed, RentalStatusDenied,
		RentalStatusOngoing, RentalStatusCompleted, RentalStatusPaymentIssues,
		RentalStatusReschedulingPending, RentalStatusReschedulingDenied,
		RentalStatusReschedulingConfirmed, RentalStatusReschedulingFailedPayment,
		RentalStatusLateReturn, RentalStatusDispute, RentalStatusCancelled,
		RentalStatusInReview:
		return true
	}
	return false
}

type RescheduleAction string

const (
	RescheduleActionExtended    RescheduleAction = "extended"
	RescheduleActionReduced     RescheduleAction = "reduced"
	RescheduleActionRescheduled RescheduleAction = "rescheduled"
)

// Duration holds the rental interval. Anticipated dates are set at request
// time; actual dates are set at physical handoff and return. The cooldown
// expiry extends the exclusive booking window past the anticipated end.
type Duration struct {
	AnticipatedStart time.Time  `json:"anticipated_start"`
	AnticipatedEnd   time.Time  `json:"anticipated_end"`
	ActualStart      *time.Time `json:"actual_start,omitempty"`
	ActualEnd        *time.Time `json:"actual_end,omitempty"`
	CooldownExpiry   time.Time  `json:"cooldown_expiry"`
	Days             int32      `json:"days"`
}

// Rescheduling is the live or most recently answered reschedule request.
// A request counts as live until RespondedAt is set.
type Rescheduling struct {
	RequestedBy       string           `json:"requested_by"`
	NewStart          time.Time        `json:"new_start"`
	NewEnd            time.Time        `json:"new_end"`
	NewCooldownExpiry time.Time        `json:"new_cooldown_expiry"`
	NewDays           int32            `json:"new_days"`
	Action            RescheduleAction `json:"action"`
	RequestedAt       time.Time        `json:"requested_at"`
	RespondedAt       *time.Time       `json:"responded_at,omitempty"`
}

type Cancellation struct {
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledOn time.Time `json:"cancelled_on"`
}

// Dispute is reserved for a future claims subsystem. The engine never
// mutates it; it only round-trips the record.
type Dispute struct {
	Reason     string    `json:"reason"`
	Resolution string    `json:"resolution,omitempty"`
	RaisedAt   time.Time `json:"raised_at"`
}

type Rental struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	LenderID  string       `json:"lender_id"`
	RenterID  string       `json:"renter_id"`
	Duration  Duration     `json:"duration"`
	Status    RentalStatus `json:"status"`

	Rescheduling *Rescheduling  `json:"rescheduling,omitempty"`
	Cancellation *Cancellation  `json:"cancellation,omitempty"`
	Dispute      *Dispute       `json:"dispute,omitempty"`
	Payments     []PaymentEntry `json:"payments"`

	CreatedAt             time.Time  `json:"created_at"`
	ExpiresAt             *time.Time `json:"expires_at,omitempty"`
	ConfirmationHandledAt *time.Time `json:"confirmation_handled_at,omitempty"`

	// Version guards read-modify-write cycles; saves with a stale version
	// fail with KindVersionConflict.
	Version int32 `json:"version"`
}

// RescheduleRequested reports whether a reschedule request is live.
func (r *Rental) RescheduleRequested() bool {
	return r.Rescheduling != nil && r.Rescheduling.RespondedAt == nil
}

// PendingExpired reports whether a pending request has outlived its soft TTL.
// An expired pending rental is treated as absent: it cannot be confirmed and
// never blocks a renter's next request. The reaper job deletes the row.
func (r *Rental) PendingExpired(now time.Time) bool {
	return r.Status == RentalStatusPending && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// AppendPayment records a ledger entry. The ledger is append-only; entries
// are never rewritten or removed.
func (r *Rental) AppendPayment(entry PaymentEntry) {
	r.Payments = append(r.Payments, entry)
}
