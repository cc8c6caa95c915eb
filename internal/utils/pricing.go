package utils

// Tax applied to rental subtotals, as a percentage. Reschedule deltas use
// the same rate as initial bookings.
const taxRatePercent = 5

func taxCents(subtotalCents int64) int64 {
	return subtotalCents * taxRatePercent / 100
}

// InitialPriceCents computes the amount charged when a lender confirms a
// rental: per-day price times the day count, plus tax, plus the security
// deposit. The deposit is charged once here and never adjusted afterwards.
func InitialPriceCents(pricePerDayCents int64, days int32, securityDepositCents int64) int64 {
	subtotal := pricePerDayCents * int64(days)
	return subtotal + taxCents(subtotal) + securityDepositCents
}

// RescheduleDeltaCents computes the signed adjustment for changing a
// rental's day count. Positive means an additional charge, negative a
// refund owed to the renter, zero no payment at all.
func RescheduleDeltaCents(pricePerDayCents int64, oldDays, newDays int32) int64 {
	subtotal := pricePerDayCents * int64(newDays-oldDays)
	return subtotal + taxCents(subtotal)
}
