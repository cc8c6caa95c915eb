package utils

import (
	"time"

	"peerrent-backend/internal/domain"
)

// FindOverlapping returns the first committed rental whose booking window
// collides with the candidate window [start, cooldownExpiry) for the given
// product, or nil when the calendar is clear. excludeID skips the rental
// being rescheduled so it never conflicts with itself.
//
// A committed rental conflicts when any of:
//   - its anticipated start falls within [start, cooldownExpiry)
//   - its cooldown expiry falls within [start, cooldownExpiry)
//   - it fully contains the candidate window
//
// The cooldown tail is part of the exclusive window, so back-to-back
// bookings cannot skip the buffer.
func FindOverlapping(rentals []domain.Rental, productID string, start, cooldownExpiry time.Time, excludeID string) *domain.Rental {
	for i := range rentals {
		r := &rentals[i]
		if r.ProductID != productID || !r.Status.IsCommitted() {
			continue
		}
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if within(r.Duration.AnticipatedStart, start, cooldownExpiry) ||
			within(r.Duration.CooldownExpiry, start, cooldownExpiry) ||
			contains(r, start, cooldownExpiry) {
			return r
		}
	}
	return nil
}

// within reports whether t falls in the half-open interval [lo, hi).
func within(t, lo, hi time.Time) bool {
	return !t.Before(lo) && t.Before(hi)
}

func contains(r *domain.Rental, start, cooldownExpiry time.Time) bool {
	return !r.Duration.AnticipatedStart.After(start) && !r.Duration.CooldownExpiry.Before(cooldownExpiry)
}
