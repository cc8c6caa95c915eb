package utils

import (
	"time"

	"peerrent-backend/internal/domain"
)

const (
	MinRentalDays = 1
	MaxRentalDays = 366
)

// DerivedDates is the full interval computed for a rental request: the
// anticipated end follows from the start plus the day count, and the
// cooldown expiry extends the end by the product's buffer.
type DerivedDates struct {
	Start          time.Time
	End            time.Time
	CooldownExpiry time.Time
}

// DeriveDates computes the anticipated end date and cooldown expiry for a
// rental starting at anticipatedStart and lasting the given number of
// calendar days. The end keeps the start's time of day; the cooldown adds
// whole hours to the end instant.
func DeriveDates(anticipatedStart time.Time, days int32, cooldownHours int32) (DerivedDates, error) {
	if anticipatedStart.IsZero() {
		return DerivedDates{}, domain.E(domain.KindInvalidInput, "anticipated start date is required")
	}
	if days < MinRentalDays || days > MaxRentalDays {
		return DerivedDates{}, domain.E(domain.KindInvalidInput, "duration must be between %d and %d days, got %d", MinRentalDays, MaxRentalDays, days)
	}
	if cooldownHours < domain.MinCooldownHours || cooldownHours > domain.MaxCooldownHours {
		return DerivedDates{}, domain.E(domain.KindInvalidInput, "cooldown period must be between %d and %d hours, got %d", domain.MinCooldownHours, domain.MaxCooldownHours, cooldownHours)
	}

	start := anticipatedStart.UTC()
	end := start.AddDate(0, 0, int(days))
	cooldownExpiry := end.Add(time.Duration(cooldownHours) * time.Hour)

	return DerivedDates{
		Start:          start,
		End:            end,
		CooldownExpiry: cooldownExpiry,
	}, nil
}
