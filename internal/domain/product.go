package domain

import "time"

const (
	// Cooldown bounds, in hours. Every product carries a mandatory buffer
	// after a rental's anticipated end during which it cannot be rebooked.
	MinCooldownHours = 1
	MaxCooldownHours = 48
)

type Product struct {
	ID                   string    `json:"id"`
	LenderID             string    `json:"lender_id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Category             string    `json:"category"`
	PricePerDayCents     int64     `json:"price_per_day_cents"`
	SecurityDepositCents int64     `json:"security_deposit_cents"`
	CooldownHours        int32     `json:"cooldown_hours"`
	CreatedAt            time.Time `json:"created_at"`
}
