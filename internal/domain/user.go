package domain

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// PaymentMethod is a stored card reference. The engine never sees raw card
// numbers; it only forwards the reference to the payment gateway.
type PaymentMethod struct {
	CardBrand string `json:"card_brand"`
	LastFour  string `json:"last_four"`
	ExpMonth  int    `json:"exp_month"`
	ExpYear   int    `json:"exp_year"`
}

// Valid reports whether the stored reference is usable for charging.
func (m *PaymentMethod) Valid() bool {
	return m != nil && m.CardBrand != "" && m.LastFour != "" && m.ExpMonth >= 1 && m.ExpMonth <= 12 && m.ExpYear > 0
}

type User struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`
	Role          UserRole       `json:"role"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
