package service

import (
	"context"
	"time"

	"peerrent-backend/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*domain.User, string, string, error) // user, access, refresh
	Login(ctx context.Context, email, password string) (string, string, error)                      // access, refresh
	Refresh(ctx context.Context, refreshToken string) (string, string, error)                       // access, refresh
	UpdatePaymentMethod(ctx context.Context, userID string, method *domain.PaymentMethod) error
}

type ProductService interface {
	CreateProduct(ctx context.Context, lenderID string, product *domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, search, category string, page, pageSize int32) ([]domain.Product, int32, error)
	ListMyProducts(ctx context.Context, lenderID string, page, pageSize int32) ([]domain.Product, int32, error)
	DeleteProduct(ctx context.Context, lenderID, productID string) error
}

// RentalService is the reservation state machine. Every operation takes the
// acting user's identity and authorizes it before any mutation.
type RentalService interface {
	CreateRental(ctx context.Context, renterID, productID string, anticipatedStart time.Time, days int32) (*domain.Rental, error)
	ConfirmRental(ctx context.Context, lenderID, rentalID string, approved bool) (*domain.Rental, error)
	RequestReschedule(ctx context.Context, renterID, rentalID string, newStart time.Time, newDays int32) (*domain.Rental, error)
	ConfirmReschedule(ctx context.Context, lenderID, rentalID string, approved bool) (*domain.Rental, error)
	CancelRental(ctx context.Context, actorID, rentalID, reason string) (*domain.Rental, error)

	ListRentals(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	ListLendings(ctx context.Context, lenderID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	GetRental(ctx context.Context, userID, rentalID string) (*domain.Rental, error)
}

type EmailService interface {
	SendRentalRequestNotification(ctx context.Context, lenderEmail, renterName, productName string) error
	SendRentalDecisionNotification(ctx context.Context, renterEmail, productName string, approved bool) error
	SendRescheduleRequestNotification(ctx context.Context, lenderEmail, renterName, productName string) error
	SendRescheduleDecisionNotification(ctx context.Context, renterEmail, productName string, approved bool) error
	SendRentalCancellationNotification(ctx context.Context, email, cancellerName, productName, reason string) error
}
