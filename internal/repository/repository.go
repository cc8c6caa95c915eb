package repository

import (
	"context"

	"peerrent-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePaymentMethod(ctx context.Context, userID string, method *domain.PaymentMethod) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns a catalog page. search filters by name
	// (case-insensitive substring), category by exact match; either may
	// be empty.
	List(ctx context.Context, search, category string, page, pageSize int32) ([]domain.Product, int32, error)

	ListByLender(ctx context.Context, lenderID string, page, pageSize int32) ([]domain.Product, int32, error)
	Delete(ctx context.Context, id string) error
}

type RentalRepository interface {
	// Create inserts a pending rental. The overlap check against the
	// product's committed reservations and the insert run in one
	// transaction serialized per product, so two concurrent requests for
	// the same product cannot both pass the check. Returns KindConflict
	// when the window is taken.
	Create(ctx context.Context, rental *domain.Rental) error

	GetByID(ctx context.Context, id string) (*domain.Rental, error)

	// Update persists the rental if its stored version still matches
	// expectedVersion, bumping the version on success. Returns
	// KindVersionConflict on a stale write.
	Update(ctx context.Context, rental *domain.Rental, expectedVersion int32) error

	// UpdateGuarded is Update plus the per-product serialization of
	// Create: the rental's proposed reschedule window is re-checked for
	// overlap under the product lock before the write. Used by reschedule
	// requests, whose check-then-write must be atomic.
	UpdateGuarded(ctx context.Context, rental *domain.Rental, expectedVersion int32) error

	// ListCommittedByProduct returns the rentals occupying the product's
	// calendar (confirmed, rescheduling_confirmed, ongoing, completed).
	ListCommittedByProduct(ctx context.Context, productID string) ([]domain.Rental, error)

	// FindPendingByRenter returns the renter's outstanding pending
	// request, ignoring requests past their soft TTL. Nil when none.
	FindPendingByRenter(ctx context.Context, renterID string) (*domain.Rental, error)

	ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	ListByLender(ctx context.Context, lenderID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)

	// DeleteExpiredPending removes pending rentals past their soft TTL.
	// Run by the reaper job.
	DeleteExpiredPending(ctx context.Context) (int64, error)

	// MarkLateReturns flips ongoing rentals past their anticipated end to
	// late_return and returns the affected ids. Run by the nightly job.
	MarkLateReturns(ctx context.Context) ([]string, error)
}
