package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"peerrent-backend/internal/clock"
	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/payment"
	"peerrent-backend/internal/service"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type rentalFixture struct {
	rentalRepo  *MockRentalRepo
	productRepo *MockProductRepo
	userRepo    *MockUserRepo
	gateway     *MockGateway
	emailSvc    *MockEmailService
	svc         service.RentalService
}

func newRentalFixture() *rentalFixture {
	f := &rentalFixture{
		rentalRepo:  new(MockRentalRepo),
		productRepo: new(MockProductRepo),
		userRepo:    new(MockUserRepo),
		gateway:     new(MockGateway),
		emailSvc:    new(MockEmailService),
	}
	f.svc = service.NewRentalService(
		f.rentalRepo, f.productRepo, f.userRepo,
		f.gateway, f.emailSvc,
		clock.NewFixed(testNow), 24*time.Hour,
	)
	return f
}

func testRenter() *domain.User {
	return &domain.User{
		ID:    "renter-1",
		Name:  "Renter",
		Email: "renter@test.com",
		Role:  domain.UserRoleUser,
		PaymentMethod: &domain.PaymentMethod{
			CardBrand: "visa",
			LastFour:  "4242",
			ExpMonth:  12,
			ExpYear:   2030,
		},
	}
}

func testLender() *domain.User {
	return &domain.User{
		ID:    "lender-1",
		Name:  "Lender",
		Email: "lender@test.com",
		Role:  domain.UserRoleUser,
	}
}

func testProduct() *domain.Product {
	return &domain.Product{
		ID:                   "prod-1",
		LenderID:             "lender-1",
		Name:                 "Camera",
		PricePerDayCents:     10000,
		SecurityDepositCents: 5000,
		CooldownHours:        6,
	}
}

func pendingRental() *domain.Rental {
	expires := testNow.Add(12 * time.Hour)
	return &domain.Rental{
		ID:        "rental-1",
		ProductID: "prod-1",
		LenderID:  "lender-1",
		RenterID:  "renter-1",
		Status:    domain.RentalStatusPending,
		Duration: domain.Duration{
			AnticipatedStart: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			AnticipatedEnd:   time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
			CooldownExpiry:   time.Date(2025, 6, 13, 6, 0, 0, 0, time.UTC),
			Days:             3,
		},
		ExpiresAt: &expires,
		Version:   1,
	}
}

func confirmedRental() *domain.Rental {
	rt := pendingRental()
	rt.Status = domain.RentalStatusConfirmed
	rt.ExpiresAt = nil
	return rt
}

func TestRentalService_CreateRental(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("FindPendingByRenter", ctx, "renter-1").Return(nil, nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{}, nil)
		f.rentalRepo.On("Create", ctx, mock.AnythingOfType("*domain.Rental")).Return(nil)
		f.userRepo.On("GetByID", ctx, "lender-1").Return(testLender(), nil)
		f.emailSvc.On("SendRentalRequestNotification", ctx, "lender@test.com", "Renter", "Camera").Return(nil)

		rt, err := f.svc.CreateRental(ctx, "renter-1", "prod-1", start, 3)
		require.NoError(t, err)
		require.NotNil(t, rt)

		assert.NotEmpty(t, rt.ID)
		assert.Equal(t, domain.RentalStatusPending, rt.Status)
		assert.Equal(t, start, rt.Duration.AnticipatedStart)
		assert.Equal(t, start.AddDate(0, 0, 3), rt.Duration.AnticipatedEnd)
		assert.Equal(t, start.AddDate(0, 0, 3).Add(6*time.Hour), rt.Duration.CooldownExpiry)
		require.NotNil(t, rt.ExpiresAt)
		assert.Equal(t, testNow.Add(24*time.Hour), *rt.ExpiresAt)
		assert.Empty(t, rt.Payments)
		f.rentalRepo.AssertExpectations(t)
	})

	t.Run("Duplicate pending request", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("FindPendingByRenter", ctx, "renter-1").Return(pendingRental(), nil)

		_, err := f.svc.CreateRental(ctx, "renter-1", "prod-1", start, 3)
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		f.rentalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("No payment method on file", func(t *testing.T) {
		f := newRentalFixture()
		renter := testRenter()
		renter.PaymentMethod = nil
		f.rentalRepo.On("FindPendingByRenter", ctx, "renter-1").Return(nil, nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(renter, nil)

		_, err := f.svc.CreateRental(ctx, "renter-1", "prod-1", start, 3)
		require.Error(t, err)
		assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))
	})

	t.Run("Renting own product", func(t *testing.T) {
		f := newRentalFixture()
		lender := testLender()
		lender.PaymentMethod = testRenter().PaymentMethod
		f.rentalRepo.On("FindPendingByRenter", ctx, "lender-1").Return(nil, nil)
		f.userRepo.On("GetByID", ctx, "lender-1").Return(lender, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)

		_, err := f.svc.CreateRental(ctx, "lender-1", "prod-1", start, 3)
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidActor, domain.KindOf(err))
	})

	t.Run("Invalid duration", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("FindPendingByRenter", ctx, "renter-1").Return(nil, nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)

		_, err := f.svc.CreateRental(ctx, "renter-1", "prod-1", start, 0)
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})

	t.Run("Window already booked", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("FindPendingByRenter", ctx, "renter-1").Return(nil, nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{*confirmedRental()}, nil)

		_, err := f.svc.CreateRental(ctx, "renter-1", "prod-1", start, 3)
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		f.rentalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestRentalService_ConfirmRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve charges and confirms", func(t *testing.T) {
		f := newRentalFixture()
		rt := pendingRental()
		receipt := &payment.Receipt{TransactionID: "txn-1", PaidAt: testNow}

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		// 3 days * 100.00 + 5% tax + 50.00 deposit
		f.gateway.On("Charge", ctx, "visa", int64(36500)).Return(receipt, nil)
		f.rentalRepo.On("Update", ctx, rt, int32(1)).Return(nil)
		f.emailSvc.On("SendRentalDecisionNotification", ctx, "renter@test.com", "Camera", true).Return(nil)

		got, err := f.svc.ConfirmRental(ctx, "lender-1", "rental-1", true)
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusConfirmed, got.Status)
		assert.Nil(t, got.ExpiresAt)
		require.NotNil(t, got.ConfirmationHandledAt)
		require.Len(t, got.Payments, 1)
		entry := got.Payments[0]
		assert.Equal(t, domain.PaymentTypeRented, entry.Type)
		assert.Equal(t, int64(36500), entry.AmountCents)
		assert.Equal(t, domain.PaymentStatusActive, entry.Status)
		assert.Equal(t, "txn-1", entry.TransactionID)
		f.gateway.AssertExpectations(t)
	})

	t.Run("Deny without charging", func(t *testing.T) {
		f := newRentalFixture()
		rt := pendingRental()

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("Update", ctx, rt, int32(1)).Return(nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.emailSvc.On("SendRentalDecisionNotification", ctx, "renter@test.com", "Camera", false).Return(nil)

		got, err := f.svc.ConfirmRental(ctx, "lender-1", "rental-1", false)
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusDenied, got.Status)
		assert.Empty(t, got.Payments)
		f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Only lender may confirm", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(pendingRental(), nil)

		_, err := f.svc.ConfirmRental(ctx, "someone-else", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})

	t.Run("Expired pending is treated as absent", func(t *testing.T) {
		f := newRentalFixture()
		rt := pendingRental()
		expired := testNow.Add(-time.Hour)
		rt.ExpiresAt = &expired

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)

		_, err := f.svc.ConfirmRental(ctx, "lender-1", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("Already handled", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(confirmedRental(), nil)

		_, err := f.svc.ConfirmRental(ctx, "lender-1", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))
	})

	t.Run("Payment declined lands in payment_issues", func(t *testing.T) {
		f := newRentalFixture()
		rt := pendingRental()

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.gateway.On("Charge", ctx, "visa", int64(36500)).Return(nil, errors.New("card declined"))
		f.rentalRepo.On("Update", ctx, rt, int32(1)).Return(nil)

		_, err := f.svc.ConfirmRental(ctx, "lender-1", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))
		assert.Equal(t, domain.RentalStatusPaymentIssues, rt.Status)
		assert.Empty(t, rt.Payments)
		f.rentalRepo.AssertExpectations(t)
	})
}

func TestRentalService_RequestReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("Extending sets a live request", func(t *testing.T) {
		f := newRentalFixture()
		rt := confirmedRental()
		newStart := rt.Duration.AnticipatedStart

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{*rt}, nil)
		f.rentalRepo.On("UpdateGuarded", ctx, rt, int32(1)).Return(nil)
		f.userRepo.On("GetByID", ctx, "lender-1").Return(testLender(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.emailSvc.On("SendRescheduleRequestNotification", ctx, "lender@test.com", "Renter", "Camera").Return(nil)

		got, err := f.svc.RequestReschedule(ctx, "renter-1", "rental-1", newStart, 5)
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusReschedulingPending, got.Status)
		require.NotNil(t, got.Rescheduling)
		assert.Equal(t, domain.RescheduleActionExtended, got.Rescheduling.Action)
		assert.Equal(t, int32(5), got.Rescheduling.NewDays)
		assert.Nil(t, got.Rescheduling.RespondedAt)
		// The authoritative duration is untouched until the lender approves
		assert.Equal(t, int32(3), got.Duration.Days)
	})

	t.Run("Shifting with same day count is a plain reschedule", func(t *testing.T) {
		f := newRentalFixture()
		rt := confirmedRental()
		newStart := rt.Duration.AnticipatedStart.AddDate(0, 0, 7)

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{*rt}, nil)
		f.rentalRepo.On("UpdateGuarded", ctx, rt, int32(1)).Return(nil)
		f.userRepo.On("GetByID", ctx, mock.Anything).Return(testLender(), nil)
		f.emailSvc.On("SendRescheduleRequestNotification", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		got, err := f.svc.RequestReschedule(ctx, "renter-1", "rental-1", newStart, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.RescheduleActionRescheduled, got.Rescheduling.Action)
	})

	t.Run("Identical window is a no-op", func(t *testing.T) {
		f := newRentalFixture()
		rt := confirmedRental()

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)

		_, err := f.svc.RequestReschedule(ctx, "renter-1", "rental-1", rt.Duration.AnticipatedStart, 3)
		require.Error(t, err)
		assert.Equal(t, domain.KindNoOp, domain.KindOf(err))
		f.rentalRepo.AssertNotCalled(t, "UpdateGuarded", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Only one live request at a time", func(t *testing.T) {
		f := newRentalFixture()
		rt := confirmedRental()
		rt.Status = domain.RentalStatusReschedulingPending

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)

		_, err := f.svc.RequestReschedule(ctx, "renter-1", "rental-1", rt.Duration.AnticipatedStart, 5)
		require.Error(t, err)
		assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))
	})

	t.Run("Only the renter may reschedule", func(t *testing.T) {
		f := newRentalFixture()
		rt := confirmedRental()

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)

		_, err := f.svc.RequestReschedule(ctx, "lender-1", "rental-1", rt.Duration.AnticipatedStart, 5)
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})

	t.Run("New window conflicts with another booking", func(t *testing.T) {
		f := newRentalFixture()
		rt := confirmedRental()
		other := confirmedRental()
		other.ID = "rental-2"
		other.Duration.AnticipatedStart = time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
		other.Duration.AnticipatedEnd = time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)
		other.Duration.CooldownExpiry = time.Date(2025, 6, 23, 6, 0, 0, 0, time.UTC)

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{*rt, *other}, nil)

		_, err := f.svc.RequestReschedule(ctx, "renter-1", "rental-1", time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC), 3)
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})
}

func TestRentalService_ConfirmReschedule(t *testing.T) {
	ctx := context.Background()

	withLiveRequest := func(newDays int32) *domain.Rental {
		rt := confirmedRental()
		rt.Status = domain.RentalStatusReschedulingPending
		newStart := rt.Duration.AnticipatedStart.AddDate(0, 0, 7)
		rt.Rescheduling = &domain.Rescheduling{
			RequestedBy:       "renter-1",
			NewStart:          newStart,
			NewEnd:            newStart.AddDate(0, 0, int(newDays)),
			NewCooldownExpiry: newStart.AddDate(0, 0, int(newDays)).Add(6 * time.Hour),
			NewDays:           newDays,
			Action:            domain.RescheduleActionExtended,
			RequestedAt:       testNow,
		}
		if newDays < 3 {
			rt.Rescheduling.Action = domain.RescheduleActionReduced
		} else if newDays == 3 {
			rt.Rescheduling.Action = domain.RescheduleActionRescheduled
		}
		return rt
	}

	t.Run("Approve extension charges the delta", func(t *testing.T) {
		f := newRentalFixture()
		rt := withLiveRequest(5)
		receipt := &payment.Receipt{TransactionID: "txn-2", PaidAt: testNow}

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{}, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		// 2 extra days * 100.00 plus 5% tax
		f.gateway.On("Charge", ctx, "visa", int64(21000)).Return(receipt, nil)
		f.rentalRepo.On("UpdateGuarded", ctx, rt, int32(1)).Return(nil)
		f.emailSvc.On("SendRescheduleDecisionNotification", ctx, "renter@test.com", "Camera", true).Return(nil)

		got, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", true)
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusReschedulingConfirmed, got.Status)
		assert.Equal(t, int32(5), got.Duration.Days)
		assert.Equal(t, rt.Rescheduling.NewStart, got.Duration.AnticipatedStart)
		assert.Equal(t, rt.Rescheduling.NewCooldownExpiry, got.Duration.CooldownExpiry)
		require.NotNil(t, got.Rescheduling.RespondedAt)
		require.Len(t, got.Payments, 1)
		assert.Equal(t, domain.PaymentTypeExtended, got.Payments[0].Type)
		assert.Equal(t, int64(21000), got.Payments[0].AmountCents)
	})

	t.Run("Approve reduction refunds the delta", func(t *testing.T) {
		f := newRentalFixture()
		rt := withLiveRequest(2)
		receipt := &payment.Receipt{TransactionID: "txn-3", PaidAt: testNow}

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{}, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.gateway.On("Charge", ctx, "visa", int64(-10500)).Return(receipt, nil)
		f.rentalRepo.On("UpdateGuarded", ctx, rt, int32(1)).Return(nil)
		f.emailSvc.On("SendRescheduleDecisionNotification", ctx, "renter@test.com", "Camera", true).Return(nil)

		got, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", true)
		require.NoError(t, err)

		require.Len(t, got.Payments, 1)
		assert.Equal(t, domain.PaymentTypeReduced, got.Payments[0].Type)
		assert.Equal(t, int64(-10500), got.Payments[0].AmountCents)
	})

	t.Run("Approve same-length shift skips the gateway", func(t *testing.T) {
		f := newRentalFixture()
		rt := withLiveRequest(3)

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{}, nil)
		f.rentalRepo.On("UpdateGuarded", ctx, rt, int32(1)).Return(nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.emailSvc.On("SendRescheduleDecisionNotification", ctx, "renter@test.com", "Camera", true).Return(nil)

		got, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", true)
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusReschedulingConfirmed, got.Status)
		assert.Empty(t, got.Payments)
		f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Deny keeps the current window", func(t *testing.T) {
		f := newRentalFixture()
		rt := withLiveRequest(5)

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("Update", ctx, rt, int32(1)).Return(nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.emailSvc.On("SendRescheduleDecisionNotification", ctx, "renter@test.com", "Camera", false).Return(nil)

		got, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", false)
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusReschedulingDenied, got.Status)
		assert.Equal(t, int32(3), got.Duration.Days)
		require.NotNil(t, got.Rescheduling.RespondedAt)
		f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No live request", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(confirmedRental(), nil)

		_, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))
	})

	t.Run("Delta payment declined", func(t *testing.T) {
		f := newRentalFixture()
		rt := withLiveRequest(5)

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{}, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.gateway.On("Charge", ctx, "visa", int64(21000)).Return(nil, errors.New("card declined"))
		f.rentalRepo.On("Update", ctx, rt, int32(1)).Return(nil)

		_, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))
		assert.Equal(t, domain.RentalStatusReschedulingFailedPayment, rt.Status)
		// The old window survives a failed delta payment
		assert.Equal(t, int32(3), rt.Duration.Days)
	})

	t.Run("Approve into an occupied window is rejected", func(t *testing.T) {
		f := newRentalFixture()
		rt := withLiveRequest(5)

		// Another renter confirmed into the proposed window while this
		// request sat pending.
		blocker := confirmedRental()
		blocker.ID = "rental-2"
		blocker.RenterID = "renter-2"
		blocker.Duration.AnticipatedStart = rt.Rescheduling.NewStart.AddDate(0, 0, 1)
		blocker.Duration.AnticipatedEnd = blocker.Duration.AnticipatedStart.AddDate(0, 0, 3)
		blocker.Duration.CooldownExpiry = blocker.Duration.AnticipatedEnd.Add(6 * time.Hour)

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{*blocker}, nil)

		_, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		assert.Equal(t, domain.RentalStatusReschedulingPending, rt.Status)
		f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
		f.rentalRepo.AssertNotCalled(t, "UpdateGuarded", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Write-time conflict reverses the delta charge", func(t *testing.T) {
		f := newRentalFixture()
		rt := withLiveRequest(5)
		receipt := &payment.Receipt{TransactionID: "txn-4", PaidAt: testNow}
		reversal := &payment.Receipt{TransactionID: "txn-5", PaidAt: testNow}

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.rentalRepo.On("ListCommittedByProduct", ctx, "prod-1").Return([]domain.Rental{}, nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.gateway.On("Charge", ctx, "visa", int64(21000)).Return(receipt, nil)
		f.rentalRepo.On("UpdateGuarded", ctx, rt, int32(1)).
			Return(domain.E(domain.KindConflict, "product is already rented during this period"))
		f.gateway.On("Charge", ctx, "visa", int64(-21000)).Return(reversal, nil)

		_, err := f.svc.ConfirmReschedule(ctx, "lender-1", "rental-1", true)
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		f.gateway.AssertCalled(t, "Charge", ctx, "visa", int64(-21000))
	})
}

func TestRentalService_CancelRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Renter cancels a pending request", func(t *testing.T) {
		f := newRentalFixture()
		rt := pendingRental()

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)
		f.rentalRepo.On("Update", ctx, rt, int32(1)).Return(nil)
		f.userRepo.On("GetByID", ctx, "lender-1").Return(testLender(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.emailSvc.On("SendRentalCancellationNotification", ctx, "lender@test.com", "Renter", "Camera", "changed plans").Return(nil)

		got, err := f.svc.CancelRental(ctx, "renter-1", "rental-1", "changed plans")
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusCancelled, got.Status)
		require.NotNil(t, got.Cancellation)
		assert.Equal(t, "renter-1", got.Cancellation.CancelledBy)
		assert.Equal(t, "changed plans", got.Cancellation.Reason)
	})

	t.Run("Admin may cancel", func(t *testing.T) {
		f := newRentalFixture()
		rt := pendingRental()
		admin := &domain.User{ID: "admin-1", Name: "Admin", Email: "admin@test.com", Role: domain.UserRoleAdmin}

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.userRepo.On("GetByID", ctx, "admin-1").Return(admin, nil)
		f.rentalRepo.On("Update", ctx, rt, int32(1)).Return(nil)
		f.userRepo.On("GetByID", ctx, "lender-1").Return(testLender(), nil)
		f.productRepo.On("GetByID", ctx, "prod-1").Return(testProduct(), nil)
		f.emailSvc.On("SendRentalCancellationNotification", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		got, err := f.svc.CancelRental(ctx, "admin-1", "rental-1", "policy violation")
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusCancelled, got.Status)
	})

	t.Run("Stranger may not cancel", func(t *testing.T) {
		f := newRentalFixture()
		stranger := &domain.User{ID: "stranger-1", Role: domain.UserRoleUser}

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(pendingRental(), nil)
		f.userRepo.On("GetByID", ctx, "stranger-1").Return(stranger, nil)

		_, err := f.svc.CancelRental(ctx, "stranger-1", "rental-1", "")
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})

	t.Run("Double cancel is reported as already done", func(t *testing.T) {
		f := newRentalFixture()
		rt := pendingRental()
		rt.Status = domain.RentalStatusCancelled
		rt.Cancellation = &domain.Cancellation{Reason: "earlier", CancelledBy: "renter-1", CancelledOn: testNow}

		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(rt, nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)

		_, err := f.svc.CancelRental(ctx, "renter-1", "rental-1", "again")
		require.Error(t, err)
		assert.Equal(t, domain.KindAlreadyDone, domain.KindOf(err))
	})

	t.Run("Confirmed rental cannot be cancelled", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(confirmedRental(), nil)
		f.userRepo.On("GetByID", ctx, "renter-1").Return(testRenter(), nil)

		_, err := f.svc.CancelRental(ctx, "renter-1", "rental-1", "")
		require.Error(t, err)
		assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))
	})
}

func TestRentalService_GetRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Party may read", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(pendingRental(), nil)

		got, err := f.svc.GetRental(ctx, "renter-1", "rental-1")
		require.NoError(t, err)
		assert.Equal(t, "rental-1", got.ID)
	})

	t.Run("Outsider may not read", func(t *testing.T) {
		f := newRentalFixture()
		f.rentalRepo.On("GetByID", ctx, "rental-1").Return(pendingRental(), nil)

		_, err := f.svc.GetRental(ctx, "stranger-1", "rental-1")
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})
}
