package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"peerrent-backend/internal/clock"
	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/logger"
	"peerrent-backend/internal/payment"
	"peerrent-backend/internal/repository"
	"peerrent-backend/internal/utils"
)

type rentalService struct {
	rentalRepo  repository.RentalRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	gateway     payment.Gateway
	emailSvc    EmailService
	clock       clock.Clock
	pendingTTL  time.Duration
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	gateway payment.Gateway,
	emailSvc EmailService,
	clk clock.Clock,
	pendingTTL time.Duration,
) RentalService {
	return &rentalService{
		rentalRepo:  rentalRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		emailSvc:    emailSvc,
		clock:       clk,
		pendingTTL:  pendingTTL,
	}
}

func (s *rentalService) CreateRental(ctx context.Context, renterID, productID string, anticipatedStart time.Time, days int32) (*domain.Rental, error) {
	// One outstanding request per renter, system-wide, not per product.
	pending, err := s.rentalRepo.FindPendingByRenter(ctx, renterID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, domain.E(domain.KindConflict, "you cannot have more than one pending rental request")
	}

	renter, err := s.userRepo.GetByID(ctx, renterID)
	if err != nil {
		return nil, err
	}
	if !renter.PaymentMethod.Valid() {
		return nil, domain.E(domain.KindPreconditionFailed, "a valid payment method must be on file before requesting rentals")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.LenderID == renterID {
		return nil, domain.E(domain.KindInvalidActor, "you cannot rent your own product")
	}

	dates, err := utils.DeriveDates(anticipatedStart, days, product.CooldownHours)
	if err != nil {
		return nil, err
	}

	committed, err := s.rentalRepo.ListCommittedByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if conflict := utils.FindOverlapping(committed, productID, dates.Start, dates.CooldownExpiry, ""); conflict != nil {
		return nil, domain.E(domain.KindConflict, "product is already rented during this period (rental %s)", conflict.ID)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.pendingTTL)
	rental := &domain.Rental{
		ID:        uuid.NewString(),
		ProductID: productID,
		LenderID:  product.LenderID,
		RenterID:  renterID,
		Duration: domain.Duration{
			AnticipatedStart: dates.Start,
			AnticipatedEnd:   dates.End,
			CooldownExpiry:   dates.CooldownExpiry,
			Days:             days,
		},
		Status:    domain.RentalStatusPending,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}

	// Create re-runs the overlap check atomically with the insert; a
	// concurrent request that slipped past the check above fails here.
	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		return nil, err
	}

	// Notify lender, best effort
	if lender, err := s.userRepo.GetByID(ctx, product.LenderID); err == nil {
		_ = s.emailSvc.SendRentalRequestNotification(ctx, lender.Email, renter.Name, product.Name)
	}

	return rental, nil
}

func (s *rentalService) ConfirmRental(ctx context.Context, lenderID, rentalID string, approved bool) (*domain.Rental, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.LenderID != lenderID {
		return nil, domain.E(domain.KindUnauthorized, "only the product owner can confirm the rental")
	}

	now := s.clock.Now()
	// An expired pending request is already dead; the reaper just has not
	// collected it yet.
	if rt.PendingExpired(now) {
		return nil, domain.E(domain.KindNotFound, "rental request %s has expired", rentalID)
	}
	if rt.Status != domain.RentalStatusPending {
		return nil, domain.E(domain.KindPreconditionFailed, "rental request is no longer pending")
	}

	expectedVersion := rt.Version

	if !approved {
		rt.Status = domain.RentalStatusDenied
		rt.ConfirmationHandledAt = &now
		if err := s.rentalRepo.Update(ctx, rt, expectedVersion); err != nil {
			return nil, err
		}
		s.notifyDecision(ctx, rt, false)
		return rt, nil
	}

	product, err := s.productRepo.GetByID(ctx, rt.ProductID)
	if err != nil {
		return nil, err
	}
	renter, err := s.userRepo.GetByID(ctx, rt.RenterID)
	if err != nil {
		return nil, err
	}
	if !renter.PaymentMethod.Valid() {
		return nil, domain.E(domain.KindPreconditionFailed, "renter no longer has a valid payment method on file")
	}

	total := utils.InitialPriceCents(product.PricePerDayCents, rt.Duration.Days, product.SecurityDepositCents)

	receipt, chargeErr := s.gateway.Charge(ctx, renter.PaymentMethod.CardBrand, total)
	if chargeErr != nil {
		// The failure stays visible: the rental lands in an explicit
		// failed-payment status instead of reverting to pending.
		rt.Status = domain.RentalStatusPaymentIssues
		rt.ExpiresAt = nil
		if err := s.rentalRepo.Update(ctx, rt, expectedVersion); err != nil {
			return nil, err
		}
		return nil, domain.E(domain.KindPaymentFailed, "payment transaction failed: %v", chargeErr)
	}

	rt.Status = domain.RentalStatusConfirmed
	rt.ConfirmationHandledAt = &now
	rt.ExpiresAt = nil
	rt.AppendPayment(domain.PaymentEntry{
		Type:          domain.PaymentTypeRented,
		Method:        renter.PaymentMethod.CardBrand,
		AmountCents:   total,
		Status:        domain.PaymentStatusActive,
		TransactionID: receipt.TransactionID,
		PaidAt:        receipt.PaidAt,
	})
	if err := s.rentalRepo.Update(ctx, rt, expectedVersion); err != nil {
		return nil, err
	}

	s.notifyDecision(ctx, rt, true)
	return rt, nil
}

func (s *rentalService) RequestReschedule(ctx context.Context, renterID, rentalID string, newStart time.Time, newDays int32) (*domain.Rental, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.RenterID != renterID {
		return nil, domain.E(domain.KindUnauthorized, "only the renter can reschedule a rental")
	}

	// Only one live reschedule request at a time.
	if rt.Status == domain.RentalStatusReschedulingPending {
		return nil, domain.E(domain.KindPreconditionFailed, "a reschedule request is already awaiting a response")
	}
	switch rt.Status {
	case domain.RentalStatusConfirmed, domain.RentalStatusReschedulingDenied, domain.RentalStatusReschedulingConfirmed:
	default:
		return nil, domain.E(domain.KindPreconditionFailed, "rental cannot be rescheduled in status %q", rt.Status)
	}

	product, err := s.productRepo.GetByID(ctx, rt.ProductID)
	if err != nil {
		return nil, err
	}

	dates, err := utils.DeriveDates(newStart, newDays, product.CooldownHours)
	if err != nil {
		return nil, err
	}

	if dates.Start.Equal(rt.Duration.AnticipatedStart) && dates.End.Equal(rt.Duration.AnticipatedEnd) {
		return nil, domain.E(domain.KindNoOp, "the new rental period is identical to the current one")
	}

	committed, err := s.rentalRepo.ListCommittedByProduct(ctx, rt.ProductID)
	if err != nil {
		return nil, err
	}
	if conflict := utils.FindOverlapping(committed, rt.ProductID, dates.Start, dates.CooldownExpiry, rt.ID); conflict != nil {
		return nil, domain.E(domain.KindConflict, "product is already rented during this period (rental %s)", conflict.ID)
	}

	var action domain.RescheduleAction
	switch {
	case newDays > rt.Duration.Days:
		action = domain.RescheduleActionExtended
	case newDays < rt.Duration.Days:
		action = domain.RescheduleActionReduced
	default:
		action = domain.RescheduleActionRescheduled
	}

	expectedVersion := rt.Version
	rt.Rescheduling = &domain.Rescheduling{
		RequestedBy:       renterID,
		NewStart:          dates.Start,
		NewEnd:            dates.End,
		NewCooldownExpiry: dates.CooldownExpiry,
		NewDays:           newDays,
		Action:            action,
		RequestedAt:       s.clock.Now(),
	}
	rt.Status = domain.RentalStatusReschedulingPending

	// UpdateGuarded re-checks the proposed window under the product lock,
	// atomically with the write.
	if err := s.rentalRepo.UpdateGuarded(ctx, rt, expectedVersion); err != nil {
		return nil, err
	}

	if lender, err := s.userRepo.GetByID(ctx, rt.LenderID); err == nil {
		renter, rerr := s.userRepo.GetByID(ctx, renterID)
		if rerr == nil {
			_ = s.emailSvc.SendRescheduleRequestNotification(ctx, lender.Email, renter.Name, product.Name)
		}
	}

	return rt, nil
}

func (s *rentalService) ConfirmReschedule(ctx context.Context, lenderID, rentalID string, approved bool) (*domain.Rental, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.LenderID != lenderID {
		return nil, domain.E(domain.KindUnauthorized, "only the product owner can approve or deny rescheduling")
	}
	if !rt.RescheduleRequested() {
		return nil, domain.E(domain.KindPreconditionFailed, "no pending reschedule request found")
	}

	resched := rt.Rescheduling
	if resched.NewDays < utils.MinRentalDays || resched.NewDays > utils.MaxRentalDays {
		return nil, domain.E(domain.KindInvalidInput, "proposed duration must remain between %d and %d days", utils.MinRentalDays, utils.MaxRentalDays)
	}

	now := s.clock.Now()
	expectedVersion := rt.Version

	if !approved {
		rt.Status = domain.RentalStatusReschedulingDenied
		resched.RespondedAt = &now
		if err := s.rentalRepo.Update(ctx, rt, expectedVersion); err != nil {
			return nil, err
		}
		s.notifyRescheduleDecision(ctx, rt, false)
		return rt, nil
	}

	// The rental sat outside the committed set while the request was
	// pending, so the proposed window must be validated against the
	// product calendar again before money moves.
	committed, err := s.rentalRepo.ListCommittedByProduct(ctx, rt.ProductID)
	if err != nil {
		return nil, err
	}
	if conflict := utils.FindOverlapping(committed, rt.ProductID, resched.NewStart, resched.NewCooldownExpiry, rt.ID); conflict != nil {
		return nil, domain.E(domain.KindConflict, "product is already rented during the proposed period (rental %s)", conflict.ID)
	}

	var (
		chargedDelta  int64
		chargedMethod string
	)
	diffDays := resched.NewDays - rt.Duration.Days
	if diffDays != 0 {
		product, err := s.productRepo.GetByID(ctx, rt.ProductID)
		if err != nil {
			return nil, err
		}
		renter, err := s.userRepo.GetByID(ctx, rt.RenterID)
		if err != nil {
			return nil, err
		}
		if !renter.PaymentMethod.Valid() {
			return nil, domain.E(domain.KindPreconditionFailed, "renter no longer has a valid payment method on file")
		}

		// Positive delta charges the renter, negative refunds them.
		delta := utils.RescheduleDeltaCents(product.PricePerDayCents, rt.Duration.Days, resched.NewDays)

		receipt, chargeErr := s.gateway.Charge(ctx, renter.PaymentMethod.CardBrand, delta)
		if chargeErr != nil {
			rt.Status = domain.RentalStatusReschedulingFailedPayment
			resched.RespondedAt = &now
			if err := s.rentalRepo.Update(ctx, rt, expectedVersion); err != nil {
				return nil, err
			}
			return nil, domain.E(domain.KindPaymentFailed, "payment transaction failed: %v", chargeErr)
		}

		rt.AppendPayment(domain.PaymentEntry{
			Type:          domain.PaymentTypeForAction(resched.Action),
			Method:        renter.PaymentMethod.CardBrand,
			AmountCents:   delta,
			Status:        domain.PaymentStatusActive,
			TransactionID: receipt.TransactionID,
			PaidAt:        receipt.PaidAt,
		})
		chargedDelta = delta
		chargedMethod = renter.PaymentMethod.CardBrand
	}

	rt.Status = domain.RentalStatusReschedulingConfirmed
	resched.RespondedAt = &now
	rt.Duration.AnticipatedStart = resched.NewStart
	rt.Duration.AnticipatedEnd = resched.NewEnd
	rt.Duration.CooldownExpiry = resched.NewCooldownExpiry
	rt.Duration.Days = resched.NewDays
	// Guarded write: the proposed window is re-checked under the product
	// lock, closing the race with rentals confirmed after the check above.
	if err := s.rentalRepo.UpdateGuarded(ctx, rt, expectedVersion); err != nil {
		if chargedDelta != 0 {
			if _, rerr := s.gateway.Charge(ctx, chargedMethod, -chargedDelta); rerr != nil {
				logger.Error("failed to reverse reschedule charge",
					"rental_id", rt.ID,
					"amount_cents", chargedDelta,
					"error", rerr)
			}
		}
		return nil, err
	}

	s.notifyRescheduleDecision(ctx, rt, true)
	return rt, nil
}

func (s *rentalService) CancelRental(ctx context.Context, actorID, rentalID, reason string) (*domain.Rental, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actorID != rt.LenderID && actorID != rt.RenterID && actor.Role != domain.UserRoleAdmin {
		return nil, domain.E(domain.KindUnauthorized, "you are not allowed to cancel this rental")
	}

	if rt.Cancellation != nil {
		return nil, domain.E(domain.KindAlreadyDone, "rental request has already been cancelled")
	}
	// Cancellation is only permitted before any payment has been taken.
	if rt.Status != domain.RentalStatusPending {
		return nil, domain.E(domain.KindPreconditionFailed, "this rental can no longer be cancelled")
	}

	expectedVersion := rt.Version
	rt.Cancellation = &domain.Cancellation{
		Reason:      reason,
		CancelledBy: actorID,
		CancelledOn: s.clock.Now(),
	}
	rt.Status = domain.RentalStatusCancelled
	if err := s.rentalRepo.Update(ctx, rt, expectedVersion); err != nil {
		return nil, err
	}

	// Notify the other party, best effort
	otherID := rt.LenderID
	if actorID == rt.LenderID {
		otherID = rt.RenterID
	}
	if other, err := s.userRepo.GetByID(ctx, otherID); err == nil {
		if product, perr := s.productRepo.GetByID(ctx, rt.ProductID); perr == nil {
			_ = s.emailSvc.SendRentalCancellationNotification(ctx, other.Email, actor.Name, product.Name, reason)
		}
	}

	return rt, nil
}

func (s *rentalService) ListRentals(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return s.rentalRepo.ListByRenter(ctx, renterID, status, page, pageSize)
}

func (s *rentalService) ListLendings(ctx context.Context, lenderID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return s.rentalRepo.ListByLender(ctx, lenderID, status, page, pageSize)
}

func (s *rentalService) GetRental(ctx context.Context, userID, rentalID string) (*domain.Rental, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.RenterID != userID && rt.LenderID != userID {
		return nil, domain.E(domain.KindUnauthorized, "you are not a party to this rental")
	}
	return rt, nil
}

func (s *rentalService) notifyDecision(ctx context.Context, rt *domain.Rental, approved bool) {
	renter, err := s.userRepo.GetByID(ctx, rt.RenterID)
	if err != nil {
		return
	}
	product, err := s.productRepo.GetByID(ctx, rt.ProductID)
	if err != nil {
		return
	}
	_ = s.emailSvc.SendRentalDecisionNotification(ctx, renter.Email, product.Name, approved)
}

func (s *rentalService) notifyRescheduleDecision(ctx context.Context, rt *domain.Rental, approved bool) {
	renter, err := s.userRepo.GetByID(ctx, rt.RenterID)
	if err != nil {
		return
	}
	product, err := s.productRepo.GetByID(ctx, rt.ProductID)
	if err != nil {
		return
	}
	_ = s.emailSvc.SendRescheduleDecisionNotification(ctx, renter.Email, product.Name, approved)
}
