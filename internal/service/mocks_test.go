package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/payment"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) UpdatePaymentMethod(ctx context.Context, userID string, method *domain.PaymentMethod) error {
	args := m.Called(ctx, userID, method)
	return args.Error(0)
}

// MockProductRepo
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}
func (m *MockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}
func (m *MockProductRepo) List(ctx context.Context, search, category string, page, pageSize int32) ([]domain.Product, int32, error) {
	args := m.Called(ctx, search, category, page, pageSize)
	return args.Get(0).([]domain.Product), args.Get(1).(int32), args.Error(2)
}
func (m *MockProductRepo) ListByLender(ctx context.Context, lenderID string, page, pageSize int32) ([]domain.Product, int32, error) {
	args := m.Called(ctx, lenderID, page, pageSize)
	return args.Get(0).([]domain.Product), args.Get(1).(int32), args.Error(2)
}
func (m *MockProductRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Update(ctx context.Context, rental *domain.Rental, expectedVersion int32) error {
	args := m.Called(ctx, rental, expectedVersion)
	return args.Error(0)
}
func (m *MockRentalRepo) UpdateGuarded(ctx context.Context, rental *domain.Rental, expectedVersion int32) error {
	args := m.Called(ctx, rental, expectedVersion)
	return args.Error(0)
}
func (m *MockRentalRepo) ListCommittedByProduct(ctx context.Context, productID string) ([]domain.Rental, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) FindPendingByRenter(ctx context.Context, renterID string) (*domain.Rental, error) {
	args := m.Called(ctx, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRepo) ListByLender(ctx context.Context, lenderID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, lenderID, status, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRepo) DeleteExpiredPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRentalRepo) MarkLateReturns(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, method string, amountCents int64) (*payment.Receipt, error) {
	args := m.Called(ctx, method, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Receipt), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendRentalRequestNotification(ctx context.Context, lenderEmail, renterName, productName string) error {
	args := m.Called(ctx, lenderEmail, renterName, productName)
	return args.Error(0)
}
func (m *MockEmailService) SendRentalDecisionNotification(ctx context.Context, renterEmail, productName string, approved bool) error {
	args := m.Called(ctx, renterEmail, productName, approved)
	return args.Error(0)
}
func (m *MockEmailService) SendRescheduleRequestNotification(ctx context.Context, lenderEmail, renterName, productName string) error {
	args := m.Called(ctx, lenderEmail, renterName, productName)
	return args.Error(0)
}
func (m *MockEmailService) SendRescheduleDecisionNotification(ctx context.Context, renterEmail, productName string, approved bool) error {
	args := m.Called(ctx, renterEmail, productName, approved)
	return args.Error(0)
}
func (m *MockEmailService) SendRentalCancellationNotification(ctx context.Context, email, cancellerName, productName, reason string) error {
	args := m.Called(ctx, email, cancellerName, productName, reason)
	return args.Error(0)
}
