package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"peerrent-backend/internal/clock"
	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/repository"
)

type productService struct {
	productRepo repository.ProductRepository
	clock       clock.Clock
}

func NewProductService(productRepo repository.ProductRepository, clk clock.Clock) ProductService {
	return &productService{productRepo: productRepo, clock: clk}
}

func (s *productService) CreateProduct(ctx context.Context, lenderID string, product *domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" {
		return nil, domain.E(domain.KindInvalidInput, "product name is required")
	}
	if product.PricePerDayCents <= 0 {
		return nil, domain.E(domain.KindInvalidInput, "price per day must be positive")
	}
	if product.SecurityDepositCents < 0 {
		return nil, domain.E(domain.KindInvalidInput, "security deposit cannot be negative")
	}
	if product.CooldownHours < domain.MinCooldownHours || product.CooldownHours > domain.MaxCooldownHours {
		return nil, domain.E(domain.KindInvalidInput, "cooldown must be between %d and %d hours", domain.MinCooldownHours, domain.MaxCooldownHours)
	}

	product.ID = uuid.NewString()
	product.LenderID = lenderID
	product.CreatedAt = s.clock.Now()

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *productService) ListProducts(ctx context.Context, search, category string, page, pageSize int32) ([]domain.Product, int32, error) {
	return s.productRepo.List(ctx, strings.TrimSpace(search), strings.TrimSpace(category), page, pageSize)
}

func (s *productService) ListMyProducts(ctx context.Context, lenderID string, page, pageSize int32) ([]domain.Product, int32, error) {
	return s.productRepo.ListByLender(ctx, lenderID, page, pageSize)
}

func (s *productService) DeleteProduct(ctx context.Context, lenderID, productID string) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.LenderID != lenderID {
		return domain.E(domain.KindUnauthorized, "only the product owner can delete it")
	}
	return s.productRepo.Delete(ctx, productID)
}
