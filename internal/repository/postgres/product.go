package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/repository"
)

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (id, lender_id, name, description, category, price_per_day_cents, security_deposit_cents, cooldown_hours, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.LenderID, p.Name, p.Description, p.Category,
		p.PricePerDayCents, p.SecurityDepositCents, p.CooldownHours, p.CreatedAt)
	return err
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}
	query := `SELECT id, lender_id, name, description, category, price_per_day_cents, security_deposit_cents, cooldown_hours, created_at
	          FROM products WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.LenderID, &p.Name, &p.Description, &p.Category,
		&p.PricePerDayCents, &p.SecurityDepositCents, &p.CooldownHours, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.E(domain.KindNotFound, "product %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) ListByLender(ctx context.Context, lenderID string, page, pageSize int32) ([]domain.Product, int32, error) {
	offset := (page - 1) * pageSize

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM products WHERE lender_id = $1`, lenderID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, lender_id, name, description, category, price_per_day_cents, security_deposit_cents, cooldown_hours, created_at
	          FROM products WHERE lender_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, lenderID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.LenderID, &p.Name, &p.Description, &p.Category,
			&p.PricePerDayCents, &p.SecurityDepositCents, &p.CooldownHours, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, count, rows.Err()
}

// List returns the catalog page matching the optional search and category
// filters. Search matches the product name case-insensitively.
func (r *productRepository) List(ctx context.Context, search, category string, page, pageSize int32) ([]domain.Product, int32, error) {
	offset := (page - 1) * pageSize

	where := ""
	var args []interface{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if category != "" {
		args = append(args, category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var count int32
	countQuery := `SELECT count(*) FROM products WHERE 1=1` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, lender_id, name, description, category, price_per_day_cents, security_deposit_cents, cooldown_hours, created_at
	          FROM products WHERE 1=1` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.LenderID, &p.Name, &p.Description, &p.Category,
			&p.PricePerDayCents, &p.SecurityDepositCents, &p.CooldownHours, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, count, rows.Err()
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.E(domain.KindNotFound, "product %s not found", id)
	}
	return nil
}
