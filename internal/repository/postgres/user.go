package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	method, err := marshalOptional(u.PaymentMethod)
	if err != nil {
		return err
	}
	query := `INSERT INTO users (id, name, email, password_hash, role, payment_method, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, method, u.CreatedAt)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getByColumn(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getByColumn(ctx, "email", email)
}

func (r *userRepository) getByColumn(ctx context.Context, column, value string) (*domain.User, error) {
	u := &domain.User{}
	var method []byte
	query := `SELECT id, name, email, password_hash, role, payment_method, created_at FROM users WHERE ` + column + ` = $1`
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &method, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.E(domain.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	if len(method) > 0 {
		if err := json.Unmarshal(method, &u.PaymentMethod); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (r *userRepository) UpdatePaymentMethod(ctx context.Context, userID string, method *domain.PaymentMethod) error {
	data, err := marshalOptional(method)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET payment_method = $1 WHERE id = $2`, data, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.E(domain.KindNotFound, "user not found")
	}
	return nil
}
