package postgres

import (
	"database/sql"

	"peerrent-backend/internal/clock"
	"peerrent-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ProductRepository
	repository.RentalRepository
}

func NewStore(db *sql.DB, clk clock.Clock) *Store {
	return &Store{
		db:                db,
		UserRepository:    NewUserRepository(db),
		ProductRepository: NewProductRepository(db),
		RentalRepository:  NewRentalRepository(db, clk),
	}
}
