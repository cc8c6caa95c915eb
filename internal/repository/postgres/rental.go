package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"peerrent-backend/internal/clock"
	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/repository"
	"peerrent-backend/internal/utils"
)

type rentalRepository struct {
	db    *sql.DB
	clock clock.Clock
}

func NewRentalRepository(db *sql.DB, clk clock.Clock) repository.RentalRepository {
	return &rentalRepository{db: db, clock: clk}
}

const rentalColumns = `id, product_id, lender_id, renter_id, anticipated_start, anticipated_end, actual_start, actual_end, cooldown_expiry, days, status, rescheduling, cancellation, dispute, payments, created_at, expires_at, confirmation_handled_at, version`

// committedRentalsQuery selects the rentals occupying a product's calendar.
// Pending rentals never appear here, expired or not.
const committedRentalsQuery = `SELECT ` + rentalColumns + ` FROM rentals
	WHERE product_id = $1 AND status IN ('confirmed', 'rescheduling_confirmed', 'ongoing', 'completed')`

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Serialize the overlap check and the insert per product. Concurrent
	// writers for the same product queue here; writers for other products
	// do not block.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rt.ProductID); err != nil {
		return err
	}

	committed, err := queryRentals(ctx, tx, committedRentalsQuery, rt.ProductID)
	if err != nil {
		return err
	}
	if conflict := utils.FindOverlapping(committed, rt.ProductID, rt.Duration.AnticipatedStart, rt.Duration.CooldownExpiry, ""); conflict != nil {
		return domain.E(domain.KindConflict, "product is already rented during this period (rental %s)", conflict.ID)
	}

	payments, rescheduling, cancellation, dispute, err := marshalSubRecords(rt)
	if err != nil {
		return err
	}

	query := `INSERT INTO rentals (` + rentalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err = tx.ExecContext(ctx, query,
		rt.ID, rt.ProductID, rt.LenderID, rt.RenterID,
		rt.Duration.AnticipatedStart, rt.Duration.AnticipatedEnd, rt.Duration.ActualStart, rt.Duration.ActualEnd,
		rt.Duration.CooldownExpiry, rt.Duration.Days, rt.Status,
		rescheduling, cancellation, dispute, payments,
		rt.CreatedAt, rt.ExpiresAt, rt.ConfirmationHandledAt, rt.Version)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.E(domain.KindNotFound, "rental %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental, expectedVersion int32) error {
	res, err := r.updateVersioned(ctx, r.db, rt, expectedVersion)
	if err != nil {
		return err
	}
	return checkVersioned(res, rt.ID)
}

func (r *rentalRepository) UpdateGuarded(ctx context.Context, rt *domain.Rental, expectedVersion int32) error {
	if rt.Rescheduling == nil {
		return fmt.Errorf("guarded update requires a rescheduling sub-record on rental %s", rt.ID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rt.ProductID); err != nil {
		return err
	}

	committed, err := queryRentals(ctx, tx, committedRentalsQuery, rt.ProductID)
	if err != nil {
		return err
	}
	if conflict := utils.FindOverlapping(committed, rt.ProductID, rt.Rescheduling.NewStart, rt.Rescheduling.NewCooldownExpiry, rt.ID); conflict != nil {
		return domain.E(domain.KindConflict, "product is already rented during this period (rental %s)", conflict.ID)
	}

	res, err := r.updateVersioned(ctx, tx, rt, expectedVersion)
	if err != nil {
		return err
	}
	if err := checkVersioned(res, rt.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *rentalRepository) ListCommittedByProduct(ctx context.Context, productID string) ([]domain.Rental, error) {
	return queryRentals(ctx, r.db, committedRentalsQuery, productID)
}

func (r *rentalRepository) FindPendingByRenter(ctx context.Context, renterID string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE renter_id = $1 AND status = 'pending' AND (expires_at IS NULL OR expires_at > $2)
	          LIMIT 1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, renterID, r.clock.Now()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.listByParty(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *rentalRepository) ListByLender(ctx context.Context, lenderID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.listByParty(ctx, "lender_id", lenderID, status, page, pageSize)
}

func (r *rentalRepository) listByParty(ctx context.Context, column, userID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE ` + column + ` = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rentals, err := queryRentals(ctx, r.db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return rentals, count, nil
}

func (r *rentalRepository) DeleteExpiredPending(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rentals WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1`,
		r.clock.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *rentalRepository) MarkLateReturns(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE rentals SET status = 'late_return', version = version + 1
		 WHERE status = 'ongoing' AND anticipated_end < $1
		 RETURNING id`,
		r.clock.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *rentalRepository) updateVersioned(ctx context.Context, ex execer, rt *domain.Rental, expectedVersion int32) (sql.Result, error) {
	payments, rescheduling, cancellation, dispute, err := marshalSubRecords(rt)
	if err != nil {
		return nil, err
	}

	query := `UPDATE rentals SET
	            anticipated_start=$1, anticipated_end=$2, actual_start=$3, actual_end=$4,
	            cooldown_expiry=$5, days=$6, status=$7,
	            rescheduling=$8, cancellation=$9, dispute=$10, payments=$11,
	            expires_at=$12, confirmation_handled_at=$13, version=version+1
	          WHERE id=$14 AND version=$15`
	return ex.ExecContext(ctx, query,
		rt.Duration.AnticipatedStart, rt.Duration.AnticipatedEnd, rt.Duration.ActualStart, rt.Duration.ActualEnd,
		rt.Duration.CooldownExpiry, rt.Duration.Days, rt.Status,
		rescheduling, cancellation, dispute, payments,
		rt.ExpiresAt, rt.ConfirmationHandledAt,
		rt.ID, expectedVersion)
}

func checkVersioned(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.E(domain.KindVersionConflict, "rental %s was modified concurrently", id)
	}
	return nil
}

func marshalSubRecords(rt *domain.Rental) (payments, rescheduling, cancellation, dispute []byte, err error) {
	entries := rt.Payments
	if entries == nil {
		entries = []domain.PaymentEntry{}
	}
	if payments, err = json.Marshal(entries); err != nil {
		return
	}
	if rescheduling, err = marshalOptional(rt.Rescheduling); err != nil {
		return
	}
	if cancellation, err = marshalOptional(rt.Cancellation); err != nil {
		return
	}
	dispute, err = marshalOptional(rt.Dispute)
	return
}

// marshalOptional returns nil (SQL NULL) for an absent sub-record.
func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func queryRentals(ctx context.Context, q queryer, query string, args ...interface{}) ([]domain.Rental, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	var (
		actualStart, actualEnd, expiresAt, confirmationHandledAt sql.NullTime
		rescheduling, cancellation, dispute, payments            []byte
	)
	err := row.Scan(
		&rt.ID, &rt.ProductID, &rt.LenderID, &rt.RenterID,
		&rt.Duration.AnticipatedStart, &rt.Duration.AnticipatedEnd, &actualStart, &actualEnd,
		&rt.Duration.CooldownExpiry, &rt.Duration.Days, &rt.Status,
		&rescheduling, &cancellation, &dispute, &payments,
		&rt.CreatedAt, &expiresAt, &confirmationHandledAt, &rt.Version)
	if err != nil {
		return nil, err
	}

	rt.Duration.ActualStart = nullTimePtr(actualStart)
	rt.Duration.ActualEnd = nullTimePtr(actualEnd)
	rt.ExpiresAt = nullTimePtr(expiresAt)
	rt.ConfirmationHandledAt = nullTimePtr(confirmationHandledAt)

	if err := unmarshalOptional(rescheduling, &rt.Rescheduling); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(cancellation, &rt.Cancellation); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(dispute, &rt.Dispute); err != nil {
		return nil, err
	}
	if len(payments) > 0 {
		if err := json.Unmarshal(payments, &rt.Payments); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func unmarshalOptional[T any](data []byte, dst **T) error {
	if len(data) == 0 {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	*dst = v
	return nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
