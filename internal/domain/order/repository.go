package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*Order, error)
	CompleteTx(ctx context.Context, tx *sqlx.Tx, providerOrderID, paymentID string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO orders (
			id, user_id, purpose, credits, listing_id, amount_paise,
			currency, provider_order_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.UserID, o.Purpose, o.Credits, o.ListingID, o.AmountPaise,
		o.Currency, o.ProviderOrderID, o.Status,
	)
	return err
}

func (r *repository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var o Order
	err := r.db.GetContext(ctx, &o,
		`SELECT * FROM orders WHERE provider_order_id = $1`, providerOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CompleteTx flips the order from pending to completed. The status guard
// in the WHERE clause is what makes verification idempotent: a second
// receipt for the same order matches zero rows.
func (r *repository) CompleteTx(ctx context.Context, tx *sqlx.Tx, providerOrderID, paymentID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, provider_payment_id = $2, updated_at = NOW()
		WHERE provider_order_id = $3 AND status = $4`,
		StatusCompleted, paymentID, providerOrderID, StatusPending)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
