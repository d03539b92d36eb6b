package listing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const sqlStateUniqueViolation = "23505"

const queryTimeout = 3 * time.Second

type Repository interface {
	Create(ctx context.Context, l *Listing) error
	List(ctx context.Context) ([]Listing, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	GetByImagePath(ctx context.Context, imagePath string) (*Listing, error)
	MarkSold(ctx context.Context, id, sellerID uuid.UUID) error
	SellToTx(ctx context.Context, tx *sqlx.Tx, id, buyerID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create inserts a new on-sale listing. The unique index on image_path
// makes promotion idempotent per valuation: a second promotion of the
// same scan hits the constraint instead of creating a duplicate.
func (r *repository) Create(ctx context.Context, l *Listing) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO listings (
			id, seller_id, brand, ram, storage, age_years, damage,
			price, status, image_path, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.SellerID, l.Brand, l.RAM, l.Storage, l.AgeYears, l.Damage,
		l.Price, l.Status, l.ImagePath,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == sqlStateUniqueViolation && pqErr.Constraint == "listings_image_path_key" {
		return ErrDuplicate
	}
	return err
}

func (r *repository) List(ctx context.Context) ([]Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	listings := []Listing{}
	err := r.db.SelectContext(ctx, &listings,
		`SELECT * FROM listings ORDER BY created_at DESC`)
	return listings, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l Listing
	err := r.db.GetContext(ctx, &l, `SELECT * FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) GetByImagePath(ctx context.Context, imagePath string) (*Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l Listing
	err := r.db.GetContext(ctx, &l, `SELECT * FROM listings WHERE image_path = $1`, imagePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// MarkSold transitions the seller's own listing to sold. The guarded
// UPDATE keeps the check and the write in one statement.
func (r *repository) MarkSold(ctx context.Context, id, sellerID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET status = $1, updated_at = NOW()
		WHERE id = $2 AND seller_id = $3 AND status = $4`,
		StatusSold, id, sellerID, StatusOnSale)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	// Distinguish why nothing changed.
	l, err := r.getForUpdateError(ctx, id)
	if err != nil {
		return err
	}
	if l.SellerID != sellerID {
		return ErrNotSeller
	}
	return ErrAlreadySold
}

func (r *repository) getForUpdateError(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var l Listing
	err := r.db.GetContext(ctx, &l, `SELECT * FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SellToTx records a completed purchase inside the caller's transaction,
// so the status flip commits together with payment verification.
func (r *repository) SellToTx(ctx context.Context, tx *sqlx.Tx, id, buyerID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := tx.ExecContext(ctx, `
		UPDATE listings SET status = $1, buyer_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		StatusSold, buyerID, id, StatusOnSale)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadySold
	}
	return nil
}
