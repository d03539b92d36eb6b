package valuation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, v *Valuation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Valuation, error)
	GetByImagePath(ctx context.Context, imagePath string) (*Valuation, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateTx inserts inside the caller's transaction so the credit debit
// and the valuation row commit or roll back together.
func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, v *Valuation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO valuations (
			id, user_id, brand, ram, storage, age_years, body_broken,
			damage, mrp, resale_price, cnn_score, ml_score, image_path, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())`

	_, err := tx.ExecContext(ctx, query,
		v.ID, v.UserID, v.Brand, v.RAM, v.Storage, v.AgeYears, v.BodyBroken,
		v.Damage, v.MRP, v.ResalePrice, v.CNNScore, v.MLScore, v.ImagePath,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Valuation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var v Valuation
	err := r.db.GetContext(ctx, &v, `SELECT * FROM valuations WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) GetByImagePath(ctx context.Context, imagePath string) (*Valuation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var v Valuation
	err := r.db.GetContext(ctx, &v, `SELECT * FROM valuations WHERE image_path = $1`, imagePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
