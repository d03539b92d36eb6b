package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository provides credit ledger and balance operations.
type Repository interface {
	Deduct(ctx context.Context, userID string, amount int, meta TxMeta) error
	DeductTx(ctx context.Context, tx *sqlx.Tx, userID string, amount int, meta TxMeta) error
	Add(ctx context.Context, userID string, amount int, txType string, meta TxMeta) error
	AddTx(ctx context.Context, tx *sqlx.Tx, userID string, amount int, txType string, meta TxMeta) error
	GetBalance(ctx context.Context, userID string) (int, error)
	ListTransactions(ctx context.Context, userID string, pagination Pagination) ([]Transaction, error)
}

type creditRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &creditRepository{db: db}
}

// Deduct removes credits inside its own transaction. The guarded UPDATE
// keeps the balance from ever going negative under concurrency.
func (r *creditRepository) Deduct(ctx context.Context, userID string, amount int, meta TxMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx2, `
		UPDATE users
		SET credit_balance = credit_balance - $2, updated_at = NOW()
		WHERE id = $1 AND credit_balance >= $2
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("%w: update user balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrInsufficientCredits
	}

	if err := insertLedger(ctx2, tx, userID, -amount, string(TxTypeDeduction), meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// DeductTx deducts credits within an external transaction using a FOR UPDATE
// row lock. The caller commits or rolls back.
func (r *creditRepository) DeductTx(ctx context.Context, tx *sqlx.Tx, userID string, amount int, meta TxMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var balance int
	err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: lock user row", ErrInternal)
	}

	if balance < amount {
		return ErrInsufficientCredits
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET credit_balance = credit_balance - $2, updated_at = NOW() WHERE id = $1`, userID, amount)
	if err != nil {
		return fmt.Errorf("%w: update user balance", ErrInternal)
	}

	return insertLedger(ctx, tx, userID, -amount, string(TxTypeDeduction), meta)
}

func (r *creditRepository) Add(ctx context.Context, userID string, amount int, txType string, meta TxMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := r.addTx(ctx2, tx, userID, amount, txType, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// AddTx adds credits within an external transaction. The caller commits.
func (r *creditRepository) AddTx(ctx context.Context, tx *sqlx.Tx, userID string, amount int, txType string, meta TxMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return r.addTx(ctx, tx, userID, amount, txType, meta)
}

func (r *creditRepository) addTx(ctx context.Context, tx *sqlx.Tx, userID string, amount int, txType string, meta TxMeta) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE users
		SET credit_balance = credit_balance + $2, updated_at = NOW()
		WHERE id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("%w: update user balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return insertLedger(ctx, tx, userID, amount, txType, meta)
}

func (r *creditRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int
	err := r.db.GetContext(ctx2, &balance, `SELECT credit_balance FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}

	return balance, nil
}

func (r *creditRepository) ListTransactions(ctx context.Context, userID string, pagination Pagination) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, amount_delta, tx_type, related_entity_type, related_entity_id, description, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	return transactions, nil
}

func insertLedger(ctx context.Context, tx *sqlx.Tx, userID string, amountDelta int, txType string, meta TxMeta) error {
	txType = strings.TrimSpace(txType)

	switch TxType(txType) {
	case TxTypeDeduction, TxTypePurchase, TxTypeRefund, TxTypeGrant:
	default:
		return ErrInternal
	}

	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = "credit balance adjustment"
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (
			id, user_id, amount_delta, tx_type, related_entity_type, related_entity_id, description
		)
		VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5, $6
		)
	`, userID, amountDelta, txType, meta.RelatedEntityType, meta.RelatedEntityID, meta.Description)
	if err != nil {
		return fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	return nil
}
