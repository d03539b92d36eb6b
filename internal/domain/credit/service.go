package credit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TransactionMeta links a ledger row to the entity that caused it.
type TransactionMeta struct {
	RelatedEntityType string
	RelatedEntityID   uuid.UUID
	Description       string
}

// Service exposes credit operations to other domains.
type Service interface {
	Deduct(ctx context.Context, userID uuid.UUID, amount int, meta TransactionMeta) error
	DeductTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int, meta TransactionMeta) error
	Add(ctx context.Context, userID uuid.UUID, amount int, txType TxType, meta TransactionMeta) error
	AddTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int, txType TxType, meta TransactionMeta) error
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)
}

type service struct {
	repo Repository
}

// NewService creates a new credit service
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

// NewServiceWithRepository creates a credit service over an explicit repository (tests)
func NewServiceWithRepository(repo Repository) Service {
	return &service{repo: repo}
}

// Deduct atomically deducts credits from a user
func (s *service) Deduct(ctx context.Context, userID uuid.UUID, amount int, meta TransactionMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.Deduct(ctx, userID.String(), amount, toTxMeta(meta))
}

// DeductTx deducts credits within an external transaction (FOR UPDATE row lock).
// Used when the deduction must be atomic with another write, e.g. recording a valuation.
func (s *service) DeductTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int, meta TransactionMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.DeductTx(ctx, tx, userID.String(), amount, toTxMeta(meta))
}

// Add atomically adds credits to a user
func (s *service) Add(ctx context.Context, userID uuid.UUID, amount int, txType TxType, meta TransactionMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.Add(ctx, userID.String(), amount, string(txType), toTxMeta(meta))
}

// AddTx adds credits within an external transaction, e.g. atomic with an
// order's completion transition.
func (s *service) AddTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int, txType TxType, meta TransactionMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.AddTx(ctx, tx, userID.String(), amount, string(txType), toTxMeta(meta))
}

// GetBalance returns the current credit balance for a user
func (s *service) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.GetBalance(ctx, userID.String())
}

// ListTransactions returns paginated transaction history for a user
func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListTransactions(ctx, userID.String(), Pagination{Limit: limit, Offset: offset})
}

func toTxMeta(meta TransactionMeta) TxMeta {
	txMeta := TxMeta{Description: meta.Description}

	if meta.RelatedEntityType != "" {
		txMeta.RelatedEntityType = &meta.RelatedEntityType
	}
	if meta.RelatedEntityID != uuid.Nil {
		entityIDStr := meta.RelatedEntityID.String()
		txMeta.RelatedEntityID = &entityIDStr
	}

	return txMeta
}
