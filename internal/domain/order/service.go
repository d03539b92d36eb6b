package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/domain/credit"
	"github.com/resellai/resell-api/internal/domain/listing"
	"github.com/resellai/resell-api/internal/pkg/razorpay"
)

// creditPacks maps a purchasable credit quantity to its price in paise.
var creditPacks = map[int]int64{
	5:  5000,
	10: 9000,
	20: 15000,
}

// paymentKeyTTL bounds how long a processed payment id is remembered in
// Redis. The database status guard remains authoritative after expiry.
const paymentKeyTTL = 24 * time.Hour

// Gateway is the slice of the payment provider the order flow needs.
// Satisfied by *razorpay.Client.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type Service interface {
	CreateCreditOrder(ctx context.Context, userID uuid.UUID, credits int) (*CheckoutResponse, error)
	CreateListingOrder(ctx context.Context, buyerID, listingID uuid.UUID) (*CheckoutResponse, error)
	Verify(ctx context.Context, userID uuid.UUID, receipt VerifyRequest) error
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	gateway  Gateway
	credits  credit.Service
	listings listing.Service
	redis    *redis.Client
}

func NewService(db *sqlx.DB, gateway Gateway, credits credit.Service, listings listing.Service, redisClient *redis.Client) Service {
	return &service{
		db:       db,
		repo:     NewRepository(db),
		gateway:  gateway,
		credits:  credits,
		listings: listings,
		redis:    redisClient,
	}
}

// NewServiceWithRepository wires an explicit repository (tests).
func NewServiceWithRepository(db *sqlx.DB, repo Repository, gateway Gateway, credits credit.Service, listings listing.Service, redisClient *redis.Client) Service {
	return &service{
		db:       db,
		repo:     repo,
		gateway:  gateway,
		credits:  credits,
		listings: listings,
		redis:    redisClient,
	}
}

// CreateCreditOrder opens a gateway order for one of the fixed packs
// and records it pending.
func (s *service) CreateCreditOrder(ctx context.Context, userID uuid.UUID, credits int) (*CheckoutResponse, error) {
	amount, ok := creditPacks[credits]
	if !ok {
		return nil, ErrInvalidPack
	}

	o := &Order{
		ID:       uuid.New(),
		UserID:   userID,
		Purpose:  PurposeCredits,
		Credits:  credits,
		Currency: "INR",
	}
	return s.openOrder(ctx, o, amount)
}

// CreateListingOrder opens a gateway order for a marketplace purchase.
// The self-purchase check runs here as well: the client blocks it up
// front, the server blocks it again before any money moves.
func (s *service) CreateListingOrder(ctx context.Context, buyerID, listingID uuid.UUID) (*CheckoutResponse, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerID == buyerID {
		return nil, listing.ErrOwnListing
	}
	if l.Status != listing.StatusOnSale {
		return nil, listing.ErrAlreadySold
	}

	amount, err := razorpay.ToPaise(l.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid listing price: %w", err)
	}

	o := &Order{
		ID:        uuid.New(),
		UserID:    buyerID,
		Purpose:   PurposeListing,
		ListingID: &listingID,
		Currency:  "INR",
	}
	return s.openOrder(ctx, o, amount)
}

func (s *service) openOrder(ctx context.Context, o *Order, amount int64) (*CheckoutResponse, error) {
	gw, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:   amount,
		Currency: o.Currency,
		Receipt:  o.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	o.AmountPaise = gw.Amount
	o.ProviderOrderID = gw.ID
	o.Status = StatusPending

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	return &CheckoutResponse{
		Key:      s.gateway.KeyID(),
		Amount:   gw.Amount,
		Currency: gw.Currency,
		OrderID:  gw.ID,
	}, nil
}

// Verify settles a receipt. Idempotent by gateway order id: the guarded
// status transition matches at most one receipt, and a Redis barrier on
// the payment id short-circuits replays before the database is touched.
// A receipt for an order that cannot be settled anymore is reported as
// ErrNotPayable, never as already verified.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, receipt VerifyRequest) error {
	o, err := s.repo.GetByProviderOrderID(ctx, receipt.RazorpayOrderID)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		return ErrNotYourOrder
	}
	if o.Status == StatusCompleted {
		return ErrAlreadyProcessed
	}
	if o.Status != StatusPending {
		return ErrNotPayable
	}

	// A bad signature mutates nothing: the buyer can resubmit the same
	// order with the correct receipt.
	if !s.gateway.VerifySignature(receipt.RazorpayOrderID, receipt.RazorpayPaymentID, receipt.RazorpaySignature) {
		return ErrBadSignature
	}

	claimed, err := s.claimPayment(ctx, receipt.RazorpayPaymentID)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrAlreadyProcessed
	}

	if err := s.settle(ctx, o, receipt.RazorpayPaymentID); err != nil {
		s.releasePayment(ctx, receipt.RazorpayPaymentID)
		if errors.Is(err, ErrAlreadyProcessed) {
			return s.resolveSettleConflict(ctx, receipt.RazorpayOrderID)
		}
		return err
	}

	if o.Purpose == PurposeListing && o.ListingID != nil {
		s.listings.NotifySold(*o.ListingID)
	}
	return nil
}

// resolveSettleConflict reclassifies a zero-row status flip. A replay
// that lost a race to another receipt reads back completed; any other
// status means the settlement was rolled back and the order can no
// longer be paid, which must not be acknowledged as verified.
func (s *service) resolveSettleConflict(ctx context.Context, providerOrderID string) error {
	o, err := s.repo.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return err
	}
	if o.Status == StatusCompleted {
		return ErrAlreadyProcessed
	}
	return ErrNotPayable
}

// settle applies the order's effect and the status flip in one
// database transaction.
func (s *service) settle(ctx context.Context, o *Order, paymentID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.repo.CompleteTx(ctx, tx, o.ProviderOrderID, paymentID); err != nil {
		return err
	}

	meta := credit.TransactionMeta{
		RelatedEntityType: "order",
		RelatedEntityID:   o.ID,
	}

	switch o.Purpose {
	case PurposeCredits:
		meta.Description = fmt.Sprintf("Purchased %d scan credits", o.Credits)
		if err := s.credits.AddTx(ctx, tx, o.UserID, o.Credits, credit.TxTypePurchase, meta); err != nil {
			return err
		}
	case PurposeListing:
		if o.ListingID == nil {
			return fmt.Errorf("listing order %s has no listing id", o.ID)
		}
		if err := s.listings.SellToTx(ctx, tx, *o.ListingID, o.UserID); err != nil {
			if errors.Is(err, listing.ErrAlreadySold) {
				return ErrAlreadyProcessed
			}
			return err
		}
	default:
		return fmt.Errorf("unknown order purpose %q", o.Purpose)
	}

	return tx.Commit()
}

// claimPayment sets a once-only marker for the payment id. Without
// Redis the database guard carries idempotency alone.
func (s *service) claimPayment(ctx context.Context, paymentID string) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	ok, err := s.redis.SetNX(ctx, "payment:processed:"+paymentID, 1, paymentKeyTTL).Result()
	if err != nil {
		log.Warn().Err(err).Msg("redis payment barrier unavailable, falling back to database guard")
		return true, nil
	}
	return ok, nil
}

func (s *service) releasePayment(ctx context.Context, paymentID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, "payment:processed:"+paymentID).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to release payment barrier")
	}
}
