package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/resellai/resell-api/internal/domain/valuation"
	"github.com/resellai/resell-api/internal/pkg/storage"
)

type Service interface {
	SellFromPrediction(ctx context.Context, userID uuid.UUID, req SellFromPredictionRequest) error
	List(ctx context.Context) ([]ListingResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	MarkSold(ctx context.Context, id, sellerID uuid.UUID) error
	SellToTx(ctx context.Context, tx *sqlx.Tx, id, buyerID uuid.UUID) error
	NotifySold(id uuid.UUID)
}

type service struct {
	repo       Repository
	valuations valuation.Service
	storage    storage.Storage
	feed       *Feed
}

func NewService(db *sqlx.DB, valuations valuation.Service, store storage.Storage, feed *Feed) Service {
	return &service{
		repo:       NewRepository(db),
		valuations: valuations,
		storage:    store,
		feed:       feed,
	}
}

// NewServiceWithRepository wires an explicit repository (tests).
func NewServiceWithRepository(repo Repository, valuations valuation.Service, store storage.Storage, feed *Feed) Service {
	return &service{repo: repo, valuations: valuations, storage: store, feed: feed}
}

// SellFromPrediction turns an accepted scan into an on-sale listing.
// Idempotent per valuation: promoting the same scan twice leaves a
// single listing and reports success both times.
func (s *service) SellFromPrediction(ctx context.Context, userID uuid.UUID, req SellFromPredictionRequest) error {
	v, err := s.valuations.GetByImagePath(ctx, req.ImagePath)
	if err != nil {
		if errors.Is(err, valuation.ErrNotFound) {
			return valuation.ErrNotFound
		}
		return fmt.Errorf("failed to load valuation: %w", err)
	}
	if v.UserID != userID {
		return valuation.ErrNotOwner
	}

	l := &Listing{
		ID:        uuid.New(),
		SellerID:  userID,
		Brand:     v.Brand,
		RAM:       v.RAM,
		Storage:   v.Storage,
		AgeYears:  v.AgeYears,
		Damage:    v.Damage,
		Price:     v.ResalePrice,
		Status:    StatusOnSale,
		ImagePath: v.ImagePath,
	}

	err = s.repo.Create(ctx, l)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	if s.feed != nil {
		s.feed.Broadcast(Event{Type: EventListed, Listing: s.toResponse(*l)})
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]ListingResponse, error) {
	listings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, s.toResponse(l))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) MarkSold(ctx context.Context, id, sellerID uuid.UUID) error {
	if err := s.repo.MarkSold(ctx, id, sellerID); err != nil {
		return err
	}
	s.NotifySold(id)
	return nil
}

func (s *service) SellToTx(ctx context.Context, tx *sqlx.Tx, id, buyerID uuid.UUID) error {
	return s.repo.SellToTx(ctx, tx, id, buyerID)
}

// NotifySold pushes a sold event to feed subscribers. Called by the
// order flow after a purchase commits, and by MarkSold.
func (s *service) NotifySold(id uuid.UUID) {
	if s.feed == nil {
		return
	}
	s.feed.Broadcast(Event{Type: EventSold, Listing: ListingResponse{ID: id.String(), Status: StatusSold}})
}

func (s *service) toResponse(l Listing) ListingResponse {
	imageURL := ""
	if s.storage != nil && l.ImagePath != "" {
		imageURL = s.storage.GetURL(l.ImagePath)
	}
	return ListingResponse{
		ID:        l.ID.String(),
		SellerID:  l.SellerID.String(),
		Brand:     l.Brand,
		RAM:       l.RAM,
		Storage:   l.Storage,
		Age:       l.AgeYears,
		Damage:    l.Damage,
		Price:     l.Price,
		Status:    l.Status,
		ImageURL:  imageURL,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}
}
