package valuation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/domain/credit"
	"github.com/resellai/resell-api/internal/pkg/imaging"
	"github.com/resellai/resell-api/internal/pkg/scorer"
	"github.com/resellai/resell-api/internal/pkg/storage"
)

const scanCost = 1

type Service interface {
	Predict(ctx context.Context, userID uuid.UUID, req PredictRequest, photo io.Reader) (*PredictResponse, error)
	GetByImagePath(ctx context.Context, imagePath string) (*Valuation, error)
}

type service struct {
	db      *sqlx.DB
	repo    Repository
	credits credit.Service
	scorer  scorer.Scorer
	storage storage.Storage
	photos  *imaging.Processor
}

func NewService(db *sqlx.DB, credits credit.Service, sc scorer.Scorer, store storage.Storage) Service {
	return &service{
		db:      db,
		repo:    NewRepository(db),
		credits: credits,
		scorer:  sc,
		storage: store,
		photos:  imaging.NewProcessor(),
	}
}

// NewServiceWithDeps wires explicit collaborators (tests).
func NewServiceWithDeps(db *sqlx.DB, repo Repository, credits credit.Service, sc scorer.Scorer, store storage.Storage) Service {
	return &service{
		db:      db,
		repo:    repo,
		credits: credits,
		scorer:  sc,
		storage: store,
		photos:  imaging.NewProcessor(),
	}
}

// Predict runs one scan. The balance is checked up front so a user with
// zero credits fails before any model work; the actual debit happens in
// the same database transaction as the valuation insert, so a rejected
// verdict or a failed insert never costs a credit.
func (s *service) Predict(ctx context.Context, userID uuid.UUID, req PredictRequest, photo io.Reader) (*PredictResponse, error) {
	balance, err := s.credits.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	if balance < scanCost {
		return nil, ErrNoCredits
	}

	processed, err := s.photos.Process(photo)
	if err != nil {
		return nil, ErrInvalidPhoto
	}

	verdict, err := s.scorer.Score(ctx, scorer.Input{
		Photo:      processed.ModelInput,
		Brand:      req.Brand,
		RAM:        req.RAM,
		Storage:    req.Storage,
		AgeYears:   req.Age,
		BodyBroken: req.BodyBroken,
	})
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	resp := &PredictResponse{
		Brand:   req.Brand,
		RAM:     req.RAM,
		Storage: req.Storage,
		Age:     req.Age,
	}

	if !verdict.Detected {
		resp.Status = StatusRejected
		resp.Message = "No phone detected in the photo. Please retake it and try again."
		return resp, nil
	}

	price := ResalePrice(req.MRP, verdict.Damage, verdict.CNNScore, verdict.MLScore)

	id := uuid.New()
	imagePath := fmt.Sprintf("valuations/%s.jpg", id)
	if err := s.storage.Save(ctx, imagePath, bytes.NewReader(processed.Original), processed.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	v := &Valuation{
		ID:          id,
		UserID:      userID,
		Brand:       req.Brand,
		RAM:         req.RAM,
		Storage:     req.Storage,
		AgeYears:    req.Age,
		BodyBroken:  req.BodyBroken,
		Damage:      verdict.Damage,
		MRP:         req.MRP,
		ResalePrice: price,
		CNNScore:    verdict.CNNScore,
		MLScore:     verdict.MLScore,
		ImagePath:   imagePath,
	}

	if err := s.persistAccepted(ctx, v); err != nil {
		if delErr := s.storage.Delete(ctx, imagePath); delErr != nil {
			log.Warn().Err(delErr).Str("image_path", imagePath).Msg("failed to clean up photo after aborted valuation")
		}
		return nil, err
	}

	resp.Status = StatusAccepted
	resp.ResalePrice = &v.ResalePrice
	resp.MLScore = &v.MLScore
	resp.CNNScore = &v.CNNScore
	resp.Damage = v.Damage
	resp.ImagePath = imagePath
	return resp, nil
}

// persistAccepted debits one credit and records the valuation atomically.
func (s *service) persistAccepted(ctx context.Context, v *Valuation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	meta := credit.TransactionMeta{
		RelatedEntityType: "valuation",
		RelatedEntityID:   v.ID,
		Description:       "AI phone scan",
	}
	if err := s.credits.DeductTx(ctx, tx, v.UserID, scanCost, meta); err != nil {
		if errors.Is(err, credit.ErrInsufficientCredits) {
			return ErrNoCredits
		}
		return err
	}

	if err := s.repo.CreateTx(ctx, tx, v); err != nil {
		return fmt.Errorf("failed to record valuation: %w", err)
	}

	return tx.Commit()
}

func (s *service) GetByImagePath(ctx context.Context, imagePath string) (*Valuation, error) {
	return s.repo.GetByImagePath(ctx, imagePath)
}
