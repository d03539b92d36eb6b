package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/resellai/resell-api/internal/domain/credit"
	"github.com/resellai/resell-api/internal/domain/user"
	"github.com/resellai/resell-api/internal/pkg/jwt"
	"github.com/resellai/resell-api/internal/pkg/password"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type service struct {
	users          user.Repository
	credits        credit.Service
	jwt            *jwt.Service
	revoker        *RedisRevoker
	starterCredits int
}

func NewService(users user.Repository, credits credit.Service, jwtService *jwt.Service, revoker *RedisRevoker, starterCredits int) Service {
	return &service{
		users:          users,
		credits:        credits,
		jwt:            jwtService,
		revoker:        revoker,
		starterCredits: starterCredits,
	}
}

// Register creates the account and grants the starter credits through
// the ledger, so the grant shows up in transaction history.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	u := &user.User{
		ID:       uuid.New(),
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			return nil, ErrEmailTaken
		case errors.Is(err, user.ErrUsernameTaken):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.starterCredits > 0 {
		meta := credit.TransactionMeta{
			RelatedEntityType: "user",
			RelatedEntityID:   u.ID,
			Description:       "Welcome credits",
		}
		if err := s.credits.Add(ctx, u.ID, s.starterCredits, credit.TxTypeGrant, meta); err != nil {
			return nil, fmt.Errorf("failed to grant starter credits: %w", err)
		}
	}

	return s.issueToken(u.ID)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(u.ID)
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The balance comes from the credit service rather than the cached
	// user row so a just-verified purchase is always visible.
	balance, err := s.credits.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &MeResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		Credits:  balance,
	}, nil
}

func (s *service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, jti, time.Until(expiresAt))
}

func (s *service) issueToken(userID uuid.UUID) (*TokenResponse, error) {
	token, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}
