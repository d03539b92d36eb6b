package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/resellai/resell-api/internal/domain/credit"
	"github.com/resellai/resell-api/internal/domain/user"
	"github.com/resellai/resell-api/internal/pkg/jwt"
)

type fakeUsers struct {
	byEmail map[string]*user.User
	byID    map[uuid.UUID]*user.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail: make(map[string]*user.User),
		byID:    make(map[uuid.UUID]*user.User),
	}
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	cp := *u
	f.byEmail[u.Email] = &cp
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, user.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type grantRecorder struct {
	balances map[uuid.UUID]int
	grants   []int
}

func (g *grantRecorder) Deduct(_ context.Context, id uuid.UUID, amount int, _ credit.TransactionMeta) error {
	g.balances[id] -= amount
	return nil
}

func (g *grantRecorder) DeductTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, amount int, _ credit.TransactionMeta) error {
	g.balances[id] -= amount
	return nil
}

func (g *grantRecorder) Add(_ context.Context, id uuid.UUID, amount int, txType credit.TxType, _ credit.TransactionMeta) error {
	if txType == credit.TxTypeGrant {
		g.grants = append(g.grants, amount)
	}
	g.balances[id] += amount
	return nil
}

func (g *grantRecorder) AddTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, amount int, _ credit.TxType, _ credit.TransactionMeta) error {
	g.balances[id] += amount
	return nil
}

func (g *grantRecorder) GetBalance(_ context.Context, id uuid.UUID) (int, error) {
	return g.balances[id], nil
}

func (g *grantRecorder) ListTransactions(_ context.Context, _ uuid.UUID, _, _ int) ([]credit.Transaction, error) {
	return nil, nil
}

func newTestService() (Service, *fakeUsers, *grantRecorder) {
	users := newFakeUsers()
	credits := &grantRecorder{balances: make(map[uuid.UUID]int)}
	jwtService := jwt.NewService("test-secret", time.Hour)
	svc := NewService(users, credits, jwtService, nil, 5)
	return svc, users, credits
}

func TestRegister_GrantsStarterCredits(t *testing.T) {
	svc, users, credits := newTestService()

	token, err := svc.Register(context.Background(), RegisterRequest{
		Username: "asel",
		Email:    "Asel@Example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Errorf("unexpected token response %+v", token)
	}

	u, ok := users.byEmail["asel@example.com"]
	if !ok {
		t.Fatal("email not normalized to lowercase")
	}
	if len(credits.grants) != 1 || credits.grants[0] != 5 {
		t.Errorf("grants = %v, want one grant of 5", credits.grants)
	}
	if credits.balances[u.ID] != 5 {
		t.Errorf("balance = %d, want 5", credits.balances[u.ID])
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	req := RegisterRequest{Username: "asel", Email: "a@b.c", Password: "correct-horse"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	req.Username = "other"
	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Username: "asel", Email: "a@b.c", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "correct-horse"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@b.c", Password: "correct-horse"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestMe_BalanceComesFromLedger(t *testing.T) {
	svc, users, credits := newTestService()

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Username: "asel", Email: "a@b.c", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	u := users.byEmail["a@b.c"]

	// Simulate a purchase landing after the user row was cached.
	credits.balances[u.ID] = 25

	me, err := svc.Me(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Credits != 25 {
		t.Errorf("credits = %d, want 25", me.Credits)
	}
	if me.ID != u.ID.String() {
		t.Errorf("id = %q, want %q", me.ID, u.ID.String())
	}
}
