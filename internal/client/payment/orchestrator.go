// Package payment runs the checkout flow end to end: order creation,
// the external checkout step, and receipt verification, with one state
// machine instance per purchase attempt.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/resellai/resell-api/internal/client/api"
	"github.com/resellai/resell-api/internal/client/market"
)

// TargetKind distinguishes what a payment buys.
type TargetKind string

const (
	TargetCredits TargetKind = "credits"
	TargetListing TargetKind = "listing"
)

// Target identifies what one flow is paying for.
type Target struct {
	Kind      TargetKind
	Credits   int
	ListingID string
}

func (t Target) key() string {
	if t.Kind == TargetCredits {
		return fmt.Sprintf("credits:%d", t.Credits)
	}
	return "listing:" + t.ListingID
}

// Flow is the observable outcome of one purchase attempt.
type Flow struct {
	Target  Target
	State   State
	Receipt *api.Receipt
	// Message is the user-facing reason on failure, stringified from
	// whatever shape the server sent.
	Message string
	Err     error
}

// Orchestrator drives payment flows for one authenticated client. At
// most one flow may be in flight per (buyer, target) pair; terminal
// states release the slot.
type Orchestrator struct {
	api      *api.Client
	checkout Checkout

	mu       sync.Mutex
	inflight map[string]bool

	// OnStateChange observes every transition. Optional.
	OnStateChange func(target Target, state State)

	// OnBalanceRefreshed and OnListingsRefreshed fire after a verified
	// payment once authoritative server state has been re-fetched.
	OnBalanceRefreshed  func(credits int)
	OnListingsRefreshed func()
}

func NewOrchestrator(apiClient *api.Client, checkout Checkout) *Orchestrator {
	return &Orchestrator{
		api:      apiClient,
		checkout: checkout,
		inflight: make(map[string]bool),
	}
}

// PurchaseCredits buys a credit pack. Blocks until the flow reaches a
// terminal state, which includes however long the user keeps the
// checkout open.
func (o *Orchestrator) PurchaseCredits(ctx context.Context, credits int) (*Flow, error) {
	target := Target{Kind: TargetCredits, Credits: credits}
	return o.run(ctx, target, func(ctx context.Context) (*api.Checkout, error) {
		return o.api.CreateCreditOrder(ctx, credits)
	})
}

// PurchaseListing buys a marketplace listing. The ownership guard runs
// before any network call: a buyer can never open a checkout against
// their own listing.
func (o *Orchestrator) PurchaseListing(ctx context.Context, l api.Listing) (*Flow, error) {
	listingID := market.ListingID(l)
	target := Target{Kind: TargetListing, ListingID: listingID}

	if market.IsOwner(o.api.Session().UserID(), l) {
		err := &OwnershipError{ListingID: listingID}
		return &Flow{Target: target, State: StateIdle, Err: err}, err
	}

	return o.run(ctx, target, func(ctx context.Context) (*api.Checkout, error) {
		return o.api.CreateListingOrder(ctx, listingID)
	})
}

type checkoutOutcome struct {
	receipt   *api.Receipt
	dismissed bool
}

func (o *Orchestrator) run(ctx context.Context, target Target, createOrder func(context.Context) (*api.Checkout, error)) (*Flow, error) {
	key := o.api.Session().UserID() + "|" + target.key()
	if !o.begin(key) {
		return &Flow{Target: target, State: StateIdle, Err: ErrInFlight}, ErrInFlight
	}
	defer o.end(key)

	flow := &Flow{Target: target, State: StateIdle}

	o.transition(flow, StateOrderRequested)
	checkout, err := createOrder(ctx)
	if err != nil {
		return o.fail(flow, err)
	}

	o.transition(flow, StateOrderCreated)

	// The checkout reports back at most once, whenever the user acts.
	// The buffered channel and Once keep a misbehaving widget that
	// fires both callbacks from wedging the flow.
	outcomes := make(chan checkoutOutcome, 1)
	var once sync.Once
	o.checkout.Open(ctx, CheckoutParams{
		Key:      checkout.Key,
		Amount:   checkout.Amount,
		Currency: checkout.Currency,
		OrderID:  checkout.OrderID,
		OnSuccess: func(r api.Receipt) {
			once.Do(func() { outcomes <- checkoutOutcome{receipt: &r} })
		},
		OnDismiss: func() {
			once.Do(func() { outcomes <- checkoutOutcome{dismissed: true} })
		},
	})

	o.transition(flow, StateCheckoutOpen)

	// No timeout: the flow stays in checkout_open until the user
	// completes or dismisses the external step.
	outcome := <-outcomes
	if outcome.dismissed {
		o.transition(flow, StateCancelled)
		flow.Err = ErrCancelled
		return flow, ErrCancelled
	}

	flow.Receipt = outcome.receipt
	o.transition(flow, StateReceiptSubmitted)

	// Once a receipt exists, verification runs to completion even if
	// the caller's context is cancelled: a submitted receipt must never
	// be silently dropped.
	verifyCtx := context.WithoutCancel(ctx)
	if err := o.api.VerifyPayment(verifyCtx, *outcome.receipt); err != nil {
		return o.fail(flow, o.asVerificationError(err))
	}

	o.refresh(verifyCtx, target)
	o.transition(flow, StateVerified)
	return flow, nil
}

// refresh re-fetches authoritative server state so the caller never
// trusts an optimistic local guess after money moved.
func (o *Orchestrator) refresh(ctx context.Context, target Target) {
	if profile, err := o.api.Me(ctx); err == nil && o.OnBalanceRefreshed != nil {
		o.OnBalanceRefreshed(profile.Credits)
	}
	if target.Kind == TargetListing && o.OnListingsRefreshed != nil {
		o.OnListingsRefreshed()
	}
}

func (o *Orchestrator) fail(flow *Flow, err error) (*Flow, error) {
	flow.Err = err
	flow.Message = displayMessage(err)
	o.transition(flow, StateFailed)
	return flow, err
}

func (o *Orchestrator) asVerificationError(err error) error {
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) {
		return &VerificationError{Reason: serverErr.Message()}
	}
	var verifyErr *VerificationError
	if errors.As(err, &verifyErr) {
		return err
	}
	return err
}

// displayMessage stringifies any failure for the user, preferring the
// server's own wording where one exists.
func displayMessage(err error) string {
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message()
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return "Could not reach the server. Please try again."
	}
	return err.Error()
}

func (o *Orchestrator) transition(flow *Flow, next State) {
	flow.State = next
	if o.OnStateChange != nil {
		o.OnStateChange(flow.Target, next)
	}
}

func (o *Orchestrator) begin(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[key] {
		return false
	}
	o.inflight[key] = true
	return true
}

func (o *Orchestrator) end(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, key)
}
