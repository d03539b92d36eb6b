package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/resellai/resell-api/internal/client/api"
	"github.com/resellai/resell-api/internal/client/session"
)

// fakeBackend scripts the order and verification endpoints.
type fakeBackend struct {
	mu           sync.Mutex
	createCalls  int
	verifyCalls  int
	meCalls      int
	verified     map[string]bool
	credits      int
	failCreate   *int        // status to fail order creation with
	createReason interface{} // body of the {error} envelope on failure
	failVerify   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{verified: make(map[string]bool), credits: 5}
}

func (b *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	orderHandler := func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.createCalls++
		if b.failCreate != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(*b.failCreate)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": b.createReason})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"key": "rzp_test_key", "amount": 9000, "currency": "INR", "order_id": "order_fake_1",
		})
	}
	mux.HandleFunc("/payments/create-credit-order", orderHandler)
	mux.HandleFunc("/marketplace/buy/create-order/", orderHandler)

	mux.HandleFunc("/payments/verify", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.verifyCalls++

		var receipt api.Receipt
		json.NewDecoder(r.Body).Decode(&receipt)

		if b.failVerify {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Payment verification failed"})
			return
		}
		if b.verified[receipt.OrderID] {
			json.NewEncoder(w).Encode(map[string]string{"message": "Payment already verified"})
			return
		}
		b.verified[receipt.OrderID] = true
		b.credits += 10
		json.NewEncoder(w).Encode(map[string]string{"message": "Payment verified"})
	})

	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.meCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"_id": "buyer-1", "username": "buyer", "email": "b@x.y", "credits": b.credits,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// scriptedCheckout completes or dismisses immediately from another
// goroutine, the way a real widget calls back.
type scriptedCheckout struct {
	dismiss bool
	opened  atomic.Int32
	gate    chan struct{} // when set, the callback waits for a release
}

func (c *scriptedCheckout) Open(_ context.Context, params CheckoutParams) {
	c.opened.Add(1)
	go func() {
		if c.gate != nil {
			<-c.gate
		}
		if c.dismiss {
			params.OnDismiss()
			return
		}
		params.OnSuccess(api.Receipt{
			OrderID:   params.OrderID,
			PaymentID: "pay_fake_1",
			Signature: "sig_fake",
		})
	}()
}

func newOrchestrator(t *testing.T, backend *fakeBackend, checkout Checkout) (*Orchestrator, *session.Store) {
	t.Helper()
	store := session.NewStore()
	store.SetToken("token")
	store.SetProfile(session.Profile{ID: "buyer-1", Credits: 5})
	apiClient := api.NewClient(backend.server(t).URL, store)
	return NewOrchestrator(apiClient, checkout), store
}

func collectStates(o *Orchestrator) *[]State {
	states := &[]State{}
	var mu sync.Mutex
	o.OnStateChange = func(_ Target, s State) {
		mu.Lock()
		*states = append(*states, s)
		mu.Unlock()
	}
	return states
}

func TestPurchaseCredits_HappyPath(t *testing.T) {
	backend := newFakeBackend()
	o, _ := newOrchestrator(t, backend, &scriptedCheckout{})
	states := collectStates(o)

	var refreshed int
	o.OnBalanceRefreshed = func(credits int) { refreshed = credits }

	flow, err := o.PurchaseCredits(context.Background(), 10)
	if err != nil {
		t.Fatalf("PurchaseCredits: %v", err)
	}
	if flow.State != StateVerified {
		t.Errorf("state = %q, want verified", flow.State)
	}

	want := []State{StateOrderRequested, StateOrderCreated, StateCheckoutOpen, StateReceiptSubmitted, StateVerified}
	if len(*states) != len(want) {
		t.Fatalf("states = %v, want %v", *states, want)
	}
	for i, s := range want {
		if (*states)[i] != s {
			t.Fatalf("states = %v, want %v", *states, want)
		}
	}

	if refreshed != 15 {
		t.Errorf("refreshed balance = %d, want 15 (re-fetched, not locally computed)", refreshed)
	}
	if backend.verifyCalls != 1 {
		t.Errorf("verify calls = %d, want 1", backend.verifyCalls)
	}
}

func TestPurchaseCredits_DismissalCancelsWithoutSideEffects(t *testing.T) {
	backend := newFakeBackend()
	o, _ := newOrchestrator(t, backend, &scriptedCheckout{dismiss: true})
	states := collectStates(o)

	flow, err := o.PurchaseCredits(context.Background(), 10)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if flow.State != StateCancelled {
		t.Errorf("state = %q, want cancelled", flow.State)
	}
	if backend.verifyCalls != 0 {
		t.Errorf("verify calls = %d, want 0 after dismissal", backend.verifyCalls)
	}
	last := (*states)[len(*states)-1]
	if last != StateCancelled {
		t.Errorf("last state = %q, want cancelled", last)
	}

	// Dismissal released the in-flight slot: a retry must go through.
	o.checkout = &scriptedCheckout{}
	if _, err := o.PurchaseCredits(context.Background(), 10); err != nil {
		t.Fatalf("retry after dismissal: %v", err)
	}
}

func TestPurchaseListing_SelfPurchaseBlockedBeforeNetwork(t *testing.T) {
	backend := newFakeBackend()
	o, _ := newOrchestrator(t, backend, &scriptedCheckout{})

	own := api.Listing{
		ID:       json.RawMessage(`"listing-1"`),
		SellerID: json.RawMessage(`{"$oid": "buyer-1"}`),
		Status:   "on_sale",
	}

	_, err := o.PurchaseListing(context.Background(), own)
	var ownErr *OwnershipError
	if !errors.As(err, &ownErr) {
		t.Fatalf("expected OwnershipError, got %v", err)
	}
	if backend.createCalls != 0 {
		t.Errorf("create calls = %d, want 0: guard must fire before any network call", backend.createCalls)
	}
}

func TestPurchaseListing_ReentrancyGuard(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	o, _ := newOrchestrator(t, backend, &scriptedCheckout{gate: gate})

	l := api.Listing{
		ID:       json.RawMessage(`"listing-1"`),
		SellerID: json.RawMessage(`"seller-9"`),
		Status:   "on_sale",
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.PurchaseListing(context.Background(), l)
		firstDone <- err
	}()

	// Wait until the first flow is parked in checkout_open.
	for i := 0; ; i++ {
		backend.mu.Lock()
		started := backend.createCalls == 1
		backend.mu.Unlock()
		if started {
			break
		}
		if i > 1000 {
			t.Fatal("first flow never started")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := o.PurchaseListing(context.Background(), l)
	if !errors.Is(err, ErrInFlight) {
		t.Fatalf("second click: expected ErrInFlight, got %v", err)
	}
	if backend.createCalls != 1 {
		t.Errorf("create calls = %d, want 1: second click must not create a second order", backend.createCalls)
	}

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first flow: %v", err)
	}
}

func TestPurchaseCredits_OrderFailureSurfacesStructuredReason(t *testing.T) {
	backend := newFakeBackend()
	status := http.StatusBadRequest
	backend.failCreate = &status
	backend.createReason = map[string]string{"code": "PACK_UNKNOWN", "detail": "Invalid credit pack"}

	o, _ := newOrchestrator(t, backend, &scriptedCheckout{})

	flow, err := o.PurchaseCredits(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if flow.State != StateFailed {
		t.Errorf("state = %q, want failed", flow.State)
	}
	// Structured reasons are stringified, never dropped.
	if flow.Message == "" {
		t.Fatal("failure message empty")
	}
	var decoded map[string]string
	if jsonErr := json.Unmarshal([]byte(flow.Message), &decoded); jsonErr != nil {
		t.Fatalf("message %q is not the stringified reason: %v", flow.Message, jsonErr)
	}
	if decoded["detail"] != "Invalid credit pack" {
		t.Errorf("message = %q, want the server's reason verbatim", flow.Message)
	}
}

func TestPurchaseCredits_VerificationFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failVerify = true
	o, _ := newOrchestrator(t, backend, &scriptedCheckout{})

	var refreshCalled bool
	o.OnBalanceRefreshed = func(int) { refreshCalled = true }

	flow, err := o.PurchaseCredits(context.Background(), 10)
	var verifyErr *VerificationError
	if !errors.As(err, &verifyErr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if flow.State != StateFailed {
		t.Errorf("state = %q, want failed", flow.State)
	}
	if verifyErr.Reason != "Payment verification failed" {
		t.Errorf("reason = %q, want the server's wording", verifyErr.Reason)
	}
	if refreshCalled {
		t.Error("balance must not be treated as changed after a failed verification")
	}
}

func TestPurchaseCredits_ReceiptVerifiedEvenIfCallerCancels(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	o, _ := newOrchestrator(t, backend, &scriptedCheckout{gate: gate})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var flowErr error
	go func() {
		_, flowErr = o.PurchaseCredits(ctx, 10)
		close(done)
	}()

	for i := 0; ; i++ {
		backend.mu.Lock()
		started := backend.createCalls == 1
		backend.mu.Unlock()
		if started {
			break
		}
		if i > 1000 {
			t.Fatal("flow never started")
		}
		time.Sleep(time.Millisecond)
	}

	// Cancel the caller, then let the checkout complete with a receipt.
	cancel()
	close(gate)
	<-done

	if flowErr != nil {
		t.Fatalf("flow error: %v", flowErr)
	}
	if backend.verifyCalls != 1 {
		t.Errorf("verify calls = %d, want 1: a submitted receipt must run to completion", backend.verifyCalls)
	}
}
