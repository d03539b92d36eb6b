package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/resellai/resell-api/internal/client/api"
	"github.com/resellai/resell-api/internal/client/session"
)

func device() api.Device {
	return api.Device{Brand: "samsung", RAM: 8, Storage: 128, Age: 2, MRP: 30000}
}

func newRequester(t *testing.T, predict http.HandlerFunc, meCredits int, meCalls *int) *Requester {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", predict)
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		*meCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"_id": "u1", "username": "u", "email": "u@x.y", "credits": meCredits,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := session.NewStore()
	store.SetToken("token")
	return NewRequester(api.NewClient(srv.URL, store))
}

func TestRequest_AcceptedRefetchesBalance(t *testing.T) {
	var meCalls int
	r := newRequester(t, func(w http.ResponseWriter, _ *http.Request) {
		price := 12000.0
		json.NewEncoder(w).Encode(api.Valuation{Status: "accepted", ResalePrice: &price})
	}, 4, &meCalls)

	result, err := r.Request(context.Background(), device(), bytes.NewReader([]byte("img")), "p.jpg")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !result.Valuation.Accepted() {
		t.Fatal("expected accepted verdict")
	}
	if meCalls != 1 {
		t.Errorf("balance re-fetches = %d, want 1", meCalls)
	}
	if !result.BalanceKnown || result.Credits != 4 {
		t.Errorf("balance = %d known=%v, want the server's 4", result.Credits, result.BalanceKnown)
	}
}

func TestRequest_RejectedSkipsBalanceFetch(t *testing.T) {
	var meCalls int
	r := newRequester(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(api.Valuation{Status: "rejected", Message: "No phone detected"})
	}, 5, &meCalls)

	result, err := r.Request(context.Background(), device(), bytes.NewReader([]byte("img")), "p.jpg")
	if err != nil {
		t.Fatalf("rejected verdict is a normal result, got error: %v", err)
	}
	if result.Valuation.Accepted() {
		t.Fatal("expected rejected verdict")
	}
	if meCalls != 0 {
		t.Errorf("balance fetched %d times after rejection, want 0", meCalls)
	}
	if result.BalanceKnown {
		t.Error("no balance claim may be made without a re-fetch")
	}
}

func TestRequest_InsufficientCreditsIsServerError(t *testing.T) {
	var meCalls int
	r := newRequester(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "No credits left"})
	}, 0, &meCalls)

	_, err := r.Request(context.Background(), device(), bytes.NewReader([]byte("img")), "p.jpg")
	var serverErr *api.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Message() != "No credits left" {
		t.Errorf("message = %q, want the server's wording", serverErr.Message())
	}
}
