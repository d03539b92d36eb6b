package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_id" || pass != "key_secret" {
			t.Errorf("unexpected basic auth: %s/%s", user, pass)
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Amount != 9000 || req.Currency != "INR" || req.PaymentCapture != 1 {
			t.Errorf("unexpected request: %+v", req)
		}

		json.NewEncoder(w).Encode(Order{
			ID:       "order_test123",
			Amount:   req.Amount,
			Currency: req.Currency,
			Status:   "created",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{KeyID: "key_id", KeySecret: "key_secret", BaseURL: srv.URL})

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 9000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "order_test123" {
		t.Fatalf("unexpected order id: %s", order.ID)
	}
	if order.Amount != 9000 {
		t.Fatalf("unexpected amount: %d", order.Amount)
	}
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"amount too small"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: srv.URL})

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected status in error, got: %v", err)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	client := NewClient(Config{KeyID: "k", KeySecret: "s"})
	if _, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 0}); err == nil {
		t.Fatal("expected validation error for zero amount")
	}

	noKey := NewClient(Config{KeySecret: "s"})
	if _, err := noKey.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100}); err == nil {
		t.Fatal("expected config error for missing key id")
	}
}
