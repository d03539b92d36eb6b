package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config holds Razorpay gateway configuration
type Config struct {
	KeyID     string // public key id, also handed to the checkout widget
	KeySecret string // secret for Orders API auth and signature verification
	BaseURL   string // override for tests; defaults to the live API
	Timeout   time.Duration
}

// Client represents a Razorpay Orders API client
type Client struct {
	config Config
	http   *http.Client
}

// CreateOrderRequest represents an order creation request
type CreateOrderRequest struct {
	Amount         int64  `json:"amount"` // paise
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt,omitempty"`
	PaymentCapture int    `json:"payment_capture"`
}

// Order represents a gateway-side order
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// NewClient creates a new Razorpay client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		config: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// KeyID returns the public key id the checkout widget is opened with
func (c *Client) KeyID() string { return c.config.KeyID }

// VerifySignature verifies a receipt signature with the configured secret
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifyCheckoutSignature(orderID, paymentID, signature, c.config.KeySecret)
}

// CreateOrder creates a gateway order for the given amount in paise
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(c.config.KeyID) == "" {
		return nil, fmt.Errorf("razorpay config error: key_id is empty")
	}
	if strings.TrimSpace(c.config.KeySecret) == "" {
		return nil, fmt.Errorf("razorpay config error: key_secret is empty")
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}
	req.PaymentCapture = 1

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay order request error: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/v1/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("razorpay order request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.config.KeyID, c.config.KeySecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay order network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return nil, fmt.Errorf("razorpay order http error: status=%d body=<failed to read body: %v>", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("razorpay order http error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay order response error: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay order response error: missing order id")
	}

	return &order, nil
}
