// Package api is the typed backend client. Every method maps to one
// endpoint, attaches the session credential, and translates failures
// into the client error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/resellai/resell-api/internal/client/session"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	session *session.Store
	http    *http.Client
}

func NewClient(baseURL string, store *session.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: store,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithHTTP injects an explicit transport (tests).
func NewClientWithHTTP(baseURL string, store *session.Store, httpClient *http.Client) *Client {
	c := NewClient(baseURL, store)
	if httpClient != nil {
		c.http = httpClient
	}
	return c
}

// Session exposes the store the client authenticates from.
func (c *Client) Session() *session.Store { return c.session }

// Register creates an account and stores the issued credential.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", body, &token); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return &MalformedResponseError{Err: fmt.Errorf("registration response missing access_token")}
	}
	c.session.SetToken(token.AccessToken)
	return nil
}

// Login authenticates and stores the issued credential.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &token); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return &MalformedResponseError{Err: fmt.Errorf("login response missing access_token")}
	}
	c.session.SetToken(token.AccessToken)
	return nil
}

// Logout revokes the credential server-side and clears the session
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.session.Clear()
	return err
}

// Me fetches the authoritative profile and caches it in the session.
func (c *Client) Me(ctx context.Context) (*session.Profile, error) {
	var p session.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &p); err != nil {
		return nil, err
	}
	c.session.SetProfile(p)
	return &p, nil
}

// Predict submits a device photo and attributes for valuation.
func (c *Client) Predict(ctx context.Context, device Device, photo io.Reader, filename string) (*Valuation, error) {
	if fields := missingDeviceFields(device); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}

	fields := map[string]string{
		"brand":       device.Brand,
		"ram":         strconv.Itoa(device.RAM),
		"storage":     strconv.Itoa(device.Storage),
		"age":         strconv.Itoa(device.Age),
		"body_broken": strconv.FormatBool(device.BodyBroken),
		"mrp":         strconv.FormatFloat(device.MRP, 'f', 2, 64),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("build multipart form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var v Valuation
	if err := c.do(req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SellFromPrediction promotes an accepted valuation into a listing.
func (c *Client) SellFromPrediction(ctx context.Context, v Valuation) error {
	if !v.Accepted() || v.ResalePrice == nil {
		return &ValidationError{Fields: map[string]string{"status": "only accepted valuations can be listed"}}
	}
	body := map[string]interface{}{
		"brand":        v.Brand,
		"ram":          v.RAM,
		"storage":      v.Storage,
		"age":          v.Age,
		"damage":       v.Damage,
		"resale_price": *v.ResalePrice,
		"image_path":   v.ImagePath,
	}
	return c.doJSON(ctx, http.MethodPost, "/predict/sell-from-prediction", body, nil)
}

// Listings fetches the full marketplace set.
func (c *Client) Listings(ctx context.Context) ([]Listing, error) {
	var listings []Listing
	if err := c.doJSON(ctx, http.MethodGet, "/marketplace", nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// MarkSold transitions the caller's own listing to sold.
func (c *Client) MarkSold(ctx context.Context, listingID string) error {
	return c.doJSON(ctx, http.MethodPost, "/marketplace/mark-sold/"+listingID, nil, nil)
}

// CreateCreditOrder opens a gateway order for a credit pack.
func (c *Client) CreateCreditOrder(ctx context.Context, credits int) (*Checkout, error) {
	var checkout Checkout
	body := map[string]int{"credits": credits}
	if err := c.doJSON(ctx, http.MethodPost, "/payments/create-credit-order", body, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// CreateListingOrder opens a gateway order for a marketplace purchase.
func (c *Client) CreateListingOrder(ctx context.Context, listingID string) (*Checkout, error) {
	var checkout Checkout
	if err := c.doJSON(ctx, http.MethodPost, "/marketplace/buy/create-order/"+listingID, nil, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// VerifyPayment submits a checkout receipt for settlement.
func (c *Client) VerifyPayment(ctx context.Context, receipt Receipt) error {
	return c.doJSON(ctx, http.MethodPost, "/payments/verify", receipt, nil)
}

func missingDeviceFields(d Device) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(d.Brand) == "" {
		fields["brand"] = "This field is required"
	}
	if d.RAM <= 0 {
		fields["ram"] = "This field is required"
	}
	if d.Storage <= 0 {
		fields["storage"] = "This field is required"
	}
	if d.MRP <= 0 {
		fields["mrp"] = "This field is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// do sends the request with the session credential and translates the
// response into the error taxonomy. A 401 clears the session before
// returning, so every caller sees a logged-out state at once.
func (c *Client) do(req *http.Request, out interface{}) error {
	if token, ok := c.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		reason := decodeErrorReason(resp.Body)
		c.session.Clear()
		return &AuthError{Reason: stringifyReason(reason)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{StatusCode: resp.StatusCode, Reason: decodeErrorReason(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Err: err}
	}
	return nil
}

func decodeErrorReason(body io.Reader) interface{} {
	var envelope struct {
		Error interface{} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return nil
	}
	return envelope.Error
}

func stringifyReason(reason interface{}) string {
	if reason == nil {
		return ""
	}
	if s, ok := reason.(string); ok {
		return s
	}
	data, err := json.Marshal(reason)
	if err != nil {
		return fmt.Sprintf("%v", reason)
	}
	return string(data)
}
