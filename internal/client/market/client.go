package market

import (
	"context"
	"sync"

	"github.com/resellai/resell-api/internal/client/api"
)

// Client wraps the listing mutations and remembers which valuations
// have already been promoted, so the action disables itself after the
// first success.
type Client struct {
	api *api.Client

	mu       sync.Mutex
	promoted map[string]bool // image paths already turned into listings
}

func NewClient(apiClient *api.Client) *Client {
	return &Client{
		api:      apiClient,
		promoted: make(map[string]bool),
	}
}

// Fetch returns the current listing set.
func (c *Client) Fetch(ctx context.Context) ([]api.Listing, error) {
	return c.api.Listings(ctx)
}

// Promote turns an accepted valuation into a listing. A second call
// for the same valuation is a local no-op; the server enforces the same
// idempotency should two clients race.
func (c *Client) Promote(ctx context.Context, v api.Valuation) error {
	c.mu.Lock()
	if c.promoted[v.ImagePath] {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.api.SellFromPrediction(ctx, v); err != nil {
		return err
	}

	c.mu.Lock()
	c.promoted[v.ImagePath] = true
	c.mu.Unlock()
	return nil
}

// Promoted reports whether a valuation has already been listed.
func (c *Client) Promoted(v api.Valuation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.promoted[v.ImagePath]
}

// MarkSold transitions the caller's listing to sold.
func (c *Client) MarkSold(ctx context.Context, l api.Listing) error {
	return c.api.MarkSold(ctx, ListingID(l))
}
