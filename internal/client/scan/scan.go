// Package scan drives the valuation flow: submit a device, surface the
// verdict, and re-fetch the balance after an accepted scan instead of
// guessing at a local decrement.
package scan

import (
	"context"
	"io"

	"github.com/resellai/resell-api/internal/client/api"
)

// Result pairs the verdict with the authoritative post-scan balance.
type Result struct {
	Valuation *api.Valuation
	// Credits is the balance re-fetched from the server after the scan.
	// Only meaningful when BalanceKnown is true; the scan itself can
	// succeed while the follow-up profile fetch fails.
	Credits      int
	BalanceKnown bool
}

type Requester struct {
	api *api.Client
}

func NewRequester(apiClient *api.Client) *Requester {
	return &Requester{api: apiClient}
}

// Request submits one scan. The debit happens server-side in the same
// transaction as the scoring call, so the balance here comes from a
// re-fetch, never from client arithmetic. A rejected verdict is a
// normal result, not an error, and costs nothing.
func (r *Requester) Request(ctx context.Context, device api.Device, photo io.Reader, filename string) (*Result, error) {
	v, err := r.api.Predict(ctx, device, photo, filename)
	if err != nil {
		return nil, err
	}

	result := &Result{Valuation: v}
	if !v.Accepted() {
		return result, nil
	}

	profile, err := r.api.Me(ctx)
	if err != nil {
		// The scan stands. Report the verdict with the balance unknown
		// rather than failing the whole request.
		return result, nil
	}
	result.Credits = profile.Credits
	result.BalanceKnown = true
	return result, nil
}
