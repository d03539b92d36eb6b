package listing

import "errors"

var (
	ErrNotFound    = errors.New("listing not found")
	ErrNotSeller   = errors.New("not your listing")
	ErrAlreadySold = errors.New("already sold")
	ErrOwnListing  = errors.New("you cannot buy your own phone")
	ErrDuplicate   = errors.New("valuation already listed")
)
