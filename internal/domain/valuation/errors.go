package valuation

import "errors"

var (
	ErrNoCredits    = errors.New("no credits left")
	ErrNotFound     = errors.New("valuation not found")
	ErrNotOwner     = errors.New("valuation belongs to another user")
	ErrInvalidPhoto = errors.New("invalid photo")
)
