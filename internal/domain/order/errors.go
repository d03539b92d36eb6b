package order

import "errors"

var (
	ErrInvalidPack      = errors.New("invalid credit pack")
	ErrNotFound         = errors.New("order not found")
	ErrNotYourOrder     = errors.New("order belongs to another user")
	ErrBadSignature     = errors.New("payment signature verification failed")
	ErrAlreadyProcessed = errors.New("payment already processed")
	ErrNotPayable       = errors.New("order can no longer be settled")
	ErrGateway          = errors.New("payment gateway error")
)
