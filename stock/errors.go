package stock

import "errors"

// Business errors surfaced by the mutation operations. Handlers map these to
// response codes; anything else is a storage failure.
var (
	// ErrNotFound means the referenced inbound/claim record does not exist.
	ErrNotFound = errors.New("stock: record not found")
	// ErrAlreadyConfirmed means a concurrent confirm won the race at the
	// conditional update. An inbound observed as confirmed before acting
	// returns idempotent success instead.
	ErrAlreadyConfirmed = errors.New("stock: inbound already confirmed")
	// ErrBadStatus means the operation is not valid for the record's
	// current status.
	ErrBadStatus = errors.New("stock: operation invalid for current status")
	// ErrLineMissing means no ledger line exists for the (ship, item) pair.
	ErrLineMissing = errors.New("stock: item not in stock")
	// ErrInsufficientStock means the ledger quantity is smaller than the
	// claimed quantity.
	ErrInsufficientStock = errors.New("stock: insufficient quantity")
	// ErrUnderflow means cancelling the inbound would drive the ledger
	// negative because intervening claims consumed its stock.
	ErrUnderflow = errors.New("stock: cancellation would underflow inventory")
	// ErrBadQuantity means a non-positive quantity was supplied.
	ErrBadQuantity = errors.New("stock: quantity must be positive")
)
