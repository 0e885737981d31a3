package order

import "errors"

// Module errors.
var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderPaid      = errors.New("order is already paid")
	ErrTerminalState  = errors.New("order payment is in a terminal state")
	ErrStaleReference = errors.New("update references an inactive provider invoice")
	ErrInvalidItems   = errors.New("order must contain at least one valid item")
)
