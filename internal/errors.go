package internal

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrderID  = errors.New("order id already exists")
	ErrInvalidTransition = errors.New("order status does not allow this transition")

	ErrInvalidOrderData = errors.New("invalid order data")

	ErrVendorUnavailable = errors.New("vendor automation temporarily unavailable")
)
