package domain

import "errors"

// Domain errors. Services wrap these into apperrors so handlers can map them
// to HTTP status codes.
var (
	ErrMissingProductID   = errors.New("product has no id")
	ErrMissingPrice       = errors.New("product has no price")
	ErrNegativePrice      = errors.New("product price is negative")
	ErrCorruptCart        = errors.New("corrupt cart snapshot")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrAuthRequired       = errors.New("authentication required")
	ErrUploadFailed       = errors.New("screenshot upload failed")
	ErrOrderFailed        = errors.New("order creation failed")
	ErrSubmissionInFlight = errors.New("checkout submission already in progress")
	ErrInvalidStatus      = errors.New("invalid order status")
)
