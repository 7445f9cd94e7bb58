// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Service errors are sentinel values (or small structs carrying context) so
// handlers can map them to HTTP status codes with errors.Is / errors.As.
var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("resource does not belong to caller")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductUnavailable   = errors.New("product is not available")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrProofNotUploaded     = errors.New("payment proof has not been uploaded")
	ErrOrderNotPayable      = errors.New("order can no longer be paid")
	ErrOrderNotCancelable   = errors.New("order can no longer be cancelled")
	ErrInvalidTransition    = errors.New("order status does not allow this transition")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrUsernameTaken        = errors.New("username is already taken")
)

// InsufficientStockError names the first product that failed the stock guard
// so checkout can surface it to the customer.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// StorageError wraps blob-store and transactional I/O failures.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
