package transactions

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrInvalidStatus = errors.New("invalid transaction status")
)

// StoreError wraps every database failure with the operation and order it concerned.
type StoreError struct {
	Op      string
	OrderID string
	Err     error
}

func (e *StoreError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("transactions: %s %s: %v", e.Op, e.OrderID, e.Err)
	}
	return fmt.Sprintf("transactions: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op, orderID string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreError{Op: op, OrderID: orderID, Err: err}
}
