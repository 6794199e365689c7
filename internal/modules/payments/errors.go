package payments

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCallback = errors.New("invalid callback")
	ErrAmountMismatch  = errors.New("callback amount does not match transaction")
	ErrUnknownResult   = errors.New("unknown gateway result code")
)

// GatewayError is any failed gateway exchange: transport error, timeout, non-2xx
// or a statusCode other than "00". Message is the gateway's own text when it sent one.
type GatewayError struct {
	StatusCode string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.StatusCode != "":
		return fmt.Sprintf("gateway: status %s: %s", e.StatusCode, msg)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("gateway: http %d: %s", e.HTTPStatus, msg)
	default:
		return "gateway: " + msg
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsRejection reports whether the gateway answered and refused, as opposed to a
// transport failure where the outcome is unknown.
func (e *GatewayError) IsRejection() bool {
	return e.Err == nil && (e.StatusCode != "" || (e.HTTPStatus >= 400 && e.HTTPStatus < 500))
}
