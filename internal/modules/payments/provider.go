package payments

import (
	"context"
	"net/http"
)

// Gateway status codes shared by inquiry, status query and callback.
const (
	CodeSuccess = "00"
	CodePending = "01"
	CodeFailed  = "02"
)

type InquiryRequest struct {
	MerchantOrderID string
	Amount          int64
	PaymentMethod   string
	ProductDetails  string
	CustomerName    string
	Email           string
	Phone           string
	CallbackURL     string
	ReturnURL       string
	ExpiryMinutes   int
}

type InquiryResponse struct {
	Reference     string
	VANumber      string
	QRString      string
	PaymentURL    string
	StatusCode    string
	StatusMessage string
}

type StatusResponse struct {
	MerchantOrderID string
	Reference       string
	Amount          string
	StatusCode      string // 00 paid, 01 pending, 02 failed or cancelled
	StatusMessage   string
}

type CallbackEvent struct {
	MerchantCode    string
	MerchantOrderID string
	Amount          int64
	PaymentCode     string
	ResultCode      string // 00 success, 01 failed
	Reference       string
	Fields          map[string]string
}

// EventID identifies one delivery for dedupe. The gateway retries the same
// callback until it gets a 200.
func (e CallbackEvent) EventID() string {
	return e.MerchantOrderID + ":" + e.ResultCode + ":" + e.Reference
}

type Gateway interface {
	Name() string
	Inquire(ctx context.Context, req InquiryRequest) (InquiryResponse, error)
	CheckStatus(ctx context.Context, merchantOrderID string) (StatusResponse, error)

	// VerifyAndParseCallback checks merchant code and signature, then parses the form body.
	VerifyAndParseCallback(headers http.Header, body []byte) (CallbackEvent, error)
}
