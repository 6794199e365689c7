package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
)

const (
	inquiryPath = "/webapi/api/merchant/v2/inquiry"
	statusPath  = "/webapi/api/merchant/transactionStatus"

	maxResponseBody = 1 << 20
)

type DuitkuClient struct {
	merchantCode string
	apiKey       string
	baseURL      string
	http         *http.Client
}

type DuitkuOption func(*DuitkuClient)

// WithBaseURL overrides the sandbox/production host.
func WithBaseURL(u string) DuitkuOption {
	return func(c *DuitkuClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) DuitkuOption {
	return func(c *DuitkuClient) { c.http = h }
}

func NewDuitkuClient(cfg config.GatewayConfig, opts ...DuitkuOption) *DuitkuClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &DuitkuClient{
		merchantCode: cfg.MerchantCode,
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL(),
		http:         &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *DuitkuClient) Name() string { return "duitku" }

type itemDetail struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type inquiryPayload struct {
	MerchantCode    string       `json:"merchantCode"`
	PaymentAmount   int64        `json:"paymentAmount"`
	PaymentMethod   string       `json:"paymentMethod"`
	MerchantOrderID string       `json:"merchantOrderId"`
	ProductDetails  string       `json:"productDetails"`
	Email           string       `json:"email"`
	PhoneNumber     string       `json:"phoneNumber,omitempty"`
	CustomerVaName  string       `json:"customerVaName"`
	CallbackURL     string       `json:"callbackUrl"`
	ReturnURL       string       `json:"returnUrl"`
	Signature       string       `json:"signature"`
	ExpiryPeriod    int          `json:"expiryPeriod,omitempty"`
	ItemDetails     []itemDetail `json:"itemDetails"`
}

type inquiryResult struct {
	MerchantCode  string `json:"merchantCode"`
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	VANumber      string `json:"vaNumber"`
	QRString      string `json:"qrString"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Message       string `json:"Message"`
}

func (c *DuitkuClient) Inquire(ctx context.Context, req InquiryRequest) (InquiryResponse, error) {
	payload := inquiryPayload{
		MerchantCode:    c.merchantCode,
		PaymentAmount:   req.Amount,
		PaymentMethod:   req.PaymentMethod,
		MerchantOrderID: req.MerchantOrderID,
		ProductDetails:  req.ProductDetails,
		Email:           req.Email,
		PhoneNumber:     req.Phone,
		CustomerVaName:  req.CustomerName,
		CallbackURL:     req.CallbackURL,
		ReturnURL:       req.ReturnURL,
		Signature:       Sign(c.merchantCode, req.MerchantOrderID, req.Amount, c.apiKey),
		ExpiryPeriod:    req.ExpiryMinutes,
		ItemDetails: []itemDetail{{
			Name:     req.ProductDetails,
			Price:    req.Amount,
			Quantity: 1,
		}},
	}

	var res inquiryResult
	if err := c.post(ctx, inquiryPath, payload, &res); err != nil {
		return InquiryResponse{}, err
	}
	if res.StatusCode != CodeSuccess {
		return InquiryResponse{}, &GatewayError{
			StatusCode: res.StatusCode,
			Message:    firstNonEmpty(res.StatusMessage, res.Message, "inquiry rejected"),
			HTTPStatus: http.StatusOK,
		}
	}

	return InquiryResponse{
		Reference:     res.Reference,
		VANumber:      res.VANumber,
		QRString:      res.QRString,
		PaymentURL:    res.PaymentURL,
		StatusCode:    res.StatusCode,
		StatusMessage: res.StatusMessage,
	}, nil
}

type statusPayload struct {
	MerchantCode    string `json:"merchantCode"`
	MerchantOrderID string `json:"merchantOrderId"`
	Signature       string `json:"signature"`
}

type statusResult struct {
	MerchantOrderID string `json:"merchantOrderId"`
	Reference       string `json:"reference"`
	Amount          string `json:"amount"`
	StatusCode      string `json:"statusCode"`
	StatusMessage   string `json:"statusMessage"`
	Message         string `json:"Message"`
}

func (c *DuitkuClient) CheckStatus(ctx context.Context, merchantOrderID string) (StatusResponse, error) {
	payload := statusPayload{
		MerchantCode:    c.merchantCode,
		MerchantOrderID: merchantOrderID,
		Signature:       StatusSignature(c.merchantCode, merchantOrderID, c.apiKey),
	}

	var res statusResult
	if err := c.post(ctx, statusPath, payload, &res); err != nil {
		return StatusResponse{}, err
	}
	switch res.StatusCode {
	case CodeSuccess, CodePending, CodeFailed:
	default:
		return StatusResponse{}, &GatewayError{
			StatusCode: res.StatusCode,
			Message:    firstNonEmpty(res.StatusMessage, res.Message, "unexpected status response"),
			HTTPStatus: http.StatusOK,
		}
	}

	return StatusResponse{
		MerchantOrderID: firstNonEmpty(res.MerchantOrderID, merchantOrderID),
		Reference:       res.Reference,
		Amount:          res.Amount,
		StatusCode:      res.StatusCode,
		StatusMessage:   res.StatusMessage,
	}, nil
}

// post sends body as JSON and decodes a 2xx answer into out. Everything else
// becomes a *GatewayError carrying whatever message the gateway returned.
func (c *DuitkuClient) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return &GatewayError{Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return &GatewayError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &GatewayError{Message: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &GatewayError{HTTPStatus: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			StatusCode    string `json:"statusCode"`
			StatusMessage string `json:"statusMessage"`
			Message       string `json:"Message"`
		}
		_ = json.Unmarshal(raw, &e)
		return &GatewayError{
			StatusCode: e.StatusCode,
			HTTPStatus: resp.StatusCode,
			Message:    firstNonEmpty(e.StatusMessage, e.Message, strings.TrimSpace(string(raw)), http.StatusText(resp.StatusCode)),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{HTTPStatus: resp.StatusCode, Message: "malformed gateway response", Err: err}
	}
	return nil
}

// VerifyAndParseCallback accepts the form-encoded callback body.
func (c *DuitkuClient) VerifyAndParseCallback(_ http.Header, body []byte) (CallbackEvent, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return CallbackEvent{}, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}

	get := func(k string) string { return strings.TrimSpace(form.Get(k)) }
	merchantCode := get("merchantCode")
	rawAmount := get("amount")
	orderID := get("merchantOrderId")
	resultCode := get("resultCode")
	signature := get("signature")

	if merchantCode == "" || rawAmount == "" || orderID == "" || resultCode == "" || signature == "" {
		return CallbackEvent{}, fmt.Errorf("%w: missing required field", ErrInvalidCallback)
	}
	if merchantCode != c.merchantCode {
		return CallbackEvent{}, fmt.Errorf("%w: merchant code mismatch", ErrInvalidCallback)
	}
	if !signaturesEqual(CallbackSignature(merchantCode, rawAmount, orderID, c.apiKey), signature) {
		return CallbackEvent{}, fmt.Errorf("%w: bad signature", ErrInvalidCallback)
	}

	amount, err := parseAmount(rawAmount)
	if err != nil {
		return CallbackEvent{}, fmt.Errorf("%w: amount %q", ErrInvalidCallback, rawAmount)
	}

	fields := make(map[string]string, len(form))
	for k := range form {
		if k == "signature" {
			continue
		}
		fields[k] = form.Get(k)
	}

	return CallbackEvent{
		MerchantCode:    merchantCode,
		MerchantOrderID: orderID,
		Amount:          amount,
		PaymentCode:     get("paymentCode"),
		ResultCode:      resultCode,
		Reference:       get("reference"),
		Fields:          fields,
	}, nil
}

// parseAmount accepts "150000" and "150000.00".
func parseAmount(s string) (int64, error) {
	if whole, frac, ok := strings.Cut(s, "."); ok {
		if strings.Trim(frac, "0") != "" {
			return 0, fmt.Errorf("fractional amount %q", s)
		}
		s = whole
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
