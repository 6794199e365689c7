package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
)

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		MerchantCode: "D0001",
		APIKey:       "secret-key",
		Sandbox:      true,
		Timeout:      2 * time.Second,
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *DuitkuClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewDuitkuClient(testGatewayConfig(), WithBaseURL(srv.URL))
}

func TestDuitkuClient_BaseURL(t *testing.T) {
	c := NewDuitkuClient(testGatewayConfig())
	if c.baseURL != "https://sandbox.duitku.com" {
		t.Errorf("sandbox base = %q", c.baseURL)
	}
	cfg := testGatewayConfig()
	cfg.Sandbox = false
	if c := NewDuitkuClient(cfg); c.baseURL != "https://passport.duitku.com" {
		t.Errorf("production base = %q", c.baseURL)
	}
}

func TestInquire_Success(t *testing.T) {
	var got inquiryPayload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != inquiryPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"merchantCode":  "D0001",
			"reference":     "D0001ABC",
			"paymentUrl":    "https://sandbox.duitku.com/pay/D0001ABC",
			"vaNumber":      "7007014001234567",
			"statusCode":    "00",
			"statusMessage": "SUCCESS",
		})
	})

	res, err := c.Inquire(context.Background(), InquiryRequest{
		MerchantOrderID: "DN123",
		Amount:          150000,
		PaymentMethod:   "BC",
		ProductDetails:  "Donasi Infaq",
		CustomerName:    "Budi",
		Email:           "a@b.com",
		Phone:           "081234567890",
		CallbackURL:     "https://donasi.example/api/payments/callback",
		ReturnURL:       "https://donasi.example/invoice/DN123",
		ExpiryMinutes:   60,
	})
	if err != nil {
		t.Fatalf("Inquire() error = %v", err)
	}
	if res.Reference != "D0001ABC" || res.VANumber != "7007014001234567" {
		t.Errorf("Inquire() = %+v", res)
	}

	if got.Signature != Sign("D0001", "DN123", 150000, "secret-key") {
		t.Errorf("signature = %s", got.Signature)
	}
	if got.PaymentAmount != 150000 || got.MerchantCode != "D0001" || got.ExpiryPeriod != 60 {
		t.Errorf("payload = %+v", got)
	}
	if len(got.ItemDetails) != 1 || got.ItemDetails[0].Price != 150000 || got.ItemDetails[0].Quantity != 1 {
		t.Errorf("itemDetails = %+v", got.ItemDetails)
	}
}

func TestInquire_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"statusCode":    "01",
			"statusMessage": "Minimum Payment 10000 IDR",
		})
	})

	_, err := c.Inquire(context.Background(), InquiryRequest{MerchantOrderID: "DN1", Amount: 500})
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("Inquire() error = %v, want *GatewayError", err)
	}
	if ge.StatusCode != "01" || ge.Message != "Minimum Payment 10000 IDR" {
		t.Errorf("GatewayError = %+v", ge)
	}
	if !ge.IsRejection() {
		t.Error("a non-00 answer is a rejection")
	}
}

func TestInquire_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"Message":"Payment channel not available"}`))
	})

	_, err := c.Inquire(context.Background(), InquiryRequest{MerchantOrderID: "DN1", Amount: 10000})
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("Inquire() error = %v, want *GatewayError", err)
	}
	if ge.HTTPStatus != http.StatusBadRequest || ge.Message != "Payment channel not available" {
		t.Errorf("GatewayError = %+v", ge)
	}
}

func TestInquire_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testGatewayConfig()
	cfg.Timeout = 20 * time.Millisecond
	c := NewDuitkuClient(cfg, WithBaseURL(srv.URL))

	_, err := c.Inquire(context.Background(), InquiryRequest{MerchantOrderID: "DN1", Amount: 10000})
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("Inquire() error = %v, want *GatewayError", err)
	}
	if ge.IsRejection() {
		t.Error("a timeout has an unknown outcome, not a rejection")
	}
}

func TestCheckStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var p statusPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		if p.Signature != StatusSignature("D0001", p.MerchantOrderID, "secret-key") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"Message":"Wrong signature"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"merchantOrderId": p.MerchantOrderID,
			"reference":       "REF9",
			"amount":          "150000",
			"statusCode":      "00",
			"statusMessage":   "SUCCESS",
		})
	})

	st, err := c.CheckStatus(context.Background(), "DN123")
	if err != nil {
		t.Fatalf("CheckStatus() error = %v", err)
	}
	if st.StatusCode != CodeSuccess || st.Reference != "REF9" || st.MerchantOrderID != "DN123" {
		t.Errorf("CheckStatus() = %+v", st)
	}
}

func TestCheckStatus_UnexpectedCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"statusCode":"-1","statusMessage":"transaction not found"}`))
	})
	_, err := c.CheckStatus(context.Background(), "DN404")
	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Message != "transaction not found" {
		t.Fatalf("CheckStatus() error = %v", err)
	}
}

func callbackForm(amount, orderID, resultCode, sig string) []byte {
	v := url.Values{}
	v.Set("merchantCode", "D0001")
	v.Set("amount", amount)
	v.Set("merchantOrderId", orderID)
	v.Set("productDetail", "Donasi Infaq")
	v.Set("paymentCode", "BC")
	v.Set("resultCode", resultCode)
	v.Set("reference", "REF9")
	v.Set("signature", sig)
	return []byte(v.Encode())
}

func TestVerifyAndParseCallback(t *testing.T) {
	c := NewDuitkuClient(testGatewayConfig())
	good := CallbackSignature("D0001", "150000", "DN123", "secret-key")

	ev, err := c.VerifyAndParseCallback(http.Header{}, callbackForm("150000", "DN123", "00", good))
	if err != nil {
		t.Fatalf("VerifyAndParseCallback() error = %v", err)
	}
	if ev.Amount != 150000 || ev.ResultCode != "00" || ev.Reference != "REF9" || ev.PaymentCode != "BC" {
		t.Errorf("event = %+v", ev)
	}
	if _, ok := ev.Fields["signature"]; ok {
		t.Error("signature should not be kept in the audit fields")
	}
	if ev.EventID() != "DN123:00:REF9" {
		t.Errorf("EventID() = %q", ev.EventID())
	}
}

func TestVerifyAndParseCallback_Rejects(t *testing.T) {
	c := NewDuitkuClient(testGatewayConfig())
	good := CallbackSignature("D0001", "150000", "DN123", "secret-key")

	tests := []struct {
		name string
		body []byte
	}{
		{"bad signature", callbackForm("150000", "DN123", "00", "deadbeef")},
		{"tampered amount", callbackForm("1500000", "DN123", "00", good)},
		{"missing signature", callbackForm("150000", "DN123", "00", "")},
		{"wrong merchant", []byte("merchantCode=X&amount=150000&merchantOrderId=DN123&resultCode=00&signature=" +
			CallbackSignature("X", "150000", "DN123", "secret-key"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.VerifyAndParseCallback(http.Header{}, tt.body); !errors.Is(err, ErrInvalidCallback) {
				t.Errorf("error = %v, want ErrInvalidCallback", err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"150000", 150000, false},
		{"150000.00", 150000, false},
		{"150000.50", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseAmount(%q) = %d, %v", tt.in, got, err)
		}
	}
}
