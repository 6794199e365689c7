package payments

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

func md5Hex(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// Sign is the inquiry signature: md5(merchantCode + merchantOrderID + amount + apiKey).
func Sign(merchantCode, merchantOrderID string, amount int64, apiKey string) string {
	return md5Hex(merchantCode, merchantOrderID, strconv.FormatInt(amount, 10), apiKey)
}

// StatusSignature signs a transactionStatus query.
func StatusSignature(merchantCode, merchantOrderID, apiKey string) string {
	return md5Hex(merchantCode, merchantOrderID, apiKey)
}

// CallbackSignature is what the gateway sends with each callback. amount is the raw
// form value, hashed exactly as received.
func CallbackSignature(merchantCode, amount, merchantOrderID, apiKey string) string {
	return md5Hex(merchantCode, amount, merchantOrderID, apiKey)
}

func signaturesEqual(want, got string) bool {
	w := []byte(strings.ToLower(want))
	g := []byte(strings.ToLower(strings.TrimSpace(got)))
	return subtle.ConstantTimeCompare(w, g) == 1
}

// CallbackForm builds a signed callback body the way the gateway posts it. Used
// by the developer CLI to drive a local server.
func CallbackForm(merchantCode, apiKey string, ev CallbackEvent) url.Values {
	amount := strconv.FormatInt(ev.Amount, 10)
	form := url.Values{}
	form.Set("merchantCode", merchantCode)
	form.Set("amount", amount)
	form.Set("merchantOrderId", ev.MerchantOrderID)
	form.Set("resultCode", ev.ResultCode)
	form.Set("reference", ev.Reference)
	if ev.PaymentCode != "" {
		form.Set("paymentCode", ev.PaymentCode)
	}
	form.Set("signature", CallbackSignature(merchantCode, amount, ev.MerchantOrderID, apiKey))
	return form
}
