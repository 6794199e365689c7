package payments

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	orderIDPrefix = "DN"
	invoicePrefix = "INV-"
)

// NewOrderID returns "DN" followed by the 32 hex digits of a random UUID.
func NewOrderID() string {
	return orderIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewInvoiceCode returns INV-YYYYMMDD-XXXXXXXXXXXX.
func NewInvoiceCode(now time.Time) string {
	u := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return invoicePrefix + now.Format("20060102") + "-" + u[:12]
}
