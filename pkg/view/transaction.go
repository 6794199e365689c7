package view

import (
	"time"

	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
)

// Transaction is the JSON shape returned to donors.
type Transaction struct {
	ID              string     `json:"id"`
	MerchantOrderID string     `json:"merchantOrderId"`
	InvoiceCode     string     `json:"invoiceCode"`
	Reference       string     `json:"reference,omitempty"`
	PaymentURL      string     `json:"paymentUrl,omitempty"`
	VANumber        string     `json:"vaNumber,omitempty"`
	QRString        string     `json:"qrString,omitempty"`
	Amount          int64      `json:"amount"`
	AmountFormatted string     `json:"amountFormatted"`
	PaymentMethod   string     `json:"paymentMethod"`
	ProductDetails  string     `json:"productDetails"`
	Status          string     `json:"status"`
	ExpiryTime      *time.Time `json:"expiryTime,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func NewTransaction(t transactions.Transaction) Transaction {
	return Transaction{
		ID:              t.ID,
		MerchantOrderID: t.MerchantOrderID,
		InvoiceCode:     t.InvoiceCode,
		Reference:       str(t.Reference),
		PaymentURL:      str(t.PaymentURL),
		VANumber:        str(t.VANumber),
		QRString:        str(t.QRString),
		Amount:          t.Amount,
		AmountFormatted: Rupiah(t.Amount),
		PaymentMethod:   t.PaymentMethod,
		ProductDetails:  t.ProductDetails,
		Status:          t.Status,
		ExpiryTime:      t.ExpiryTime,
		PaidAt:          t.PaidAt,
		CreatedAt:       t.CreatedAt,
	}
}

// AdminTransaction adds the donor and gateway fields operators need.
type AdminTransaction struct {
	Transaction
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	IsAnonymous   bool   `json:"isAnonymous"`
	CampaignID    string `json:"campaignId,omitempty"`
	ResultCode    string `json:"resultCode,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

func NewAdminTransaction(t transactions.Transaction) AdminTransaction {
	return AdminTransaction{
		Transaction:   NewTransaction(t),
		CustomerName:  t.CustomerName,
		CustomerEmail: t.CustomerEmail,
		CustomerPhone: t.CustomerPhone,
		IsAnonymous:   t.Meta().IsAnonymous,
		CampaignID:    str(t.CampaignID),
		ResultCode:    str(t.ResultCode),
		StatusMessage: str(t.StatusMessage),
	}
}

type AdminTransactionList struct {
	Items    []AdminTransaction `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
