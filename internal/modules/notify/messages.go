package notify

import (
	"fmt"
	"strings"

	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/email"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
	"github.com/anggiadiputra/donasiku-sub000/pkg/view"
)

func campaignTitle(trx transactions.Transaction, camp *campaigns.Campaign) string {
	if camp != nil && camp.Title != "" {
		return camp.Title
	}
	return trx.ProductDetails
}

func pendingWhatsApp(trx transactions.Transaction, camp *campaigns.Campaign, invoiceURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assalamu'alaikum %s,\n\n", trx.CustomerName)
	fmt.Fprintf(&b, "Terima kasih atas niat baik Anda berdonasi untuk *%s*.\n\n", campaignTitle(trx, camp))
	fmt.Fprintf(&b, "Nominal: *%s*\n", view.Rupiah(trx.Amount))
	fmt.Fprintf(&b, "Keterangan: %s\n", trx.ProductDetails)
	fmt.Fprintf(&b, "Invoice: %s\n", trx.InvoiceCode)
	fmt.Fprintf(&b, "Metode: %s\n", trx.PaymentMethod)
	if trx.VANumber != nil && *trx.VANumber != "" {
		fmt.Fprintf(&b, "No. VA: %s\n", *trx.VANumber)
	}
	if trx.ExpiryTime != nil {
		fmt.Fprintf(&b, "Bayar sebelum: %s\n", view.DateTimeWIB(*trx.ExpiryTime))
	}
	fmt.Fprintf(&b, "\nSelesaikan pembayaran di: %s", invoiceURL)
	return b.String()
}

func successWhatsApp(trx transactions.Transaction, camp *campaigns.Campaign, invoiceURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alhamdulillah, %s.\n\n", trx.CustomerName)
	fmt.Fprintf(&b, "Donasi Anda sebesar *%s* untuk *%s* telah kami terima.\n", view.Rupiah(trx.Amount), campaignTitle(trx, camp))
	fmt.Fprintf(&b, "Keterangan: %s\n", trx.ProductDetails)
	fmt.Fprintf(&b, "Invoice: %s\n\n", trx.InvoiceCode)
	fmt.Fprintf(&b, "Jazakumullah khairan. Bukti donasi: %s", invoiceURL)
	return b.String()
}

func emailData(trx transactions.Transaction, camp *campaigns.Campaign, invoiceURL string) email.DonationData {
	d := email.DonationData{
		DonorName:     trx.CustomerName,
		Campaign:      campaignTitle(trx, camp),
		Amount:        view.Rupiah(trx.Amount),
		InvoiceCode:   trx.InvoiceCode,
		OrderID:       trx.MerchantOrderID,
		PaymentMethod: trx.PaymentMethod,
		InvoiceURL:    invoiceURL,
	}
	if trx.VANumber != nil {
		d.VANumber = *trx.VANumber
	}
	if trx.PaymentURL != nil {
		d.PaymentURL = *trx.PaymentURL
	}
	if trx.ExpiryTime != nil {
		d.Expiry = view.DateTimeWIB(*trx.ExpiryTime)
	}
	if trx.PaidAt != nil {
		d.PaidAt = view.DateTimeWIB(*trx.PaidAt)
	}
	return d
}
