package email

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// DonationData is everything the donor emails show. Amount is already formatted.
type DonationData struct {
	DonorName     string
	Campaign      string
	Amount        string
	InvoiceCode   string
	OrderID       string
	PaymentMethod string
	VANumber      string
	PaymentURL    string
	Expiry        string
	PaidAt        string
	InvoiceURL    string
}

type template struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func (t template) render(to string, d DonationData, tag string) (Message, error) {
	var text, html bytes.Buffer
	if err := t.text.Execute(&text, d); err != nil {
		return Message{}, err
	}
	if err := t.html.Execute(&html, d); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		ToName:  d.DonorName,
		Subject: t.subject,
		Text:    text.String(),
		HTML:    html.String(),
		Tag:     tag,
	}, nil
}

var pendingTmpl = template{
	subject: "Menunggu Pembayaran Donasi Anda",
	text: texttemplate.Must(texttemplate.New("pending.txt").Parse(`Halo {{.DonorName}},

Terima kasih telah berdonasi untuk {{.Campaign}}.

Nominal     : {{.Amount}}
No. Invoice : {{.InvoiceCode}}
Metode      : {{.PaymentMethod}}
{{- if .VANumber}}
No. VA      : {{.VANumber}}{{end}}
{{- if .Expiry}}
Bayar sebelum: {{.Expiry}}{{end}}

{{if .PaymentURL}}Selesaikan pembayaran: {{.PaymentURL}}
{{end}}Lihat invoice: {{.InvoiceURL}}
`)),
	html: htmltemplate.Must(htmltemplate.New("pending.html").Parse(`<html>
  <body style="font-family: sans-serif;">
    <h2>Menunggu Pembayaran</h2>
    <p>Halo {{.DonorName}},</p>
    <p>Terima kasih telah berdonasi untuk <strong>{{.Campaign}}</strong>.</p>
    <table>
      <tr><td>Nominal</td><td><strong>{{.Amount}}</strong></td></tr>
      <tr><td>No. Invoice</td><td>{{.InvoiceCode}}</td></tr>
      <tr><td>Metode</td><td>{{.PaymentMethod}}</td></tr>
      {{if .VANumber}}<tr><td>No. VA</td><td>{{.VANumber}}</td></tr>{{end}}
      {{if .Expiry}}<tr><td>Bayar sebelum</td><td>{{.Expiry}}</td></tr>{{end}}
    </table>
    {{if .PaymentURL}}<p><a href="{{.PaymentURL}}">Selesaikan pembayaran</a></p>{{end}}
    <p><a href="{{.InvoiceURL}}">Lihat invoice</a></p>
  </body>
</html>
`)),
}

var successTmpl = template{
	subject: "Donasi Anda Berhasil, Terima Kasih!",
	text: texttemplate.Must(texttemplate.New("success.txt").Parse(`Halo {{.DonorName}},

Donasi Anda sebesar {{.Amount}} untuk {{.Campaign}} telah kami terima.

No. Invoice : {{.InvoiceCode}}
{{- if .PaidAt}}
Dibayar     : {{.PaidAt}}{{end}}

Semoga menjadi amal jariyah. Invoice: {{.InvoiceURL}}
`)),
	html: htmltemplate.Must(htmltemplate.New("success.html").Parse(`<html>
  <body style="font-family: sans-serif;">
    <h2>Donasi Berhasil</h2>
    <p>Halo {{.DonorName}},</p>
    <p>Donasi Anda sebesar <strong>{{.Amount}}</strong> untuk <strong>{{.Campaign}}</strong> telah kami terima.</p>
    <p><strong>No. Invoice:</strong> {{.InvoiceCode}}</p>
    {{if .PaidAt}}<p><strong>Dibayar:</strong> {{.PaidAt}}</p>{{end}}
    <p>Semoga menjadi amal jariyah.</p>
    <p><a href="{{.InvoiceURL}}">Lihat invoice</a></p>
  </body>
</html>
`)),
}

func PendingMessage(to string, d DonationData) (Message, error) {
	return pendingTmpl.render(to, d, "donation-pending")
}

func SuccessMessage(to string, d DonationData) (Message, error) {
	return successTmpl.render(to, d, "donation-success")
}
