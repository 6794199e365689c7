package view

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// Rupiah formats an amount in whole rupiah with Indonesian grouping: 150000 -> "Rp 150.000".
func Rupiah(amount int64) string {
	if amount < 0 {
		return "-Rp " + idPrinter.Sprintf("%d", -amount)
	}
	return "Rp " + idPrinter.Sprintf("%d", amount)
}

var wib = time.FixedZone("WIB", 7*60*60)

// DateTimeWIB renders t in Western Indonesia Time, e.g. "17 Mar 2025 17:04 WIB".
func DateTimeWIB(t time.Time) string {
	return t.In(wib).Format("02 Jan 2006 15:04") + " WIB"
}
