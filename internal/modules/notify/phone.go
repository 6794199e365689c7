package notify

import "strings"

// NormalizePhone turns a local Indonesian number into the 62-prefixed form the
// WhatsApp gateway expects: "0812-3456-7890" -> "6281234567890". Empty input
// (or input without digits) yields "".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "0"):
		return "62" + digits[1:]
	case strings.HasPrefix(digits, "8"):
		return "62" + digits
	default:
		return digits
	}
}
