package notify

import "strings"

// FormatWhatsAppNumber normalizes a phone number to Twilio's
// whatsapp:+<E.164> form. National 11-digit numbers are assumed to be
// Brazilian (country code 55); numbers already carrying 55 and 13
// digits are kept as-is.
func FormatWhatsAppNumber(phone string) string {
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}

	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	clean := digits.String()

	if strings.HasPrefix(clean, "55") && len(clean) == 13 {
		return "whatsapp:+" + clean
	}
	return "whatsapp:+55" + clean
}
