package tools

import (
	"fmt"
	"math"
	"strings"
)

// FormatEmailForSpeech renders an address so text-to-speech reads it
// naturally: "john.doe@sub.example.co" becomes
// "john.doe at sub dot example dot co". The local part is left as is.
func FormatEmailForSpeech(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	return local + " at " + strings.ReplaceAll(domain, ".", " dot ")
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func pluralize(n int64, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// formatQuantity drops a trailing ".00" so "2 hours" is not read as "2.00 hours".
func formatQuantity(q float64) string {
	if q == math.Trunc(q) {
		return fmt.Sprintf("%d", int64(q))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
}
