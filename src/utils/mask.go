// backend/src/utils/mask.go
package utils

import "strings"

// MaskAccountNumber hides all but the last four characters of an account
// identifier, e.g. "XXXXXX1234". Already-masked or short identifiers pass
// through unchanged.
func MaskAccountNumber(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		return ""
	}
	if len(account) <= 4 || strings.ContainsAny(account, "Xx*") {
		return account
	}
	return strings.Repeat("X", len(account)-4) + account[len(account)-4:]
}
