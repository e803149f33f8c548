package util

import (
	"net/mail"
	"strings"
)

// EmailAddress extracts the bare lowercase address from a sender string,
// accepting both "Name <addr>" and plain addresses.
func EmailAddress(sender string) string {
	if parsed, err := mail.ParseAddress(sender); err == nil {
		return strings.ToLower(parsed.Address)
	}
	return strings.ToLower(strings.TrimSpace(sender))
}

// EmailDomain returns the part after the last "@", or "" when there is none.
func EmailDomain(addr string) string {
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		return addr[at+1:]
	}
	return ""
}
