package validator

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidEmail fails unless the value parses as a plain email address.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			value = strings.TrimSpace(value)
			if value == "" {
				return false
			}

			addr, err := mail.ParseAddress(value)
			if err != nil {
				return false
			}

			// Reject display-name forms like "Alice <a@b.com>"; only the
			// bare address is acceptable for account identity.
			if addr.Address != value {
				return false
			}

			parts := strings.Split(addr.Address, "@")
			return len(parts) == 2 && parts[0] != "" && strings.Contains(parts[1], ".")
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be a valid email address",
		},
	}
}

// AllowedEmailDomain fails unless the email's domain matches one of the
// accepted domains (case-insensitive). Registration restricts accounts to a
// single email provider.
func AllowedEmailDomain(field, value string, domains ...string) Rule {
	return Rule{
		Check: func() bool {
			at := strings.LastIndex(value, "@")
			if at < 0 {
				return false
			}
			domain := strings.ToLower(value[at+1:])
			for _, allowed := range domains {
				if domain == strings.ToLower(allowed) {
					return true
				}
			}
			return false
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("email domain not allowed; accepted: %s", strings.Join(domains, ", ")),
		},
	}
}
