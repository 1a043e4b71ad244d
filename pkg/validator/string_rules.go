package validator

import (
	"fmt"
	"strings"
)

// Required fails when the value is empty or whitespace-only.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:   field,
			Message: "field is required",
		},
	}
}

// MinLen fails when the value is shorter than min bytes.
func MinLen(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= min
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at least %d characters long", min),
		},
	}
}

// MaxLen fails when the value is longer than max bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters long", max),
		},
	}
}

// Len fails unless the value is exactly n bytes long.
func Len(field, value string, n int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) == n
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be exactly %d characters long", n),
		},
	}
}
