// Package validator provides composable validation rules evaluated with
// Apply. Rules accumulate into ValidationErrors, which HTTP handlers map to
// field-keyed error details.
//
//	err := validator.Apply(
//		validator.Required("email", email),
//		validator.ValidEmail("email", email),
//		validator.AllowedEmailDomain("email", email, "gmail.com"),
//	)
package validator
