// Package validate holds the field-shape predicates for the signup
// wizard. Every function is pure and callable at any time, independent
// of which wizard step is active.
package validate

import (
	"regexp"
	"strings"
)

// Result reports whether a raw field value is acceptable. Message is a
// user-facing explanation, set only when Valid is false.
type Result struct {
	Valid   bool
	Message string
}

func ok() Result             { return Result{Valid: true} }
func fail(msg string) Result { return Result{Valid: false, Message: msg} }

// Malaysian mobile and landline numbers as users type them: a leading
// zero followed by digits only. No normalization is applied; a value
// with spaces, dashes or letters is rejected as-is.
var phonePattern = regexp.MustCompile(`^0[0-9]+$`)

// Conservative RFC-lite shape. The plus sign is additionally banned by
// product rule (subaddressing defeats the duplicate-email check), with
// its own message.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

var hasLetter = regexp.MustCompile(`[A-Za-z]`)

// entitySuffixTokens is the heuristic list of registered-entity markers
// a business name must contain. Containment is case-insensitive; false
// positives (a personal name containing "group") are accepted by design.
var entitySuffixTokens = []string{
	"sdn bhd",
	"sdn. bhd.",
	"bhd",
	"plt",
	"enterprise",
	"trading",
	"services",
	"holdings",
	"resources",
	"solutions",
	"ventures",
	"group",
	"corporation",
	"corp",
}

// PasswordMinLength is the minimum accepted password length.
const PasswordMinLength = 6

// Phone validates the raw phone value. Letters are rejected outright;
// the remainder must start with 0 and consist only of digits.
func Phone(raw string) Result {
	if raw == "" {
		return fail("phone number is required")
	}
	if hasLetter.MatchString(raw) {
		return fail("phone number must not contain letters")
	}
	if !phonePattern.MatchString(raw) {
		return fail("phone number must start with 0 and contain digits only")
	}
	return ok()
}

// BusinessName validates that the name looks like a registered entity.
func BusinessName(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return fail("business name is required")
	}
	lowered := strings.ToLower(raw)
	for _, token := range entitySuffixTokens {
		if strings.Contains(lowered, token) {
			return ok()
		}
	}
	return fail("business name must include a registered entity suffix such as Sdn Bhd, Enterprise or Services")
}

// Email validates the address shape and enforces the no-plus rule.
func Email(raw string) Result {
	if raw == "" {
		return fail("email is required")
	}
	if strings.Contains(raw, "+") {
		return fail("email address must not contain a plus sign")
	}
	if !emailPattern.MatchString(raw) {
		return fail("email address is not valid")
	}
	return ok()
}

// Password validates the minimum length rule.
func Password(raw string) Result {
	if len(raw) < PasswordMinLength {
		return fail("password must be at least 6 characters")
	}
	return ok()
}

// Field dispatches on a field name so callers can validate a single
// control as the user edits it. Unknown fields validate as acceptable;
// required-field enforcement happens at the step transition.
func Field(field, raw string) Result {
	switch field {
	case "phone":
		return Phone(raw)
	case "business_name":
		return BusinessName(raw)
	case "email":
		return Email(raw)
	case "password":
		return Password(raw)
	default:
		return ok()
	}
}
