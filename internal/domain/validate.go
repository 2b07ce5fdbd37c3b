package domain

import (
	"regexp"
	"strings"
)

var (
	nameRe     = regexp.MustCompile(`^[A-Za-z\s]+$`)
	emailRe    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// ValidateName reports whether s is a plausible candidate name: trimmed
// length >= 2 and only letters and whitespace.
func ValidateName(s string) bool {
	return len(strings.TrimSpace(s)) >= 2 && nameRe.MatchString(s)
}

// ValidateEmail reports whether s matches a single-@ address with a TLD of
// at least two characters.
func ValidateEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidatePhone strips non-digits and accepts 10 to 15 remaining digits.
func ValidatePhone(s string) bool {
	digits := nonDigitRe.ReplaceAllString(s, "")
	return len(digits) >= 10 && len(digits) <= 15
}

// Collectable contact fields, in prompt order.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// MissingFields returns the contact fields that are absent or invalid, in
// the fixed order name, email, phone. The orchestrator prompts for exactly
// one missing field at a time.
func MissingFields(info CandidateInfo) []string {
	var missing []string
	if info.Name == "" || !ValidateName(info.Name) {
		missing = append(missing, FieldName)
	}
	if info.Email == "" || !ValidateEmail(info.Email) {
		missing = append(missing, FieldEmail)
	}
	if info.Phone == "" || !ValidatePhone(info.Phone) {
		missing = append(missing, FieldPhone)
	}
	return missing
}
