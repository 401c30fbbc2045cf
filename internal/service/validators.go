package service

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"market_client/internal/models"
)

// Bounds enforced by the validation endpoint.
const (
	usernameMinLength = 3
	usernameMaxLength = 20
	passwordMinLength = 8
	passwordMaxLength = 128
	maxDecimalPlaces  = 2
)

// validators maps every supported validation kind to its rule.
// A rule returns an empty string when the value is acceptable.
var validators = map[models.ValidationKind]func(string) string{
	models.ValidatePassword: validatePassword,
	models.ValidateCurrency: validateCurrency,
	models.ValidateUsername: validateUsername,
}

func validateLength(minLength, maxLength int, value string) string {
	length := utf8.RuneCountInString(value)
	if length < minLength {
		return fmt.Sprintf("Value must be at least %d characters long", minLength)
	}
	if length > maxLength {
		return fmt.Sprintf("Value must be at most %d characters long", maxLength)
	}
	return ""
}

func validateAlphanumeric(value string) string {
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "Value must be alphanumeric"
		}
	}
	return ""
}

func validateUsername(value string) string {
	processed := strings.TrimSpace(strings.ToLower(value))
	if msg := validateLength(usernameMinLength, usernameMaxLength, processed); msg != "" {
		return msg
	}
	return validateAlphanumeric(processed)
}

func validatePassword(value string) string {
	return validateLength(passwordMinLength, passwordMaxLength, value)
}

// validateCurrency accepts digits with an optional '.' or ',' followed by at most two decimals.
func validateCurrency(value string) string {
	whole, fraction, _ := strings.Cut(strings.ReplaceAll(value, ",", "."), ".")
	if !isDigits(whole) || !isDigits(fraction) || len(fraction) > maxDecimalPlaces {
		return "Value must be a valid currency value (e.g., 1234.56)."
	}
	return ""
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
