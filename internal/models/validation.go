package models

// ValidationKind names a form field type the backend can validate.
// The set is closed: only the constants below are accepted.
type ValidationKind string

const (
	ValidatePassword ValidationKind = "password"
	ValidateCurrency ValidationKind = "currency"
	ValidateUsername ValidationKind = "username"
)

// ValidationKinds lists every accepted kind.
var ValidationKinds = []ValidationKind{ValidatePassword, ValidateCurrency, ValidateUsername}

// Valid reports whether kind belongs to the closed set.
func (kind ValidationKind) Valid() bool {
	for _, k := range ValidationKinds {
		if k == kind {
			return true
		}
	}
	return false
}
