// internal/types/tokens.go
package types

import "github.com/google/uuid"

// NewToken mints a fresh session token in canonical 36-character hyphenated
// form. Tokens are never derived from account data, so a mint can never
// collide with another account's live token except by UUID collision.
func NewToken() string {
	return uuid.New().String()
}

// ValidToken reports whether s has the canonical token shape. Caller-supplied
// tokens (the legacy anonymous path) must pass this before any store work.
func ValidToken(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
