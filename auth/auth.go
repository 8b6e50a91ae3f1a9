package auth

import (
	"github.com/golang-jwt/jwt/v4"
)

// Purposes a token is minted for.
const (
	PurposeCancelDelete = "cancel_delete"
	PurposeReauth       = "reauth"
)

// CallerClaims are the claims of the bearer tokens the marketplace's auth service issues.
// The subject is the account ID.
type CallerClaims struct {
	Admin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// PurposeClaims are the claims of single-purpose tokens:
// re-authentication proofs and emailed cancellation links.
// The subject is the account ID.
type PurposeClaims struct {
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}
