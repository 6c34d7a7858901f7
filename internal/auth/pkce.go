package auth

import (
	"crypto/sha256"
	"encoding/base64"
)

// PKCE code challenge methods.
const (
	MethodS256  = "S256"
	MethodPlain = "plain"
)

// ComputeCodeChallenge transforms a PKCE verifier into its challenge. S256 is
// base64url(sha256(verifier)) without padding; plain is the identity.
// Unknown methods fall back to S256.
func ComputeCodeChallenge(verifier, method string) string {
	if method == MethodPlain {
		return verifier
	}
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyCodeChallenge reports whether verifier transforms to the stored
// challenge under the given method.
func VerifyCodeChallenge(verifier, challenge, method string) bool {
	return ComputeCodeChallenge(verifier, method) == challenge
}
