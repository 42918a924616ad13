// Package auth validates the identity provider's session tokens. The
// provider issues short-lived JWTs to signed-in browsers; this package
// verifies them and extracts the external identity key, without any
// database lookup.
package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"appstarter/internal/types"
)

// sessionCookieName is the cookie the provider's frontend SDK sets for
// same-origin requests. API clients send the token as a Bearer header
// instead.
const sessionCookieName = "__session"

// Authenticator resolves an HTTP request to the caller's external identity
// key. Satisfied by Verifier; handler tests substitute a fake.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// Verifier validates session JWTs signed with the provider secret key
// (HS256).
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Authenticate extracts the session token from the Authorization header or
// the session cookie and returns the verified external identity key.
// Returns ErrCodeAuthTokenMissing when no token is present and
// ErrCodeAuthTokenInvalid for anything unverifiable.
func (v *Verifier) Authenticate(r *http.Request) (string, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return "", types.NewAppError(types.ErrCodeAuthTokenMissing, "missing session token", nil)
	}
	return v.Parse(token)
}

// Parse verifies the token signature and expiry and returns the subject
// claim (the external identity key).
func (v *Verifier) Parse(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid session token", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", types.NewAppError(types.ErrCodeAuthTokenInvalid, "session token has no subject", err)
	}
	return sub, nil
}

// tokenFromRequest returns the raw token from the Bearer header, falling
// back to the session cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}
