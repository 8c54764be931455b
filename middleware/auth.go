// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielhkuo/armonia/auth"
)

type principalKey struct{}

// WithPrincipal stores the authenticated caller in ctx
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by RequireAuth
func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

// BearerToken reads the token from the Authorization header, falling back to
// the token query parameter (browsers cannot set headers on WebSocket upgrades)
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Authenticate resolves the request's principal from its bearer token
func Authenticate(r *http.Request, secret string) (auth.Principal, error) {
	token := BearerToken(r)
	if token == "" {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return auth.ParseToken(token, secret)
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := Authenticate(r, secret)
		if err != nil {
			message := "Invalid or missing bearer token"
			if errors.Is(err, auth.ErrMissingClaim) {
				message = "Token is missing the user or tenant claim"
			}
			ErrorResponse(w, http.StatusUnauthorized, message)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}

// RequireAdmin is RequireAuth restricted to the admin role
func RequireAdmin(secret string, next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(secret, func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())
		if !p.IsAdmin() {
			ErrorResponse(w, http.StatusForbidden, "Admin role required")
			return
		}
		next(w, r)
	})
}
