// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielhkuo/quickly-score/apperr"
)

type contextKey string

const adminIDKey contextKey = "admin_id"

// TokenValidator checks an admin bearer token and returns the admin id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// RequireAdmin rejects requests without a valid "Authorization: Bearer"
// token and stores the admin id in the request context.
func RequireAdmin(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				WriteError(w, r, apperr.ErrUnauthorized)
				return
			}

			adminID, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				WriteError(w, r, apperr.WithMessage(apperr.ErrUnauthorized, "invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminID returns the admin id stored by RequireAdmin.
func AdminID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(adminIDKey).(string)
	return id, ok && id != ""
}
