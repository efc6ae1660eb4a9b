// Package auth gates mutating endpoints behind bearer JWTs and carries
// the authenticated actor through the request context for audit trails.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of token claims the service cares about.
type Claims struct {
	// Actor identifies who performed the request, taken from the
	// token's subject.
	Actor string
}

// Verifier validates HMAC-signed bearer tokens.
type Verifier struct {
	key []byte
}

func NewVerifier(signingKey string) (*Verifier, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}
	return &Verifier{key: []byte(signingKey)}, nil
}

// Verify parses and validates a token string. Only HMAC signatures are
// accepted; asymmetric methods are rejected to prevent algorithm
// confusion.
func (v *Verifier) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return Claims{}, fmt.Errorf("token has no subject")
	}
	return Claims{Actor: subject}, nil
}

type contextKeyActor struct{}

// Actor returns the authenticated actor from the context, or "" when the
// request was not authenticated.
func Actor(ctx context.Context) string {
	actor, ok := ctx.Value(contextKeyActor{}).(string)
	if !ok {
		return ""
	}
	return actor
}

// WithActor injects an actor directly, for tests and internal callers.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, contextKeyActor{}, actor)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores
// the actor in the request context.
func RequireAuth(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := WithActor(r.Context(), claims.Actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
