package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const userKey contextKey = "auth_user"

// AuthUser is the identity carried by a verified bearer token.
type AuthUser struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// User returns the authenticated user from the request context.
// The second return is false outside of NewAuthHandler-protected routes.
func User(ctx context.Context) (AuthUser, bool) {
	u, ok := ctx.Value(userKey).(AuthUser)
	return u, ok
}

// UserID returns just the authenticated user's id.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	u, ok := User(ctx)
	return u.ID, ok
}

// WithUser injects an identity into the context. Test helper.
func WithUser(ctx context.Context, u AuthUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

type authClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewAuthHandler returns a middleware that requires a valid HS256 bearer
// token and puts its identity (subject user id, email, name) into the
// request context. Anything missing, malformed, expired, or signed with
// another key is a 401.
func NewAuthHandler(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, secret)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="wayfarer"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func authenticate(r *http.Request, secret []byte) (AuthUser, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return AuthUser{}, fmt.Errorf("missing bearer token")
	}

	claims := authClaims{}
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return AuthUser{}, fmt.Errorf("parse token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return AuthUser{}, fmt.Errorf("subject is not a user id: %w", err)
	}
	return AuthUser{ID: userID, Email: claims.Email, Name: claims.Name}, nil
}
