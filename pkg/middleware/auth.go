package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type identityKey int

const (
	userIDKey identityKey = iota
	tokenKey
)

// UserIDHeader is set by the API gateway once it has authenticated the caller.
const UserIDHeader = "X-User-ID"

var errNoSubject = errors.New("token has no user_id or sub claim")

// Identity resolves the calling user. A bearer token, when present, must be a
// valid HS256 JWT signed with secret; its user_id (or sub) claim wins over the
// gateway header. Requests with neither are rejected with 401.
// The raw bearer token is kept in the context so it can be forwarded to the
// cart backend.
func Identity(secret string, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))

			if raw, ok := bearerToken(r); ok {
				sub, err := parseSubject(raw, secret)
				if err != nil {
					l.WarnContext(ctx, "rejected bearer token",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					writeAuthError(w, "invalid or expired token")
					return
				}
				userID = sub
				ctx = context.WithValue(ctx, tokenKey, raw)
			}

			if userID == "" {
				writeAuthError(w, "authentication required")
				return
			}

			ctx = context.WithValue(ctx, userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns ctx carrying the given user id and bearer token. It is
// used by event consumers that act on behalf of a user outside a request.
func WithIdentity(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	if token != "" {
		ctx = context.WithValue(ctx, tokenKey, token)
	}
	return ctx
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// TokenFromContext returns the caller's bearer token, or "".
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func parseSubject(raw, secret string) (string, error) {
	if raw == "" {
		return "", errors.New("malformed authorization header")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if id, _ := claims["user_id"].(string); id != "" {
		return id, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", errNoSubject
}

func writeAuthError(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
