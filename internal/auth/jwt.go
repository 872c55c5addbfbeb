package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/guildvault/internal/models"
	"github.com/rs/zerolog/log"
)

// Claims defines the JWT claims structure.
type Claims struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// CookieName is the cookie carrying the token for browser clients.
const CookieName = "token"

// ErrNoSecret is returned when tokens are issued or checked without a secret.
var ErrNoSecret = errors.New("jwt secret is not configured")

// TokenIssuer signs and validates HS256 tokens with one secret.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. Tokens expire after ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// GenerateJWT creates a new JWT for a given user.
func (t *TokenIssuer) GenerateJWT(user models.User) (string, error) {
	if len(t.key) == 0 {
		return "", ErrNoSecret
	}
	now := t.now()
	claims := &Claims{
		Username: user.Username,
		Admin:    user.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// ValidateJWT parses and validates a JWT string.
func (t *TokenIssuer) ValidateJWT(tokenStr string) (*Claims, error) {
	// An empty key would accept tokens anyone can sign.
	if len(t.key) == 0 {
		return nil, ErrNoSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// JWTMiddleware rejects requests without a valid token and passes the claims
// down via the request context.
func (t *TokenIssuer) JWTMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(t.key) == 0 {
				http.Error(w, "Dashboard login is disabled", http.StatusUnauthorized)
				return
			}
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "Missing auth token", http.StatusUnauthorized)
				return
			}

			claims, err := t.ValidateJWT(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("Rejected auth token")
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin allows only requests whose claims carry the admin flag.
// It must run after JWTMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.Admin {
			http.Error(w, "Administrator permission required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the claims stored by JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// tokenFromRequest reads the bearer token, falling back to the cookie.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
