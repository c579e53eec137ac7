package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/transport"
)

var (
	errMissingToken = errors.New("missing token")
	errTokenFormat  = errors.New("invalid token format")
)

// JWT returns middleware that validates HS256 JWTs using the given shared secret.
// An empty secret rejects every request.
func JWT(secret []byte, iss, aud string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				observability.GetLogger(r.Context()).Error("jwt secret not configured")
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication unavailable")
				return
			}

			tok, err := extractToken(r)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			claims, err := verifyToken(tok, secret, iss, aud)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token claims")
				return
			}
			email, _ := claims["email"].(string)

			next.ServeHTTP(w, r.WithContext(InjectUser(r.Context(), sub, email)))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errMissingToken
	}
	tok, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || tok == "" {
		return "", errTokenFormat
	}
	return tok, nil
}

func verifyToken(tok string, secret []byte, iss, aud string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		// Prevent algorithm confusion, only accept HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(iss), jwt.WithAudience(aud), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
