package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caregiver extracted from the JWT.
type Principal struct {
	ID    int64
	Email string
}

// caregiverClaims mirrors the token payload issued by the main backend.
type caregiverClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"rol"`
	jwt.RegisteredClaims
}

// CaregiverJWT enforces an HMAC-signed JWT and requires the CUIDADOR role.
func CaregiverJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := caregiverClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.UserID <= 0 {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.Role != "" && claims.Role != "CUIDADOR" {
				http.Error(w, "caregiver role required", http.StatusForbidden)
				return
			}
			principal := Principal{ID: claims.UserID, Email: claims.Email}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated caregiver if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
