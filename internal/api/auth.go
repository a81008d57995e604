package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const callerKey contextKey = "caller"

// Caller is the identity the authorization collaborator established for this
// request. Handlers trust it: permission checks happened upstream, the
// scheduling core only enforces slot and state-machine invariants.
type Caller struct {
	ID          string
	Role        string
	Permissions []string
}

// GetCaller retrieves the authenticated caller from context.
func GetCaller(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok
}

// AuthMiddleware validates a Bearer token signed with the shared HMAC secret
// and puts the caller identity into the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing_authorization_header", "")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid_authorization_header", "")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid_token", "")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid_token_claims", "")
				return
			}

			sub, _ := claims["sub"].(string)
			role, _ := claims["role"].(string)
			if sub == "" || role == "" {
				writeError(w, http.StatusUnauthorized, "invalid_token_payload", "")
				return
			}

			caller := Caller{ID: sub, Role: role}
			if perms, ok := claims["perms"].([]any); ok {
				for _, p := range perms {
					if s, ok := p.(string); ok {
						caller.Permissions = append(caller.Permissions, s)
					}
				}
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
