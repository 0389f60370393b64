package middleware

import (
	"context"
	"net/http"
	"strings"

	"medication-adherence-tracker/internal/ports/auth"
)

type ctxKey int

const claimsKey ctxKey = iota

// DebugUserHeader permite fijar la identidad sin IdP. Solo se honra cuando no
// hay verifier configurado (entorno local y tests de router).
const DebugUserHeader = "X-Debug-User-ID"

// AuthContext resuelve la identidad del request y la deja en el contexto.
// Nunca corta la cadena: un request sin claims sigue, y cada handler decide
// si responde 401 (la mayoría de las rutas de medicación lo exigen; /health
// y /swagger no). Con verifier nil se honra DebugUserHeader.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := resolveClaims(r, verifier)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveClaims(r *http.Request, verifier auth.AuthVerifier) (auth.Claims, bool) {
	if verifier == nil {
		uid := strings.TrimSpace(r.Header.Get(DebugUserHeader))
		if uid == "" {
			return auth.Claims{}, false
		}
		return auth.Claims{UserID: uid}, true
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return auth.Claims{}, false
	}

	// Un token inválido equivale a ninguno: el 401 lo pone el handler.
	claims, err := verifier.Verify(r.Context(), token)
	if err != nil {
		return auth.Claims{}, false
	}
	return claims, true
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

// UserID es el atajo para handlers que solo necesitan el dueño del recurso.
func UserID(ctx context.Context) (string, bool) {
	c, ok := GetClaims(ctx)
	if !ok || c.UserID == "" {
		return "", false
	}
	return c.UserID, true
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
