package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// SessionCookie es la cookie que setea /api/login.
const SessionCookie = "refugio_session"

const (
	HeaderDebugUserID = "X-Debug-User-ID"
	HeaderDebugRole   = "X-Debug-Role"
)

// AuthContext arma el contexto de autorización del request:
// - devHeaders => si viene X-Debug-User-ID se usa tal cual (rol en X-Debug-Role, default usuario).
// - si no, token Bearer o cookie de sesión => verifier.Verify().
// - si no hay claims el request sigue igual; los servicios deciden 401/403.
func AuthContext(verifier auth.AuthVerifier, devHeaders bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if devHeaders {
				if claims, ok := debugClaims(r); ok {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
			}

			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token := RequestToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// No cortamos aquí. El servicio responde 401 si la operación lo exige.
				if log != nil {
					log.Debug("token rejected", map[string]any{"err": err})
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole corta con 401/403 antes de llegar al handler. Los servicios vuelven
// a validar; esto solo evita decodificar bodies de requests que no pueden pasar.
func RequireRole(min auth.Role, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Require(Claims(r.Context()), min); err != nil {
				respond.Error(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// Claims devuelve las claims del request o el valor cero (anónimo).
func Claims(ctx context.Context) auth.Claims {
	c, _ := GetClaims(ctx)
	return c
}

// RequestToken devuelve el token Bearer o, si no hay, el de la cookie de sesión.
func RequestToken(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func debugClaims(r *http.Request) (auth.Claims, bool) {
	raw := strings.TrimSpace(r.Header.Get(HeaderDebugUserID))
	if raw == "" {
		return auth.Claims{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return auth.Claims{}, false
	}
	role := auth.ParseRole(r.Header.Get(HeaderDebugRole))
	if role == "" {
		role = auth.RoleUsuario
	}
	return auth.Claims{UserID: id, Role: role}, true
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
