// Package remote verifica tokens contra un servicio de identidad externo
// (AUTH_REMOTE_URL). Se usa como respaldo cuando el token no es una sesión local.
package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"animal-shelter/internal/platform/httpclient"
	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
)

const (
	verifyPath          = "/v1/tokens/verify"
	defaultAPIKeyHeader = "X-Api-Key"
)

type Config struct {
	BaseURL string
	APIKey  string

	// APIKeyHeader vacío => "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration

	// Transport opcional (tests).
	Transport http.RoundTripper
}

type Verifier struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func New(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.NotValidf("remote auth without url or api key")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c, err := httpclient.New(cfg.BaseURL, timeout, cfg.Transport)
	if err != nil {
		return nil, err
	}
	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = defaultAPIKeyHeader
	}
	return &Verifier{http: c, apiKey: strings.TrimSpace(cfg.APIKey), apiKeyHeader: header}, nil
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Verify implementa auth.AuthVerifier. 401/403 del servicio => Unauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, errors.Unauthorizedf("empty token")
	}

	var out verifyResponse
	err := v.http.DoJSON(ctx, http.MethodPost, verifyPath, map[string]string{
		v.apiKeyHeader:  v.apiKey,
		"Authorization": "Bearer " + token,
	}, verifyRequest{Token: token}, &out)
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, errors.Unauthorizedf("token rejected by identity service")
		default:
			return auth.Claims{}, errors.Annotate(err, "verify token")
		}
	}

	claims := auth.Claims{
		UserID: out.UserID,
		Email:  strings.TrimSpace(out.Email),
		Name:   strings.TrimSpace(out.Name),
		Role:   auth.ParseRole(out.Role),
	}
	if claims.Role == "" {
		claims.Role = auth.RoleUsuario
	}
	if !claims.Authenticated() {
		return auth.Claims{}, errors.Unauthorizedf("identity service returned no user id")
	}
	return claims, nil
}
