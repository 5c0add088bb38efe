// Package session verifica tokens de sesión locales (cookie o Bearer) y, si no
// existen, delega en un verificador de respaldo.
package session

import (
	"context"

	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
)

// Resolver lo implementa users.Service.
type Resolver interface {
	ResolveSession(ctx context.Context, token string) (auth.Claims, error)
}

type Verifier struct {
	sessions Resolver
	fallback auth.AuthVerifier
}

// NewVerifier: fallback puede ser nil.
func NewVerifier(sessions Resolver, fallback auth.AuthVerifier) *Verifier {
	return &Verifier{sessions: sessions, fallback: fallback}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := v.sessions.ResolveSession(ctx, token)
	if err == nil {
		return claims, nil
	}
	if v.fallback != nil && errors.Is(err, errors.Unauthorized) {
		return v.fallback.Verify(ctx, token)
	}
	return auth.Claims{}, err
}
