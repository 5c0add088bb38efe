package auth

import (
	"strings"

	"github.com/juju/errors"
)

// Role es el tipo de usuario (columna usuarios.tipo).
type Role string

const (
	RoleUsuario     Role = "usuario"
	RoleVeterinario Role = "veterinario"
	RoleAdmin       Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleUsuario:
		return 1
	case RoleVeterinario:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

func (r Role) Valid() bool { return r.rank() > 0 }

// ParseRole normaliza un rol leído de headers/tokens. Devuelve "" si no es válido.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return ""
	}
	return r
}

// Claims es el contexto de autorización de una llamada: quién y con qué rol.
// Se pasa explícitamente a cada operación del core; nunca se lee de estado global.
type Claims struct {
	UserID int64
	Email  string
	Name   string
	Role   Role
}

func (c Claims) Authenticated() bool {
	return c.UserID > 0 && c.Role.Valid()
}

// Require valida que el actor esté autenticado y tenga al menos el rol min
// (usuario < veterinario < admin).
func Require(c Claims, min Role) error {
	if !c.Authenticated() {
		return errors.Unauthorizedf("authentication required")
	}
	if c.Role.rank() < min.rank() {
		return errors.Forbiddenf("role %q cannot perform %s actions", c.Role, min)
	}
	return nil
}
