package auth

import (
	"testing"

	"github.com/juju/errors"
)

func TestRequire(t *testing.T) {
	vet := Claims{UserID: 2, Role: RoleVeterinario}
	admin := Claims{UserID: 1, Role: RoleAdmin}
	user := Claims{UserID: 3, Role: RoleUsuario}

	if err := Require(vet, RoleVeterinario); err != nil {
		t.Fatalf("vet should pass vet check: %v", err)
	}
	if err := Require(admin, RoleVeterinario); err != nil {
		t.Fatalf("admin outranks vet: %v", err)
	}
	if err := Require(user, RoleVeterinario); !errors.Is(err, errors.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if err := Require(Claims{}, RoleUsuario); !errors.Is(err, errors.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if err := Require(Claims{UserID: 9, Role: "root"}, RoleUsuario); !errors.Is(err, errors.Unauthorized) {
		t.Fatalf("unknown role must not authenticate, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole(" Veterinario ") != RoleVeterinario {
		t.Fatalf("expected veterinario")
	}
	if ParseRole("superuser") != "" {
		t.Fatalf("expected empty role for unknown value")
	}
}
