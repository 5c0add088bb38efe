package vetrequests

import (
	"context"
	"testing"
	"time"

	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/directory"

	"github.com/juju/errors"
)

type testRepo struct {
	nextID int64
	byID   map[int64]Request
}

func (r *testRepo) Create(ctx context.Context, req Request) (int64, error) {
	r.nextID++
	req.ID = r.nextID
	r.byID[req.ID] = req
	return req.ID, nil
}

func (r *testRepo) GetForUpdate(ctx context.Context, id int64) (Request, error) {
	req, ok := r.byID[id]
	if !ok {
		return Request{}, errors.NotFoundf("vet request %d", id)
	}
	return req, nil
}

func (r *testRepo) Resolve(ctx context.Context, id int64, st Status, reviewer int64, at time.Time) error {
	req := r.byID[id]
	req.Status = st
	req.ReviewedBy = &reviewer
	req.ResolvedAt = &at
	r.byID[id] = req
	return nil
}

func (r *testRepo) ListPending(ctx context.Context) ([]Request, error) {
	out := make([]Request, 0)
	for _, req := range r.byID {
		if req.Status == StatusPendiente {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *testRepo) HasPending(ctx context.Context, userID int64) (bool, error) {
	for _, req := range r.byID {
		if req.UserID == userID && req.Status == StatusPendiente {
			return true, nil
		}
	}
	return false, nil
}

type testRoles map[int64]auth.Role

func (t testRoles) AssignRole(ctx context.Context, id int64, role auth.Role) error {
	t[id] = role
	return nil
}

type testDirectory map[int64]directory.Contact

func (d testDirectory) Contact(ctx context.Context, id int64) (directory.Contact, error) {
	c, ok := d[id]
	if !ok {
		return directory.Contact{}, errors.NotFoundf("user %d", id)
	}
	return c, nil
}

var (
	admin   = auth.Claims{UserID: 1, Role: auth.RoleAdmin}
	usuario = auth.Claims{UserID: 30, Role: auth.RoleUsuario}
)

func setup() (*Service, *testRepo, testRoles) {
	repo := &testRepo{byID: map[int64]Request{}}
	roles := testRoles{}
	svc := NewService(Deps{
		Repo:      repo,
		Roles:     roles,
		Directory: testDirectory{30: {ID: 30, Name: "Pedro", Email: "pedro@test", Phone: "111"}},
	})
	return svc, repo, roles
}

func TestSubmit(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	req, err := svc.Submit(ctx, usuario, "5 años en clínica", "felinos")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.Status != StatusPendiente || req.UserID != 30 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if _, err := svc.Submit(ctx, usuario, "otra", ""); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error for second pending request, got %v", err)
	}
	vet := auth.Claims{UserID: 31, Role: auth.RoleVeterinario}
	if _, err := svc.Submit(ctx, vet, "x", "y"); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error for veterinarian, got %v", err)
	}
	if _, err := svc.Submit(ctx, usuario, " ", "y"); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error for missing experiencia, got %v", err)
	}
}

func TestResolve_ApprovePromotesUser(t *testing.T) {
	svc, _, roles := setup()
	ctx := context.Background()
	req, _ := svc.Submit(ctx, usuario, "5 años", "perros")

	out, err := svc.Resolve(ctx, admin, req.ID, "aprobada")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Status != StatusAprobada || out.ResolvedAt == nil {
		t.Fatalf("unexpected resolution: %+v", out)
	}
	if roles[30] != auth.RoleVeterinario {
		t.Fatalf("user must be promoted, roles=%v", roles)
	}

	if _, err := svc.Resolve(ctx, admin, req.ID, "rechazada"); !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestResolve_RejectKeepsRole(t *testing.T) {
	svc, _, roles := setup()
	ctx := context.Background()
	req, _ := svc.Submit(ctx, usuario, "5 años", "perros")

	if _, err := svc.Resolve(ctx, admin, req.ID, "rechazada"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("no role change expected, got %v", roles)
	}
	if _, err := svc.Resolve(ctx, admin, req.ID, "quizas"); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Resolve(ctx, usuario, req.ID, "aprobada"); !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()
	_, _ = svc.Submit(ctx, usuario, "5 años", "perros")

	items, err := svc.ListPending(ctx, admin)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 1 || items[0].User.Name != "Pedro" || items[0].User.Phone != "111" {
		t.Fatalf("unexpected pending list: %+v", items)
	}
}
