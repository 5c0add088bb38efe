package reports

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
	byID   map[int64]Report
}

func (r *testRepo) Create(ctx context.Context, rep Report) (int64, error) {
	r.nextID++
	rep.ID = r.nextID
	r.byID[rep.ID] = rep
	return rep.ID, nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (Report, error) {
	rep, ok := r.byID[id]
	if !ok {
		return Report{}, errors.NotFoundf("report %d", id)
	}
	return rep, nil
}

func (r *testRepo) List(ctx context.Context) ([]Report, error) {
	out := make([]Report, 0, len(r.byID))
	for i := r.nextID; i > 0; i-- {
		if rep, ok := r.byID[i]; ok {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *testRepo) Review(ctx context.Context, id int64, st Status, notes string, reviewer int64, at time.Time) error {
	rep := r.byID[id]
	rep.Status = st
	rep.AdminNotes = notes
	rep.ReviewedBy = &reviewer
	rep.ReviewedAt = &at
	r.byID[id] = rep
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
	usuario = auth.Claims{UserID: 40, Role: auth.RoleUsuario}
)

func setup() (*Service, *testRepo) {
	repo := &testRepo{byID: map[int64]Report{}}
	return NewService(repo, testDirectory{40: {ID: 40, Name: "Lucía"}}, nil), repo
}

func TestCreate(t *testing.T) {
	svc, repo := setup()

	rep, err := svc.Create(context.Background(), usuario, CreateInput{
		Title: "Perro herido", Description: "en la plaza", Type: "maltrato",
		Photos: []string{"/uploads/1-a.jpg", " "},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rep.Status != StatusPendiente || rep.UserID != 40 || len(rep.Photos) != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected stored report")
	}

	if _, err := svc.Create(context.Background(), usuario, CreateInput{Title: "x"}); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), auth.Claims{}, CreateInput{Title: "x", Description: "y"}); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListAndReview(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	first, _ := svc.Create(ctx, usuario, CreateInput{Title: "a", Description: "a"})
	_, _ = svc.Create(ctx, usuario, CreateInput{Title: "b", Description: "b"})

	items, err := svc.List(ctx, admin)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 2 || items[0].Title != "b" || items[0].UserName != "Lucía" {
		t.Fatalf("unexpected list: %+v", items)
	}

	rep, err := svc.Review(ctx, admin, first.ID, "en_revision", " llamando a la municipalidad ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rep.Status != StatusEnRevision || rep.AdminNotes != "llamando a la municipalidad" || rep.ReviewedAt == nil {
		t.Fatalf("unexpected review: %+v", rep)
	}

	if _, err := svc.Review(ctx, admin, first.ID, "cerrado", ""); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Review(ctx, admin, 99, "resuelto", ""); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.List(ctx, usuario); !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
