package history

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	transitions []Transition
	encounters  []Encounter
	failWrites  error
}

func (r *testRepo) AppendTransition(ctx context.Context, t Transition) error {
	if r.failWrites != nil {
		return r.failWrites
	}
	r.transitions = append(r.transitions, t)
	return nil
}

func (r *testRepo) AppendEncounter(ctx context.Context, e Encounter) error {
	if r.failWrites != nil {
		return r.failWrites
	}
	r.encounters = append(r.encounters, e)
	return nil
}

func (r *testRepo) ListEncounters(ctx context.Context, animalID int64, limit int) ([]Encounter, error) {
	out := make([]Encounter, 0)
	for _, e := range r.encounters {
		if e.AnimalID == animalID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *testRepo) ListTransitions(ctx context.Context, animalID int64, limit int) ([]Transition, error) {
	out := make([]Transition, 0)
	for i := len(r.transitions) - 1; i >= 0; i-- {
		if r.transitions[i].AnimalID == animalID {
			out = append(out, r.transitions[i])
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type testStaff map[int64][2]string

func (s testStaff) DisplayName(ctx context.Context, id int64) (string, string, error) {
	v, ok := s[id]
	if !ok {
		return "", "", errors.NotFoundf("user %d", id)
	}
	return v[0], v[1], nil
}

func newTestService(repo *testRepo, now time.Time) *Service {
	svc := NewService(repo, testStaff{7: {"Dra. Ruiz", "ruiz@refugio.test"}})
	n := 0
	svc.now = func() time.Time { return now }
	svc.newID = func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
	return svc
}

var vet = auth.Claims{UserID: 7, Role: auth.RoleVeterinario}

func TestAppendTransition_FillsIDAndTime(t *testing.T) {
	repo := &testRepo{}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	got, err := svc.AppendTransition(context.Background(), Transition{
		AnimalID: 3, ActorID: 7, From: "tratamiento", To: "disponible", Reason: "  alta  ",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != "rec-1" || !got.At.Equal(now) || got.Reason != "alta" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(repo.transitions) != 1 {
		t.Fatalf("expected 1 stored transition, got %d", len(repo.transitions))
	}
}

func TestAppendTransition_RejectsIncomplete(t *testing.T) {
	svc := newTestService(&testRepo{}, time.Now())

	_, err := svc.AppendTransition(context.Background(), Transition{AnimalID: 3, To: "disponible"})
	if !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAppendTransition_StorageFailure(t *testing.T) {
	cause := fmt.Errorf("disk full")
	svc := newTestService(&testRepo{failWrites: cause}, time.Now())

	_, err := svc.AppendTransition(context.Background(), Transition{AnimalID: 3, ActorID: 1, To: "tratamiento"})
	if !errors.Is(err, apperr.Storage) || !errors.Is(err, cause) {
		t.Fatalf("expected storage error wrapping cause, got %v", err)
	}
}

func TestAppendEncounter_DefaultsDateAndDropsBlankMedications(t *testing.T) {
	repo := &testRepo{}
	now := time.Date(2026, 3, 1, 18, 45, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	blank := "   "
	got, err := svc.AppendEncounter(context.Background(), Encounter{
		AnimalID: 3, VeterinarianID: 7, Type: "vacuna", Medications: &blank,
		Cost: decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Medications != nil {
		t.Fatalf("expected nil medications, got %q", *got.Medications)
	}
	if !got.Date.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", got.Date)
	}
	if !got.RecordedAt.Equal(now) {
		t.Fatalf("unexpected recorded_at: %v", got.RecordedAt)
	}
}

func TestAppendEncounter_NegativeCost(t *testing.T) {
	svc := newTestService(&testRepo{}, time.Now())

	_, err := svc.AppendEncounter(context.Background(), Encounter{
		AnimalID: 3, VeterinarianID: 7, Type: "consulta", Cost: decimal.NewFromInt(-1),
	})
	if !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetHistory_OrderAndIsolation(t *testing.T) {
	d1 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &testRepo{encounters: []Encounter{
		{ID: "a", AnimalID: 1, VeterinarianID: 7, Date: d1, RecordedAt: d1.Add(time.Hour)},
		{ID: "b", AnimalID: 1, VeterinarianID: 7, Date: d2, RecordedAt: d2.Add(time.Hour)},
		{ID: "c", AnimalID: 1, VeterinarianID: 9, Date: d2, RecordedAt: d2.Add(2 * time.Hour)},
		{ID: "x", AnimalID: 2, VeterinarianID: 7, Date: d2, RecordedAt: d2},
	}}
	svc := newTestService(repo, time.Now())

	got, err := svc.GetHistory(context.Background(), vet, 1, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
		if e.AnimalID != 1 {
			t.Fatalf("encounter of another animal returned: %+v", e)
		}
	}
	if fmt.Sprint(ids) != "[c b a]" {
		t.Fatalf("unexpected order: %v", ids)
	}
	if got[1].VeterinarianName != "Dra. Ruiz" || got[1].VeterinarianEmail != "ruiz@refugio.test" {
		t.Fatalf("expected vet contact, got %+v", got[1])
	}
	if got[0].VeterinarianName != "" {
		t.Fatalf("unknown vet should have empty name, got %q", got[0].VeterinarianName)
	}
}

func TestGetHistory_RequiresVeterinarian(t *testing.T) {
	svc := newTestService(&testRepo{}, time.Now())

	_, err := svc.GetHistory(context.Background(), auth.Claims{UserID: 2, Role: auth.RoleUsuario}, 1, 0)
	if !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err = svc.GetHistory(context.Background(), auth.Claims{}, 1, 0)
	if !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListTransitions_NewestFirstAndLimit(t *testing.T) {
	repo := &testRepo{}
	svc := newTestService(repo, time.Now())
	ctx := context.Background()

	for _, to := range []string{"tratamiento", "disponible", "reservado"} {
		if _, err := svc.AppendTransition(ctx, Transition{AnimalID: 4, ActorID: 1, To: to}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := svc.ListTransitions(ctx, vet, 4, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].To != "reservado" || got[1].To != "disponible" {
		t.Fatalf("unexpected transitions: %+v", got)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: 20, -3: 20, 5: 5, 100: 100, 500: 100}
	for in, want := range cases {
		if got := clampLimit(in, DefaultHistoryLimit); got != want {
			t.Fatalf("clampLimit(%d)=%d want %d", in, got, want)
		}
	}
}
