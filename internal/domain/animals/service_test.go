package animals

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"animal-shelter/internal/domain/history"
	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

type testRepo struct {
	nextID int64
	byID   map[int64]Animal
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[int64]Animal{}}
}

func (r *testRepo) Create(ctx context.Context, a Animal) (int64, error) {
	r.nextID++
	a.ID = r.nextID
	r.byID[a.ID] = a
	return a.ID, nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (Animal, error) {
	a, ok := r.byID[id]
	if !ok {
		return Animal{}, errors.NotFoundf("animal %d", id)
	}
	return a, nil
}

func (r *testRepo) GetForUpdate(ctx context.Context, id int64) (Animal, error) {
	return r.GetByID(ctx, id)
}

func (r *testRepo) UpdateStatus(ctx context.Context, id int64, st Status, vet *int64, at time.Time) error {
	a, ok := r.byID[id]
	if !ok {
		return errors.NotFoundf("animal %d", id)
	}
	a.Status = st
	a.VeterinarianID = vet
	a.UpdatedAt = at
	r.byID[id] = a
	return nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Animal, error) {
	out := make([]Animal, 0)
	for _, a := range r.byID {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Order == OrderCarePriority && CarePriority(out[i].Status) != CarePriority(out[j].Status) {
			return CarePriority(out[i].Status) < CarePriority(out[j].Status)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return errors.NotFoundf("animal %d", id)
	}
	delete(r.byID, id)
	return nil
}

type testAudit struct {
	transitions []history.Transition
	encounters  []history.Encounter
	fail        error
}

func (a *testAudit) AppendTransition(ctx context.Context, t history.Transition) (history.Transition, error) {
	if a.fail != nil {
		return history.Transition{}, apperr.Storagef(a.fail, "append transition")
	}
	t.ID = fmt.Sprintf("t-%d", len(a.transitions)+1)
	a.transitions = append(a.transitions, t)
	return t, nil
}

func (a *testAudit) AppendEncounter(ctx context.Context, e history.Encounter) (history.Encounter, error) {
	if a.fail != nil {
		return history.Encounter{}, apperr.Storagef(a.fail, "append encounter")
	}
	e.ID = fmt.Sprintf("e-%d", len(a.encounters)+1)
	a.encounters = append(a.encounters, e)
	return e, nil
}

type testStaff map[int64]string

func (s testStaff) DisplayName(ctx context.Context, id int64) (string, string, error) {
	n, ok := s[id]
	if !ok {
		return "", "", errors.NotFoundf("user %d", id)
	}
	return n, "", nil
}

var (
	admin   = auth.Claims{UserID: 1, Role: auth.RoleAdmin}
	vet     = auth.Claims{UserID: 7, Role: auth.RoleVeterinario}
	usuario = auth.Claims{UserID: 20, Role: auth.RoleUsuario}
)

func newTestService(repo *testRepo, audit *testAudit) *Service {
	svc := NewService(Deps{Repo: repo, Audit: audit, Staff: testStaff{7: "Dra. Ruiz"}})
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func seed(repo *testRepo, st Status, vetID *int64) int64 {
	id, _ := repo.Create(context.Background(), Animal{Name: "Firulais", Status: st, VeterinarianID: vetID})
	return id
}

func validIntake() IntakeInput {
	return IntakeInput{
		Name: "Luna", Species: "perro", Breed: "mestizo", Age: "2 años", Sex: "hembra",
		Size: "mediano", Description: "tranquila", Health: "vacunada", Location: "canil 3",
	}
}

func TestIntake_CreatesInTreatmentWithRecord(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)

	a, err := svc.Intake(context.Background(), admin, validIntake())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.ID == 0 || a.Status != StatusTratamiento || a.VeterinarianID != nil || a.CreatedBy != 1 {
		t.Fatalf("unexpected animal: %+v", a)
	}
	if a.Photos == nil || len(a.Photos) != 0 {
		t.Fatalf("photos should be an empty list, got %#v", a.Photos)
	}
	if len(audit.transitions) != 1 {
		t.Fatalf("expected intake record, got %d", len(audit.transitions))
	}
	rec := audit.transitions[0]
	if rec.From != "" || rec.To != "tratamiento" || rec.AnimalID != a.ID || rec.ActorID != 1 {
		t.Fatalf("unexpected intake record: %+v", rec)
	}
}

func TestIntake_ValidationBeforeRole(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)

	in := validIntake()
	in.Breed = "  "
	if _, err := svc.Intake(context.Background(), admin, in); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Intake(context.Background(), vet, validIntake()); !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(repo.byID) != 0 || len(audit.transitions) != 0 {
		t.Fatalf("no writes expected")
	}
}

func TestSetStatus_AdoptadoRejectedForEveryRole(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusDisponible, nil)

	for _, actor := range []auth.Claims{{}, usuario, vet, admin} {
		_, err := svc.SetStatus(context.Background(), actor, id, StatusAdoptado, "")
		if !errors.Is(err, apperr.InvalidTransition) {
			t.Fatalf("actor %+v: expected InvalidTransition, got %v", actor, err)
		}
	}
	_, err := svc.SetStatus(context.Background(), vet, id, Status("perdido"), "")
	if !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("unknown status: expected InvalidTransition, got %v", err)
	}
	if len(audit.transitions) != 0 || repo.byID[id].Status != StatusDisponible {
		t.Fatalf("no writes expected")
	}
}

func TestSetStatus_RoleAndNotFound(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusTratamiento, nil)

	if _, err := svc.SetStatus(context.Background(), usuario, id, StatusDisponible, ""); !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), auth.Claims{}, id, StatusDisponible, ""); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), vet, 999, StatusDisponible, ""); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(audit.transitions) != 0 {
		t.Fatalf("no records expected, got %d", len(audit.transitions))
	}
}

func TestSetStatus_UpdatesAndRecords(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusTratamiento, nil)

	res, err := svc.SetStatus(context.Background(), vet, id, StatusDisponible, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.AnimalID != id || res.AnimalName != "Firulais" || res.From != StatusTratamiento || res.To != StatusDisponible {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.VeterinarianID == nil || *res.VeterinarianID != 7 {
		t.Fatalf("expected veterinarian 7, got %v", res.VeterinarianID)
	}

	stored := repo.byID[id]
	if stored.Status != StatusDisponible || stored.VeterinarianID == nil || *stored.VeterinarianID != 7 {
		t.Fatalf("unexpected stored animal: %+v", stored)
	}
	if len(audit.transitions) != 1 || audit.transitions[0].Reason != "Cambio por veterinario" {
		t.Fatalf("unexpected records: %+v", audit.transitions)
	}
}

func TestSetStatus_AdoptedOverride(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusAdoptado, nil)

	if _, err := svc.SetStatus(context.Background(), vet, id, StatusReservado, "x"); !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("adoptado -> reservado must be rejected, got %v", err)
	}
	res, err := svc.SetStatus(context.Background(), vet, id, StatusTratamiento, "devuelto enfermo")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.From != StatusAdoptado || audit.transitions[0].Reason != "devuelto enfermo" {
		t.Fatalf("unexpected result: %+v / %+v", res, audit.transitions)
	}
}

func TestSetStatus_AuditFailureSurfacesAsStorage(t *testing.T) {
	repo := newTestRepo()
	audit := &testAudit{fail: fmt.Errorf("insert historial_estados: boom")}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusTratamiento, nil)

	_, err := svc.SetStatus(context.Background(), vet, id, StatusDisponible, "")
	if !errors.Is(err, apperr.Storage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestRecordEncounter_MissingAnimalWritesNothing(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)

	_, err := svc.RecordEncounter(context.Background(), vet, 42, EncounterInput{Type: "consulta", NewStatus: StatusDisponible})
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(audit.encounters) != 0 || len(audit.transitions) != 0 {
		t.Fatalf("no writes expected")
	}
}

func TestRecordEncounter_WithTransition(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusTratamiento, nil)

	out, err := svc.RecordEncounter(context.Background(), vet, id, EncounterInput{
		Type:      "vacuna",
		Diagnosis: "sano",
		Cost:      decimal.RequireFromString("1500.00"),
		NewStatus: StatusDisponible,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Encounter.Notes != "Atención veterinaria" || out.Encounter.VeterinarianID != 7 {
		t.Fatalf("unexpected encounter: %+v", out.Encounter)
	}
	if out.Transition == nil || out.Transition.To != StatusDisponible {
		t.Fatalf("expected transition, got %+v", out.Transition)
	}
	if got := audit.transitions[0].Reason; got != "vacuna: Cambio por atención médica" {
		t.Fatalf("unexpected reason %q", got)
	}
	if v := repo.byID[id].VeterinarianID; v == nil || *v != 7 {
		t.Fatalf("expected caretaker 7, got %v", v)
	}
}

func TestRecordEncounter_ReasonUsedForNotesAndTransition(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusDisponible, nil)

	_, err := svc.RecordEncounter(context.Background(), vet, id, EncounterInput{
		Type: "cirugía", NewStatus: StatusTratamiento, Reason: "castración",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if audit.encounters[0].Notes != "castración" || audit.transitions[0].Reason != "cirugía: castración" {
		t.Fatalf("unexpected notes/reason: %+v %+v", audit.encounters[0], audit.transitions[0])
	}
}

func TestRecordEncounter_OnlyEncounter(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusReservado, nil)

	out, err := svc.RecordEncounter(context.Background(), vet, id, EncounterInput{Type: "consulta"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Transition != nil || len(audit.transitions) != 0 || repo.byID[id].Status != StatusReservado {
		t.Fatalf("status must stay untouched")
	}
}

func TestRecordEncounter_AdoptadoTarget(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusDisponible, nil)

	_, err := svc.RecordEncounter(context.Background(), vet, id, EncounterInput{Type: "consulta", NewStatus: StatusAdoptado})
	if !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
	if len(audit.encounters) != 0 {
		t.Fatalf("no encounter expected")
	}
}

func TestListForVeterinarian_PriorityAndNames(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	vid := int64(7)
	ghost := int64(99)
	for i, st := range []Status{StatusReservado, StatusDisponible, StatusTratamiento, StatusAdoptado, StatusTratamiento} {
		id := seed(repo, st, nil)
		a := repo.byID[id]
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		repo.byID[id] = a
	}
	a := repo.byID[3]
	a.VeterinarianID = &vid
	repo.byID[3] = a
	a = repo.byID[2]
	a.VeterinarianID = &ghost
	repo.byID[2] = a

	got, err := svc.ListForVeterinarian(context.Background(), vet, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	order := make([]int64, 0, len(got))
	for _, v := range got {
		order = append(order, v.ID)
	}
	if fmt.Sprint(order) != "[5 3 2 1 4]" {
		t.Fatalf("unexpected order: %v", order)
	}
	if got[1].AssignedVeterinarian != "Dra. Ruiz" {
		t.Fatalf("expected vet name, got %q", got[1].AssignedVeterinarian)
	}
	if got[0].AssignedVeterinarian != "Sin asignar" || got[2].AssignedVeterinarian != "Sin asignar" {
		t.Fatalf("expected unassigned labels, got %q / %q", got[0].AssignedVeterinarian, got[2].AssignedVeterinarian)
	}

	if _, err := svc.ListForVeterinarian(context.Background(), vet, "perdido"); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.ListForVeterinarian(context.Background(), usuario, ""); !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDelete_AdminOnly(t *testing.T) {
	repo, audit := newTestRepo(), &testAudit{}
	svc := newTestService(repo, audit)
	id := seed(repo, StatusDisponible, nil)

	if err := svc.Delete(context.Background(), vet, id); !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), admin, id); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Get(context.Background(), id); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
