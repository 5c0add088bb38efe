package history

import (
	"context"
	"strings"
	"time"

	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/ports/auth"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

const (
	DefaultHistoryLimit     = 20
	DefaultTransitionsLimit = 50
	maxLimit                = 100
)

// Service es el registrador del audit trail. Solo agrega filas; nunca modifica ni borra.
type Service struct {
	repo  Repository
	staff StaffDirectory
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, staff StaffDirectory) *Service {
	return &Service{
		repo:  repo,
		staff: staff,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// AppendTransition inserta un registro de cambio de estado. Corre dentro de la
// transacción del llamador (si la hay), así que un error aquí deshace el cambio.
func (s *Service) AppendTransition(ctx context.Context, t Transition) (Transition, error) {
	if t.AnimalID <= 0 || t.ActorID <= 0 {
		return Transition{}, errors.NotValidf("transition without animal or actor")
	}
	if strings.TrimSpace(t.To) == "" {
		return Transition{}, errors.NotValidf("transition without target status")
	}

	t.ID = s.newID()
	t.Reason = strings.TrimSpace(t.Reason)
	if t.At.IsZero() {
		t.At = s.now()
	}

	if err := s.repo.AppendTransition(ctx, t); err != nil {
		return Transition{}, apperr.Storagef(err, "append transition for animal %d", t.AnimalID)
	}
	return t, nil
}

// AppendEncounter inserta una atención veterinaria. Es el efecto principal de "atender",
// por eso el error siempre se propaga.
func (s *Service) AppendEncounter(ctx context.Context, e Encounter) (Encounter, error) {
	if e.AnimalID <= 0 || e.VeterinarianID <= 0 {
		return Encounter{}, errors.NotValidf("encounter without animal or veterinarian")
	}
	if strings.TrimSpace(e.Type) == "" {
		return Encounter{}, errors.NotValidf("tipo_atencion")
	}
	if e.Cost.IsNegative() {
		return Encounter{}, errors.NotValidf("negative costo")
	}

	now := s.now()
	e.ID = s.newID()
	e.Type = strings.TrimSpace(e.Type)
	e.Diagnosis = strings.TrimSpace(e.Diagnosis)
	e.Treatment = strings.TrimSpace(e.Treatment)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.Medications != nil {
		m := strings.TrimSpace(*e.Medications)
		if m == "" {
			e.Medications = nil
		} else {
			e.Medications = &m
		}
	}
	if e.Date.IsZero() {
		e.Date = DateOnly(now)
	}
	if e.NextAppointment != nil {
		d := DateOnly(*e.NextAppointment)
		e.NextAppointment = &d
	}
	e.RecordedAt = now

	if err := s.repo.AppendEncounter(ctx, e); err != nil {
		return Encounter{}, apperr.Storagef(err, "append encounter for animal %d", e.AnimalID)
	}
	return e, nil
}

// GetHistory devuelve las atenciones de un animal, más recientes primero, con el
// nombre/email del veterinario. Requiere rol veterinario.
func (s *Service) GetHistory(ctx context.Context, actor auth.Claims, animalID int64, limit int) ([]EncounterView, error) {
	if err := auth.Require(actor, auth.RoleVeterinario); err != nil {
		return nil, err
	}
	if animalID <= 0 {
		return nil, errors.NotFoundf("animal %d", animalID)
	}

	items, err := s.repo.ListEncounters(ctx, animalID, clampLimit(limit, DefaultHistoryLimit))
	if err != nil {
		return nil, apperr.Storagef(err, "list encounters for animal %d", animalID)
	}

	type contact struct{ name, email string }
	cache := map[int64]contact{}

	out := make([]EncounterView, 0, len(items))
	for _, e := range items {
		if e.AnimalID != animalID {
			continue
		}
		c, ok := cache[e.VeterinarianID]
		if !ok && s.staff != nil {
			name, email, err := s.staff.DisplayName(ctx, e.VeterinarianID)
			if err != nil && !errors.Is(err, errors.NotFound) {
				return nil, apperr.Storagef(err, "lookup veterinarian %d", e.VeterinarianID)
			}
			c = contact{name: name, email: email}
			cache[e.VeterinarianID] = c
		}
		out = append(out, EncounterView{
			Encounter:         e,
			VeterinarianName:  c.name,
			VeterinarianEmail: c.email,
		})
	}
	return out, nil
}

// ListTransitions reconstruye la línea de estados de un animal (más reciente primero).
func (s *Service) ListTransitions(ctx context.Context, actor auth.Claims, animalID int64, limit int) ([]Transition, error) {
	if err := auth.Require(actor, auth.RoleVeterinario); err != nil {
		return nil, err
	}
	if animalID <= 0 {
		return nil, errors.NotFoundf("animal %d", animalID)
	}
	items, err := s.repo.ListTransitions(ctx, animalID, clampLimit(limit, DefaultTransitionsLimit))
	if err != nil {
		return nil, apperr.Storagef(err, "list transitions for animal %d", animalID)
	}
	return items, nil
}

// DateOnly trunca a medianoche UTC (columnas DATE).
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
