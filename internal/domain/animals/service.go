package animals

import (
	"context"
	"strings"
	"time"

	"animal-shelter/internal/domain/history"
	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/storage"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

const (
	listLimit = 50

	intakeReason           = "Ingreso al refugio"
	defaultVetReason       = "Cambio por veterinario"
	defaultEncounterReason = "Cambio por atención médica"
	defaultEncounterNotes  = "Atención veterinaria"
)

// AuditRecorder es el lado de escritura del historial (history.Service).
type AuditRecorder interface {
	AppendTransition(ctx context.Context, t history.Transition) (history.Transition, error)
	AppendEncounter(ctx context.Context, e history.Encounter) (history.Encounter, error)
}

// Metrics lo implementa *metrics.Collector.
type Metrics interface {
	TransitionCommitted(from, to, trigger string)
	EncounterRecorded()
}

type Deps struct {
	Repo    Repository
	Audit   AuditRecorder
	Tx      storage.Transactor
	Staff   history.StaffDirectory
	Log     logger.Logger
	Metrics Metrics
}

type Service struct {
	repo    Repository
	audit   AuditRecorder
	tx      storage.Transactor
	staff   history.StaffDirectory
	log     logger.Logger
	metrics Metrics
	now     func() time.Time
}

func NewService(d Deps) *Service {
	tx := d.Tx
	if tx == nil {
		tx = storage.NoTx
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    d.Repo,
		audit:   d.Audit,
		tx:      tx,
		staff:   d.Staff,
		log:     log.With(map[string]any{"component": "animals"}),
		metrics: d.Metrics,
		now:     time.Now,
	}
}

type IntakeInput struct {
	Name        string
	Species     string
	Breed       string
	Age         string
	Sex         string
	Size        string
	Description string
	Health      string
	Location    string
	Photos      []string
}

// TransitionRequest es un cambio de estado pedido por alguna operación del dominio.
type TransitionRequest struct {
	AnimalID int64
	To       Status
	Trigger  Trigger
	Reason   string
}

type TransitionResult struct {
	AnimalID       int64
	AnimalName     string
	From           Status
	To             Status
	Trigger        Trigger
	VeterinarianID *int64
	Record         history.Transition
}

type EncounterInput struct {
	Type            string
	Diagnosis       string
	Treatment       string
	Medications     *string
	NextAppointment *time.Time
	Cost            decimal.Decimal

	// NewStatus vacío => solo se registra la atención.
	NewStatus Status
	Reason    string
}

type EncounterResult struct {
	Encounter  history.Encounter
	Transition *TransitionResult
}

// Intake da de alta un animal en tratamiento, sin veterinario asignado, y registra
// la transición de ingreso en la misma transacción.
func (s *Service) Intake(ctx context.Context, actor auth.Claims, in IntakeInput) (Animal, error) {
	a, err := in.toAnimal()
	if err != nil {
		return Animal{}, err
	}
	if err := auth.Require(actor, TriggerIntake.MinRole()); err != nil {
		return Animal{}, err
	}

	now := s.now()
	a.Status = StatusTratamiento
	a.CreatedBy = actor.UserID
	a.CreatedAt = now
	a.UpdatedAt = now

	var rec history.Transition
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		id, err := s.repo.Create(ctx, a)
		if err != nil {
			return apperr.Storagef(err, "create animal")
		}
		a.ID = id

		rec, err = s.audit.AppendTransition(ctx, history.Transition{
			AnimalID: id,
			ActorID:  actor.UserID,
			From:     string(statusNone),
			To:       string(StatusTratamiento),
			Reason:   intakeReason,
			At:       now,
		})
		return err
	})
	if err != nil {
		return Animal{}, err
	}

	s.Committed(TransitionResult{
		AnimalID: a.ID, AnimalName: a.Name, From: statusNone, To: a.Status,
		Trigger: TriggerIntake, Record: rec,
	})
	return a, nil
}

// Validate revisa los campos obligatorios sin tocar el store. El handler la usa
// antes de guardar fotos.
func (in IntakeInput) Validate() error {
	_, err := in.toAnimal()
	return err
}

func (in IntakeInput) toAnimal() (Animal, error) {
	a := Animal{
		Name:        strings.TrimSpace(in.Name),
		Species:     strings.TrimSpace(in.Species),
		Breed:       strings.TrimSpace(in.Breed),
		Age:         strings.TrimSpace(in.Age),
		Sex:         strings.TrimSpace(in.Sex),
		Size:        strings.TrimSpace(in.Size),
		Description: strings.TrimSpace(in.Description),
		Health:      strings.TrimSpace(in.Health),
		Location:    strings.TrimSpace(in.Location),
		Photos:      Photos{},
	}
	for _, p := range in.Photos {
		if p = strings.TrimSpace(p); p != "" {
			a.Photos = append(a.Photos, p)
		}
	}

	required := []struct{ field, value string }{
		{"nombre", a.Name}, {"especie", a.Species}, {"raza", a.Breed},
		{"edad", a.Age}, {"sexo", a.Sex}, {"tamano", a.Size},
		{"descripcion", a.Description}, {"salud", a.Health}, {"ubicacion", a.Location},
	}
	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.field)
		}
	}
	if len(missing) > 0 {
		return Animal{}, errors.NotValidf("missing fields %s", strings.Join(missing, ", "))
	}
	return a, nil
}

// Transition ejecuta un cambio de estado validado contra la tabla: bloquea la fila,
// escribe estado (y veterinario si el trigger es veterinary) y agrega el registro de
// auditoría. Si el ctx ya trae una transacción se une a ella; en ese caso quien la
// abrió debe llamar a Committed después del commit.
func (s *Service) Transition(ctx context.Context, actor auth.Claims, req TransitionRequest) (TransitionResult, error) {
	if err := auth.Require(actor, req.Trigger.MinRole()); err != nil {
		return TransitionResult{}, err
	}
	if req.AnimalID <= 0 {
		return TransitionResult{}, errors.NotFoundf("animal %d", req.AnimalID)
	}

	var res TransitionResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, req.AnimalID)
		if err != nil {
			return apperr.Storagef(err, "load animal %d", req.AnimalID)
		}
		if !Allowed(a.Status, req.To, req.Trigger) {
			return apperr.Transitionf("animal %d: %s -> %s not allowed for %s", a.ID, a.Status, req.To, req.Trigger)
		}

		vet := a.VeterinarianID
		if req.Trigger == TriggerVeterinary {
			id := actor.UserID
			vet = &id
		}

		now := s.now()
		if err := s.repo.UpdateStatus(ctx, a.ID, req.To, vet, now); err != nil {
			return apperr.Storagef(err, "update status of animal %d", a.ID)
		}

		rec, err := s.audit.AppendTransition(ctx, history.Transition{
			AnimalID: a.ID,
			ActorID:  actor.UserID,
			From:     string(a.Status),
			To:       string(req.To),
			Reason:   req.Reason,
			At:       now,
		})
		if err != nil {
			return err
		}

		res = TransitionResult{
			AnimalID:       a.ID,
			AnimalName:     a.Name,
			From:           a.Status,
			To:             req.To,
			Trigger:        req.Trigger,
			VeterinarianID: vet,
			Record:         rec,
		}
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}
	return res, nil
}

// Committed loguea y cuenta una transición ya confirmada.
func (s *Service) Committed(res TransitionResult) {
	if s.metrics != nil {
		s.metrics.TransitionCommitted(string(res.From), string(res.To), string(res.Trigger))
	}
	s.log.Info("animal status changed", map[string]any{
		"animal_id": res.AnimalID,
		"from":      string(res.From),
		"to":        string(res.To),
		"trigger":   string(res.Trigger),
		"actor_id":  res.Record.ActorID,
		"record_id": res.Record.ID,
	})
}

// SetStatus es el cambio de estado directo del veterinario. El destino se valida
// antes que el rol: adoptado nunca se fija por esta vía.
func (s *Service) SetStatus(ctx context.Context, actor auth.Claims, animalID int64, to Status, reason string) (TransitionResult, error) {
	if to == statusNone {
		return TransitionResult{}, errors.NotValidf("missing nuevo_estado")
	}
	if !to.VeterinarianSettable() {
		return TransitionResult{}, apperr.Transitionf("status %q cannot be set directly (allowed: disponible, tratamiento, reservado)", to)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultVetReason
	}

	res, err := s.Transition(ctx, actor, TransitionRequest{
		AnimalID: animalID,
		To:       to,
		Trigger:  TriggerVeterinary,
		Reason:   reason,
	})
	if err != nil {
		return TransitionResult{}, err
	}
	s.Committed(res)
	return res, nil
}

// RecordEncounter registra una atención y, si se pide, el cambio de estado asociado,
// todo en una transacción.
func (s *Service) RecordEncounter(ctx context.Context, actor auth.Claims, animalID int64, in EncounterInput) (EncounterResult, error) {
	if strings.TrimSpace(in.Type) == "" {
		return EncounterResult{}, errors.NotValidf("missing tipo_atencion")
	}
	if in.Cost.IsNegative() {
		return EncounterResult{}, errors.NotValidf("negative costo")
	}
	if in.NewStatus != statusNone && !in.NewStatus.VeterinarianSettable() {
		return EncounterResult{}, apperr.Transitionf("status %q cannot be set by a veterinarian", in.NewStatus)
	}
	if err := auth.Require(actor, auth.RoleVeterinario); err != nil {
		return EncounterResult{}, err
	}
	if animalID <= 0 {
		return EncounterResult{}, errors.NotFoundf("animal %d", animalID)
	}

	// Carga antes de escribir: un animal inexistente no deja atención huérfana.
	a, err := s.repo.GetByID(ctx, animalID)
	if err != nil {
		return EncounterResult{}, apperr.Storagef(err, "load animal %d", animalID)
	}
	if in.NewStatus != statusNone && !Allowed(a.Status, in.NewStatus, TriggerVeterinary) {
		return EncounterResult{}, apperr.Transitionf("animal %d: %s -> %s not allowed", a.ID, a.Status, in.NewStatus)
	}

	reason := strings.TrimSpace(in.Reason)
	notes := reason
	if notes == "" {
		notes = defaultEncounterNotes
	}

	var out EncounterResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		enc, err := s.audit.AppendEncounter(ctx, history.Encounter{
			AnimalID:        a.ID,
			VeterinarianID:  actor.UserID,
			Type:            in.Type,
			Diagnosis:       in.Diagnosis,
			Treatment:       in.Treatment,
			Medications:     in.Medications,
			NextAppointment: in.NextAppointment,
			Cost:            in.Cost,
			Notes:           notes,
		})
		if err != nil {
			return err
		}
		out.Encounter = enc

		if in.NewStatus == statusNone {
			return nil
		}

		why := reason
		if why == "" {
			why = defaultEncounterReason
		}
		res, err := s.Transition(ctx, actor, TransitionRequest{
			AnimalID: a.ID,
			To:       in.NewStatus,
			Trigger:  TriggerVeterinary,
			Reason:   strings.TrimSpace(in.Type) + ": " + why,
		})
		if err != nil {
			return err
		}
		out.Transition = &res
		return nil
	})
	if err != nil {
		return EncounterResult{}, err
	}

	if s.metrics != nil {
		s.metrics.EncounterRecorded()
	}
	if out.Transition != nil {
		s.Committed(*out.Transition)
	}
	return out, nil
}

// ListForVeterinarian es el panel de trabajo: por prioridad de atención, máx 50.
func (s *Service) ListForVeterinarian(ctx context.Context, actor auth.Claims, status string) ([]VetView, error) {
	f := ListFilter{Order: OrderCarePriority, Limit: listLimit}
	if strings.TrimSpace(status) != "" {
		st, ok := ParseStatus(status)
		if !ok {
			return nil, errors.NotValidf("estado %q", status)
		}
		f.Status = st
	}
	if err := auth.Require(actor, auth.RoleVeterinario); err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Storagef(err, "list animals for veterinarian")
	}

	names := map[int64]string{}
	out := make([]VetView, 0, len(items))
	for _, a := range items {
		v := VetView{Animal: a, AssignedVeterinarian: unassignedVeterinarian}
		if a.VeterinarianID != nil {
			name, ok := names[*a.VeterinarianID]
			if !ok {
				name, err = s.vetName(ctx, *a.VeterinarianID)
				if err != nil {
					return nil, err
				}
				names[*a.VeterinarianID] = name
			}
			v.AssignedVeterinarian = name
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) vetName(ctx context.Context, id int64) (string, error) {
	if s.staff == nil {
		return unassignedVeterinarian, nil
	}
	name, _, err := s.staff.DisplayName(ctx, id)
	if errors.Is(err, errors.NotFound) || (err == nil && name == "") {
		return unassignedVeterinarian, nil
	}
	if err != nil {
		return "", apperr.Storagef(err, "lookup veterinarian %d", id)
	}
	return name, nil
}

// List es el catálogo público.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Animal, error) {
	f.Order = OrderNewest
	if f.Limit <= 0 || f.Limit > listLimit {
		f.Limit = listLimit
	}
	f.Species = strings.TrimSpace(f.Species)
	f.Size = strings.TrimSpace(f.Size)
	f.Sex = strings.TrimSpace(f.Sex)

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Storagef(err, "list animals")
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Animal, error) {
	if id <= 0 {
		return Animal{}, errors.NotFoundf("animal %d", id)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, apperr.Storagef(err, "get animal %d", id)
	}
	return a, nil
}

// Delete borra el animal. El historial queda (no hay FK desde las tablas de auditoría).
func (s *Service) Delete(ctx context.Context, actor auth.Claims, id int64) error {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return err
	}
	if id <= 0 {
		return errors.NotFoundf("animal %d", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Storagef(err, "delete animal %d", id)
	}
	s.log.Info("animal deleted", map[string]any{"animal_id": id, "actor_id": actor.UserID})
	return nil
}
