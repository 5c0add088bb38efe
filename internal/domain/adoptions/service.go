package adoptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/directory"
	"animal-shelter/internal/ports/storage"

	"github.com/juju/errors"
)

// Lifecycle es lo que adoptions usa de animals.Service.
type Lifecycle interface {
	Get(ctx context.Context, id int64) (animals.Animal, error)
	Transition(ctx context.Context, actor auth.Claims, req animals.TransitionRequest) (animals.TransitionResult, error)
	Committed(res animals.TransitionResult)
}

type Deps struct {
	Repo      Repository
	Animals   Lifecycle
	Directory directory.Directory
	Tx        storage.Transactor
	Log       logger.Logger
}

type Service struct {
	repo    Repository
	animals Lifecycle
	dir     directory.Directory
	tx      storage.Transactor
	log     logger.Logger
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
		animals: d.Animals,
		dir:     d.Directory,
		tx:      tx,
		log:     log.With(map[string]any{"component": "adoptions"}),
		now:     time.Now,
	}
}

type RequestInput struct {
	AnimalID        int64
	Motive          string
	Housing         string
	HasOtherAnimals bool
}

// Submit registra la solicitud y reserva el animal en la misma transacción.
// Un animal adoptado no acepta solicitudes.
func (s *Service) Submit(ctx context.Context, actor auth.Claims, in RequestInput) (Request, error) {
	in.Motive = strings.TrimSpace(in.Motive)
	in.Housing = strings.TrimSpace(in.Housing)
	if in.AnimalID <= 0 {
		return Request{}, errors.NotValidf("missing animal_id")
	}
	if in.Motive == "" || in.Housing == "" {
		return Request{}, errors.NotValidf("motivo and vivienda are required")
	}
	if err := auth.Require(actor, animals.TriggerAdoptionRequest.MinRole()); err != nil {
		return Request{}, err
	}

	a, err := s.animals.Get(ctx, in.AnimalID)
	if err != nil {
		return Request{}, err
	}
	if !animals.Allowed(a.Status, animals.StatusReservado, animals.TriggerAdoptionRequest) {
		return Request{}, apperr.Transitionf("animal %d is %s and cannot be requested", a.ID, a.Status)
	}

	req := Request{
		UserID:          actor.UserID,
		AnimalID:        a.ID,
		Motive:          in.Motive,
		Housing:         in.Housing,
		HasOtherAnimals: in.HasOtherAnimals,
		Status:          StatusPendiente,
		RequestedAt:     s.now(),
	}

	var res animals.TransitionResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		id, err := s.repo.Create(ctx, req)
		if err != nil {
			return apperr.Storagef(err, "create adoption request")
		}
		req.ID = id

		res, err = s.animals.Transition(ctx, actor, animals.TransitionRequest{
			AnimalID: a.ID,
			To:       animals.StatusReservado,
			Trigger:  animals.TriggerAdoptionRequest,
			Reason:   fmt.Sprintf("Solicitud de adopción #%d", id),
		})
		return err
	})
	if err != nil {
		return Request{}, err
	}

	s.animals.Committed(res)
	s.log.Info("adoption requested", map[string]any{"request_id": req.ID, "animal_id": a.ID, "user_id": actor.UserID})
	return req, nil
}

// Resolve aprueba o rechaza una solicitud pendiente. Aprobar marca el animal como
// adoptado; rechazar no toca el animal (queda reservado hasta que alguien lo cambie).
func (s *Service) Resolve(ctx context.Context, actor auth.Claims, id int64, estado string) (Request, error) {
	status, ok := ParseResolution(estado)
	if !ok {
		return Request{}, errors.NotValidf("estado %q (expected aprobada or rechazada)", estado)
	}
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return Request{}, err
	}
	if id <= 0 {
		return Request{}, errors.NotFoundf("adoption request %d", id)
	}

	var (
		out Request
		res *animals.TransitionResult
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return apperr.Storagef(err, "load adoption request %d", id)
		}
		if req.Status != StatusPendiente {
			return apperr.Transitionf("adoption request %d already %s", id, req.Status)
		}

		now := s.now()
		if err := s.repo.Resolve(ctx, id, status, actor.UserID, now); err != nil {
			return apperr.Storagef(err, "resolve adoption request %d", id)
		}
		reviewer := actor.UserID
		req.Status = status
		req.ReviewedBy = &reviewer
		req.ResolvedAt = &now
		out = req

		if status != StatusAprobada {
			return nil
		}
		tr, err := s.animals.Transition(ctx, actor, animals.TransitionRequest{
			AnimalID: req.AnimalID,
			To:       animals.StatusAdoptado,
			Trigger:  animals.TriggerAdoptionApproval,
			Reason:   fmt.Sprintf("Adopción aprobada (solicitud #%d)", id),
		})
		if err != nil {
			return err
		}
		res = &tr
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	if res != nil {
		s.animals.Committed(*res)
	}
	s.log.Info("adoption resolved", map[string]any{"request_id": id, "estado": string(status), "admin_id": actor.UserID})
	return out, nil
}

// ListPending devuelve las solicitudes pendientes, más recientes primero.
func (s *Service) ListPending(ctx context.Context, actor auth.Claims) ([]PendingView, error) {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}

	items, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperr.Storagef(err, "list pending adoptions")
	}

	out := make([]PendingView, 0, len(items))
	for _, req := range items {
		v := PendingView{Request: req, AnimalPhotos: animals.Photos{}}

		c, err := s.contact(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		v.UserName = c.Name

		a, err := s.animals.Get(ctx, req.AnimalID)
		switch {
		case errors.Is(err, errors.NotFound):
			// el animal fue eliminado; la solicitud se sigue mostrando
		case err != nil:
			return nil, err
		default:
			v.AnimalName = a.Name
			v.AnimalSpecies = a.Species
			v.AnimalPhotos = a.Photos
		}
		out = append(out, v)
	}
	return out, nil
}

// Get devuelve la solicitud con el contacto del solicitante y el perfil del animal.
func (s *Service) Get(ctx context.Context, actor auth.Claims, id int64) (Detail, error) {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return Detail{}, err
	}
	if id <= 0 {
		return Detail{}, errors.NotFoundf("adoption request %d", id)
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Detail{}, apperr.Storagef(err, "get adoption request %d", id)
	}
	c, err := s.contact(ctx, req.UserID)
	if err != nil {
		return Detail{}, err
	}
	a, err := s.animals.Get(ctx, req.AnimalID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Request: req, User: c, Animal: a}, nil
}

func (s *Service) contact(ctx context.Context, userID int64) (directory.Contact, error) {
	if s.dir == nil {
		return directory.Contact{ID: userID}, nil
	}
	c, err := s.dir.Contact(ctx, userID)
	if errors.Is(err, errors.NotFound) {
		return directory.Contact{ID: userID}, nil
	}
	if err != nil {
		return directory.Contact{}, apperr.Storagef(err, "lookup user %d", userID)
	}
	return c, nil
}
