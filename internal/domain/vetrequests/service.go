package vetrequests

import (
	"context"
	"strings"
	"time"

	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/directory"
	"animal-shelter/internal/ports/storage"

	"github.com/juju/errors"
)

// RoleAssigner lo implementa users.Service.
type RoleAssigner interface {
	AssignRole(ctx context.Context, userID int64, role auth.Role) error
}

type Deps struct {
	Repo      Repository
	Roles     RoleAssigner
	Directory directory.Directory
	Tx        storage.Transactor
	Log       logger.Logger
}

type Service struct {
	repo  Repository
	roles RoleAssigner
	dir   directory.Directory
	tx    storage.Transactor
	log   logger.Logger
	now   func() time.Time
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
		repo:  d.Repo,
		roles: d.Roles,
		dir:   d.Directory,
		tx:    tx,
		log:   log.With(map[string]any{"component": "vetrequests"}),
		now:   time.Now,
	}
}

// Submit registra la solicitud. Un usuario que ya es veterinario o admin, o que ya
// tiene una pendiente, no puede enviar otra.
func (s *Service) Submit(ctx context.Context, actor auth.Claims, experience, specialty string) (Request, error) {
	experience = strings.TrimSpace(experience)
	specialty = strings.TrimSpace(specialty)
	if experience == "" {
		return Request{}, errors.NotValidf("missing experiencia")
	}
	if err := auth.Require(actor, auth.RoleUsuario); err != nil {
		return Request{}, err
	}
	if actor.Role != auth.RoleUsuario {
		return Request{}, errors.NotValidf("user already has role %s", actor.Role)
	}

	pending, err := s.repo.HasPending(ctx, actor.UserID)
	if err != nil {
		return Request{}, apperr.Storagef(err, "check pending vet requests")
	}
	if pending {
		return Request{}, errors.NotValidf("there is already a pending request")
	}

	req := Request{
		UserID:      actor.UserID,
		Experience:  experience,
		Specialty:   specialty,
		Status:      StatusPendiente,
		RequestedAt: s.now(),
	}
	id, err := s.repo.Create(ctx, req)
	if err != nil {
		return Request{}, apperr.Storagef(err, "create vet request")
	}
	req.ID = id
	s.log.Info("vet request submitted", map[string]any{"request_id": id, "user_id": actor.UserID})
	return req, nil
}

// Resolve aprueba o rechaza. Aprobar convierte al usuario en veterinario en la misma transacción.
func (s *Service) Resolve(ctx context.Context, actor auth.Claims, id int64, estado string) (Request, error) {
	status, ok := ParseResolution(estado)
	if !ok {
		return Request{}, errors.NotValidf("estado %q (expected aprobada or rechazada)", estado)
	}
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return Request{}, err
	}
	if id <= 0 {
		return Request{}, errors.NotFoundf("vet request %d", id)
	}

	var out Request
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return apperr.Storagef(err, "load vet request %d", id)
		}
		if req.Status != StatusPendiente {
			return apperr.Transitionf("vet request %d already %s", id, req.Status)
		}

		now := s.now()
		if err := s.repo.Resolve(ctx, id, status, actor.UserID, now); err != nil {
			return apperr.Storagef(err, "resolve vet request %d", id)
		}
		if status == StatusAprobada {
			if err := s.roles.AssignRole(ctx, req.UserID, auth.RoleVeterinario); err != nil {
				return err
			}
		}

		reviewer := actor.UserID
		req.Status = status
		req.ReviewedBy = &reviewer
		req.ResolvedAt = &now
		out = req
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.log.Info("vet request resolved", map[string]any{"request_id": id, "estado": string(status), "admin_id": actor.UserID})
	return out, nil
}

func (s *Service) ListPending(ctx context.Context, actor auth.Claims) ([]PendingView, error) {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	items, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperr.Storagef(err, "list pending vet requests")
	}

	out := make([]PendingView, 0, len(items))
	for _, req := range items {
		v := PendingView{Request: req, User: directory.Contact{ID: req.UserID}}
		if s.dir != nil {
			c, err := s.dir.Contact(ctx, req.UserID)
			switch {
			case err == nil:
				v.User = c
			case !errors.Is(err, errors.NotFound):
				return nil, apperr.Storagef(err, "lookup user %d", req.UserID)
			}
		}
		out = append(out, v)
	}
	return out, nil
}
