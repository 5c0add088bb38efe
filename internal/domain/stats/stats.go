// Package stats arma los contadores de los paneles (general y de veterinario).
package stats

import (
	"context"
	"time"

	"animal-shelter/internal/domain/history"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
)

type General struct {
	TotalAnimals     int64
	Available        int64
	Adopted          int64
	PendingReports   int64
	PendingAdoptions int64
	PendingVetReqs   int64
}

type Veterinarian struct {
	InTreatment    int64
	Available      int64
	EncountersAll  int64
	Assigned       int64
	EncountersWeek int64
	Name           string
}

// Repository resuelve los COUNT(*) de cada panel.
type Repository interface {
	GeneralCounts(ctx context.Context) (General, error)
	// VeterinarianCounts cuenta atenciones con fecha >= since.
	VeterinarianCounts(ctx context.Context, vetID int64, since time.Time) (Veterinarian, error)
}

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log.With(map[string]any{"component": "stats"}), now: time.Now}
}

// General nunca falla por el store: si la consulta falla se devuelven ceros y se loguea.
func (s *Service) General(ctx context.Context, actor auth.Claims) (General, error) {
	if err := auth.Require(actor, auth.RoleUsuario); err != nil {
		return General{}, err
	}
	g, err := s.repo.GeneralCounts(ctx)
	if err != nil {
		s.log.Warn("general stats degraded", map[string]any{"error": err.Error()})
		return General{}, nil
	}
	return g, nil
}

func (s *Service) Veterinarian(ctx context.Context, actor auth.Claims) (Veterinarian, error) {
	if err := auth.Require(actor, auth.RoleVeterinario); err != nil {
		return Veterinarian{}, err
	}
	since := history.DateOnly(s.now()).AddDate(0, 0, -7)
	v, err := s.repo.VeterinarianCounts(ctx, actor.UserID, since)
	if err != nil {
		return Veterinarian{Name: actor.Name}, errors.Annotatef(err, "veterinarian stats %d", actor.UserID)
	}
	v.Name = actor.Name
	return v, nil
}
