package reports

import (
	"context"
	"strings"
	"time"

	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/directory"

	"github.com/juju/errors"
)

type Service struct {
	repo Repository
	dir  directory.Directory
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, dir directory.Directory, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		dir:  dir,
		log:  log.With(map[string]any{"component": "reports"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	Title       string
	Description string
	Type        string
	Location    string
	Photos      []string
}

// Validate revisa los campos obligatorios; el handler la usa antes de guardar fotos.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return errors.NotValidf("titulo and descripcion are required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor auth.Claims, in CreateInput) (Report, error) {
	if err := in.Validate(); err != nil {
		return Report{}, err
	}
	r := Report{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Type:        strings.TrimSpace(in.Type),
		Location:    strings.TrimSpace(in.Location),
		Photos:      animals.Photos{},
		Status:      StatusPendiente,
	}
	if err := auth.Require(actor, auth.RoleUsuario); err != nil {
		return Report{}, err
	}
	for _, p := range in.Photos {
		if p = strings.TrimSpace(p); p != "" {
			r.Photos = append(r.Photos, p)
		}
	}

	r.UserID = actor.UserID
	r.ReportedAt = s.now()
	id, err := s.repo.Create(ctx, r)
	if err != nil {
		return Report{}, apperr.Storagef(err, "create report")
	}
	r.ID = id
	s.log.Info("report created", map[string]any{"report_id": id, "user_id": actor.UserID})
	return r, nil
}

// List es la bandeja del admin, más recientes primero.
func (s *Service) List(ctx context.Context, actor auth.Claims) ([]View, error) {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Storagef(err, "list reports")
	}

	names := map[int64]string{}
	out := make([]View, 0, len(items))
	for _, r := range items {
		name, ok := names[r.UserID]
		if !ok && s.dir != nil {
			c, err := s.dir.Contact(ctx, r.UserID)
			if err != nil && !errors.Is(err, errors.NotFound) {
				return nil, apperr.Storagef(err, "lookup user %d", r.UserID)
			}
			name = c.Name
			names[r.UserID] = name
		}
		out = append(out, View{Report: r, UserName: name})
	}
	return out, nil
}

// Review actualiza estado y notas. Un reporte puede revisarse más de una vez.
func (s *Service) Review(ctx context.Context, actor auth.Claims, id int64, estado, notes string) (Report, error) {
	status, ok := ParseStatus(estado)
	if !ok {
		return Report{}, errors.NotValidf("estado %q", estado)
	}
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return Report{}, err
	}
	if id <= 0 {
		return Report{}, errors.NotFoundf("report %d", id)
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Report{}, apperr.Storagef(err, "get report %d", id)
	}

	now := s.now()
	notes = strings.TrimSpace(notes)
	if err := s.repo.Review(ctx, id, status, notes, actor.UserID, now); err != nil {
		return Report{}, apperr.Storagef(err, "review report %d", id)
	}

	reviewer := actor.UserID
	r.Status = status
	r.AdminNotes = notes
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &now
	return r, nil
}
