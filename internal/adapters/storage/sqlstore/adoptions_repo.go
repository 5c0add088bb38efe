package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"animal-shelter/internal/domain/adoptions"

	"github.com/juju/errors"
)

type AdoptionsRepo struct{ s *Store }

func (s *Store) Adoptions() *AdoptionsRepo { return &AdoptionsRepo{s: s} }

const adoptionColumns = `id, usuario_id, animal_id, motivo, vivienda, tiene_otros_animales, estado,
	revisado_por, fecha_solicitud, fecha_resolucion`

func scanAdoption(sc interface{ Scan(...any) error }) (adoptions.Request, error) {
	var (
		req                 adoptions.Request
		status              string
		requested, resolved dbTime
	)
	if err := sc.Scan(
		&req.ID, &req.UserID, &req.AnimalID, &req.Motive, &req.Housing, &req.HasOtherAnimals, &status,
		&req.ReviewedBy, &requested, &resolved,
	); err != nil {
		return adoptions.Request{}, err
	}
	req.Status = adoptions.Status(status)
	req.RequestedAt = requested.Time
	req.ResolvedAt = resolved.ptr()
	return req, nil
}

func (r *AdoptionsRepo) Create(ctx context.Context, req adoptions.Request) (int64, error) {
	id, err := r.s.insert(ctx, `
		INSERT INTO adopciones (usuario_id, animal_id, motivo, vivienda, tiene_otros_animales, estado, fecha_solicitud)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.UserID, req.AnimalID, req.Motive, req.Housing, req.HasOtherAnimals, string(req.Status), req.RequestedAt.UTC(),
	)
	if err != nil {
		return 0, errors.Annotate(err, "insert adoption request")
	}
	return id, nil
}

func (r *AdoptionsRepo) get(ctx context.Context, id int64, lock bool) (adoptions.Request, error) {
	q := `SELECT ` + adoptionColumns + ` FROM adopciones WHERE id = ?`
	if lock {
		q += r.s.forUpdate()
	}
	req, err := scanAdoption(r.s.queryRow(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return adoptions.Request{}, errors.NotFoundf("adoption request %d", id)
	}
	return req, err
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id int64) (adoptions.Request, error) {
	return r.get(ctx, id, false)
}

func (r *AdoptionsRepo) GetForUpdate(ctx context.Context, id int64) (adoptions.Request, error) {
	return r.get(ctx, id, true)
}

func (r *AdoptionsRepo) Resolve(ctx context.Context, id int64, status adoptions.Status, reviewerID int64, at time.Time) error {
	res, err := r.s.exec(ctx, `UPDATE adopciones SET estado = ?, revisado_por = ?, fecha_resolucion = ? WHERE id = ?`,
		string(status), reviewerID, at.UTC(), id)
	return updated(res, err, "adoption request %d", id)
}

func (r *AdoptionsRepo) ListPending(ctx context.Context) ([]adoptions.Request, error) {
	rows, err := r.s.query(ctx, `SELECT `+adoptionColumns+` FROM adopciones
		WHERE estado = ? ORDER BY fecha_solicitud DESC, id DESC`, string(adoptions.StatusPendiente))
	if err != nil {
		return nil, errors.Annotate(err, "list adoption requests")
	}
	defer rows.Close()

	out := make([]adoptions.Request, 0)
	for rows.Next() {
		req, err := scanAdoption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
