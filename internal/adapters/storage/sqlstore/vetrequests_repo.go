package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"animal-shelter/internal/domain/vetrequests"

	"github.com/juju/errors"
)

type VetRequestsRepo struct{ s *Store }

func (s *Store) VetRequests() *VetRequestsRepo { return &VetRequestsRepo{s: s} }

const vetRequestColumns = `id, usuario_id, experiencia, especialidad, estado, revisado_por, fecha_solicitud, fecha_resolucion`

func scanVetRequest(sc interface{ Scan(...any) error }) (vetrequests.Request, error) {
	var (
		req                 vetrequests.Request
		status              string
		requested, resolved dbTime
	)
	if err := sc.Scan(&req.ID, &req.UserID, &req.Experience, &req.Specialty, &status,
		&req.ReviewedBy, &requested, &resolved); err != nil {
		return vetrequests.Request{}, err
	}
	req.Status = vetrequests.Status(status)
	req.RequestedAt = requested.Time
	req.ResolvedAt = resolved.ptr()
	return req, nil
}

func (r *VetRequestsRepo) Create(ctx context.Context, req vetrequests.Request) (int64, error) {
	id, err := r.s.insert(ctx, `
		INSERT INTO solicitudes_veterinario (usuario_id, experiencia, especialidad, estado, fecha_solicitud)
		VALUES (?, ?, ?, ?, ?)`,
		req.UserID, req.Experience, req.Specialty, string(req.Status), req.RequestedAt.UTC(),
	)
	if err != nil {
		return 0, errors.Annotate(err, "insert veterinarian request")
	}
	return id, nil
}

func (r *VetRequestsRepo) GetForUpdate(ctx context.Context, id int64) (vetrequests.Request, error) {
	req, err := scanVetRequest(r.s.queryRow(ctx,
		`SELECT `+vetRequestColumns+` FROM solicitudes_veterinario WHERE id = ?`+r.s.forUpdate(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return vetrequests.Request{}, errors.NotFoundf("veterinarian request %d", id)
	}
	return req, err
}

func (r *VetRequestsRepo) Resolve(ctx context.Context, id int64, status vetrequests.Status, reviewerID int64, at time.Time) error {
	res, err := r.s.exec(ctx, `UPDATE solicitudes_veterinario SET estado = ?, revisado_por = ?, fecha_resolucion = ? WHERE id = ?`,
		string(status), reviewerID, at.UTC(), id)
	return updated(res, err, "veterinarian request %d", id)
}

func (r *VetRequestsRepo) ListPending(ctx context.Context) ([]vetrequests.Request, error) {
	rows, err := r.s.query(ctx, `SELECT `+vetRequestColumns+` FROM solicitudes_veterinario
		WHERE estado = ? ORDER BY fecha_solicitud DESC, id DESC`, string(vetrequests.StatusPendiente))
	if err != nil {
		return nil, errors.Annotate(err, "list veterinarian requests")
	}
	defer rows.Close()

	out := make([]vetrequests.Request, 0)
	for rows.Next() {
		req, err := scanVetRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *VetRequestsRepo) HasPending(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := r.s.queryRow(ctx, `SELECT COUNT(*) FROM solicitudes_veterinario WHERE usuario_id = ? AND estado = ?`,
		userID, string(vetrequests.StatusPendiente)).Scan(&n)
	if err != nil {
		return false, errors.Annotate(err, "count pending veterinarian requests")
	}
	return n > 0, nil
}
