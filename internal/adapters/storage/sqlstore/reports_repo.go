package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"animal-shelter/internal/domain/reports"

	"github.com/juju/errors"
)

type ReportsRepo struct{ s *Store }

func (s *Store) Reports() *ReportsRepo { return &ReportsRepo{s: s} }

const reportColumns = `id, usuario_id, titulo, descripcion, tipo_reporte, ubicacion, fotos, estado,
	notas_admin, revisado_por, fecha_reporte, fecha_revision`

func scanReport(sc interface{ Scan(...any) error }) (reports.Report, error) {
	var (
		rep                reports.Report
		status             string
		reported, reviewed dbTime
	)
	if err := sc.Scan(&rep.ID, &rep.UserID, &rep.Title, &rep.Description, &rep.Type, &rep.Location,
		&rep.Photos, &status, &rep.AdminNotes, &rep.ReviewedBy, &reported, &reviewed); err != nil {
		return reports.Report{}, err
	}
	rep.Status = reports.Status(status)
	rep.ReportedAt = reported.Time
	rep.ReviewedAt = reviewed.ptr()
	return rep, nil
}

func (r *ReportsRepo) Create(ctx context.Context, rep reports.Report) (int64, error) {
	id, err := r.s.insert(ctx, `
		INSERT INTO reportes (usuario_id, titulo, descripcion, tipo_reporte, ubicacion, fotos, estado, notas_admin, fecha_reporte)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.UserID, rep.Title, rep.Description, rep.Type, rep.Location, rep.Photos, string(rep.Status),
		rep.AdminNotes, rep.ReportedAt.UTC(),
	)
	if err != nil {
		return 0, errors.Annotate(err, "insert report")
	}
	return id, nil
}

func (r *ReportsRepo) GetByID(ctx context.Context, id int64) (reports.Report, error) {
	rep, err := scanReport(r.s.queryRow(ctx, `SELECT `+reportColumns+` FROM reportes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return reports.Report{}, errors.NotFoundf("report %d", id)
	}
	return rep, err
}

func (r *ReportsRepo) List(ctx context.Context) ([]reports.Report, error) {
	rows, err := r.s.query(ctx, `SELECT `+reportColumns+` FROM reportes ORDER BY fecha_reporte DESC, id DESC`)
	if err != nil {
		return nil, errors.Annotate(err, "list reports")
	}
	defer rows.Close()

	out := make([]reports.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *ReportsRepo) Review(ctx context.Context, id int64, status reports.Status, notes string, reviewerID int64, at time.Time) error {
	res, err := r.s.exec(ctx, `UPDATE reportes SET estado = ?, notas_admin = ?, revisado_por = ?, fecha_revision = ? WHERE id = ?`,
		string(status), notes, reviewerID, at.UTC(), id)
	return updated(res, err, "report %d", id)
}
