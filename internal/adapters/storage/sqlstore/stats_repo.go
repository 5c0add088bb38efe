package sqlstore

import (
	"context"
	"time"

	"animal-shelter/internal/domain/stats"

	"github.com/juju/errors"
)

type StatsRepo struct{ s *Store }

func (s *Store) Stats() *StatsRepo { return &StatsRepo{s: s} }

type countQuery struct {
	dst   *int64
	query string
	args  []any
}

func (r *StatsRepo) run(ctx context.Context, queries []countQuery) error {
	for _, q := range queries {
		if err := r.s.queryRow(ctx, q.query, q.args...).Scan(q.dst); err != nil {
			return errors.Annotatef(err, "count: %s", q.query)
		}
	}
	return nil
}

func (r *StatsRepo) GeneralCounts(ctx context.Context) (stats.General, error) {
	var g stats.General
	err := r.run(ctx, []countQuery{
		{&g.TotalAnimals, `SELECT COUNT(*) FROM animales`, nil},
		{&g.Available, `SELECT COUNT(*) FROM animales WHERE estado = ?`, []any{"disponible"}},
		{&g.Adopted, `SELECT COUNT(*) FROM animales WHERE estado = ?`, []any{"adoptado"}},
		{&g.PendingReports, `SELECT COUNT(*) FROM reportes WHERE estado = ?`, []any{"pendiente"}},
		{&g.PendingAdoptions, `SELECT COUNT(*) FROM adopciones WHERE estado = ?`, []any{"pendiente"}},
		{&g.PendingVetReqs, `SELECT COUNT(*) FROM solicitudes_veterinario WHERE estado = ?`, []any{"pendiente"}},
	})
	return g, err
}

func (r *StatsRepo) VeterinarianCounts(ctx context.Context, vetID int64, since time.Time) (stats.Veterinarian, error) {
	var v stats.Veterinarian
	err := r.run(ctx, []countQuery{
		{&v.InTreatment, `SELECT COUNT(*) FROM animales WHERE estado = ?`, []any{"tratamiento"}},
		{&v.Available, `SELECT COUNT(*) FROM animales WHERE estado = ?`, []any{"disponible"}},
		{&v.EncountersAll, `SELECT COUNT(*) FROM historial_medico WHERE veterinario_id = ?`, []any{vetID}},
		{&v.Assigned, `SELECT COUNT(*) FROM animales WHERE veterinario_id = ?`, []any{vetID}},
		{&v.EncountersWeek, `SELECT COUNT(*) FROM historial_medico WHERE veterinario_id = ? AND fecha_atencion >= ?`, []any{vetID, since.UTC()}},
	})
	return v, err
}
