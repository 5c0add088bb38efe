package sqlstore

import (
	"context"

	"animal-shelter/internal/domain/history"

	"github.com/juju/errors"
)

type HistoryRepo struct{ s *Store }

func (s *Store) History() *HistoryRepo { return &HistoryRepo{s: s} }

func (r *HistoryRepo) AppendTransition(ctx context.Context, t history.Transition) error {
	_, err := r.s.exec(ctx, `
		INSERT INTO historial_estados (id, animal_id, usuario_id, estado_anterior, estado_nuevo, razon, fecha)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AnimalID, t.ActorID, t.From, t.To, t.Reason, t.At.UTC(),
	)
	return errors.Annotate(err, "insert transition")
}

func (r *HistoryRepo) AppendEncounter(ctx context.Context, e history.Encounter) error {
	_, err := r.s.exec(ctx, `
		INSERT INTO historial_medico (id, animal_id, veterinario_id, tipo_atencion, diagnostico, tratamiento,
			medicamentos, proxima_cita, costo, notas, fecha_atencion, fecha_registro)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AnimalID, e.VeterinarianID, e.Type, e.Diagnosis, e.Treatment,
		e.Medications, utcPtr(e.NextAppointment), e.Cost, e.Notes, e.Date.UTC(), e.RecordedAt.UTC(),
	)
	return errors.Annotate(err, "insert encounter")
}

func (r *HistoryRepo) ListEncounters(ctx context.Context, animalID int64, limit int) ([]history.Encounter, error) {
	q := `
		SELECT id, animal_id, veterinario_id, tipo_atencion, diagnostico, tratamiento,
			medicamentos, proxima_cita, costo, notas, fecha_atencion, fecha_registro
		FROM historial_medico
		WHERE animal_id = ?
		ORDER BY fecha_atencion DESC, fecha_registro DESC, ` + r.s.insertOrder() + ` DESC`
	args := []any{animalID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.s.query(ctx, q, args...)
	if err != nil {
		return nil, errors.Annotate(err, "list encounters")
	}
	defer rows.Close()

	out := make([]history.Encounter, 0)
	for rows.Next() {
		var (
			e                  history.Encounter
			next, date, record dbTime
		)
		if err := rows.Scan(
			&e.ID, &e.AnimalID, &e.VeterinarianID, &e.Type, &e.Diagnosis, &e.Treatment,
			&e.Medications, &next, &e.Cost, &e.Notes, &date, &record,
		); err != nil {
			return nil, err
		}
		e.NextAppointment = next.ptr()
		e.Date = date.Time
		e.RecordedAt = record.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *HistoryRepo) ListTransitions(ctx context.Context, animalID int64, limit int) ([]history.Transition, error) {
	q := `
		SELECT id, animal_id, usuario_id, estado_anterior, estado_nuevo, razon, fecha
		FROM historial_estados
		WHERE animal_id = ?
		ORDER BY fecha DESC, ` + r.s.insertOrder() + ` DESC`
	args := []any{animalID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.s.query(ctx, q, args...)
	if err != nil {
		return nil, errors.Annotate(err, "list transitions")
	}
	defer rows.Close()

	out := make([]history.Transition, 0)
	for rows.Next() {
		var (
			t  history.Transition
			at dbTime
		)
		if err := rows.Scan(&t.ID, &t.AnimalID, &t.ActorID, &t.From, &t.To, &t.Reason, &at); err != nil {
			return nil, err
		}
		t.At = at.Time
		out = append(out, t)
	}
	return out, rows.Err()
}
