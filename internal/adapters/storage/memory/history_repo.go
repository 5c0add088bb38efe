package memory

import (
	"context"
	"sort"

	"animal-shelter/internal/domain/history"

	"github.com/juju/errors"
)

type historyRepo struct{ s *Store }

func (r historyRepo) AppendTransition(ctx context.Context, t history.Transition) error {
	if t.ID == "" {
		return errors.NotValidf("transition id")
	}
	return r.s.write(ctx, func(d *data) error {
		d.transitions = append(d.transitions, t)
		return nil
	})
}

func (r historyRepo) AppendEncounter(ctx context.Context, e history.Encounter) error {
	if e.ID == "" {
		return errors.NotValidf("encounter id")
	}
	return r.s.write(ctx, func(d *data) error {
		d.encounters = append(d.encounters, e)
		return nil
	})
}

func (r historyRepo) ListEncounters(ctx context.Context, animalID int64, limit int) ([]history.Encounter, error) {
	out := make([]history.Encounter, 0)
	r.s.read(ctx, func(d *data) {
		// Se recorre al revés para que, a igual fecha, gane el último insertado.
		for i := len(d.encounters) - 1; i >= 0; i-- {
			if d.encounters[i].AnimalID == animalID {
				out = append(out, d.encounters[i])
			}
		}
	})

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return truncate(out, limit), nil
}

func (r historyRepo) ListTransitions(ctx context.Context, animalID int64, limit int) ([]history.Transition, error) {
	out := make([]history.Transition, 0)
	r.s.read(ctx, func(d *data) {
		for i := len(d.transitions) - 1; i >= 0; i-- {
			if d.transitions[i].AnimalID == animalID {
				out = append(out, d.transitions[i])
			}
		}
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	return truncate(out, limit), nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
