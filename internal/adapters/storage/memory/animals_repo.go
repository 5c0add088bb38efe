package memory

import (
	"context"
	"sort"
	"time"

	"animal-shelter/internal/domain/animals"

	"github.com/juju/errors"
)

type animalRepo struct{ s *Store }

func (r animalRepo) Create(ctx context.Context, a animals.Animal) (int64, error) {
	err := r.s.write(ctx, func(d *data) error {
		a.ID = d.next("animales")
		a.Photos = append(animals.Photos{}, a.Photos...)
		a.VeterinarianID = int64Ptr(a.VeterinarianID)
		d.animals[a.ID] = a
		return nil
	})
	return a.ID, err
}

func (r animalRepo) GetByID(ctx context.Context, id int64) (animals.Animal, error) {
	var (
		a  animals.Animal
		ok bool
	)
	r.s.read(ctx, func(d *data) { a, ok = d.animals[id] })
	if !ok {
		return animals.Animal{}, errors.NotFoundf("animal %d", id)
	}
	return a, nil
}

// GetForUpdate no necesita bloquear la fila: dentro de WithinTx ya se tiene txMu
// y se lee la copia de trabajo.
func (r animalRepo) GetForUpdate(ctx context.Context, id int64) (animals.Animal, error) {
	return r.GetByID(ctx, id)
}

func (r animalRepo) UpdateStatus(ctx context.Context, id int64, status animals.Status, vetID *int64, at time.Time) error {
	return r.s.write(ctx, func(d *data) error {
		a, ok := d.animals[id]
		if !ok {
			return errors.NotFoundf("animal %d", id)
		}
		a.Status = status
		a.VeterinarianID = int64Ptr(vetID)
		a.UpdatedAt = at
		d.animals[id] = a
		return nil
	})
}

func (r animalRepo) List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error) {
	out := make([]animals.Animal, 0)
	r.s.read(ctx, func(d *data) {
		for _, a := range d.animals {
			if f.Species != "" && a.Species != f.Species {
				continue
			}
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			if f.Size != "" && a.Size != f.Size {
				continue
			}
			if f.Sex != "" && a.Sex != f.Sex {
				continue
			}
			out = append(out, a)
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if f.Order == animals.OrderCarePriority {
			pi, pj := animals.CarePriority(out[i].Status), animals.CarePriority(out[j].Status)
			if pi != pj {
				return pi < pj
			}
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r animalRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.animals[id]; !ok {
			return errors.NotFoundf("animal %d", id)
		}
		delete(d.animals, id)
		return nil
	})
}
