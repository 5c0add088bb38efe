package memory

import (
	"context"
	"sort"
	"time"

	"animal-shelter/internal/domain/adoptions"

	"github.com/juju/errors"
)

type adoptionRepo struct{ s *Store }

func (r adoptionRepo) Create(ctx context.Context, req adoptions.Request) (int64, error) {
	err := r.s.write(ctx, func(d *data) error {
		req.ID = d.next("adopciones")
		d.adoptions[req.ID] = req
		return nil
	})
	return req.ID, err
}

func (r adoptionRepo) GetByID(ctx context.Context, id int64) (adoptions.Request, error) {
	var (
		req adoptions.Request
		ok  bool
	)
	r.s.read(ctx, func(d *data) { req, ok = d.adoptions[id] })
	if !ok {
		return adoptions.Request{}, errors.NotFoundf("adoption request %d", id)
	}
	return req, nil
}

func (r adoptionRepo) GetForUpdate(ctx context.Context, id int64) (adoptions.Request, error) {
	return r.GetByID(ctx, id)
}

func (r adoptionRepo) Resolve(ctx context.Context, id int64, status adoptions.Status, reviewerID int64, at time.Time) error {
	return r.s.write(ctx, func(d *data) error {
		req, ok := d.adoptions[id]
		if !ok {
			return errors.NotFoundf("adoption request %d", id)
		}
		req.Status = status
		req.ReviewedBy = &reviewerID
		req.ResolvedAt = &at
		d.adoptions[id] = req
		return nil
	})
}

func (r adoptionRepo) ListPending(ctx context.Context) ([]adoptions.Request, error) {
	out := make([]adoptions.Request, 0)
	r.s.read(ctx, func(d *data) {
		for _, req := range d.adoptions {
			if req.Status == adoptions.StatusPendiente {
				out = append(out, req)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
