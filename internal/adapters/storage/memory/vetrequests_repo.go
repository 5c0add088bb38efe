package memory

import (
	"context"
	"sort"
	"time"

	"animal-shelter/internal/domain/vetrequests"

	"github.com/juju/errors"
)

type vetRequestRepo struct{ s *Store }

func (r vetRequestRepo) Create(ctx context.Context, req vetrequests.Request) (int64, error) {
	err := r.s.write(ctx, func(d *data) error {
		req.ID = d.next("solicitudes_veterinario")
		d.vetRequests[req.ID] = req
		return nil
	})
	return req.ID, err
}

func (r vetRequestRepo) GetForUpdate(ctx context.Context, id int64) (vetrequests.Request, error) {
	var (
		req vetrequests.Request
		ok  bool
	)
	r.s.read(ctx, func(d *data) { req, ok = d.vetRequests[id] })
	if !ok {
		return vetrequests.Request{}, errors.NotFoundf("veterinarian request %d", id)
	}
	return req, nil
}

func (r vetRequestRepo) Resolve(ctx context.Context, id int64, status vetrequests.Status, reviewerID int64, at time.Time) error {
	return r.s.write(ctx, func(d *data) error {
		req, ok := d.vetRequests[id]
		if !ok {
			return errors.NotFoundf("veterinarian request %d", id)
		}
		req.Status = status
		req.ReviewedBy = &reviewerID
		req.ResolvedAt = &at
		d.vetRequests[id] = req
		return nil
	})
}

func (r vetRequestRepo) ListPending(ctx context.Context) ([]vetrequests.Request, error) {
	out := make([]vetrequests.Request, 0)
	r.s.read(ctx, func(d *data) {
		for _, req := range d.vetRequests {
			if req.Status == vetrequests.StatusPendiente {
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

func (r vetRequestRepo) HasPending(ctx context.Context, userID int64) (bool, error) {
	found := false
	r.s.read(ctx, func(d *data) {
		for _, req := range d.vetRequests {
			if req.UserID == userID && req.Status == vetrequests.StatusPendiente {
				found = true
				return
			}
		}
	})
	return found, nil
}
