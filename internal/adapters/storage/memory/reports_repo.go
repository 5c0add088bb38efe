package memory

import (
	"context"
	"sort"
	"time"

	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/domain/reports"

	"github.com/juju/errors"
)

type reportRepo struct{ s *Store }

func (r reportRepo) Create(ctx context.Context, rep reports.Report) (int64, error) {
	err := r.s.write(ctx, func(d *data) error {
		rep.ID = d.next("reportes")
		rep.Photos = append(animals.Photos{}, rep.Photos...)
		d.reports[rep.ID] = rep
		return nil
	})
	return rep.ID, err
}

func (r reportRepo) GetByID(ctx context.Context, id int64) (reports.Report, error) {
	var (
		rep reports.Report
		ok  bool
	)
	r.s.read(ctx, func(d *data) { rep, ok = d.reports[id] })
	if !ok {
		return reports.Report{}, errors.NotFoundf("report %d", id)
	}
	return rep, nil
}

func (r reportRepo) List(ctx context.Context) ([]reports.Report, error) {
	out := make([]reports.Report, 0)
	r.s.read(ctx, func(d *data) {
		for _, rep := range d.reports {
			out = append(out, rep)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReportedAt.Equal(out[j].ReportedAt) {
			return out[i].ReportedAt.After(out[j].ReportedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r reportRepo) Review(ctx context.Context, id int64, status reports.Status, notes string, reviewerID int64, at time.Time) error {
	return r.s.write(ctx, func(d *data) error {
		rep, ok := d.reports[id]
		if !ok {
			return errors.NotFoundf("report %d", id)
		}
		rep.Status = status
		rep.AdminNotes = notes
		rep.ReviewedBy = &reviewerID
		rep.ReviewedAt = &at
		d.reports[id] = rep
		return nil
	})
}
