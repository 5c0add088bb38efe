package memory

import (
	"context"
	"time"

	"animal-shelter/internal/domain/adoptions"
	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/domain/reports"
	"animal-shelter/internal/domain/stats"
	"animal-shelter/internal/domain/vetrequests"
)

type statsRepo struct{ s *Store }

func (r statsRepo) GeneralCounts(ctx context.Context) (stats.General, error) {
	var g stats.General
	r.s.read(ctx, func(d *data) {
		g.TotalAnimals = int64(len(d.animals))
		for _, a := range d.animals {
			switch a.Status {
			case animals.StatusDisponible:
				g.Available++
			case animals.StatusAdoptado:
				g.Adopted++
			}
		}
		for _, rep := range d.reports {
			if rep.Status == reports.StatusPendiente {
				g.PendingReports++
			}
		}
		for _, req := range d.adoptions {
			if req.Status == adoptions.StatusPendiente {
				g.PendingAdoptions++
			}
		}
		for _, req := range d.vetRequests {
			if req.Status == vetrequests.StatusPendiente {
				g.PendingVetReqs++
			}
		}
	})
	return g, nil
}

func (r statsRepo) VeterinarianCounts(ctx context.Context, vetID int64, since time.Time) (stats.Veterinarian, error) {
	var v stats.Veterinarian
	r.s.read(ctx, func(d *data) {
		for _, a := range d.animals {
			switch a.Status {
			case animals.StatusTratamiento:
				v.InTreatment++
			case animals.StatusDisponible:
				v.Available++
			}
			if a.VeterinarianID != nil && *a.VeterinarianID == vetID {
				v.Assigned++
			}
		}
		for _, e := range d.encounters {
			if e.VeterinarianID != vetID {
				continue
			}
			v.EncountersAll++
			if !e.Date.Before(since) {
				v.EncountersWeek++
			}
		}
	})
	return v, nil
}
