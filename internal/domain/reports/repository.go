package reports

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r Report) (int64, error)
	GetByID(ctx context.Context, id int64) (Report, error)
	// List ordena por fecha_reporte DESC.
	List(ctx context.Context) ([]Report, error)
	Review(ctx context.Context, id int64, status Status, notes string, reviewerID int64, at time.Time) error
}
