package adoptions

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r Request) (int64, error)
	GetByID(ctx context.Context, id int64) (Request, error)
	// GetForUpdate bloquea la solicitud hasta el fin de la transacción del ctx.
	GetForUpdate(ctx context.Context, id int64) (Request, error)
	Resolve(ctx context.Context, id int64, status Status, reviewerID int64, at time.Time) error
	// ListPending ordena por fecha_solicitud DESC.
	ListPending(ctx context.Context) ([]Request, error)
}
