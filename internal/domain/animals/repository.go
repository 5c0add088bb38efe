package animals

import (
	"context"
	"time"
)

// Order del listado.
type Order int

const (
	// OrderNewest: creado_en DESC (catálogo público).
	OrderNewest Order = iota
	// OrderCarePriority: tratamiento, disponible, reservado, resto; luego creado_en DESC.
	OrderCarePriority
)

type ListFilter struct {
	Species string
	Status  Status
	Size    string
	Sex     string
	Order   Order
	Limit   int
}

type Repository interface {
	Create(ctx context.Context, a Animal) (int64, error)
	GetByID(ctx context.Context, id int64) (Animal, error)
	// GetForUpdate lee y bloquea la fila hasta el fin de la transacción del ctx.
	GetForUpdate(ctx context.Context, id int64) (Animal, error)
	UpdateStatus(ctx context.Context, id int64, status Status, veterinarianID *int64, at time.Time) error
	List(ctx context.Context, f ListFilter) ([]Animal, error)
	Delete(ctx context.Context, id int64) error
}

// CarePriority es el rango de orden del panel de veterinario.
func CarePriority(s Status) int {
	switch s {
	case StatusTratamiento:
		return 1
	case StatusDisponible:
		return 2
	case StatusReservado:
		return 3
	default:
		return 4
	}
}
