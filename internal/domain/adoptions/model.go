package adoptions

import (
	"strings"
	"time"

	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/ports/directory"
)

type Status string

const (
	StatusPendiente Status = "pendiente"
	StatusAprobada  Status = "aprobada"
	StatusRechazada Status = "rechazada"
)

// ParseResolution acepta solo los dos estados finales.
func ParseResolution(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusAprobada, StatusRechazada:
		return st, true
	default:
		return "", false
	}
}

type Request struct {
	ID       int64
	UserID   int64
	AnimalID int64

	Motive          string // motivo
	Housing         string // vivienda
	HasOtherAnimals bool

	Status     Status
	ReviewedBy *int64

	RequestedAt time.Time
	ResolvedAt  *time.Time
}

// PendingView es la fila del listado de pendientes del admin.
type PendingView struct {
	Request
	UserName      string
	AnimalName    string
	AnimalSpecies string
	AnimalPhotos  animals.Photos
}

// Detail es la vista completa de una solicitud.
type Detail struct {
	Request
	User   directory.Contact
	Animal animals.Animal
}
