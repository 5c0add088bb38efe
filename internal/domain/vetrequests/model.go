package vetrequests

import (
	"strings"
	"time"

	"animal-shelter/internal/ports/directory"
)

type Status string

const (
	StatusPendiente Status = "pendiente"
	StatusAprobada  Status = "aprobada"
	StatusRechazada Status = "rechazada"
)

func ParseResolution(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == StatusAprobada || st == StatusRechazada {
		return st, true
	}
	return "", false
}

// Request es una solicitud de un usuario para ser veterinario.
type Request struct {
	ID         int64
	UserID     int64
	Experience string // experiencia
	Specialty  string // especialidad
	Status     Status
	ReviewedBy *int64

	RequestedAt time.Time
	ResolvedAt  *time.Time
}

type PendingView struct {
	Request
	User directory.Contact
}
