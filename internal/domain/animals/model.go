package animals

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDisponible  Status = "disponible"
	StatusTratamiento Status = "tratamiento"
	StatusReservado   Status = "reservado"
	StatusAdoptado    Status = "adoptado"

	// statusNone es el "estado anterior" de un ingreso.
	statusNone Status = ""
)

// ParseStatus acepta solo los cuatro estados conocidos.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusDisponible, StatusTratamiento, StatusReservado, StatusAdoptado:
		return st, true
	default:
		return "", false
	}
}

// VeterinarianSettable indica si un veterinario puede fijar este estado directamente.
// adoptado solo se alcanza aprobando una adopción.
func (s Status) VeterinarianSettable() bool {
	switch s {
	case StatusDisponible, StatusTratamiento, StatusReservado:
		return true
	default:
		return false
	}
}

type Animal struct {
	ID int64

	Name        string // nombre
	Species     string // especie
	Breed       string // raza
	Age         string // edad (texto libre: "2 años", "cachorro")
	Sex         string
	Size        string // tamano
	Description string
	Health      string // salud
	Location    string // ubicacion

	Photos Photos
	Status Status

	// VeterinarianID es el veterinario a cargo (último que cambió el estado por atención).
	VeterinarianID *int64
	CreatedBy      int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VetView es la fila del panel de veterinario.
type VetView struct {
	Animal
	AssignedVeterinarian string // nombre o "Sin asignar"
}

const unassignedVeterinarian = "Sin asignar"
