package history

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transition es una fila inmutable de historial_estados.
// From vacío significa ingreso (no había estado previo).
type Transition struct {
	ID       string
	AnimalID int64
	ActorID  int64

	From   string
	To     string
	Reason string

	At time.Time
}

// Encounter es una atención veterinaria (historial_medico). Inmutable.
type Encounter struct {
	ID             string
	AnimalID       int64
	VeterinarianID int64

	Type        string // tipo_atencion: consulta, vacuna, cirugía...
	Diagnosis   string
	Treatment   string
	Medications *string

	NextAppointment *time.Time // solo fecha
	Cost            decimal.Decimal
	Notes           string

	Date       time.Time // fecha_atencion (solo fecha)
	RecordedAt time.Time // fecha_registro
}

// EncounterView es el encuentro con los datos de contacto del veterinario que atendió.
type EncounterView struct {
	Encounter
	VeterinarianName  string
	VeterinarianEmail string
}
