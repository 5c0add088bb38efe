package animals

import "animal-shelter/internal/ports/auth"

// Trigger es la acción que origina un cambio de estado.
type Trigger string

const (
	TriggerIntake           Trigger = "intake"
	TriggerVeterinary       Trigger = "veterinary"
	TriggerAdoptionRequest  Trigger = "adoption_request"
	TriggerAdoptionApproval Trigger = "adoption_approval"
)

// MinRole es el rol mínimo que puede disparar el trigger.
func (t Trigger) MinRole() auth.Role {
	switch t {
	case TriggerIntake, TriggerAdoptionApproval:
		return auth.RoleAdmin
	case TriggerVeterinary:
		return auth.RoleVeterinario
	default:
		return auth.RoleUsuario
	}
}

type edge struct {
	from, to Status
	trigger  Trigger
}

// transitions es la tabla cerrada de cambios permitidos. Lo que no está aquí es InvalidTransition.
var transitions = buildTransitions()

func buildTransitions() map[edge]struct{} {
	t := map[edge]struct{}{}
	add := func(trigger Trigger, from []Status, to ...Status) {
		for _, f := range from {
			for _, s := range to {
				t[edge{from: f, to: s, trigger: trigger}] = struct{}{}
			}
		}
	}

	active := []Status{StatusDisponible, StatusTratamiento, StatusReservado}

	add(TriggerIntake, []Status{statusNone}, StatusTratamiento)
	add(TriggerVeterinary, active, active...)
	// adoptado es terminal salvo decisión explícita del veterinario (devolución, recaída).
	add(TriggerVeterinary, []Status{StatusAdoptado}, StatusTratamiento, StatusDisponible)
	add(TriggerAdoptionRequest, active, StatusReservado)
	add(TriggerAdoptionApproval, active, StatusAdoptado)
	return t
}

// Allowed consulta la tabla.
func Allowed(from, to Status, trigger Trigger) bool {
	_, ok := transitions[edge{from: from, to: to, trigger: trigger}]
	return ok
}
