package history

import "context"

type Repository interface {
	AppendTransition(ctx context.Context, t Transition) error
	AppendEncounter(ctx context.Context, e Encounter) error

	// ListEncounters ordena por fecha_atencion DESC, fecha_registro DESC.
	ListEncounters(ctx context.Context, animalID int64, limit int) ([]Encounter, error)
	// ListTransitions ordena por fecha DESC.
	ListTransitions(ctx context.Context, animalID int64, limit int) ([]Transition, error)
}

// StaffDirectory resuelve nombre y email de un usuario (veterinario) para mostrar.
type StaffDirectory interface {
	DisplayName(ctx context.Context, userID int64) (name, email string, err error)
}
