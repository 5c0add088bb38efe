package history

import (
	"net/http"
	"time"

	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// RegisterRoutes monta las rutas de lectura del historial bajo /api.
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/veterinario/historial/{animalId}", getHistoryHandler(svc, log))
	r.Get("/animales/{id}/transiciones", listTransitionsHandler(svc, log))
}

// encounterResponse es una fila de historial_medico con el veterinario que atendió.
type encounterResponse struct {
	ID                string          `json:"id"`
	AnimalID          int64           `json:"animal_id"`
	VeterinarioID     int64           `json:"veterinario_id"`
	TipoAtencion      string          `json:"tipo_atencion"`
	Diagnostico       string          `json:"diagnostico"`
	Tratamiento       string          `json:"tratamiento"`
	Medicamentos      *string         `json:"medicamentos"`
	ProximaCita       *string         `json:"proxima_cita"` // YYYY-MM-DD
	Costo             decimal.Decimal `json:"costo" swaggertype:"string"`
	Notas             string          `json:"notas"`
	FechaAtencion     string          `json:"fecha_atencion"` // YYYY-MM-DD
	FechaRegistro     time.Time       `json:"fecha_registro"`
	VeterinarioNombre string          `json:"veterinario_nombre"`
	VeterinarioEmail  string          `json:"veterinario_email"`
}

// transitionResponse es una fila de historial_estados.
type transitionResponse struct {
	ID             string    `json:"id"`
	AnimalID       int64     `json:"animal_id"`
	UsuarioID      int64     `json:"usuario_id"`
	EstadoAnterior string    `json:"estado_anterior"`
	EstadoNuevo    string    `json:"estado_nuevo"`
	Razon          string    `json:"razon"`
	Fecha          time.Time `json:"fecha"`
}

// getHistoryHandler godoc
// @Summary Historial médico de un animal
// @Description Atenciones veterinarias del animal, más recientes primero, con nombre y email del veterinario. Requiere rol veterinario.
// @Tags veterinario
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (usuario|veterinario|admin)"
// @Param animalId path int true "ID del animal"
// @Param limit query int false "Máximo de atenciones (default 20, máx 100)"
// @Success 200 {array} encounterResponse
// @Failure 400 {object} respond.Envelope
// @Failure 401 {object} respond.Envelope
// @Failure 403 {object} respond.Envelope
// @Router /veterinario/historial/{animalId} [get]
func getHistoryHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animalID, err := respond.PathID(r, "animalId")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		limit, err := respond.QueryInt(r, "limit", DefaultHistoryLimit)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		items, err := svc.GetHistory(r.Context(), middleware.Claims(r.Context()), animalID, limit)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		out := make([]encounterResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEncounterResponse(e))
		}
		respond.OK(w, out)
	}
}

// listTransitionsHandler godoc
// @Summary Línea de estados de un animal
// @Description Registros de cambio de estado (historial_estados), más recientes primero. Requiere rol veterinario.
// @Tags veterinario
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param id path int true "ID del animal"
// @Param limit query int false "Máximo de registros (default 50, máx 100)"
// @Success 200 {array} transitionResponse
// @Failure 401 {object} respond.Envelope
// @Failure 403 {object} respond.Envelope
// @Router /animales/{id}/transiciones [get]
func listTransitionsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animalID, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		limit, err := respond.QueryInt(r, "limit", DefaultTransitionsLimit)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		items, err := svc.ListTransitions(r.Context(), middleware.Claims(r.Context()), animalID, limit)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		out := make([]transitionResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toTransitionResponse(t))
		}
		respond.OK(w, out)
	}
}

func toEncounterResponse(e EncounterView) encounterResponse {
	var next *string
	if e.NextAppointment != nil {
		s := e.NextAppointment.Format(time.DateOnly)
		next = &s
	}
	return encounterResponse{
		ID:                e.ID,
		AnimalID:          e.AnimalID,
		VeterinarioID:     e.VeterinarianID,
		TipoAtencion:      e.Type,
		Diagnostico:       e.Diagnosis,
		Tratamiento:       e.Treatment,
		Medicamentos:      e.Medications,
		ProximaCita:       next,
		Costo:             e.Cost,
		Notas:             e.Notes,
		FechaAtencion:     e.Date.Format(time.DateOnly),
		FechaRegistro:     e.RecordedAt,
		VeterinarioNombre: e.VeterinarianName,
		VeterinarioEmail:  e.VeterinarianEmail,
	}
}

func toTransitionResponse(t Transition) transitionResponse {
	return transitionResponse{
		ID:             t.ID,
		AnimalID:       t.AnimalID,
		UsuarioID:      t.ActorID,
		EstadoAnterior: t.From,
		EstadoNuevo:    t.To,
		Razon:          t.Reason,
		Fecha:          t.At,
	}
}
