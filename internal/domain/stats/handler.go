package stats

import (
	"net/http"

	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.With(middleware.RequireRole(auth.RoleUsuario, log)).Get("/estadisticas", generalHandler(svc, log))
	r.With(middleware.RequireRole(auth.RoleVeterinario, log)).Get("/veterinario/dashboard-stats", vetHandler(svc, log))
}

type generalResponse struct {
	TotalAnimales          int64 `json:"total_animales"`
	AnimalesDisponibles    int64 `json:"animales_disponibles"`
	AnimalesAdoptados      int64 `json:"animales_adoptados"`
	ReportesPendientes     int64 `json:"reportes_pendientes"`
	AdopcionesPendientes   int64 `json:"adopciones_pendientes"`
	VeterinariosPendientes int64 `json:"veterinarios_pendientes"`
}

type vetResponse struct {
	EnTratamiento     int64  `json:"en_tratamiento"`
	Disponibles       int64  `json:"disponibles"`
	HistorialTotal    int64  `json:"historial_total"`
	Asignados         int64  `json:"asignados"`
	UltimaSemana      int64  `json:"ultima_semana"`
	VeterinarioNombre string `json:"veterinario_nombre"`
}

// generalHandler godoc
// @Summary Estadísticas generales
// @Tags estadisticas
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {object} generalResponse
// @Failure 401 {object} respond.Envelope
// @Router /estadisticas [get]
func generalHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.General(r.Context(), middleware.Claims(r.Context()))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, generalResponse{
			TotalAnimales:          g.TotalAnimals,
			AnimalesDisponibles:    g.Available,
			AnimalesAdoptados:      g.Adopted,
			ReportesPendientes:     g.PendingReports,
			AdopcionesPendientes:   g.PendingAdoptions,
			VeterinariosPendientes: g.PendingVetReqs,
		})
	}
}

// vetHandler godoc
// @Summary Panel del veterinario
// @Tags veterinario
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {object} vetResponse
// @Failure 403 {object} respond.Envelope
// @Failure 500 {object} respond.Envelope
// @Router /veterinario/dashboard-stats [get]
func vetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Veterinarian(r.Context(), middleware.Claims(r.Context()))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, vetResponse{
			EnTratamiento:     v.InTreatment,
			Disponibles:       v.Available,
			HistorialTotal:    v.EncountersAll,
			Asignados:         v.Assigned,
			UltimaSemana:      v.EncountersWeek,
			VeterinarioNombre: v.Name,
		})
	}
}
