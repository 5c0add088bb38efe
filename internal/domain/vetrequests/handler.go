package vetrequests

import (
	"net/http"
	"time"

	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Post("/solicitar-veterinario", submitHandler(svc, log))

	admin := r.With(middleware.RequireRole(auth.RoleAdmin, log))
	admin.Get("/admin/solicitudes-veterinario", listPendingHandler(svc, log))
	admin.Put("/admin/solicitudes-veterinario/{id}", resolveHandler(svc, log))
}

type submitRequest struct {
	Experiencia  string `json:"experiencia"`
	Especialidad string `json:"especialidad"`
}

type resolveRequest struct {
	Estado string `json:"estado" enums:"aprobada,rechazada"`
}

type vetRequestResponse struct {
	ID              int64      `json:"id"`
	UsuarioID       int64      `json:"usuario_id"`
	Experiencia     string     `json:"experiencia"`
	Especialidad    string     `json:"especialidad"`
	Estado          Status     `json:"estado"`
	RevisadoPor     *int64     `json:"revisado_por"`
	FechaSolicitud  time.Time  `json:"fecha_solicitud"`
	FechaResolucion *time.Time `json:"fecha_resolucion"`
}

type pendingResponse struct {
	vetRequestResponse
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
}

// submitHandler godoc
// @Summary Solicitar ser veterinario
// @Tags veterinario
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param payload body submitRequest true "Experiencia y especialidad"
// @Success 201 {object} vetRequestResponse
// @Failure 400 {object} respond.Envelope
// @Failure 401 {object} respond.Envelope
// @Router /solicitar-veterinario [post]
func submitHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		out, err := svc.Submit(r.Context(), middleware.Claims(r.Context()), req.Experiencia, req.Especialidad)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.Created(w, toResponse(out), "Solicitud enviada. Un administrador la revisará pronto.")
	}
}

// listPendingHandler godoc
// @Summary Solicitudes de veterinario pendientes
// @Tags admin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {array} pendingResponse
// @Failure 403 {object} respond.Envelope
// @Router /admin/solicitudes-veterinario [get]
func listPendingHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPending(r.Context(), middleware.Claims(r.Context()))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		out := make([]pendingResponse, 0, len(items))
		for _, v := range items {
			out = append(out, pendingResponse{
				vetRequestResponse: toResponse(v.Request),
				Nombre:             v.User.Name,
				Email:              v.User.Email,
				Telefono:           v.User.Phone,
			})
		}
		respond.OK(w, out)
	}
}

// resolveHandler godoc
// @Summary Aprobar o rechazar solicitud de veterinario
// @Description Aprobar cambia el tipo del usuario a veterinario.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param id path int true "ID de la solicitud"
// @Param payload body resolveRequest true "Resolución"
// @Success 200 {object} vetRequestResponse
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope
// @Router /admin/solicitudes-veterinario/{id} [put]
func resolveHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		var req resolveRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		out, err := svc.Resolve(r.Context(), middleware.Claims(r.Context()), id, req.Estado)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, toResponse(out))
	}
}

func toResponse(v Request) vetRequestResponse {
	return vetRequestResponse{
		ID:              v.ID,
		UsuarioID:       v.UserID,
		Experiencia:     v.Experience,
		Especialidad:    v.Specialty,
		Estado:          v.Status,
		RevisadoPor:     v.ReviewedBy,
		FechaSolicitud:  v.RequestedAt,
		FechaResolucion: v.ResolvedAt,
	}
}
