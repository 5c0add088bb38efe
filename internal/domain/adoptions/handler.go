package adoptions

import (
	"net/http"
	"time"

	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Post("/adopciones", submitHandler(svc, log))

	admin := r.With(middleware.RequireRole(auth.RoleAdmin, log))
	admin.Get("/admin/adopciones", listPendingHandler(svc, log))
	admin.Get("/admin/adopciones/{id}", getDetailHandler(svc, log))
	admin.Put("/admin/adopciones/{id}", resolveHandler(svc, log))
}

type submitRequest struct {
	AnimalID           int64  `json:"animal_id"`
	Motivo             string `json:"motivo"`
	Vivienda           string `json:"vivienda"`
	TieneOtrosAnimales bool   `json:"tiene_otros_animales"`
}

type resolveRequest struct {
	Estado string `json:"estado" enums:"aprobada,rechazada"`
}

// adoptionResponse es una fila de adopciones.
type adoptionResponse struct {
	ID                 int64      `json:"id"`
	UsuarioID          int64      `json:"usuario_id"`
	AnimalID           int64      `json:"animal_id"`
	Motivo             string     `json:"motivo"`
	Vivienda           string     `json:"vivienda"`
	TieneOtrosAnimales bool       `json:"tiene_otros_animales"`
	Estado             Status     `json:"estado"`
	RevisadoPor        *int64     `json:"revisado_por"`
	FechaSolicitud     time.Time  `json:"fecha_solicitud"`
	FechaResolucion    *time.Time `json:"fecha_resolucion"`
}

type pendingResponse struct {
	adoptionResponse
	UsuarioNombre string         `json:"usuario_nombre"`
	AnimalNombre  string         `json:"animal_nombre"`
	Especie       string         `json:"especie"`
	Fotos         animals.Photos `json:"fotos" swaggertype:"array,string"`
}

type detailResponse struct {
	adoptionResponse
	UsuarioNombre     string `json:"usuario_nombre"`
	UsuarioEmail      string `json:"usuario_email"`
	UsuarioTelefono   string `json:"usuario_telefono"`
	AnimalNombre      string `json:"animal_nombre"`
	Especie           string `json:"especie"`
	Raza              string `json:"raza"`
	Edad              string `json:"edad"`
	Sexo              string `json:"sexo"`
	Tamano            string `json:"tamano"`
	AnimalDescripcion string `json:"animal_descripcion"`
}

// submitHandler godoc
// @Summary Solicitar adopción
// @Description Registra una solicitud pendiente y reserva el animal. Un animal adoptado no admite solicitudes.
// @Tags adopciones
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param payload body submitRequest true "Solicitud"
// @Success 201 {object} adoptionResponse
// @Failure 400 {object} respond.Envelope
// @Failure 401 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "Animal no adoptable"
// @Router /adopciones [post]
func submitHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		out, err := svc.Submit(r.Context(), middleware.Claims(r.Context()), RequestInput{
			AnimalID:        req.AnimalID,
			Motive:          req.Motivo,
			Housing:         req.Vivienda,
			HasOtherAnimals: req.TieneOtrosAnimales,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.Created(w, toAdoptionResponse(out), "Solicitud de adopción enviada. Un administrador la revisará.")
	}
}

// listPendingHandler godoc
// @Summary Adopciones pendientes
// @Tags admin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {array} pendingResponse
// @Failure 403 {object} respond.Envelope
// @Router /admin/adopciones [get]
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
				adoptionResponse: toAdoptionResponse(v.Request),
				UsuarioNombre:    v.UserName,
				AnimalNombre:     v.AnimalName,
				Especie:          v.AnimalSpecies,
				Fotos:            v.AnimalPhotos,
			})
		}
		respond.OK(w, out)
	}
}

// getDetailHandler godoc
// @Summary Detalle de una adopción
// @Tags admin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param id path int true "ID de la solicitud"
// @Success 200 {object} detailResponse
// @Failure 404 {object} respond.Envelope
// @Router /admin/adopciones/{id} [get]
func getDetailHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		d, err := svc.Get(r.Context(), middleware.Claims(r.Context()), id)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, detailResponse{
			adoptionResponse:  toAdoptionResponse(d.Request),
			UsuarioNombre:     d.User.Name,
			UsuarioEmail:      d.User.Email,
			UsuarioTelefono:   d.User.Phone,
			AnimalNombre:      d.Animal.Name,
			Especie:           d.Animal.Species,
			Raza:              d.Animal.Breed,
			Edad:              d.Animal.Age,
			Sexo:              d.Animal.Sex,
			Tamano:            d.Animal.Size,
			AnimalDescripcion: d.Animal.Description,
		})
	}
}

// resolveHandler godoc
// @Summary Aprobar o rechazar adopción
// @Description Aprobar marca el animal como adoptado y registra la transición. Rechazar no modifica el animal.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param id path int true "ID de la solicitud"
// @Param payload body resolveRequest true "Resolución"
// @Success 200 {object} adoptionResponse
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "Solicitud ya resuelta"
// @Router /admin/adopciones/{id} [put]
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
		respond.OK(w, toAdoptionResponse(out))
	}
}

func toAdoptionResponse(a Request) adoptionResponse {
	return adoptionResponse{
		ID:                 a.ID,
		UsuarioID:          a.UserID,
		AnimalID:           a.AnimalID,
		Motivo:             a.Motive,
		Vivienda:           a.Housing,
		TieneOtrosAnimales: a.HasOtherAnimals,
		Estado:             a.Status,
		RevisadoPor:        a.ReviewedBy,
		FechaSolicitud:     a.RequestedAt,
		FechaResolucion:    a.ResolvedAt,
	}
}
