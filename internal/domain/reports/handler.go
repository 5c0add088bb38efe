package reports

import (
	"net/http"
	"time"

	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/platform/uploads"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/blob"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, photos blob.Store, log logger.Logger) {
	r.Post("/reportes", createHandler(svc, photos, log))

	admin := r.With(middleware.RequireRole(auth.RoleAdmin, log))
	admin.Get("/admin/reportes", listHandler(svc, log))
	admin.Put("/admin/reportes/{id}", reviewHandler(svc, log))
}

type createRequest struct {
	Titulo      string   `json:"titulo"`
	Descripcion string   `json:"descripcion"`
	Tipo        string   `json:"tipo"`
	Ubicacion   string   `json:"ubicacion"`
	Fotos       []string `json:"fotos"`
}

type reviewRequest struct {
	Estado     string `json:"estado" enums:"pendiente,en_revision,resuelto,descartado"`
	NotasAdmin string `json:"notas_admin"`
}

type reportResponse struct {
	ID            int64          `json:"id"`
	UsuarioID     int64          `json:"usuario_id"`
	Titulo        string         `json:"titulo"`
	Descripcion   string         `json:"descripcion"`
	TipoReporte   string         `json:"tipo_reporte"`
	Ubicacion     string         `json:"ubicacion"`
	Fotos         animals.Photos `json:"fotos" swaggertype:"array,string"`
	Estado        Status         `json:"estado"`
	NotasAdmin    string         `json:"notas_admin"`
	RevisadoPor   *int64         `json:"revisado_por"`
	FechaReporte  time.Time      `json:"fecha_reporte"`
	FechaRevision *time.Time     `json:"fecha_revision"`
	UsuarioNombre string         `json:"usuario_nombre,omitempty"`
}

// createHandler godoc
// @Summary Crear reporte
// @Description Acepta JSON o multipart/form-data con hasta 5 fotos en el campo "fotos".
// @Tags reportes
// @Accept json
// @Accept mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param payload body createRequest false "Reporte (JSON)"
// @Success 201 {object} reportResponse
// @Failure 400 {object} respond.Envelope
// @Failure 401 {object} respond.Envelope
// @Router /reportes [post]
func createHandler(svc *Service, photos blob.Store, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest

		multipart := uploads.IsMultipart(r)
		if multipart {
			if err := uploads.ParseForm(r); err != nil {
				respond.Error(w, r, log, err)
				return
			}
			req = createRequest{
				Titulo:      r.FormValue("titulo"),
				Descripcion: r.FormValue("descripcion"),
				Tipo:        r.FormValue("tipo"),
				Ubicacion:   r.FormValue("ubicacion"),
			}
		} else if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		in := CreateInput{
			Title:       req.Titulo,
			Description: req.Descripcion,
			Type:        req.Tipo,
			Location:    req.Ubicacion,
			Photos:      req.Fotos,
		}

		var stored []string
		if multipart && photos != nil {
			if err := in.Validate(); err != nil {
				respond.Error(w, r, log, err)
				return
			}
			if err := auth.Require(middleware.Claims(r.Context()), auth.RoleUsuario); err != nil {
				respond.Error(w, r, log, err)
				return
			}
			urls, err := uploads.SaveFormFiles(r.Context(), photos, r, time.Now())
			if err != nil {
				respond.Error(w, r, log, err)
				return
			}
			stored = urls
			in.Photos = urls
		}

		out, err := svc.Create(r.Context(), middleware.Claims(r.Context()), in)
		if err != nil {
			if derr := uploads.Discard(r.Context(), photos, stored); derr != nil {
				log.Warn("discard uploads failed", map[string]any{"err": derr.Error(), "photos": stored})
			}
			respond.Error(w, r, log, err)
			return
		}
		respond.Created(w, toResponse(View{Report: out}), "Reporte enviado exitosamente")
	}
}

// listHandler godoc
// @Summary Reportes (admin)
// @Tags admin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {array} reportResponse
// @Failure 403 {object} respond.Envelope
// @Router /admin/reportes [get]
func listHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.Claims(r.Context()))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		out := make([]reportResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toResponse(v))
		}
		respond.OK(w, out)
	}
}

// reviewHandler godoc
// @Summary Revisar reporte
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param id path int true "ID del reporte"
// @Param payload body reviewRequest true "Estado y notas"
// @Success 200 {object} reportResponse
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Router /admin/reportes/{id} [put]
func reviewHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		var req reviewRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		out, err := svc.Review(r.Context(), middleware.Claims(r.Context()), id, req.Estado, req.NotasAdmin)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, toResponse(View{Report: out}))
	}
}

func toResponse(v View) reportResponse {
	photos := v.Photos
	if photos == nil {
		photos = animals.Photos{}
	}
	return reportResponse{
		ID:            v.ID,
		UsuarioID:     v.UserID,
		Titulo:        v.Title,
		Descripcion:   v.Description,
		TipoReporte:   v.Type,
		Ubicacion:     v.Location,
		Fotos:         photos,
		Estado:        v.Status,
		NotasAdmin:    v.AdminNotes,
		RevisadoPor:   v.ReviewedBy,
		FechaReporte:  v.ReportedAt,
		FechaRevision: v.ReviewedAt,
		UsuarioNombre: v.UserName,
	}
}
