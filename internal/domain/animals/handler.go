package animals

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/platform/uploads"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/blob"

	"github.com/go-chi/chi/v5"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// RegisterRoutes monta las rutas de animales bajo /api.
func RegisterRoutes(r chi.Router, svc *Service, photos blob.Store, log logger.Logger) {
	// Catálogo público
	r.Get("/animales", listAnimalsHandler(svc, log))
	r.Get("/animales/{id}", getAnimalHandler(svc, log))

	vet := r.With(middleware.RequireRole(auth.RoleVeterinario, log))
	vet.Get("/veterinario/animales", listForVetHandler(svc, log))
	vet.Post("/veterinario/atender", attendHandler(svc, log))
	// Sin RequireRole: el servicio valida el estado destino antes que el rol.
	r.Put("/veterinario/estado/{animalId}", setStatusHandler(svc, log))

	admin := r.With(middleware.RequireRole(auth.RoleAdmin, log))
	admin.Post("/admin/animales", intakeHandler(svc, photos, log))
	admin.Delete("/admin/animales/{id}", deleteAnimalHandler(svc, log))
}

// animalResponse es una fila de animales con fotos normalizadas.
type animalResponse struct {
	ID            int64     `json:"id"`
	Nombre        string    `json:"nombre"`
	Especie       string    `json:"especie"`
	Raza          string    `json:"raza"`
	Edad          string    `json:"edad"`
	Sexo          string    `json:"sexo"`
	Tamano        string    `json:"tamano"`
	Descripcion   string    `json:"descripcion"`
	Salud         string    `json:"salud"`
	Ubicacion     string    `json:"ubicacion"`
	Fotos         Photos    `json:"fotos" swaggertype:"array,string"`
	Estado        Status    `json:"estado"`
	VeterinarioID *int64    `json:"veterinario_id"`
	CreadoPor     int64     `json:"creado_por"`
	CreadoEn      time.Time `json:"creado_en"`
	ActualizadoEn time.Time `json:"actualizado_en"`
}

type vetAnimalResponse struct {
	animalResponse
	VeterinarioAsignado string `json:"veterinario_asignado"`
}

// intakeRequest es el cuerpo JSON del alta (también se aceptan los mismos campos en multipart).
type intakeRequest struct {
	Nombre      string   `json:"nombre"`
	Especie     string   `json:"especie"`
	Raza        string   `json:"raza"`
	Edad        string   `json:"edad"`
	Sexo        string   `json:"sexo"`
	Tamano      string   `json:"tamano"`
	Descripcion string   `json:"descripcion"`
	Salud       string   `json:"salud"`
	Ubicacion   string   `json:"ubicacion"`
	Fotos       []string `json:"fotos"`
}

type attendRequest struct {
	AnimalID     int64           `json:"animal_id"`
	TipoAtencion string          `json:"tipo_atencion"`
	Diagnostico  string          `json:"diagnostico"`
	Tratamiento  string          `json:"tratamiento"`
	Medicamentos *string         `json:"medicamentos"`
	ProximaCita  string          `json:"proxima_cita"` // YYYY-MM-DD opcional
	Costo        decimal.Decimal `json:"costo" swaggertype:"string"`
	NuevoEstado  string          `json:"nuevo_estado"`
	RazonEstado  string          `json:"razon_estado"`
}

type setStatusRequest struct {
	NuevoEstado string `json:"nuevo_estado"`
	Razon       string `json:"razon"`
}

// statusChangeResponse es el resultado de un cambio de estado.
type statusChangeResponse struct {
	AnimalID       int64  `json:"animal_id"`
	AnimalNombre   string `json:"animal_nombre"`
	EstadoAnterior Status `json:"estado_anterior"`
	EstadoNuevo    Status `json:"estado_nuevo"`
	VeterinarioID  *int64 `json:"veterinario_id"`
	RegistroID     string `json:"registro_id"`
}

type attendResponse struct {
	AtencionID   string                `json:"atencion_id"`
	CambioEstado *statusChangeResponse `json:"cambio_estado,omitempty"`
}

// listAnimalsHandler godoc
// @Summary Catálogo de animales
// @Description Lista pública, más recientes primero (máx 50). Filtros opcionales por especie, estado, tamaño y sexo.
// @Tags animales
// @Produce json
// @Param especie query string false "Especie"
// @Param estado query string false "disponible|tratamiento|reservado|adoptado"
// @Param tamano query string false "Tamaño"
// @Param sexo query string false "Sexo"
// @Success 200 {array} animalResponse
// @Failure 400 {object} respond.Envelope
// @Failure 500 {object} respond.Envelope
// @Router /animales [get]
func listAnimalsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := ListFilter{
			Species: q.Get("especie"),
			Size:    q.Get("tamano"),
			Sex:     q.Get("sexo"),
		}
		if raw := strings.TrimSpace(q.Get("estado")); raw != "" {
			st, ok := ParseStatus(raw)
			if !ok {
				respond.Error(w, r, log, errors.NotValidf("estado %q", raw))
				return
			}
			f.Status = st
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		respond.OK(w, out)
	}
}

// getAnimalHandler godoc
// @Summary Perfil de un animal
// @Tags animales
// @Produce json
// @Param id path int true "ID del animal"
// @Success 200 {object} animalResponse
// @Failure 404 {object} respond.Envelope
// @Router /animales/{id} [get]
func getAnimalHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		a, err := svc.Get(r.Context(), id)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, toAnimalResponse(a))
	}
}

// listForVetHandler godoc
// @Summary Panel del veterinario
// @Description Animales por prioridad de atención (tratamiento, disponible, reservado, resto), luego más recientes. Máx 50. Incluye el veterinario asignado o "Sin asignar".
// @Tags veterinario
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param estado query string false "Filtrar por estado"
// @Success 200 {array} vetAnimalResponse
// @Failure 401 {object} respond.Envelope
// @Failure 403 {object} respond.Envelope
// @Router /veterinario/animales [get]
func listForVetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListForVeterinarian(r.Context(), middleware.Claims(r.Context()), r.URL.Query().Get("estado"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		out := make([]vetAnimalResponse, 0, len(items))
		for _, v := range items {
			out = append(out, vetAnimalResponse{
				animalResponse:      toAnimalResponse(v.Animal),
				VeterinarioAsignado: v.AssignedVeterinarian,
			})
		}
		respond.OK(w, out)
	}
}

// attendHandler godoc
// @Summary Atender animal
// @Description Registra una atención en el historial médico y, si viene nuevo_estado, cambia el estado del animal en la misma transacción.
// @Tags veterinario
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param payload body attendRequest true "Atención"
// @Success 200 {object} attendResponse
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "Transición no permitida"
// @Router /veterinario/atender [post]
func attendHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attendRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var next *time.Time
		if s := strings.TrimSpace(req.ProximaCita); s != "" {
			t, err := time.Parse(time.DateOnly, s)
			if err != nil {
				respond.BadRequest(w, "proxima_cita must be YYYY-MM-DD")
				return
			}
			next = &t
		}

		var newStatus Status
		if s := strings.TrimSpace(req.NuevoEstado); s != "" {
			st, ok := ParseStatus(s)
			if !ok {
				respond.Error(w, r, log, errors.NotValidf("nuevo_estado %q", s))
				return
			}
			newStatus = st
		}

		out, err := svc.RecordEncounter(r.Context(), middleware.Claims(r.Context()), req.AnimalID, EncounterInput{
			Type:            req.TipoAtencion,
			Diagnosis:       req.Diagnostico,
			Treatment:       req.Tratamiento,
			Medications:     req.Medicamentos,
			NextAppointment: next,
			Cost:            req.Costo,
			NewStatus:       newStatus,
			Reason:          req.RazonEstado,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		resp := attendResponse{AtencionID: out.Encounter.ID}
		msg := "Atención registrada exitosamente"
		if out.Transition != nil {
			sc := toStatusChangeResponse(*out.Transition)
			resp.CambioEstado = &sc
			msg += fmt.Sprintf(" y estado cambiado a: %s", out.Transition.To)
		}
		respond.Message(w, msg, resp)
	}
}

// setStatusHandler godoc
// @Summary Cambiar estado de un animal
// @Description Cambio directo de estado por un veterinario. Solo disponible, tratamiento o reservado.
// @Tags veterinario
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param animalId path int true "ID del animal"
// @Param payload body setStatusRequest true "Nuevo estado y razón"
// @Success 200 {object} statusChangeResponse
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "Estado no permitido"
// @Router /veterinario/estado/{animalId} [put]
func setStatusHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animalID, err := respond.PathID(r, "animalId")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		var req setStatusRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		to := Status(strings.ToLower(strings.TrimSpace(req.NuevoEstado)))
		res, err := svc.SetStatus(r.Context(), middleware.Claims(r.Context()), animalID, to, req.Razon)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		msg := fmt.Sprintf("Estado cambiado de %q a %q", res.From, res.To)
		respond.Message(w, msg, toStatusChangeResponse(res))
	}
}

// intakeHandler godoc
// @Summary Ingresar animal
// @Description Alta de un animal (estado tratamiento, sin veterinario). Acepta JSON o multipart/form-data con hasta 5 fotos de 5MB en el campo "fotos".
// @Tags admin
// @Accept json
// @Accept mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param payload body intakeRequest false "Datos del animal (JSON)"
// @Success 201 {object} animalResponse
// @Failure 400 {object} respond.Envelope
// @Failure 403 {object} respond.Envelope
// @Router /admin/animales [post]
func intakeHandler(svc *Service, photos blob.Store, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req intakeRequest

		multipart := uploads.IsMultipart(r)
		if multipart {
			if err := uploads.ParseForm(r); err != nil {
				respond.Error(w, r, log, err)
				return
			}
			req = intakeRequest{
				Nombre:      r.FormValue("nombre"),
				Especie:     r.FormValue("especie"),
				Raza:        r.FormValue("raza"),
				Edad:        r.FormValue("edad"),
				Sexo:        r.FormValue("sexo"),
				Tamano:      r.FormValue("tamano"),
				Descripcion: r.FormValue("descripcion"),
				Salud:       r.FormValue("salud"),
				Ubicacion:   r.FormValue("ubicacion"),
			}
		} else if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		in := IntakeInput{
			Name:        req.Nombre,
			Species:     req.Especie,
			Breed:       req.Raza,
			Age:         req.Edad,
			Sex:         req.Sexo,
			Size:        req.Tamano,
			Description: req.Descripcion,
			Health:      req.Salud,
			Location:    req.Ubicacion,
			Photos:      req.Fotos,
		}

		// Las fotos se guardan solo con un alta válida.
		var stored []string
		if multipart && photos != nil {
			if err := in.Validate(); err != nil {
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

		a, err := svc.Intake(r.Context(), middleware.Claims(r.Context()), in)
		if err != nil {
			if derr := uploads.Discard(r.Context(), photos, stored); derr != nil {
				log.Warn("discard uploads failed", map[string]any{"err": derr.Error(), "photos": stored})
			}
			respond.Error(w, r, log, err)
			return
		}
		respond.Created(w, toAnimalResponse(a), "Animal agregado exitosamente")
	}
}

// deleteAnimalHandler godoc
// @Summary Eliminar animal
// @Tags admin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Param id path int true "ID del animal"
// @Success 200 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Router /admin/animales/{id} [delete]
func deleteAnimalHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.Claims(r.Context()), id); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.Message(w, "Animal eliminado", nil)
	}
}

func toAnimalResponse(a Animal) animalResponse {
	photos := a.Photos
	if photos == nil {
		photos = Photos{}
	}
	return animalResponse{
		ID:            a.ID,
		Nombre:        a.Name,
		Especie:       a.Species,
		Raza:          a.Breed,
		Edad:          a.Age,
		Sexo:          a.Sex,
		Tamano:        a.Size,
		Descripcion:   a.Description,
		Salud:         a.Health,
		Ubicacion:     a.Location,
		Fotos:         photos,
		Estado:        a.Status,
		VeterinarioID: a.VeterinarianID,
		CreadoPor:     a.CreatedBy,
		CreadoEn:      a.CreatedAt,
		ActualizadoEn: a.UpdatedAt,
	}
}

func toStatusChangeResponse(res TransitionResult) statusChangeResponse {
	return statusChangeResponse{
		AnimalID:       res.AnimalID,
		AnimalNombre:   res.AnimalName,
		EstadoAnterior: res.From,
		EstadoNuevo:    res.To,
		VeterinarioID:  res.VeterinarianID,
		RegistroID:     res.Record.ID,
	}
}
