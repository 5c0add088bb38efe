// Package respond escribe el sobre JSON {success, data, error} que consume el frontend.
package respond

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/juju/errors"
)

// Envelope es la forma de todas las respuestas de /api.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any, msg string) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: msg})
}

func Message(w http.ResponseWriter, msg string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: msg})
}

// Error traduce el tipo de error a código HTTP. Los errores de storage no exponen
// el detalle interno; se loguean con el request id.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", map[string]any{
				"request_id": middleware.GetReqID(r.Context()),
				"path":       r.URL.Path,
				"err":        err.Error(),
			})
		}
		msg = "internal error"
	}
	JSON(w, status, Envelope{Success: false, Error: msg, Kind: apperr.Kind(err)})
}

// BadRequest responde 400 con un mensaje simple (json inválido, parámetros mal formados).
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, Envelope{Success: false, Error: msg, Kind: "ValidationError"})
}

func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.Unauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.Forbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.NotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.InvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.Validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Decode lee un body JSON en v.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.NotValidf("empty body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NotValidf("json body (%v)", err)
	}
	return nil
}

// PathID lee un parámetro de ruta numérico (ids autoincrementales).
func PathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NotValidf("%s %q", name, raw)
	}
	return id, nil
}

// QueryInt lee un entero opcional del query string; vacío => def.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NotValidf("%s %q", name, raw)
	}
	return n, nil
}
