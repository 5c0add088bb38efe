// Package apperr define los tipos de error que los servicios exponen a la capa HTTP.
// Se apoya en las constantes de github.com/juju/errors para que errors.Is funcione
// tanto con los errores creados aquí como con los NotFoundf/NotValidf de los adapters.
package apperr

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	Unauthorized      = errors.Unauthorized
	Forbidden         = errors.Forbidden
	NotFound          = errors.NotFound
	Validation        = errors.NotValid
	InvalidTransition = errors.ConstError("invalid transition")
	Storage           = errors.ConstError("storage error")
)

// Storagef envuelve un fallo del store. Si el error ya es NotFound se devuelve tal cual,
// para que el llamador pueda seguir distinguiéndolo.
func Storagef(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, NotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), Storage, err)
}

// Transitionf crea un error InvalidTransition con mensaje.
func Transitionf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), InvalidTransition)
}

// Kind devuelve el nombre estable del tipo de error (útil para logs y respuestas).
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, Unauthorized):
		return "Unauthorized"
	case errors.Is(err, Forbidden):
		return "Forbidden"
	case errors.Is(err, NotFound):
		return "NotFound"
	case errors.Is(err, InvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, Validation):
		return "ValidationError"
	default:
		return "StorageError"
	}
}
